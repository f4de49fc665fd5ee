package schemas

import "context"

// ModelTier selects a class of language model rather than a concrete model
// name. Callers request a tier and the router resolves it to whatever model
// the configuration binds to that tier.
type ModelTier string

const (
	// TierFast is for cheap, high-volume calls such as per-task critiques.
	TierFast ModelTier = "fast"
	// TierPowerful is for calls where reasoning quality dominates cost,
	// such as proposing the next browser tasks.
	TierPowerful ModelTier = "powerful"
)

// ImageAttachment is an inline image sent alongside a prompt, typically a
// viewport screenshot. Data is standard base64 without a data-URI prefix.
type ImageAttachment struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// GenerationOptions carries per-request overrides for a generation call.
type GenerationOptions struct {
	// ForceJSONFormat asks the provider for a JSON response MIME type.
	// The parsing layer still tolerates markdown-fenced output.
	ForceJSONFormat bool
	// Temperature overrides the configured sampling temperature when >= 0.
	Temperature float64
}

// GenerationRequest is a single multimodal completion request.
type GenerationRequest struct {
	SystemPrompt string
	UserPrompt   string
	Images       []ImageAttachment
	Tier         ModelTier
	Options      *GenerationOptions
}

// LLMClient is the minimal contract for a text generation backend.
type LLMClient interface {
	// Generate performs a completion and returns the raw model text.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// ModelIdentifier returns the provider/model string used for logging.
	ModelIdentifier() string
}
