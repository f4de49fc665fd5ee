// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	LLM     LLMRouterConfig `mapstructure:"llm" yaml:"llm"`
	Search  SearchConfig    `mapstructure:"search" yaml:"search"`
	Output  OutputConfig    `mapstructure:"output" yaml:"output"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the shared headless browser session.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	Homepage          string        `mapstructure:"homepage" yaml:"homepage"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	// ActionRetries is how many times a single elementary action is retried
	// before the whole task step is declared failed.
	ActionRetries    int           `mapstructure:"action_retries" yaml:"action_retries"`
	ActionRetryDelay time.Duration `mapstructure:"action_retry_delay" yaml:"action_retry_delay"`
	// ObservationRetries bounds the independent retry loops for DOM text,
	// URL and screenshot harvesting after a step settles.
	ObservationRetries    int           `mapstructure:"observation_retries" yaml:"observation_retries"`
	ObservationRetryDelay time.Duration `mapstructure:"observation_retry_delay" yaml:"observation_retry_delay"`
	ViewportWidth         int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight        int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	Args                  []string      `mapstructure:"args" yaml:"args"`
	Debug                 bool          `mapstructure:"debug" yaml:"debug"`
	// MaxWebTextLength truncates the annotated page text handed to the
	// language models. Zero means no truncation.
	MaxWebTextLength int `mapstructure:"max_web_text_length" yaml:"max_web_text_length"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
)

// LLMRouterConfig configures the model routing logic.
type LLMRouterConfig struct {
	DefaultFastModel     string                    `mapstructure:"default_fast_model" yaml:"default_fast_model"`
	DefaultPowerfulModel string                    `mapstructure:"default_powerful_model" yaml:"default_powerful_model"`
	Models               map[string]LLMModelConfig `mapstructure:"models" yaml:"models"`
}

// LLMModelConfig defines the configuration for a single LLM.
type LLMModelConfig struct {
	Provider    LLMProvider   `mapstructure:"provider" yaml:"provider"`
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	TopP        float32       `mapstructure:"top_p" yaml:"top_p"`
	TopK        int           `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	// RequestsPerMinute throttles outbound calls to this model. Zero
	// disables client-side throttling.
	RequestsPerMinute float64 `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// SearchConfig tunes the tree search itself.
type SearchConfig struct {
	Iterations        int     `mapstructure:"iterations" yaml:"iterations"`
	DepthLimit        int     `mapstructure:"depth_limit" yaml:"depth_limit"`
	ExplorationWeight float64 `mapstructure:"exploration_weight" yaml:"exploration_weight"`
	// TerminalThreshold is the vision matching score above which a state
	// counts as having met the objective.
	TerminalThreshold float64 `mapstructure:"terminal_threshold" yaml:"terminal_threshold"`
	// SimulateStrategy picks the child during rollout: "max", "sample" or
	// "random".
	SimulateStrategy string `mapstructure:"simulate_strategy" yaml:"simulate_strategy"`
	// MaxNegativeFastRewards aborts a rollout once this many children of the
	// current node carry negative preliminary scores.
	MaxNegativeFastRewards int     `mapstructure:"max_negative_fast_rewards" yaml:"max_negative_fast_rewards"`
	StepPenalty            float64 `mapstructure:"step_penalty" yaml:"step_penalty"`
	TerminalReward         float64 `mapstructure:"terminal_reward" yaml:"terminal_reward"`
	// OutputStrategy selects which path seeds the result: "max_reward",
	// "max_iter", "last_iter" or "last_terminal_iter".
	OutputStrategy string `mapstructure:"output_strategy" yaml:"output_strategy"`
	// TraceEachIteration keeps a snapshot of every non-terminal iteration
	// path for later inspection. Memory-hungry on long runs.
	TraceEachIteration bool `mapstructure:"trace_each_iteration" yaml:"trace_each_iteration"`
}

// OutputConfig controls what the run writes to disk besides logs.
type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
	// TaskID names the per-run output subdirectory. Empty means a random
	// identifier is generated at startup.
	TaskID          string `mapstructure:"task_id" yaml:"task_id"`
	WriteDPOPairs   bool   `mapstructure:"write_dpo_pairs" yaml:"write_dpo_pairs"`
	WriteFailTraces bool   `mapstructure:"write_fail_traces" yaml:"write_fail_traces"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "wayfind")
	v.SetDefault("logger.log_file", "wayfind.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.homepage", "https://www.google.com")
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.action_timeout", "30s")
	v.SetDefault("browser.action_retries", 3)
	v.SetDefault("browser.action_retry_delay", "1s")
	v.SetDefault("browser.observation_retries", 3)
	v.SetDefault("browser.observation_retry_delay", "1s")
	v.SetDefault("browser.viewport_width", 1440)
	v.SetDefault("browser.viewport_height", 900)
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.max_web_text_length", 20000)

	// -- LLM --
	v.SetDefault("llm.default_fast_model", "gemini-2.5-flash")
	v.SetDefault("llm.default_powerful_model", "gemini-2.5-pro")

	// -- Search --
	v.SetDefault("search.iterations", 10)
	v.SetDefault("search.depth_limit", 6)
	v.SetDefault("search.exploration_weight", 1.0)
	v.SetDefault("search.terminal_threshold", 0.85)
	v.SetDefault("search.simulate_strategy", "max")
	v.SetDefault("search.max_negative_fast_rewards", 3)
	v.SetDefault("search.step_penalty", -0.01)
	v.SetDefault("search.terminal_reward", 1.0)
	v.SetDefault("search.output_strategy", "max_reward")
	v.SetDefault("search.trace_each_iteration", false)

	// -- Output --
	v.SetDefault("output.dir", "output")
	v.SetDefault("output.write_dpo_pairs", true)
	v.SetDefault("output.write_fail_traces", true)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	v.BindEnv("llm.models.fast.api_key", "WAYFIND_GEMINI_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("llm.models.powerful.api_key", "WAYFIND_GEMINI_API_KEY", "GEMINI_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Search.Validate(); err != nil {
		return fmt.Errorf("search configuration invalid: %w", err)
	}
	if c.Browser.ActionRetries <= 0 {
		return fmt.Errorf("browser.action_retries must be a positive integer")
	}
	if c.Browser.ObservationRetries <= 0 {
		return fmt.Errorf("browser.observation_retries must be a positive integer")
	}
	if c.Browser.Homepage == "" {
		return fmt.Errorf("browser.homepage is a required configuration field")
	}
	return nil
}

// Validate checks the SearchConfig settings.
func (s *SearchConfig) Validate() error {
	if s.Iterations <= 0 {
		return fmt.Errorf("iterations must be greater than 0")
	}
	if s.DepthLimit <= 0 {
		return fmt.Errorf("depth_limit must be greater than 0")
	}
	if s.ExplorationWeight < 0 {
		return fmt.Errorf("exploration_weight must not be negative")
	}
	if s.TerminalThreshold < 0.0 || s.TerminalThreshold > 1.0 {
		return fmt.Errorf("terminal_threshold must be between 0.0 and 1.0")
	}
	switch s.SimulateStrategy {
	case "max", "sample", "random":
	default:
		return fmt.Errorf("simulate_strategy must be one of max, sample, random")
	}
	switch s.OutputStrategy {
	case "max_reward", "max_iter", "last_iter", "last_terminal_iter":
	default:
		return fmt.Errorf("output_strategy must be one of max_reward, max_iter, last_iter, last_terminal_iter")
	}
	if s.StepPenalty >= 0 {
		return fmt.Errorf("step_penalty must be negative")
	}
	return nil
}
