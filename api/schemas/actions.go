package schemas

import (
	"encoding/json"
	"fmt"
)

// ActionType discriminates the browser action variants on the wire.
type ActionType string

const (
	ActionClick             ActionType = "CLICK"
	ActionTypeText          ActionType = "TYPE"
	ActionGotoURL           ActionType = "GOTO_URL"
	ActionEnterTextAndClick ActionType = "ENTER_TEXT_AND_CLICK"
	ActionScroll            ActionType = "SCROLL"
	ActionHover             ActionType = "HOVER"
	ActionNewTab            ActionType = "NEW_TAB"
	ActionGoBack            ActionType = "GO_BACK"
	ActionGoForward         ActionType = "GO_FORWARD"
	ActionPageClose         ActionType = "PAGE_CLOSE"
	ActionKeyPress          ActionType = "KEY_PRESS"
	ActionStop              ActionType = "STOP"
)

// Action is the closed set of elementary browser operations a task may
// perform. New variants require a case in every switch that dispatches on
// the concrete type; executors must reject any type they do not recognize.
type Action interface {
	// Kind returns the wire discriminator for the variant.
	Kind() ActionType
}

// ClickAction clicks the element annotated with the given wfid.
type ClickAction struct {
	WFID int `json:"wfid"`
	// WaitBeforeSeconds delays the click, for pages that re-render on load.
	WaitBeforeSeconds float64 `json:"wait_before_execution,omitempty"`
}

func (ClickAction) Kind() ActionType { return ActionClick }

// TypeAction focuses the element with the given wfid and types Content into it.
type TypeAction struct {
	WFID    int    `json:"wfid"`
	Content string `json:"content"`
}

func (TypeAction) Kind() ActionType { return ActionTypeText }

// GotoURLAction navigates the current page to Website.
type GotoURLAction struct {
	Website string `json:"website"`
	// TimeoutSeconds bounds the navigation; zero means the configured default.
	TimeoutSeconds float64 `json:"timeout,omitempty"`
}

func (GotoURLAction) Kind() ActionType { return ActionGotoURL }

// EnterTextAndClickAction types into one element and then clicks another,
// the common search-box-plus-submit idiom, as a single unit.
type EnterTextAndClickAction struct {
	TextWFID   int     `json:"text_element_wfid"`
	Text       string  `json:"text_to_enter"`
	ClickWFID  int     `json:"click_element_wfid"`
	WaitBefore float64 `json:"wait_before_click_execution,omitempty"`
}

func (EnterTextAndClickAction) Kind() ActionType { return ActionEnterTextAndClick }

// ScrollAction scrolls the page. Direction is "up" or "down".
type ScrollAction struct {
	Direction string `json:"direction"`
}

func (ScrollAction) Kind() ActionType { return ActionScroll }

// HoverAction moves the pointer over the element with the given wfid.
type HoverAction struct {
	WFID int `json:"wfid"`
}

func (HoverAction) Kind() ActionType { return ActionHover }

// NewTabAction opens a fresh blank tab and switches to it.
type NewTabAction struct{}

func (NewTabAction) Kind() ActionType { return ActionNewTab }

// GoBackAction navigates one entry back in the tab history.
type GoBackAction struct{}

func (GoBackAction) Kind() ActionType { return ActionGoBack }

// GoForwardAction navigates one entry forward in the tab history.
type GoForwardAction struct{}

func (GoForwardAction) Kind() ActionType { return ActionGoForward }

// PageCloseAction closes the current tab.
type PageCloseAction struct{}

func (PageCloseAction) Kind() ActionType { return ActionPageClose }

// KeyPressAction sends a key or key combination, e.g. "Enter" or
// "press [Control+a]".
type KeyPressAction struct {
	KeySpec string `json:"action_str"`
}

func (KeyPressAction) Kind() ActionType { return ActionKeyPress }

// StopAction declares the objective finished and carries the final answer.
// A task consisting of a single StopAction terminates the search branch.
type StopAction struct {
	Answer string `json:"answer"`
}

func (StopAction) Kind() ActionType { return ActionStop }

// actionEnvelope is the wire form of an Action: the variant's own fields
// plus a "type" discriminator.
type actionEnvelope struct {
	Type ActionType `json:"type"`
}

// MarshalAction encodes a single action as a discriminated JSON object.
func MarshalAction(a Action) ([]byte, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, err := json.Marshal(a.Kind())
	if err != nil {
		return nil, err
	}
	fields["type"] = kind
	return json.Marshal(fields)
}

// UnmarshalAction decodes a discriminated JSON object into the matching
// concrete variant. Unknown discriminators are an error, never a silent skip.
func UnmarshalAction(data []byte) (Action, error) {
	var env actionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding action envelope: %w", err)
	}
	switch env.Type {
	case ActionClick:
		return decodeAction[ClickAction](data, env.Type)
	case ActionTypeText:
		return decodeAction[TypeAction](data, env.Type)
	case ActionGotoURL:
		return decodeAction[GotoURLAction](data, env.Type)
	case ActionEnterTextAndClick:
		return decodeAction[EnterTextAndClickAction](data, env.Type)
	case ActionScroll:
		return decodeAction[ScrollAction](data, env.Type)
	case ActionHover:
		return decodeAction[HoverAction](data, env.Type)
	case ActionNewTab:
		return NewTabAction{}, nil
	case ActionGoBack:
		return GoBackAction{}, nil
	case ActionGoForward:
		return GoForwardAction{}, nil
	case ActionPageClose:
		return PageCloseAction{}, nil
	case ActionKeyPress:
		return decodeAction[KeyPressAction](data, env.Type)
	case ActionStop:
		return decodeAction[StopAction](data, env.Type)
	default:
		return nil, fmt.Errorf("unknown action type %q", env.Type)
	}
}

func decodeAction[T Action](data []byte, kind ActionType) (Action, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding %s action: %w", kind, err)
	}
	return v, nil
}

// ActionList is a JSON-transparent slice of heterogeneous actions.
type ActionList []Action

// MarshalJSON implements json.Marshaler.
func (l ActionList) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, 0, len(l))
	for _, a := range l {
		b, err := MarshalAction(a)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}
	return json.Marshal(raw)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *ActionList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ActionList, 0, len(raw))
	for _, r := range raw {
		a, err := UnmarshalAction(r)
		if err != nil {
			return err
		}
		out = append(out, a)
	}
	*l = out
	return nil
}
