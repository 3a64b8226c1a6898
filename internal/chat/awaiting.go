package chat

import (
	"encoding/json"
	"fmt"

	"capture-chat/internal/resolve"
)

// Awaiting is the single outstanding question. The next turn is read as an
// answer to it and never as a fresh intent.
type Awaiting interface {
	awaitingType() string
}

// ConfirmCandidate asks "Use X as the <slot>?" for a heuristic guess.
type ConfirmCandidate struct {
	Slot      Slot           `json:"slot"`
	Candidate resolve.Option `json:"candidate"`
}

// ChooseOption offers a fixed set of values for a slot.
type ChooseOption struct {
	Slot    Slot             `json:"slot"`
	Options []resolve.Option `json:"options"`
}

// FreeText asks an open question for a slot.
type FreeText struct {
	Slot Slot `json:"slot"`
}

// ChooseFlow disambiguates what kind of record the user meant.
type ChooseFlow struct {
	Choices []FlowKind `json:"choices"`
}

// KeepOrRemove decides the fate of a list item being converted.
type KeepOrRemove struct {
	ListItemID string `json:"listItemId"`
}

// EscapeHatch offers capturing in the list after a refused required slot.
type EscapeHatch struct {
	Slot Slot `json:"slot"`
}

func (ConfirmCandidate) awaitingType() string { return "confirm_candidate" }
func (ChooseOption) awaitingType() string     { return "choose_option" }
func (FreeText) awaitingType() string         { return "free_text" }
func (ChooseFlow) awaitingType() string       { return "choose_flow" }
func (KeepOrRemove) awaitingType() string     { return "keep_or_remove" }
func (EscapeHatch) awaitingType() string      { return "escape_hatch" }

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeAwaiting(a Awaiting) (json.RawMessage, error) {
	if a == nil {
		return json.RawMessage("null"), nil
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode awaiting: %w", err)
	}
	return json.Marshal(envelope{Type: a.awaitingType(), Payload: payload})
}

func decodeAwaiting(data json.RawMessage) (Awaiting, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode awaiting: %w", err)
	}
	var a Awaiting
	switch env.Type {
	case "confirm_candidate":
		var v ConfirmCandidate
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return nil, fmt.Errorf("decode awaiting %s: %w", env.Type, err)
		}
		a = v
	case "choose_option":
		var v ChooseOption
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return nil, fmt.Errorf("decode awaiting %s: %w", env.Type, err)
		}
		a = v
	case "free_text":
		var v FreeText
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return nil, fmt.Errorf("decode awaiting %s: %w", env.Type, err)
		}
		a = v
	case "choose_flow":
		var v ChooseFlow
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return nil, fmt.Errorf("decode awaiting %s: %w", env.Type, err)
		}
		a = v
	case "keep_or_remove":
		var v KeepOrRemove
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return nil, fmt.Errorf("decode awaiting %s: %w", env.Type, err)
		}
		a = v
	case "escape_hatch":
		var v EscapeHatch
		if err := json.Unmarshal(env.Payload, &v); err != nil {
			return nil, fmt.Errorf("decode awaiting %s: %w", env.Type, err)
		}
		a = v
	default:
		return nil, fmt.Errorf("decode awaiting: unknown type %q", env.Type)
	}
	return a, nil
}
