package chat

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoProposal   = errors.New("no pending proposal")
	ErrUnknownField = errors.New("unknown proposal field")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type MessageKind string

const (
	KindText     MessageKind = "text"
	KindProposal MessageKind = "proposal"
)

type ActionType string

const (
	ActCancel      ActionType = "cancel"
	ActConfirm     ActionType = "confirm"
	ActEdit        ActionType = "edit"
	ActView        ActionType = "view"
	ActReset       ActionType = "reset"
	ActAnswer      ActionType = "answer"
	ActYes         ActionType = "yes"
	ActNo          ActionType = "no"
	ActSearch      ActionType = "search"
	ActCaptureList ActionType = "capture_list"
	ActKeepGoing   ActionType = "keep_going"
	ActNavigate    ActionType = "navigate"
)

// Action is a clickable affordance attached to a message.
type Action struct {
	Action ActionType `json:"action"`
	Value  string     `json:"value,omitempty"`
	Label  string     `json:"label"`
}

type Message struct {
	ID        string      `json:"id"`
	Role      Role        `json:"role"`
	Kind      MessageKind `json:"kind"`
	Body      string      `json:"body"`
	Actions   []Action    `json:"actions,omitempty"`
	Proposal  *Proposal   `json:"proposal,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Session is one conversation thread. It is owned by a single caller and is
// persisted wholesale after every turn.
type Session struct {
	Messages          []Message `json:"messages"`
	Flow              Flow      `json:"flow"`
	PendingProposalID string    `json:"pendingProposalId,omitempty"`
	LastListItemID    string    `json:"lastListItemId,omitempty"`
}

func NewSession() *Session {
	return &Session{Flow: newFlow(FlowNone, "")}
}

// Pending returns the proposal message awaiting confirm or cancel.
func (s *Session) Pending() (*Message, bool) {
	if s.PendingProposalID == "" {
		return nil, false
	}
	for i := range s.Messages {
		if s.Messages[i].ID == s.PendingProposalID && s.Messages[i].Proposal != nil {
			return &s.Messages[i], true
		}
	}
	return nil, false
}

func (s *Session) removeMessage(id string) {
	for i := range s.Messages {
		if s.Messages[i].ID == id {
			s.Messages = append(s.Messages[:i], s.Messages[i+1:]...)
			return
		}
	}
}

func (s *Session) dropPending() {
	if s.PendingProposalID == "" {
		return
	}
	s.removeMessage(s.PendingProposalID)
	s.PendingProposalID = ""
}

// LastAssistant is the newest assistant message, if any.
func (s *Session) LastAssistant() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// SessionStore persists encoded sessions under a key. Load returns nil, nil
// when nothing has been saved yet.
type SessionStore interface {
	LoadSession(ctx context.Context, key string) ([]byte, error)
	SaveSession(ctx context.Context, key string, body []byte) error
}
