package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Conversation binds an engine to one persisted session. Each call loads
// the session, runs a single turn and saves it back.
type Conversation struct {
	engine *Engine
	store  SessionStore
	key    string
	log    *zap.Logger
}

func NewConversation(engine *Engine, store SessionStore, key string) *Conversation {
	return &Conversation{
		engine: engine,
		store:  store,
		key:    key,
		log:    engine.log.With(zap.String("session", key)),
	}
}

func (c *Conversation) Key() string { return c.key }

// Session returns the stored session, starting a new one with the greeting
// when nothing has been saved yet.
func (c *Conversation) Session(ctx context.Context) (*Session, error) {
	raw, err := c.store.LoadSession(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", c.key, err)
	}
	if len(raw) == 0 {
		s := NewSession()
		c.engine.Welcome(s)
		return s, nil
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", c.key, err)
	}
	return &s, nil
}

// Open loads the session and persists it so the greeting is stored.
func (c *Conversation) Open(ctx context.Context) (*Session, error) {
	return c.turn(ctx, "open", func(context.Context, *Session) error { return nil })
}

func (c *Conversation) Say(ctx context.Context, text string) (*Session, error) {
	return c.turn(ctx, "text", func(ctx context.Context, s *Session) error {
		return c.engine.HandleText(ctx, s, text)
	})
}

func (c *Conversation) Do(ctx context.Context, a Action) (*Session, error) {
	return c.turn(ctx, "action", func(ctx context.Context, s *Session) error {
		return c.engine.HandleAction(ctx, s, a)
	})
}

func (c *Conversation) Edit(ctx context.Context, field, value string) (*Session, error) {
	return c.turn(ctx, "edit", func(ctx context.Context, s *Session) error {
		return c.engine.EditProposal(ctx, s, field, value)
	})
}

func (c *Conversation) Reset(ctx context.Context) (*Session, error) {
	return c.Do(ctx, Action{Action: ActReset, Label: "Start over"})
}

// turn saves only when the handler succeeds, so a failed turn leaves the
// stored session as it was.
func (c *Conversation) turn(ctx context.Context, kind string, handle func(context.Context, *Session) error) (*Session, error) {
	s, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}
	before := len(s.Messages)
	if err := handle(ctx, s); err != nil {
		c.log.Warn("turn failed", zap.String("turn", kind), zap.Error(err))
		return nil, err
	}
	if err := c.save(ctx, s); err != nil {
		return nil, err
	}
	c.log.Debug("turn complete",
		zap.String("turn", kind),
		zap.String("flow", string(s.Flow.Kind)),
		zap.Int("new_messages", len(s.Messages)-before))
	return s, nil
}

func (c *Conversation) save(ctx context.Context, s *Session) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", c.key, err)
	}
	if err := c.store.SaveSession(ctx, c.key, body); err != nil {
		return fmt.Errorf("save session %s: %w", c.key, err)
	}
	return nil
}
