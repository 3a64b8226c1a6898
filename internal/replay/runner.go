package replay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"capture-chat/internal/chat"
)

// Clock follows wall time until a step pins it, then stays at the pinned
// instant until the next pin.
type Clock struct {
	mu     sync.Mutex
	pinned *time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pinned != nil {
		return *c.pinned
	}
	return time.Now()
}

func (c *Clock) Pin(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pinned = &t
}

// Turn is one replayed step and the assistant messages it produced.
type Turn struct {
	Step    Step
	Replies []chat.Message
}

type Runner struct {
	conv  *chat.Conversation
	clock *Clock
	log   *zap.Logger
}

// NewRunner expects the conversation's engine to read time from clock.
func NewRunner(conv *chat.Conversation, clock *Clock, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{conv: conv, clock: clock, log: log}
}

// Run plays steps in order and stops at the first error. onTurn may be nil.
func (r *Runner) Run(ctx context.Context, steps []Step, onTurn func(Turn)) (*chat.Session, error) {
	s, err := r.conv.Open(ctx)
	if err != nil {
		return nil, err
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		if step.At != nil {
			r.clock.Pin(*step.At)
		}

		seen := make(map[string]bool, len(s.Messages))
		for _, m := range s.Messages {
			seen[m.ID] = true
		}

		next, err := r.play(ctx, step)
		if err != nil {
			r.log.Warn("replay step failed", zap.Int("line", step.Line), zap.Error(err))
			return s, fmt.Errorf("replay line %d: %w", step.Line, err)
		}
		s = next

		turn := Turn{Step: step}
		for _, m := range s.Messages {
			if !seen[m.ID] && m.Role == chat.RoleAssistant {
				turn.Replies = append(turn.Replies, m)
			}
		}
		r.log.Debug("replayed step", zap.Int("line", step.Line), zap.String("step", string(step.Kind)), zap.Int("replies", len(turn.Replies)))
		if onTurn != nil {
			onTurn(turn)
		}
	}
	return s, nil
}

func (r *Runner) play(ctx context.Context, step Step) (*chat.Session, error) {
	switch step.Kind {
	case StepAction:
		return r.conv.Do(ctx, step.Action)
	case StepEdit:
		return r.conv.Edit(ctx, step.Field, step.Value)
	default:
		return r.conv.Say(ctx, step.Text)
	}
}
