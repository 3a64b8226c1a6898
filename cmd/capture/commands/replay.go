package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"capture-chat/internal/chat"
	"capture-chat/internal/records"
	"capture-chat/internal/replay"
	"capture-chat/internal/store"
)

// replayBackend is what a replay needs from a store.
type replayBackend interface {
	records.Directory
	records.Commands
	chat.SessionStore
	DeleteSession(ctx context.Context, key string) error
}

func newReplayCommand(a *app) *cobra.Command {
	var memory bool
	var fixtures string
	var keep bool
	cmd := &cobra.Command{
		Use:   "replay <script.jsonl|dir>...",
		Short: "Play JSONL turn scripts through the conversation",
		Long: `replay feeds each line of a JSONL script into the conversation as a typed
message, a clicked action or a proposal edit, and prints the replies.
Each script runs in its own session named after the file. With --memory the
records live in memory, loaded from --fixtures, and nothing is written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := a.replayBackend(memory, fixtures)
			if err != nil {
				return err
			}

			var scripts []string
			for _, arg := range args {
				found, err := replay.Discover(arg)
				if err != nil {
					return err
				}
				scripts = append(scripts, found...)
			}
			if len(scripts) == 0 {
				return fmt.Errorf("no .jsonl scripts found")
			}

			for _, path := range scripts {
				if err := a.replayScript(cmd.Context(), cmd.OutOrStdout(), backend, path, keep); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&memory, "memory", false, "Use an in-memory store instead of the database")
	cmd.Flags().StringVar(&fixtures, "fixtures", "", "YAML fixtures for the in-memory store")
	cmd.Flags().BoolVar(&keep, "keep", false, "Continue the script's saved session instead of starting fresh")
	return cmd
}

func (a *app) replayBackend(memory bool, fixtures string) (replayBackend, error) {
	if !memory {
		db, err := a.openStore()
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	var f store.Fixtures
	if fixtures != "" {
		loaded, err := store.LoadFixtures(fixtures)
		if err != nil {
			return nil, err
		}
		f = loaded
	}
	return store.NewMemory(f), nil
}

func (a *app) replayScript(ctx context.Context, w io.Writer, backend replayBackend, path string, keep bool) error {
	steps, err := replay.Load(path)
	if err != nil {
		return err
	}
	key := "replay:" + strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !keep {
		if err := backend.DeleteSession(ctx, key); err != nil {
			return fmt.Errorf("clear session %s: %w", key, err)
		}
	}

	log := a.log.With(zap.String("script", path))
	clock := &replay.Clock{}
	eng := chat.NewEngine(backend, backend, chat.WithClock(clock.Now), chat.WithLogger(log))
	runner := replay.NewRunner(chat.NewConversation(eng, backend, key), clock, log)

	fmt.Fprintf(w, "== %s (%d steps)\n\n", path, len(steps))
	_, err = runner.Run(ctx, steps, func(turn replay.Turn) {
		fmt.Fprintf(w, "> %s\n", turn.Step)
		printReplies(w, turn.Replies)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
