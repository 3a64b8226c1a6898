package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"capture-chat/internal/chat"
	"capture-chat/internal/export"
)

func newSayCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "say <text...>",
		Short: "Send one message to the conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return a.runTurn(cmd, func(ctx context.Context, conv *chat.Conversation) (*chat.Session, error) {
				return conv.Say(ctx, text)
			})
		},
	}
}

func newActCommand(a *app) *cobra.Command {
	var label string
	var pick int
	cmd := &cobra.Command{
		Use:   "act [action] [value]",
		Short: "Click an action offered by the latest reply",
		Long: `act sends a structured action. Use --pick N to choose the Nth option
listed under the latest reply, or name the action directly:

  capture act yes
  capture act answer c1 --label "Acme Corp"
  capture act confirm`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTurn(cmd, func(ctx context.Context, conv *chat.Conversation) (*chat.Session, error) {
				action, err := resolveAction(ctx, conv, args, label, pick)
				if err != nil {
					return nil, err
				}
				return conv.Do(ctx, action)
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Label echoed into the transcript")
	cmd.Flags().IntVar(&pick, "pick", 0, "Choose the Nth option of the latest reply")
	return cmd
}

func resolveAction(ctx context.Context, conv *chat.Conversation, args []string, label string, pick int) (chat.Action, error) {
	if pick > 0 {
		s, err := conv.Session(ctx)
		if err != nil {
			return chat.Action{}, err
		}
		last, ok := s.LastAssistant()
		if !ok || pick > len(last.Actions) {
			return chat.Action{}, fmt.Errorf("no option %d in the latest reply", pick)
		}
		return last.Actions[pick-1], nil
	}
	if len(args) == 0 {
		return chat.Action{}, fmt.Errorf("name an action or pass --pick")
	}

	action := chat.Action{Action: chat.ActionType(strings.ToLower(args[0]))}
	if len(args) > 1 {
		action.Value = args[1]
	}
	action.Label = label
	if action.Label == "" {
		action.Label = action.Value
	}
	return action, nil
}

func newEditCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <field> <value>",
		Short: "Change one field of the pending proposal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTurn(cmd, func(ctx context.Context, conv *chat.Conversation) (*chat.Session, error) {
				return conv.Edit(ctx, args[0], args[1])
			})
		},
	}
}

func newResetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Start the conversation over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTurn(cmd, func(ctx context.Context, conv *chat.Conversation) (*chat.Session, error) {
				return conv.Reset(ctx)
			})
		},
	}
}

func newShowCommand(a *app) *cobra.Command {
	var toggles chat.TranscriptToggles
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the conversation transcript as markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := a.conversation()
			if err != nil {
				return err
			}
			s, err := conv.Session(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), export.BuildTranscriptMarkdown(s.Messages, toggles))
			return nil
		},
	}
	cmd.Flags().BoolVar(&toggles.IncludeProposals, "proposals", true, "Include proposal cards")
	cmd.Flags().BoolVar(&toggles.IncludeRepeats, "repeats", false, "Include repeated prompts")
	return cmd
}

func newExportCommand(a *app) *cobra.Command {
	var toggles chat.TranscriptToggles
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the conversation transcript to a markdown file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := a.conversation()
			if err != nil {
				return err
			}
			s, err := conv.Session(cmd.Context())
			if err != nil {
				return err
			}
			exp, err := export.New(a.cfg.ExportDir)
			if err != nil {
				return err
			}
			path, err := exp.Export(conv.Key(), s, toggles, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&toggles.IncludeProposals, "proposals", true, "Include proposal cards")
	cmd.Flags().BoolVar(&toggles.IncludeRepeats, "repeats", false, "Include repeated prompts")
	return cmd
}

// runTurn plays one turn against the stored session and prints the replies
// it produced.
func (a *app) runTurn(cmd *cobra.Command, play func(context.Context, *chat.Conversation) (*chat.Session, error)) error {
	conv, err := a.conversation()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	before, err := conv.Session(ctx)
	if err != nil {
		return err
	}
	after, err := play(ctx, conv)
	if err != nil {
		return err
	}
	printReplies(cmd.OutOrStdout(), newReplies(before, after))
	return nil
}

// newReplies returns the assistant messages in after that before lacks. A
// reset replaces every message, so it yields the whole new transcript.
func newReplies(before, after *chat.Session) []chat.Message {
	seen := make(map[string]bool, len(before.Messages))
	for _, m := range before.Messages {
		seen[m.ID] = true
	}
	var out []chat.Message
	for _, m := range after.Messages {
		if !seen[m.ID] && m.Role == chat.RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}

func printReplies(w io.Writer, replies []chat.Message) {
	for _, m := range replies {
		fmt.Fprintln(w, strings.TrimSpace(m.Body))
		for i, act := range m.Actions {
			hint := string(act.Action)
			if act.Value != "" {
				hint += " " + act.Value
			}
			fmt.Fprintf(w, "  %d. %s  (%s)\n", i+1, act.Label, hint)
		}
		fmt.Fprintln(w)
	}
}
