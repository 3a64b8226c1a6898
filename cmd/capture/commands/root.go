package commands

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"capture-chat/internal/chat"
	"capture-chat/internal/clipboard"
	"capture-chat/internal/config"
	"capture-chat/internal/export"
	"capture-chat/internal/logging"
	"capture-chat/internal/store"
	"capture-chat/internal/ui"
)

// app holds what PersistentPreRunE resolved for the running command.
type app struct {
	flags config.Flags
	cfg   config.AppConfig
	log   *zap.Logger
	db    *store.SQLite
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture tasks, list items and time through a short chat",
		Long: `capture turns short typed requests ("remind me to renew the domain",
"log 45m to the login bug") into confirmed records through a guided chat.
Run without a subcommand to open the chat UI.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.Home, "home", "", "Capture home directory (default $CAPTURE_HOME or ~/.capture)")
	pf.StringVar(&a.flags.DBPath, "db-path", "", "SQLite database path")
	pf.StringVar(&a.flags.ExportDir, "export-dir", "", "Directory for markdown exports")
	pf.StringVar(&a.flags.SessionKey, "session", "", "Conversation key to load and save")
	pf.BoolVarP(&a.flags.Verbose, "verbose", "v", false, "Write debug logs")

	rootCmd.AddCommand(
		newSayCommand(a),
		newActCommand(a),
		newEditCommand(a),
		newResetCommand(a),
		newShowCommand(a),
		newExportCommand(a),
		newSeedCommand(a),
		newReplayCommand(a),
		newTimerCommand(a),
		newSessionsCommand(a),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) setup() error {
	cfg, err := config.Resolve(a.flags)
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}
	a.cfg = cfg

	logger, err := logging.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = logger
	a.log.Debug("config resolved",
		zap.String("home", cfg.Home),
		zap.String("db", cfg.DBPath),
		zap.String("session", cfg.SessionKey))
	return nil
}

func (a *app) teardown() {
	if a.db != nil {
		if err := a.db.Close(); err != nil && a.log != nil {
			a.log.Warn("close database", zap.Error(err))
		}
		a.db = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// openStore opens the database on first use so commands that never touch it
// (replay --memory) do not create one.
func (a *app) openStore() (*store.SQLite, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := store.Open(a.cfg.DBPath, false)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db
	return db, nil
}

// conversation wires the engine to the database under the configured key.
func (a *app) conversation(opts ...chat.Option) (*chat.Conversation, error) {
	db, err := a.openStore()
	if err != nil {
		return nil, err
	}
	opts = append([]chat.Option{chat.WithLogger(a.log)}, opts...)
	eng := chat.NewEngine(db, db, opts...)
	return chat.NewConversation(eng, db, a.cfg.SessionKey), nil
}

func (a *app) runTUI() error {
	conv, err := a.conversation()
	if err != nil {
		return err
	}
	exp, err := export.New(a.cfg.ExportDir)
	if err != nil {
		return err
	}

	p := tea.NewProgram(ui.NewModel(a.cfg, conv, exp, clipboard.Default()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
