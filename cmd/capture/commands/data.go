package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"capture-chat/internal/records"
	"capture-chat/internal/store"
)

func newSeedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Load directory records from a YAML fixture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := store.LoadFixtures(args[0])
			if err != nil {
				return err
			}
			db, err := a.openStore()
			if err != nil {
				return err
			}
			if err := db.Seed(cmd.Context(), f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"Seeded %d companies, %d people, %d team members, %d jobs, %d tasks, %d list items\n",
				len(f.Companies), len(f.People), len(f.TeamMembers), len(f.Jobs),
				len(f.QuickTasks)+len(f.JobTasks), len(f.ListItems))
			return nil
		},
	}
}

func newTimerCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "timer",
		Short: "Show the running timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			state, err := db.Timer(ctx)
			if err != nil {
				return err
			}
			if !state.Active {
				fmt.Fprintln(cmd.OutOrStdout(), "No timer running.")
				return nil
			}
			title, err := taskTitle(cmd, db, state.TaskID)
			if err != nil {
				return err
			}
			elapsed := time.Since(state.StartedAt).Round(time.Minute)
			fmt.Fprintf(cmd.OutOrStdout(), "Timer running on %s since %s (%s)\n",
				title, state.StartedAt.Local().Format("2006-01-02 15:04"), elapsed)
			return nil
		},
	}
}

// taskTitle names the task a timer points at, falling back to its id.
func taskTitle(cmd *cobra.Command, db *store.SQLite, id string) (string, error) {
	ctx := cmd.Context()
	quick, err := db.QuickTasks(ctx)
	if err != nil {
		return "", err
	}
	jobs, err := db.JobTasks(ctx)
	if err != nil {
		return "", err
	}
	refs := make([]records.TaskRef, 0, len(quick)+len(jobs))
	for _, q := range quick {
		refs = append(refs, q.Ref())
	}
	for _, j := range jobs {
		refs = append(refs, j.Ref())
	}
	for _, r := range refs {
		if r.ID == id {
			return fmt.Sprintf("%q", r.Title), nil
		}
	}
	return id, nil
}

func newSessionsCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sessions [query]",
		Short: "List saved conversations, optionally matching a search",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openStore()
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			list, err := db.ListSessions(cmd.Context(), query, limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions found")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SESSION\tUPDATED\tMESSAGES\tPREVIEW")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.Key, s.UpdatedAt.Local().Format("2006-01-02 15:04"), s.MessageCount, s.Preview)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum sessions to list")
	return cmd
}
