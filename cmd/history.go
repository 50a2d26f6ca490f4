package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxsizer/internal/store"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently applied decisions",
		Long: `List the most recent label, archive and skip actions applied through
apply, the MCP tools or the review API, newest first. Skipped messages are
not recorded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if _, err := newLogger(cfg); err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("history is disabled; set history.enabled to true")
			}

			s, err := store.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer s.Close()

			decisions, err := s.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), decisions)
			}
			printHistory(cmd.OutOrStdout(), decisions)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of decisions to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

func printHistory(w io.Writer, decisions []store.Decision) {
	if len(decisions) == 0 {
		fmt.Fprintln(w, "No decisions recorded yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "APPLIED\tACTION\tMESSAGE\tBATCH")
	for _, d := range decisions {
		batchID := d.BatchID
		if batchID == "" {
			batchID = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			d.AppliedAt.Local().Format(time.DateTime), d.Action, d.MessageID, batchID)
	}
	_ = tw.Flush()
}
