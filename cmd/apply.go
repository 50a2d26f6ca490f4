package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxsizer/internal/review"
	"github.com/teemow/inboxsizer/internal/tools/batch"
)

// decisionsFile is the input of the apply command. It matches the body of
// POST /api/label.
type decisionsFile struct {
	LabelsToApply []review.Decision `json:"labelsToApply"`
	BatchID       string            `json:"batchId,omitempty"`
}

func newApplyCmd() *cobra.Command {
	var decisionsPath string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply reviewer decisions to messages",
		Long: `Apply size labels, archive or skip messages according to a decisions file:

  {"labelsToApply": [{"id": "18c1...", "label": "Long"}, {"id": "18c2...", "label": "archive"}]}

Valid labels are Short, Medium, Long, XL, skip and archive. Use "-" to read
the decisions from stdin. Failed decisions do not stop the others; the
command exits non-zero if any failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			decisions, err := readDecisions(decisionsPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			svc, err := rt.sc.ReviewService(rt.cfg.Account)
			if err != nil {
				return err
			}
			results := svc.Apply(ctx, decisions)
			fmt.Fprintln(cmd.OutOrStdout(), batch.FormatResults(results))

			if summary := batch.Summarize(results); summary.Failed > 0 {
				return fmt.Errorf("%d of %d decisions failed", summary.Failed, summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&decisionsPath, "decisions", "", "Decisions JSON file, or - for stdin")
	_ = cmd.MarkFlagRequired("decisions")

	return cmd
}

func readDecisions(path string, stdin io.Reader) ([]review.Decision, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read decisions: %w", err)
	}

	var f decisionsFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse decisions: %w", err)
	}
	if len(f.LabelsToApply) == 0 {
		return nil, errors.New("labelsToApply is empty")
	}
	for i := range f.LabelsToApply {
		if f.LabelsToApply[i].ID == "" {
			return nil, fmt.Errorf("labelsToApply[%d].id is required", i)
		}
		if f.LabelsToApply[i].BatchID == "" {
			f.LabelsToApply[i].BatchID = f.BatchID
		}
	}
	return f.LabelsToApply, nil
}
