package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxsizer/internal/classify"
	"github.com/teemow/inboxsizer/internal/logging"
	"github.com/teemow/inboxsizer/internal/review"
	"github.com/teemow/inboxsizer/internal/tools/batch"
)

const tableSubjectRunes = 60

// fileResult is the output of classify --file.
type fileResult struct {
	Messages []classify.Message `json:"emails"`
	Failures []batch.Result     `json:"failures"`
}

func newClassifyCmd() *cobra.Command {
	var (
		pageToken string
		asJSON    bool
		files     []string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify one page of unlabeled inbox messages",
		Long: `Fetch one page of inbox messages that carry none of the size labels,
estimate their reading length and check them for paywalls. Nothing is changed
in Gmail; use 'apply' to label the messages afterwards.

With --file, saved .eml messages are classified locally instead and Gmail is
not contacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if len(files) > 0 {
				res := classifyFiles(ctx, rt.sc.OfflineService(), files)
				if asJSON {
					return writeJSON(out, res)
				}
				printMessages(out, res.Messages)
				printFailures(out, res.Failures)
				return nil
			}

			svc, err := rt.sc.ReviewService(rt.cfg.Account)
			if err != nil {
				return err
			}
			b, err := svc.FetchBatch(ctx, pageToken)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, b)
			}
			printBatch(out, b)
			return nil
		},
	}

	cmd.Flags().StringVar(&pageToken, "page-token", "", "Continue from the nextPageToken of a previous run")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().StringSliceVar(&files, "file", nil, "Classify saved .eml files instead of the inbox (repeatable)")

	return cmd
}

func classifyFiles(ctx context.Context, svc *review.Service, paths []string) fileResult {
	records := make([]classify.Message, len(paths))
	type item struct {
		idx  int
		path string
	}
	items := make([]item, len(paths))
	for i, p := range paths {
		items[i] = item{idx: i, path: p}
	}

	results := batch.ProcessEach(ctx, items, svc.Parallelism(),
		func(it item) string { return it.path },
		func(ctx context.Context, it item) (string, error) {
			rec, err := svc.ClassifyFile(ctx, it.path)
			if err != nil {
				return "", err
			}
			records[it.idx] = rec
			return string(rec.SuggestedLabel), nil
		})

	res := fileResult{Messages: []classify.Message{}, Failures: []batch.Result{}}
	for i, r := range results {
		if r.Succeeded() {
			res.Messages = append(res.Messages, records[i])
		} else {
			res.Failures = append(res.Failures, r)
		}
	}
	return res
}

func printBatch(w io.Writer, b *review.Batch) {
	printMessages(w, b.Messages)
	for _, f := range b.Failures {
		fmt.Fprintf(w, "failed to fetch %s: %v\n", f.ID, f.Err)
	}
	fmt.Fprintf(w, "\nbatch %s", b.ID)
	if b.NextPageToken != "" {
		fmt.Fprintf(w, ", next page: --page-token %s", b.NextPageToken)
	}
	fmt.Fprintln(w)
}

func printMessages(w io.Writer, msgs []classify.Message) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tWORDS\tPAYWALL\tSUBJECT")
	for _, m := range msgs {
		paywall := "-"
		if m.IsPaywall {
			paywall = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			m.ID, m.SuggestedLabel, m.WordCount, paywall, logging.Truncate(m.Subject, tableSubjectRunes))
	}
	_ = tw.Flush()
}

func printFailures(w io.Writer, failures []batch.Result) {
	for _, f := range failures {
		fmt.Fprintf(w, "failed to classify %s: %s\n", f.ID, f.Error)
	}
}
