package review

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxsizer/internal/classify"
	"github.com/teemow/inboxsizer/internal/instrumentation"
	"github.com/teemow/inboxsizer/internal/logging"
	"github.com/teemow/inboxsizer/internal/store"
	"github.com/teemow/inboxsizer/internal/tools/batch"
)

// ErrNoSink is returned when Apply is called on a read-only service.
var ErrNoSink = errors.New("no label sink configured")

// Decision is one reviewer choice: a size label, "skip" or "archive".
type Decision struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	BatchID string `json:"batchId,omitempty"`
}

// Apply applies every decision with the same concurrency bound as
// FetchBatch and returns one result per decision in input order. Invalid
// actions fail their own item without an API call.
func (s *Service) Apply(ctx context.Context, decisions []Decision) []batch.Result {
	ctx, span := instrumentation.StartSpan(ctx, "review.apply",
		attribute.Int(instrumentation.SpanAttrBatchSize, len(decisions)))
	defer span.End()

	results := batch.ProcessEach(ctx, decisions, s.concurrency(),
		func(d Decision) string { return d.ID },
		s.applyOne)

	failed := 0
	for _, r := range results {
		if !r.Succeeded() {
			failed++
		}
	}
	span.SetAttributes(attribute.Int(instrumentation.SpanAttrFailures, failed))
	instrumentation.SetSpanSuccess(span)
	return results
}

func (s *Service) applyOne(ctx context.Context, d Decision) (string, error) {
	action, err := classify.ParseAction(d.Label)
	if err != nil {
		s.auditAction(ctx, d, d.Label, 0, err)
		return "", &ApplyError{ID: d.ID, Action: d.Label, Err: err}
	}
	if s.Sink == nil {
		s.auditAction(ctx, d, string(action), 0, ErrNoSink)
		return "", &ApplyError{ID: d.ID, Action: string(action), Err: ErrNoSink}
	}

	start := time.Now()
	err = s.Sink.ApplyAction(ctx, d.ID, action)
	s.auditAction(ctx, d, string(action), time.Since(start), err)

	if err != nil {
		s.logger().Warn("failed to apply action",
			logging.KeyMessageID, d.ID,
			logging.KeyAction, string(action),
			logging.KeyError, err)
		return "", &ApplyError{ID: d.ID, Action: string(action), Err: err}
	}

	if action != classify.ActionSkip && s.History != nil {
		herr := s.History.Record(ctx, store.Decision{
			MessageID: d.ID,
			Action:    string(action),
			BatchID:   d.BatchID,
			AppliedAt: time.Now(),
		})
		if herr != nil {
			s.logger().Warn("failed to record history", logging.KeyMessageID, d.ID, logging.KeyError, herr)
		}
	}

	return describe(action), nil
}

// auditAction writes the audit record and the label action metric for one
// decision, whether or not it reached the sink.
func (s *Service) auditAction(ctx context.Context, d Decision, action string, took time.Duration, err error) {
	record := &instrumentation.LabelAction{
		MessageID: d.ID,
		Action:    action,
		Account:   s.Account,
		BatchID:   d.BatchID,
		Duration:  took,
		Success:   err == nil,
	}
	if err != nil {
		record.Error = err.Error()
	}
	s.Audit.LogLabelAction(ctx, record)
	s.Metrics.RecordLabelAction(ctx, instrumentation.ActionLabel(action), record.Status())
}

func describe(action classify.Action) string {
	switch action {
	case classify.ActionSkip:
		return "skipped"
	case classify.ActionArchive:
		return "archived"
	default:
		return "labeled " + string(action)
	}
}
