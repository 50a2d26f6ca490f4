package review

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxsizer/internal/classify"
	"github.com/teemow/inboxsizer/internal/instrumentation"
	"github.com/teemow/inboxsizer/internal/store"
)

type fakeHistory struct {
	mu        sync.Mutex
	decisions []store.Decision
}

func (h *fakeHistory) Record(ctx context.Context, d store.Decision) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.decisions = append(h.decisions, d)
	return nil
}

func TestApply(t *testing.T) {
	sink := &fakeSink{}
	hist := &fakeHistory{}
	metrics, reader := newTestMetrics(t)
	svc := &Service{Sink: sink, History: hist, Metrics: metrics, Concurrency: 2}

	results := svc.Apply(context.Background(), []Decision{
		{ID: "m1", Label: "Long", BatchID: "b1"},
		{ID: "m2", Label: "archive", BatchID: "b1"},
		{ID: "m3", Label: "skip", BatchID: "b1"},
		{ID: "m4", Label: "Gigantic", BatchID: "b1"},
	})

	require.Len(t, results, 4)
	assert.Equal(t, "labeled Long", results[0].Result)
	assert.Equal(t, "archived", results[1].Result)
	assert.Equal(t, "skipped", results[2].Result)
	assert.False(t, results[3].Succeeded())
	assert.Contains(t, results[3].Error, "Gigantic")

	assert.Equal(t, map[string]classify.Action{
		"m1": classify.Action(classify.LabelLong),
		"m2": classify.ActionArchive,
		"m3": classify.ActionSkip,
	}, sink.applied)

	require.Len(t, hist.decisions, 2)
	recorded := map[string]string{}
	for _, d := range hist.decisions {
		recorded[d.MessageID] = d.Action
		assert.Equal(t, "b1", d.BatchID)
	}
	assert.Equal(t, map[string]string{"m1": "Long", "m2": "archive"}, recorded)

	assert.Equal(t, int64(1), counterValue(t, reader, "label_actions_total",
		attribute.String("action", "invalid"), attribute.String("status", instrumentation.StatusError)))
	assert.Equal(t, int64(1), counterValue(t, reader, "label_actions_total",
		attribute.String("action", "skip"), attribute.String("status", instrumentation.StatusSkipped)))
}

func TestApply_SinkFailureIsolated(t *testing.T) {
	sink := &fakeSink{err: errors.New("label not found")}
	hist := &fakeHistory{}
	svc := &Service{Sink: sink, History: hist}

	results := svc.Apply(context.Background(), []Decision{{ID: "m1", Label: "XL"}})

	require.Len(t, results, 1)
	assert.False(t, results[0].Succeeded())
	assert.Contains(t, results[0].Error, "label not found")
	assert.Empty(t, hist.decisions)
}

func TestApply_NoSink(t *testing.T) {
	svc := &Service{}

	results := svc.Apply(context.Background(), []Decision{{ID: "m1", Label: "Short"}})
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Error, ErrNoSink.Error())
}

func TestApply_AuditLog(t *testing.T) {
	var buf bytes.Buffer
	audit := instrumentation.NewAuditLogger(
		slog.New(slog.NewJSONHandler(&buf, nil)),
		instrumentation.AuditConfig{Enabled: true},
	)
	svc := &Service{Sink: &fakeSink{}, Audit: audit, Account: "work"}

	svc.Apply(context.Background(), []Decision{{ID: "m1", Label: "Medium", BatchID: "b9"}})

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, `"msg":"label_action"`))
	assert.Contains(t, out, `"message_id":"m1"`)
	assert.Contains(t, out, `"batch_id":"b9"`)
	assert.Contains(t, out, `"account":"work"`)
	assert.Contains(t, out, `"log_type":"audit"`)
}

func TestApply_AuditLogsRejectedDecisions(t *testing.T) {
	var buf bytes.Buffer
	audit := instrumentation.NewAuditLogger(
		slog.New(slog.NewJSONHandler(&buf, nil)),
		instrumentation.AuditConfig{Enabled: true},
	)
	svc := &Service{Sink: &fakeSink{}, Audit: audit}

	results := svc.Apply(context.Background(), []Decision{{ID: "m1", Label: "tiny"}})
	require.Len(t, results, 1)
	assert.False(t, results[0].Succeeded())

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, `"msg":"label_action"`))
	assert.Contains(t, out, `"message_id":"m1"`)
	assert.Contains(t, out, `"action":"tiny"`)
	assert.Contains(t, out, `"status":"error"`)
	assert.Contains(t, out, `"level":"WARN"`)

	buf.Reset()
	(&Service{Audit: audit}).Apply(context.Background(), []Decision{{ID: "m2", Label: "XL"}})
	assert.Contains(t, buf.String(), `"message_id":"m2"`)
	assert.Contains(t, buf.String(), ErrNoSink.Error())
}

func TestApplyError(t *testing.T) {
	err := &ApplyError{ID: "m1", Action: "XL", Err: context.DeadlineExceeded}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "m1")
}
