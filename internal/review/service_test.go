package review

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxsizer/internal/classify"
	"github.com/teemow/inboxsizer/internal/instrumentation"
)

// fakeSource serves canned messages. Ids listed in failing return an error;
// delays lets later ids finish before earlier ones.
type fakeSource struct {
	ids      []string
	next     string
	messages map[string]*gmail.Message
	failing  map[string]error
	delays   map[string]time.Duration
	listErr  error

	mu       sync.Mutex
	gotQuery string
	gotToken string
	gotMax   int64
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeSource) ListUnlabeled(ctx context.Context, query, pageToken string, max int64) ([]string, string, error) {
	f.mu.Lock()
	f.gotQuery, f.gotToken, f.gotMax = query, pageToken, max
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, "", f.listErr
	}
	return f.ids, f.next, nil
}

func (f *fakeSource) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if d := f.delays[id]; d > 0 {
		time.Sleep(d)
	}
	if err := f.failing[id]; err != nil {
		return nil, err
	}
	msg, ok := f.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s not found", id)
	}
	return msg, nil
}

type fakeSink struct {
	mu      sync.Mutex
	applied map[string]classify.Action
	err     error
}

func (s *fakeSink) ApplyAction(ctx context.Context, id string, action classify.Action) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applied == nil {
		s.applied = map[string]classify.Action{}
	}
	s.applied[id] = action
	return nil
}

func textMessage(id, subject, body string) *gmail.Message {
	return &gmail.Message{
		Id:      id,
		Snippet: body,
		Payload: &gmail.MessagePart{
			MimeType: "text/plain",
			Headers:  []*gmail.MessagePartHeader{{Name: "Subject", Value: subject}},
			Body:     &gmail.MessagePartBody{Data: base64.URLEncoding.EncodeToString([]byte(body))},
		},
	}
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func newTestMetrics(t *testing.T) (*instrumentation.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := instrumentation.NewMetrics(mp.Meter("test"), false)
	require.NoError(t, err)
	return m, reader
}

func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	want := attribute.NewSet(attrs...)
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if len(attrs) == 0 || dp.Attributes.Equals(&want) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestFetchBatch_KeepsListingOrderAndIsolatesFailures(t *testing.T) {
	src := &fakeSource{
		ids:  []string{"a", "b", "c", "d"},
		next: "page-2",
		messages: map[string]*gmail.Message{
			"a": textMessage("a", "Quick note", words(10)),
			"b": textMessage("b", "Essay", words(2000)),
			"d": textMessage("d", "Report", words(400)),
		},
		failing: map[string]error{"c": errors.New("503 backend error")},
		delays:  map[string]time.Duration{"a": 20 * time.Millisecond, "b": 10 * time.Millisecond},
	}
	metrics, reader := newTestMetrics(t)
	svc := &Service{Source: src, Metrics: metrics, Query: "label:inbox", PageSize: 4, Concurrency: 4}

	b, err := svc.FetchBatch(context.Background(), "page-1")
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "page-2", b.NextPageToken)
	assert.Equal(t, "label:inbox", src.gotQuery)
	assert.Equal(t, "page-1", src.gotToken)
	assert.Equal(t, int64(4), src.gotMax)

	require.Len(t, b.Messages, 3)
	assert.Equal(t, "a", b.Messages[0].ID)
	assert.Equal(t, classify.LabelShort, b.Messages[0].SuggestedLabel)
	assert.Equal(t, "b", b.Messages[1].ID)
	assert.Equal(t, classify.LabelLong, b.Messages[1].SuggestedLabel)
	assert.Equal(t, 2000, b.Messages[1].WordCount)
	assert.Equal(t, "d", b.Messages[2].ID)
	assert.Equal(t, classify.LabelMedium, b.Messages[2].SuggestedLabel)

	require.Len(t, b.Failures, 1)
	assert.Equal(t, "c", b.Failures[0].ID)
	assert.Contains(t, b.Failures[0].Error(), "503")

	assert.Equal(t, int64(1), counterValue(t, reader, "message_fetch_failures_total"))
	assert.Equal(t, int64(3), counterValue(t, reader, "messages_classified_total"))
}

func TestFetchBatch_ListFailure(t *testing.T) {
	svc := &Service{Source: &fakeSource{listErr: errors.New("quota exceeded")}}

	b, err := svc.FetchBatch(context.Background(), "")
	require.Error(t, err)
	assert.Nil(t, b)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestFetchBatch_EmptyPage(t *testing.T) {
	svc := &Service{Source: &fakeSource{}}

	b, err := svc.FetchBatch(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, b.Messages)
	assert.NotNil(t, b.Failures)
	assert.Empty(t, b.NextPageToken)
}

func TestFetchBatch_RespectsConcurrency(t *testing.T) {
	src := &fakeSource{messages: map[string]*gmail.Message{}, delays: map[string]time.Duration{}}
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("m%d", i)
		src.ids = append(src.ids, id)
		src.messages[id] = textMessage(id, "s", "hello")
		src.delays[id] = 5 * time.Millisecond
	}
	svc := &Service{Source: src, Concurrency: 3}

	b, err := svc.FetchBatch(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, b.Messages, 12)
	assert.LessOrEqual(t, src.peak.Load(), int32(3))
}

func TestFetchBatch_MalformedMessageStillListed(t *testing.T) {
	src := &fakeSource{
		ids:      []string{"empty"},
		messages: map[string]*gmail.Message{"empty": {Id: "empty"}},
	}
	metrics, reader := newTestMetrics(t)
	svc := &Service{Source: src, Metrics: metrics}

	b, err := svc.FetchBatch(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, b.Messages, 1)
	assert.Equal(t, 0, b.Messages[0].WordCount)
	assert.Equal(t, classify.LabelShort, b.Messages[0].SuggestedLabel)
	assert.Equal(t, "(No Subject)", b.Messages[0].Subject)
	assert.Equal(t, int64(1), counterValue(t, reader, "message_decode_errors_total",
		attribute.String("reason", instrumentation.ReasonMalformedPayload)))
}

func TestFetchBatch_DoesNotModifyFetchedMessages(t *testing.T) {
	msg := textMessage("", "No id", words(3))
	src := &fakeSource{
		ids:      []string{"listed"},
		messages: map[string]*gmail.Message{"listed": msg},
	}
	svc := &Service{Source: src}

	b, err := svc.FetchBatch(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, b.Messages, 1)
	assert.Equal(t, "listed", b.Messages[0].ID)
	assert.Empty(t, msg.Id)
}

func TestClassifyOne(t *testing.T) {
	src := &fakeSource{
		messages: map[string]*gmail.Message{"a": textMessage("a", "Hi", "Subscribe to keep reading")},
		failing:  map[string]error{"gone": errors.New("404 not found")},
	}
	svc := &Service{Source: src}

	rec, err := svc.ClassifyOne(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, rec.IsPaywall)
	assert.Contains(t, rec.PaywallReason, "Subscribe to keep reading")

	_, err = svc.ClassifyOne(context.Background(), "gone")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "gone", fe.ID)
}

func TestFetchError_JSON(t *testing.T) {
	b, err := (&FetchError{ID: "m1", Err: errors.New("timeout")}).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"m1","error":"timeout"}`, string(b))
}
