package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/inboxsizer/internal/classify"
	gmailclient "github.com/teemow/inboxsizer/internal/gmail"
	"github.com/teemow/inboxsizer/internal/instrumentation"
	"github.com/teemow/inboxsizer/internal/logging"
	"github.com/teemow/inboxsizer/internal/store"
)

const (
	DefaultConcurrency = 8
	MaxConcurrency     = 32
	DefaultPageSize    = 10

	logSubjectRunes = 50
	logSnippetRunes = 100
)

// MessageSource lists and fetches messages.
type MessageSource interface {
	ListUnlabeled(ctx context.Context, query, pageToken string, max int64) ([]string, string, error)
	GetMessage(ctx context.Context, id string) (*gmail.Message, error)
}

// LabelSink applies a reviewer action to a message.
type LabelSink interface {
	ApplyAction(ctx context.Context, id string, action classify.Action) error
}

// History records applied decisions.
type History interface {
	Record(ctx context.Context, d store.Decision) error
}

// Service fetches, classifies and labels messages for one account.
// Only Source is required; Sink is required by Apply.
type Service struct {
	Source  MessageSource
	Sink    LabelSink
	History History
	Logger  logging.Logger
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger

	Account      string
	Query        string
	PageSize     int64
	Concurrency  int
	FetchTimeout time.Duration
}

// Batch is one classified listing page.
type Batch struct {
	ID            string             `json:"batchId"`
	Messages      []classify.Message `json:"emails"`
	Failures      []*FetchError      `json:"failures"`
	NextPageToken string             `json:"nextPageToken"`
}

func (s *Service) logger() logging.Logger {
	if s.Logger == nil {
		return logging.Discard()
	}
	return s.Logger
}

// Parallelism returns the effective bound on concurrent Gmail calls.
func (s *Service) Parallelism() int {
	return s.concurrency()
}

func (s *Service) concurrency() int {
	switch {
	case s.Concurrency < 1:
		return DefaultConcurrency
	case s.Concurrency > MaxConcurrency:
		return MaxConcurrency
	default:
		return s.Concurrency
	}
}

func (s *Service) pageSize() int64 {
	if s.PageSize < 1 {
		return DefaultPageSize
	}
	return s.PageSize
}

// FetchBatch lists one page starting at pageToken and classifies every
// message on it. Only a listing failure fails the call.
func (s *Service) FetchBatch(ctx context.Context, pageToken string) (*Batch, error) {
	batchID := uuid.NewString()
	ctx, span := instrumentation.StartSpan(ctx, "review.fetch_batch",
		attribute.String(instrumentation.SpanAttrBatchID, batchID),
		attribute.Bool(instrumentation.SpanAttrPageToken, pageToken != ""))
	defer span.End()

	ids, next, err := s.Source.ListUnlabeled(ctx, s.Query, pageToken, s.pageSize())
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	records := make([]*classify.Message, len(ids))
	failures := make([]*FetchError, len(ids))

	var g errgroup.Group
	g.SetLimit(s.concurrency())
	for i, id := range ids {
		g.Go(func() error {
			rec, err := s.fetchAndClassify(ctx, id)
			if err != nil {
				failures[i] = err
				return nil
			}
			records[i] = &rec
			return nil
		})
	}
	_ = g.Wait()

	b := &Batch{
		ID:            batchID,
		Messages:      make([]classify.Message, 0, len(ids)),
		Failures:      []*FetchError{},
		NextPageToken: next,
	}
	for i := range ids {
		if failures[i] != nil {
			b.Failures = append(b.Failures, failures[i])
			continue
		}
		b.Messages = append(b.Messages, *records[i])
	}

	span.SetAttributes(
		attribute.Int(instrumentation.SpanAttrBatchSize, len(b.Messages)),
		attribute.Int(instrumentation.SpanAttrFailures, len(b.Failures)),
	)
	instrumentation.SetSpanSuccess(span)
	s.logger().Info("fetched batch",
		logging.KeyBatchID, batchID,
		"messages", len(b.Messages),
		"failures", len(b.Failures),
		"has_next_page", next != "")
	return b, nil
}

// ClassifyOne fetches and classifies a single message.
func (s *Service) ClassifyOne(ctx context.Context, id string) (classify.Message, error) {
	rec, err := s.fetchAndClassify(ctx, id)
	if err != nil {
		return classify.Message{}, err
	}
	return rec, nil
}

func (s *Service) fetchAndClassify(ctx context.Context, id string) (classify.Message, *FetchError) {
	fetchCtx := ctx
	if s.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.FetchTimeout)
		defer cancel()
	}

	msg, err := s.Source.GetMessage(fetchCtx, id)
	if err != nil {
		s.Metrics.RecordFetchFailure(ctx)
		s.logger().Warn("failed to fetch message", logging.KeyMessageID, id, logging.KeyError, err)
		return classify.Message{}, &FetchError{ID: id, Err: err}
	}
	msgID := msg.Id
	if msgID == "" {
		msgID = id
	}
	return s.classifyMessage(ctx, classify.Input{
		ID:      msgID,
		Subject: gmailclient.Subject(msg),
		Snippet: msg.Snippet,
		Payload: msg.Payload,
	}), nil
}

// classifyMessage runs the pipeline and records its diagnostics. It never fails.
func (s *Service) classifyMessage(ctx context.Context, in classify.Input) classify.Message {
	_, span := instrumentation.StartSpan(ctx, "review.classify_message",
		attribute.String(instrumentation.SpanAttrMessageID, in.ID))
	defer span.End()

	rec, err := classify.Classify(in)
	if err != nil {
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrDecodeErrs, len(classify.DecodeErrors(err))))
		s.recordDiagnostics(ctx, in.ID, err)
	}

	span.SetAttributes(instrumentation.ClassificationAttrs(string(rec.SuggestedLabel), rec.WordCount, rec.IsPaywall)...)
	instrumentation.SetSpanSuccess(span)
	s.Metrics.RecordClassification(ctx, string(rec.SuggestedLabel), rec.IsPaywall, rec.WordCount)

	s.logger().Debug("classified message",
		logging.KeyMessageID, rec.ID,
		"subject", logging.Truncate(rec.Subject, logSubjectRunes),
		"words", rec.WordCount,
		logging.KeyLabel, string(rec.SuggestedLabel),
		"paywall", rec.IsPaywall,
		"preview", logging.Truncate(rec.Body, logSnippetRunes))
	if rec.IsPaywall {
		s.logger().Debug("paywall detected", logging.KeyMessageID, rec.ID, "reason", rec.PaywallReason)
	}
	return rec
}

func (s *Service) recordDiagnostics(ctx context.Context, id string, err error) {
	var malformed *classify.MalformedPayloadError
	if errors.As(err, &malformed) {
		s.Metrics.RecordDecodeErrors(ctx, instrumentation.ReasonMalformedPayload, 1)
		s.logger().Warn("malformed payload", logging.KeyMessageID, id, "reason", malformed.Reason)
		return
	}
	if decodeErrs := classify.DecodeErrors(err); len(decodeErrs) > 0 {
		s.Metrics.RecordDecodeErrors(ctx, instrumentation.ReasonContentDecode, len(decodeErrs))
		for _, de := range decodeErrs {
			s.logger().Warn("skipped undecodable part",
				logging.KeyMessageID, id,
				"part_id", de.PartID,
				"mime_type", de.MimeType,
				logging.KeyError, de.Err)
		}
	}
}
