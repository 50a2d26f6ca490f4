package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrTool      = "tool"
	attrAccount   = "account"
	attrLabel     = "label"
	attrPaywall   = "paywall"
	attrAction    = "action"
	attrReason    = "reason"
)

// Word count histogram buckets, aligned with the size label thresholds.
var wordCountBuckets = []float64{0, 50, 100, 250, 500, 1000, 1500, 3000, 5000, 10000}

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Google API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram

	// Classification metrics
	messagesClassifiedTotal metric.Int64Counter
	messageWordCount        metric.Int64Histogram
	fetchFailuresTotal      metric.Int64Counter
	decodeErrorsTotal       metric.Int64Counter
	labelActionsTotal       metric.Int64Counter

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.googleAPIOperationsTotal, err = meter.Int64Counter(
		"google_api_operations_total",
		metric.WithDescription("Total number of Google API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operations_total counter: %w", err)
	}

	m.googleAPIOperationDuration, err = meter.Float64Histogram(
		"google_api_operation_duration_seconds",
		metric.WithDescription("Google API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create google_api_operation_duration_seconds histogram: %w", err)
	}

	m.messagesClassifiedTotal, err = meter.Int64Counter(
		"messages_classified_total",
		metric.WithDescription("Total number of classified messages by size label and paywall flag"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages_classified_total counter: %w", err)
	}

	m.messageWordCount, err = meter.Int64Histogram(
		"message_word_count",
		metric.WithDescription("Word count of classified message bodies"),
		metric.WithUnit("{word}"),
		metric.WithExplicitBucketBoundaries(wordCountBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message_word_count histogram: %w", err)
	}

	m.fetchFailuresTotal, err = meter.Int64Counter(
		"message_fetch_failures_total",
		metric.WithDescription("Total number of messages that could not be fetched"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message_fetch_failures_total counter: %w", err)
	}

	m.decodeErrorsTotal, err = meter.Int64Counter(
		"message_decode_errors_total",
		metric.WithDescription("Total number of message parts or payloads that could not be decoded"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message_decode_errors_total counter: %w", err)
	}

	m.labelActionsTotal, err = meter.Int64Counter(
		"label_actions_total",
		metric.WithDescription("Total number of reviewer actions applied to messages"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create label_actions_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)

	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGoogleAPIOperation records a Google API operation with service, operation,
// status, and duration.
//
// Parameters:
//   - service: Google service name (gmail)
//   - operation: Operation type (list_messages, get_message, list_labels, modify_message, ...)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the operation
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)

	m.googleAPIOperationsTotal.Add(ctx, 1, attrs)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordClassification records one classified message.
func (m *Metrics) RecordClassification(ctx context.Context, label string, paywall bool, wordCount int) {
	if m == nil || m.messagesClassifiedTotal == nil || m.messageWordCount == nil {
		return
	}

	m.messagesClassifiedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrLabel, label),
		attribute.Bool(attrPaywall, paywall),
	))
	m.messageWordCount.Record(ctx, int64(wordCount), metric.WithAttributes(
		attribute.String(attrLabel, label),
	))
}

// RecordFetchFailure records a message that could not be fetched.
func (m *Metrics) RecordFetchFailure(ctx context.Context) {
	if m == nil || m.fetchFailuresTotal == nil {
		return
	}
	m.fetchFailuresTotal.Add(ctx, 1)
}

// RecordDecodeErrors records parts or payloads skipped during classification.
// Reason is "content_decode" or "malformed_payload".
func (m *Metrics) RecordDecodeErrors(ctx context.Context, reason string, n int) {
	if m == nil || m.decodeErrorsTotal == nil || n <= 0 {
		return
	}
	m.decodeErrorsTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String(attrReason, reason)))
}

// RecordLabelAction records a reviewer action (size label, skip or archive).
func (m *Metrics) RecordLabelAction(ctx context.Context, action, status string) {
	if m == nil || m.labelActionsTotal == nil {
		return
	}
	m.labelActionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrAction, action),
		attribute.String(attrStatus, status),
	))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	m.RecordToolInvocationWithAccount(ctx, toolName, status, "", duration)
}

// RecordToolInvocationWithAccount records an MCP tool invocation with account info.
// The account is only attached when detailed labels are enabled.
func (m *Metrics) RecordToolInvocationWithAccount(ctx context.Context, toolName, status, account string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	// Only add high-cardinality labels if explicitly enabled
	if m.detailedLabels && account != "" {
		attrs = append(attrs, attribute.String(attrAccount, account))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
