// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for inboxsizer.
//
// # Metrics
//
// HTTP:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Google API:
//   - google_api_operations_total: Counter of Gmail API calls by operation and status
//   - google_api_operation_duration_seconds: Histogram of Gmail API call durations
//
// Classification:
//   - messages_classified_total: Counter of classified messages by label and paywall flag
//   - message_word_count: Histogram of cleaned body word counts by label
//   - message_fetch_failures_total: Counter of messages that could not be fetched
//   - message_decode_errors_total: Counter of skipped parts and malformed payloads
//   - label_actions_total: Counter of reviewer actions by action and status
//
// MCP tools:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for review batches (review.fetch_batch), single message
// classification (review.classify_message), MCP tool calls (tool.<name>) and
// Gmail API calls (google.gmail.<operation>).
//
// # Configuration
//
// Instrumentation is configured from the environment:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: inboxsizer)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_SUBJECTS: audit log switches
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	m := provider.Metrics()
//	m.RecordClassification(ctx, "Long", false, 1830)
//	m.RecordLabelAction(ctx, "Long", instrumentation.StatusSuccess)
package instrumentation
