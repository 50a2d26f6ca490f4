package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// LabelAction is the audit record of one reviewer action applied to a message.
type LabelAction struct {
	MessageID string
	Subject   string
	Action    string
	Account   string
	BatchID   string
	Duration  time.Duration
	Success   bool
	Error     string
	TraceID   string
}

// Status returns "success", "skipped" or "error".
func (la *LabelAction) Status() string {
	switch {
	case !la.Success:
		return StatusError
	case la.Action == "skip":
		return StatusSkipped
	default:
		return StatusSuccess
	}
}

// LogAttrs returns slog attributes for the record. The subject is only
// included when includeSubject is set.
func (la *LabelAction) LogAttrs(includeSubject bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("message_id", la.MessageID),
		slog.String("action", la.Action),
		slog.String("status", la.Status()),
		slog.Duration("duration", la.Duration),
	}
	if includeSubject && la.Subject != "" {
		attrs = append(attrs, slog.String("subject", la.Subject))
	}
	if la.Account != "" && la.Account != "default" {
		attrs = append(attrs, slog.String("account", la.Account))
	}
	if la.BatchID != "" {
		attrs = append(attrs, slog.String("batch_id", la.BatchID))
	}
	if la.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", la.TraceID))
	}
	if la.Error != "" {
		attrs = append(attrs, slog.String("error", la.Error))
	}
	return attrs
}

// ToolInvocation captures one MCP tool call for audit logging.
type ToolInvocation struct {
	Tool      string
	Account   string
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string
	TraceID   string
}

// NewToolInvocation creates a ToolInvocation with timing started.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{Tool: tool, StartTime: time.Now()}
}

// WithAccount sets the Google account name.
func (ti *ToolInvocation) WithAccount(account string) *ToolInvocation {
	ti.Account = account
	return ti
}

// WithSpanContext copies the trace id from the current span, if any.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		ti.TraceID = sc.TraceID().String()
	}
	return ti
}

// Complete marks the invocation as finished and records its duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.Account != "" && ti.Account != "default" {
		attrs = append(attrs, slog.String("account", ti.Account))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// AuditLogger writes audit records for label actions and tool calls.
// A nil *AuditLogger is valid and logs nothing.
type AuditLogger struct {
	logger          *slog.Logger
	includeSubjects bool
	enabled         bool
}

// NewAuditLogger creates an AuditLogger from config.
func NewAuditLogger(logger *slog.Logger, config AuditConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:          logger.With(slog.String("log_type", "audit")),
		includeSubjects: config.IncludeSubjects,
		enabled:         config.Enabled,
	}
}

// LogLabelAction writes one record for an applied (or failed) action.
func (al *AuditLogger) LogLabelAction(ctx context.Context, la *LabelAction) {
	if al == nil || !al.enabled {
		return
	}
	if la.TraceID == "" {
		la.TraceID = GetTraceID(ctx)
	}
	level := slog.LevelInfo
	if !la.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "label_action", la.LogAttrs(al.includeSubjects)...)
}

// LogToolInvocation writes one record for a finished tool call.
func (al *AuditLogger) LogToolInvocation(ctx context.Context, ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}
	if ti.Success {
		al.logger.LogAttrs(ctx, slog.LevelInfo, "tool_executed", ti.LogAttrs()...)
	} else {
		al.logger.LogAttrs(ctx, slog.LevelWarn, "tool_failed", ti.LogAttrs()...)
	}
}
