package core

import (
	"context"
	"time"

	"clonetrack/internal/workbook"

	"github.com/google/uuid"
)

// Logger is the structured logger used by the service. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock. A nil ClockFunc uses time.Now.
type ClockFunc func() time.Time

// Now returns the current time in UTC.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f().UTC()
}

// AuditStatus is the outcome recorded for an audited operation.
type AuditStatus string

// Audit statuses.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one service operation.
type AuditEntry struct {
	ID        string        `json:"id"`
	Operation string        `json:"operation"`
	Project   string        `json:"project"`
	EntityID  string        `json:"entity_id,omitempty"`
	Status    AuditStatus   `json:"status"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// AuditRecorder receives audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder observes operation outcomes and latency.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended exactly once with the operation error.
type TraceSpan interface {
	End(err error)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

type serviceOptions struct {
	clock    Clock
	logger   Logger
	audit    AuditRecorder
	metrics  MetricsRecorder
	tracer   Tracer
	sampler  Sampler
	workbook *workbook.Workbook
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		clock:   ClockFunc(nil),
		logger:  noopLogger{},
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		sampler: globalSampler{},
	}
}

// ServiceOption customises a Service.
type ServiceOption func(*serviceOptions)

// WithLogger sets the service logger.
func WithLogger(l Logger) ServiceOption {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock used for audit timestamps.
func WithClock(c Clock) ServiceOption {
	return func(o *serviceOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(r AuditRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if r != nil {
			o.audit = r
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(r MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if r != nil {
			o.metrics = r
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithRand sets the random source used for validated-clone sampling.
func WithRand(s Sampler) ServiceOption {
	return func(o *serviceOptions) {
		if s != nil {
			o.sampler = s
		}
	}
}

// observe wraps one service operation with tracing, metrics, audit and logging.
func (s *Service) observe(ctx context.Context, op, project string, fn func(ctx context.Context) (string, error)) error {
	start := s.clock.Now()
	ctx, span := s.tracer.Start(ctx, op)
	entityID, err := fn(ctx)
	span.End(err)
	duration := s.clock.Now().Sub(start)
	s.metrics.Observe(ctx, op, err == nil, duration)

	entry := AuditEntry{
		ID:        uuid.NewString(),
		Operation: op,
		Project:   project,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: start,
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
		s.logger.Error("operation failed", "operation", op, "project", project, "error", err)
	} else {
		s.logger.Debug("operation completed", "operation", op, "project", project, "duration", duration)
	}
	s.audit.Record(ctx, entry)
	return err
}

// logResult reports non-blocking rule violations.
func (s *Service) logResult(op string, res Result) {
	for _, v := range res.Violations {
		switch v.Severity {
		case SeverityWarn:
			s.logger.Warn("rule warning", "operation", op, "rule", v.Rule, "entity", v.EntityID, "message", v.Message)
		case SeverityLog:
			s.logger.Info("rule notice", "operation", op, "rule", v.Rule, "entity", v.EntityID, "message", v.Message)
		}
	}
}
