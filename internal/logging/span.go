package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "vidtube",
	Name:      "operation_duration_seconds",
	Help:      "Duration of named units of work such as media uploads and probes.",
	Buckets:   prometheus.DefBuckets,
}, []string{"operation", "outcome"})

// Span represents a named unit of work inside a request.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a child span from ctx, enriching the logger with span metadata.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	parentSpanID := spanIDFromContext(ctx)
	spanID := uuid.NewString()

	logger := FromContext(ctx).With(
		slog.String("span_id", spanID),
		slog.String("span_name", name),
	)
	if parentSpanID != "" {
		logger = logger.With(slog.String("parent_span_id", parentSpanID))
	}

	ctx = WithLogger(ctx, logger)
	ctx = withSpanID(ctx, spanID)

	return ctx, &Span{name: name, logger: logger, start: time.Now()}
}

// End records the span duration and logs its completion. A non-nil err marks the
// span as failed.
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	elapsed := time.Since(s.start)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	operationDuration.WithLabelValues(s.name, outcome).Observe(elapsed.Seconds())

	if err != nil {
		s.logger.Warn("span failed", slog.Duration("duration", elapsed), slog.Any("error", err))
		return
	}
	s.logger.Debug("span completed", slog.Duration("duration", elapsed))
}
