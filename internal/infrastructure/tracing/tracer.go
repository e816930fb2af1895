// Package tracing provides a db.Tracer that reports spans through the structured logger.
package tracing

import (
	"context"
	"time"

	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/db"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/logger"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/middleware"
)

// LogTracer logs one debug record per finished span
type LogTracer struct {
	logger logger.Logger
}

// NewLogTracer creates a tracer writing to log
func NewLogTracer(log logger.Logger) *LogTracer {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	return &LogTracer{logger: log}
}

// Start opens a span; the request id from ctx, if any, is attached to it
func (t *LogTracer) Start(ctx context.Context, name string) (context.Context, db.Span) {
	return ctx, &logSpan{
		logger:    t.logger,
		name:      name,
		requestID: middleware.GetRequestID(ctx),
		start:     time.Now(),
	}
}

type logSpan struct {
	logger    logger.Logger
	name      string
	requestID string
	start     time.Time
}

func (s *logSpan) End(err error) {
	fields := map[string]interface{}{
		"span":        s.name,
		"request_id":  s.requestID,
		"duration_ms": float64(time.Since(s.start).Microseconds()) / 1000,
		"status":      "ok",
	}
	if err != nil {
		fields["status"] = "error"
		fields["error"] = err.Error()
	}
	s.logger.Debug("Span finished", fields)
}

// New returns a LogTracer when enabled and the no-op tracer otherwise
func New(enabled bool, log logger.Logger) db.Tracer {
	if !enabled {
		return db.NoopTracer{}
	}
	return NewLogTracer(log)
}
