package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"userflat/internal/userrecord/models"
	"userflat/pkg/platform/circuit"
	"userflat/pkg/platform/sentinel"
)

// ErrCircuitOpen is returned without calling the sink while its breaker is open.
var ErrCircuitOpen = fmt.Errorf("circuit open: %w", sentinel.ErrUnavailable)

// Guarded short-circuits a failing sink. Record-level errors such as
// ErrUnkeyedRecord and caller cancellation do not count as failures.
type Guarded struct {
	next    Sink
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func WithBreaker(next Sink, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	return &Guarded{next: next, breaker: breaker, logger: logger}
}

func (g *Guarded) Name() string { return g.next.Name() }

func (g *Guarded) Publish(ctx context.Context, record *models.Record) error {
	if !g.breaker.Allow() {
		return ErrCircuitOpen
	}
	err := g.next.Publish(ctx, record)
	switch {
	case err == nil:
		if _, change := g.breaker.RecordSuccess(); change.Closed {
			g.logger.InfoContext(ctx, "sink circuit closed", "sink", g.next.Name())
		}
	case errors.Is(err, ErrUnkeyedRecord), errors.Is(err, context.Canceled):
	default:
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "sink circuit opened",
				"sink", g.next.Name(),
				"error", err,
			)
		}
	}
	return err
}
