// Package sink publishes flattened records to downstream stores.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"userflat/internal/platform/metrics"
	"userflat/internal/userrecord/models"
)

// ErrUnkeyedRecord is returned by sinks that key records by Username when the
// record has none.
var ErrUnkeyedRecord = errors.New("record has no Username to key by")

// Sink consumes flattened records.
type Sink interface {
	Name() string
	Publish(ctx context.Context, record *models.Record) error
}

// Key returns the record's Username, or ErrUnkeyedRecord.
func Key(record *models.Record) (string, error) {
	username := record.StringField(models.FieldUsername)
	if username == "" {
		return "", ErrUnkeyedRecord
	}
	return username, nil
}

// Multi publishes to every sink concurrently. All sinks are attempted; the
// returned error joins every failure in the order the sinks were given.
type Multi struct {
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Name() string { return "multi" }

// Len reports how many sinks are attached.
func (m *Multi) Len() int { return len(m.sinks) }

func (m *Multi) Publish(ctx context.Context, record *models.Record) error {
	// A plain Group does not cancel siblings, so every sink is attempted.
	var g errgroup.Group
	errs := make([]error, len(m.sinks))
	for i, s := range m.sinks {
		i, s := i, s
		g.Go(func() error {
			if err := s.Publish(ctx, record); err != nil {
				errs[i] = fmt.Errorf("sink %s: %w", s.Name(), err)
				return errs[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}
	// Joined in sink order.
	return errors.Join(errs...)
}

// Instrumented records publish latency and outcome for the wrapped sink.
type Instrumented struct {
	next    Sink
	metrics *metrics.Metrics
}

func WithMetrics(next Sink, m *metrics.Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

func (i *Instrumented) Name() string { return i.next.Name() }

func (i *Instrumented) Publish(ctx context.Context, record *models.Record) error {
	start := time.Now()
	err := i.next.Publish(ctx, record)
	i.metrics.ObserveSinkPublish(i.next.Name(), time.Since(start), err)
	return err
}
