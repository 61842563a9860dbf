// Package redis caches flattened records under userflat:<Username>.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"userflat/internal/sink"
	"userflat/internal/userrecord/models"
	"userflat/pkg/platform/sentinel"
)

// KeyPrefix namespaces every key written by the sink.
const KeyPrefix = "userflat:"

// Sink writes records with SET and a TTL. A zero TTL keeps keys forever.
type Sink struct {
	client goredis.Cmdable
	ttl    time.Duration
}

func New(client goredis.Cmdable, ttl time.Duration) *Sink {
	return &Sink{client: client, ttl: ttl}
}

func (s *Sink) Name() string { return "redis" }

func (s *Sink) Publish(ctx context.Context, record *models.Record) error {
	username, err := sink.Key(record)
	if err != nil {
		return err
	}
	payload, err := record.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.client.Set(ctx, KeyPrefix+username, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns the cached record for username, or sentinel.ErrNotFound.
func (s *Sink) Get(ctx context.Context, username string) (*models.Record, error) {
	payload, err := s.client.Get(ctx, KeyPrefix+username).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	rec := models.NewRecord()
	if err := rec.UnmarshalJSON(payload); err != nil {
		return nil, fmt.Errorf("decode cached record: %w", err)
	}
	return rec, nil
}
