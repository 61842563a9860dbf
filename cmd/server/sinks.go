package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"userflat/internal/platform/config"
	"userflat/internal/platform/metrics"
	"userflat/internal/platform/redis"
	"userflat/internal/sink"
	"userflat/internal/sink/file"
	"userflat/internal/sink/kafka"
	"userflat/internal/sink/postgres"
	redissink "userflat/internal/sink/redis"
	"userflat/pkg/platform/circuit"
)

type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

type closer struct {
	name  string
	close func() error
}

// sinkSet is the configured fan-out plus what must be checked and closed.
type sinkSet struct {
	multi   *sink.Multi
	members []sink.Sink
	checks  []healthCheck
	closers []closer
}

func (s *sinkSet) add(sk sink.Sink, m *metrics.Metrics) {
	s.members = append(s.members, sink.WithMetrics(sk, m))
}

// addRemote guards a network sink with a circuit breaker before adding it.
func (s *sinkSet) addRemote(sk sink.Sink, cfg config.Sinks, m *metrics.Metrics, log *slog.Logger) {
	breaker := circuit.New(sk.Name(),
		circuit.WithFailureThreshold(cfg.BreakerFailures),
		circuit.WithCooldown(cfg.BreakerCooldown),
	)
	s.add(sink.WithBreaker(sk, breaker, log), m)
}

func (s *sinkSet) names() []string {
	out := make([]string, 0, len(s.members))
	for _, sk := range s.members {
		out = append(out, sk.Name())
	}
	return out
}

func (s *sinkSet) close(log *slog.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		c := s.closers[i]
		if err := c.close(); err != nil {
			log.Warn("failed to close sink", "sink", c.name, "error", err)
		}
	}
}

// buildSinks connects every sink named in USERFLAT_SINKS. A partially built
// set is closed before returning an error.
func buildSinks(ctx context.Context, cfg config.Config, m *metrics.Metrics, log *slog.Logger) (_ *sinkSet, err error) {
	set := &sinkSet{}
	defer func() {
		if err != nil {
			set.close(log)
		}
	}()

	if cfg.Sinks.Has(config.SinkFile) {
		fs, err := file.New(cfg.Sinks.Dir)
		if err != nil {
			return nil, err
		}
		set.add(fs, m)
	}

	if cfg.Sinks.Has(config.SinkRedis) {
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		set.closers = append(set.closers, closer{config.SinkRedis, client.Close})
		set.checks = append(set.checks, healthCheck{config.SinkRedis, client.Health})
		set.addRemote(redissink.New(client.Client, cfg.Redis.TTL), cfg.Sinks, m, log)
	}

	if cfg.Sinks.Has(config.SinkPostgres) {
		db, err := sql.Open(postgres.DriverName, cfg.DB.URL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
		db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
		set.closers = append(set.closers, closer{config.SinkPostgres, db.Close})
		set.checks = append(set.checks, healthCheck{config.SinkPostgres, db.PingContext})

		pg := postgres.New(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		set.addRemote(pg, cfg.Sinks, m, log)
	}

	if cfg.Sinks.Has(config.SinkKafka) {
		client, err := kafka.NewClient(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
		if err != nil {
			return nil, err
		}
		set.closers = append(set.closers, closer{config.SinkKafka, func() error { client.Close(); return nil }})
		set.checks = append(set.checks, healthCheck{config.SinkKafka, client.Ping})
		set.addRemote(kafka.New(client, cfg.Kafka.Topic), cfg.Sinks, m, log)
	}

	set.multi = sink.NewMulti(set.members...)
	log.Debug("sinks configured", "count", set.multi.Len())
	return set, nil
}
