// Package httpserver builds the process's *http.Server.
package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 60 * time.Second
)

type Option func(*http.Server)

func WithReadTimeout(d time.Duration) Option {
	return func(s *http.Server) {
		if d > 0 {
			s.ReadTimeout = d
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(s *http.Server) {
		if d > 0 {
			s.WriteTimeout = d
		}
	}
}

// WithErrorLog routes net/http's internal errors through logger.
func WithErrorLog(logger *slog.Logger) Option {
	return func(s *http.Server) {
		s.ErrorLog = slog.NewLogLogger(logger.Handler(), slog.LevelWarn)
	}
}

// New returns a server with every timeout set.
func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}
