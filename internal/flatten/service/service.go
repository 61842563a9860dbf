package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"userflat/internal/flatten"
	"userflat/internal/platform/metrics"
	"userflat/internal/userrecord/models"
	dErrors "userflat/pkg/domain-errors"
	"userflat/pkg/platform/sentinel"
	"userflat/pkg/requestcontext"
)

const tracerName = "userflat/flatten"

// Sink receives every successfully flattened record.
type Sink interface {
	Publish(ctx context.Context, record *models.Record) error
}

// Service runs the flattening pipeline at the process boundary: it decodes,
// flattens, publishes and reports.
type Service struct {
	pipeline *flatten.Pipeline
	sink     Sink
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSink publishes each flattened record. Without it records are only
// returned.
func WithSink(sink Sink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service around pipeline.
func New(pipeline *flatten.Pipeline, opts ...Option) *Service {
	s := &Service{pipeline: pipeline}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// FlattenJSON decodes one user record and flattens it.
func (s *Service) FlattenJSON(ctx context.Context, body []byte) (*models.Record, error) {
	user, err := models.ParseUserRecord(body)
	if err != nil {
		s.metrics.IncrementFlattened(metrics.OutcomeInvalid)
		s.logger.WarnContext(ctx, "user record rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, err.Error())
	}
	return s.Flatten(ctx, user)
}

// Flatten runs the pipeline and publishes the result.
func (s *Service) Flatten(ctx context.Context, user models.UserRecord) (*models.Record, error) {
	start := time.Now()
	requestID := requestcontext.RequestID(ctx)

	ctx, span := s.tracer.Start(ctx, "flatten.Flatten",
		trace.WithAttributes(
			attribute.Int("userflat.attribute_count", len(user.Attributes)),
			attribute.Int("userflat.extra_field_count", len(user.Extra)),
			attribute.String("userflat.titlecase_mode", s.pipeline.TitleCaseMode().String()),
		),
	)
	defer span.End()
	defer func() { s.metrics.ObserveFlattenLatency(time.Since(start)) }()

	record, err := s.pipeline.Flatten(user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "flatten failed")
		s.metrics.IncrementFlattened(metrics.OutcomeInvalid)
		s.logger.WarnContext(ctx, "user record could not be flattened",
			"request_id", requestID,
			"username", user.UsernameText(),
			"error", err,
		)
		if errors.Is(err, flatten.ErrMissingField) {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to flatten user record")
	}
	s.metrics.ObserveAttributeCount(len(user.Attributes))

	if s.sink != nil {
		if err := s.sink.Publish(ctx, record); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "publish failed")
			s.metrics.IncrementFlattened(metrics.OutcomeError)
			s.logger.ErrorContext(ctx, "failed to publish flattened record",
				"request_id", requestID,
				"username", user.UsernameText(),
				"error", err,
			)
			if errors.Is(err, sentinel.ErrUnavailable) {
				return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "record store unavailable")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to publish flattened record")
		}
	}

	s.metrics.IncrementFlattened(metrics.OutcomeOK)
	s.logger.InfoContext(ctx, "user record flattened",
		"request_id", requestID,
		"caller", requestcontext.Subject(ctx),
		"username", user.UsernameText(),
		"attribute_count", len(user.Attributes),
		"key_count", record.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return record, nil
}
