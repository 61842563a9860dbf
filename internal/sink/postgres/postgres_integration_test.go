//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"userflat/internal/userrecord/models"
	"userflat/pkg/platform/sentinel"
	txcontext "userflat/pkg/platform/tx"
	"userflat/pkg/testutil/containers"
)

type PostgresSinkSuite struct {
	suite.Suite
	pg   *containers.PostgresContainer
	sink *Sink
	now  time.Time
}

func TestPostgresSinkSuite(t *testing.T) {
	suite.Run(t, new(PostgresSinkSuite))
}

func (s *PostgresSinkSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.now = time.Date(2022, 4, 17, 12, 0, 0, 0, time.UTC)
	s.sink = New(s.pg.DB, WithClock(func() time.Time { return s.now }))
	s.Require().NoError(s.sink.EnsureSchema(context.Background()))
}

func (s *PostgresSinkSuite) SetupTest() {
	_, err := s.pg.DB.Exec(`TRUNCATE flattened_users`)
	s.Require().NoError(err)
}

func (s *PostgresSinkSuite) TestUpsertKeepsLatestAndOrder() {
	ctx := context.Background()
	first := models.NewRecord()
	first.Set(models.FieldUsername, models.String("u1"))
	first.Set("GivenName", models.String("Ada"))
	s.Require().NoError(s.sink.Publish(ctx, first))

	second := models.NewRecord()
	second.Set(models.FieldUsername, models.String("u1"))
	second.Set("GivenName", models.String("Grace"))
	second.Set("DisplayName", models.String("Grace"))
	s.Require().NoError(s.sink.Publish(ctx, second))

	got, err := s.sink.Get(ctx, "u1")
	s.Require().NoError(err)
	s.Equal([]string{"Username", "GivenName", "DisplayName"}, got.Keys())
	s.Equal("Grace", got.StringField("GivenName"))

	var updatedAt time.Time
	s.Require().NoError(s.pg.DB.QueryRow(`SELECT updated_at FROM flattened_users WHERE username = 'u1'`).Scan(&updatedAt))
	s.True(s.now.Equal(updatedAt))
}

func (s *PostgresSinkSuite) TestGetMissing() {
	_, err := s.sink.Get(context.Background(), "nobody")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresSinkSuite) TestPublishJoinsContextTransaction() {
	ctx := context.Background()
	tx, err := s.pg.DB.BeginTx(ctx, nil)
	s.Require().NoError(err)

	rec := models.NewRecord()
	rec.Set(models.FieldUsername, models.String("u2"))
	s.Require().NoError(s.sink.Publish(txcontext.WithTx(ctx, tx), rec))
	s.Require().NoError(tx.Rollback())

	_, err = s.sink.Get(ctx, "u2")
	s.ErrorIs(err, sentinel.ErrNotFound, "rolled back publish must not be visible")
}
