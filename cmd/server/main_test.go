package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userflat/internal/platform/config"
	"userflat/internal/platform/logger"
	"userflat/internal/platform/metrics"
	"userflat/internal/sink/file"
	"userflat/internal/userrecord/models"
)

func TestBuildSinksFileOnly(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	cfg, err := config.FromMap(map[string]string{
		"USERFLAT_SINKS":    "file",
		"USERFLAT_SINK_DIR": dir,
	})
	require.NoError(t, err)

	set, err := buildSinks(context.Background(), cfg, metrics.NewWithRegistry(prometheus.NewRegistry()), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { set.close(logger.Discard()) })

	assert.Equal(t, []string{"file"}, set.names())
	assert.Empty(t, set.checks)

	rec := models.NewRecord()
	rec.Set(models.FieldUsername, models.String("u1"))
	require.NoError(t, set.multi.Publish(context.Background(), rec))

	fs, err := file.New(dir)
	require.NoError(t, err)
	loaded, err := fs.Load("u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", loaded.StringField(models.FieldUsername))
}

func TestBuildSinksNone(t *testing.T) {
	cfg, err := config.FromMap(map[string]string{})
	require.NoError(t, err)

	set, err := buildSinks(context.Background(), cfg, nil, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, 0, set.multi.Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg, err := config.FromMap(map[string]string{"USERFLAT_ADDR": "127.0.0.1:0"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reg := prometheus.NewRegistry()
	assert.NoError(t, run(ctx, cfg, logger.Discard(), reg, reg))
}

func TestRunRejectsUnknownTitleCaseMode(t *testing.T) {
	cfg, err := config.FromMap(map[string]string{"USERFLAT_TITLECASE_MODE": "shouty"})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	assert.Error(t, run(context.Background(), cfg, logger.Discard(), reg, reg))
}
