package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chaos-io/cutout/cutout"
	"github.com/chaos-io/cutout/cutout/rembg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, "onnx", cfg.Model.Engine)
	assert.Equal(t, cutout.DefaultSettings(), cfg.Cutout)
	assert.Equal(t, 2, cfg.Pipeline.MaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.QueueTimeout)
	assert.Equal(t, "@every 10m", cfg.Storage.CleanupSpec)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: ":9090"
  mode: release
model:
  engine: remote
  remote_url: http://infer:8000
cutout:
  input_size: 512
  threshold: 0.95
  feather: 3
  model: isnet-general
  background: "#0f0"
pipeline:
  queue_timeout: 5s
  resampler: lanczos3
redis:
  enabled: true
  ttl: 1h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "remote", cfg.Model.Engine)
	assert.Equal(t, "http://infer:8000", cfg.Model.RemoteURL)
	assert.Equal(t, cutout.Settings{
		InputSize:  512,
		Threshold:  0.9,
		Feather:    3,
		Model:      rembg.ModelGeneral,
		Background: "#00ff00",
	}, cfg.Cutout)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.QueueTimeout)
	assert.Equal(t, "lanczos3", cfg.Pipeline.Resampler)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	// 未出现的键保留默认值
	assert.Equal(t, "./models", cfg.Model.Dir)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CUTOUT_SERVER_PORT", ":7000")
	t.Setenv("CUTOUT_MODEL_ENGINE", "remote")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Port)
	assert.Equal(t, "remote", cfg.Model.Engine)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
