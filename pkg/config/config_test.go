package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zhreader.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validYAML = `
log:
  level: debug
  format: json
database:
  path: /var/lib/zhreader/zhreader.db
redis:
  addr: cache:6379
  db: 2
segmenter:
  addr: seg:9001
  timeout: 5s
reader:
  workers: 4
  render_timeout: 10s
dictionary:
  path: /data/cedict_ts.u8
  batch_size: 1000
`

func TestLoadYAML(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	cfg, err := Load(writeYAML(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/var/lib/zhreader/zhreader.db", cfg.Database.Path)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 5*time.Second, cfg.Segmenter.Timeout)
	assert.Equal(t, 4, cfg.Reader.Workers)
	assert.Equal(t, 1000, cfg.Dictionary.BatchSize)

	// untouched fields keep their defaults
	assert.Equal(t, 200*time.Millisecond, cfg.Reader.RetryBackoff)
	assert.Equal(t, "127.0.0.1:9001", cfg.Segmenter.Listen)
	assert.Equal(t, "/static/img/download.svg", cfg.Render.SaveIcon)
}

func TestEnvOverridesYAML(t *testing.T) {
	t.Setenv("READER_WORKERS", "16")
	t.Setenv("REDIS_ADDR", "other:6380")
	cfg, err := Load(writeYAML(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Reader.Workers)
	assert.Equal(t, "other:6380", cfg.Redis.Addr)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "zhreader.db", cfg.Database.Path)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 8, cfg.Reader.Workers)
	assert.Equal(t, 30*time.Second, cfg.Reader.RenderTimeout)
	assert.Equal(t, uint32(5), cfg.Reader.BreakerFailures)
	assert.Equal(t, "https://www.mdbg.net/chinese/export/cedict/cedict_1_0_ts_utf-8_mdbg.txt.gz", cfg.Dictionary.URL())
}

func TestLoadConfigPathEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeYAML(t, validYAML))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "seg:9001", cfg.Segmenter.Addr)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	cases := map[string]string{
		"workers":    "reader:\n  workers: -1\n",
		"addr":       "redis:\n  addr: no-port\n",
		"log format": "log:\n  format: xml\n",
		"batch size": "dictionary:\n  batch_size: -5\n",
	}
	for name, yaml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, yaml))
			assert.Error(t, err)
		})
	}
}

func TestSectionOptions(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	cfg, err := Load(writeYAML(t, validYAML))
	require.NoError(t, err)

	ro := cfg.Redis.Options()
	assert.Equal(t, "cache:6379", ro.Addr)
	assert.Equal(t, 2, ro.DB)

	assert.Equal(t, 4, cfg.Reader.Options().Workers)
	assert.Equal(t, "seg:9001", cfg.Segmenter.Client().Addr)
	assert.Equal(t, "/static/img/volume-up-fill.svg", cfg.Render.Options().SoundIcon)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LogConfig{Level: "warn", Format: "json"})
	logger.Info("hidden")
	logger.Warn("shown", slog.String("uid", "你好ni3hao3"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "你好ni3hao3", rec["uid"])

	assert.Equal(t, slog.LevelDebug, parseLevel(" DEBUG "))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
