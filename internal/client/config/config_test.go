package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akulikov/vaultsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{"vaultsync"}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestLoadDefaults(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()

	assert.Equal(t, "vaultsync.db", cfg.StoreDSN)
	assert.Equal(t, 15*time.Second, cfg.OnlineCheckInterval)
	assert.Equal(t, 30*time.Second, cfg.UploadTimeout)
	assert.Equal(t, common.DefaultMaxRetries, cfg.MaxRetries)
	assert.Equal(t, int64(32<<20), cfg.MaxPayloadBytes)
	assert.Empty(t, cfg.AllowedMimeTypes)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	withArgs(t, "-d", "/tmp/q.db", "-i", "5", "-t", "60", "-b", "backups")

	cfg := LoadConfig()
	assert.Equal(t, "/tmp/q.db", cfg.StoreDSN)
	assert.Equal(t, 5*time.Second, cfg.OnlineCheckInterval)
	assert.Equal(t, 60*time.Second, cfg.UploadTimeout)
	assert.Equal(t, "backups", cfg.S3Bucket)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"store_dsn": "json.db",
		"online_check_interval": "7s",
		"max_retries": 5,
		"allowed_mime_types": ["text/plain"],
		"s3_endpoint": "http://127.0.0.1:9000",
		"s3_access_key": "minio",
		"s3_secret_key": "minio123"
	}`), 0o600))

	withArgs(t, "-c", path)

	cfg := LoadConfig()
	assert.Equal(t, "json.db", cfg.StoreDSN)
	assert.Equal(t, 7*time.Second, cfg.OnlineCheckInterval)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, []string{"text/plain"}, cfg.AllowedMimeTypes)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.S3Endpoint)
	assert.Equal(t, "minio", cfg.S3AccessKey)

	// fields absent from the JSON keep their defaults
	assert.Equal(t, 30*time.Second, cfg.UploadTimeout)
	assert.Equal(t, "vaultsync", cfg.S3Bucket)
}

func TestLoadConfig_FlagsBeatJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store_dsn": "json.db"}`), 0o600))

	withArgs(t, "-c", path, "-d", "flag.db")

	cfg := LoadConfig()
	assert.Equal(t, "flag.db", cfg.StoreDSN)
}
