package config

import (
	"time"

	"github.com/akulikov/vaultsync/internal/common"
)

// Config holds runtime settings for the VaultSync client.
//
// Units: OnlineCheckInterval and UploadTimeout are time.Duration values;
// MaxPayloadBytes is bytes.
type Config struct {
	// StoreDSN locates the local queue database. ":memory:" keeps the
	// queue for the process lifetime only.
	StoreDSN string

	// OnlineCheckInterval is how often the watcher probes remote
	// reachability.
	OnlineCheckInterval time.Duration

	// UploadTimeout bounds a single upload attempt.
	UploadTimeout time.Duration

	// MaxRetries is the per-entry attempt budget before an upload fails
	// permanently.
	MaxRetries int

	// MaxPayloadBytes is the largest payload accepted at enqueue time.
	MaxPayloadBytes int64

	// AllowedMimeTypes restricts what enqueue accepts. Empty means any.
	AllowedMimeTypes []string

	// S3 settings for the storage backend. Endpoint may point at MinIO;
	// empty means stock AWS.
	S3Endpoint  string
	S3Bucket    string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.StoreDSN = "vaultsync.db"
	c.OnlineCheckInterval = 15 * time.Second
	c.UploadTimeout = 30 * time.Second
	c.MaxRetries = common.DefaultMaxRetries
	c.MaxPayloadBytes = 32 << 20
	c.S3Region = "us-east-1"
	c.S3Bucket = "vaultsync"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
