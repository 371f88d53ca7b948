package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/akulikov/vaultsync/internal/flagx"
	"github.com/akulikov/vaultsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "15s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	StoreDSN            string         `json:"store_dsn"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	UploadTimeout       timex.Duration `json:"upload_timeout"`
	MaxRetries          *int           `json:"max_retries"`
	MaxPayloadBytes     *int64         `json:"max_payload_bytes"`
	AllowedMimeTypes    []string       `json:"allowed_mime_types"`
	S3Endpoint          string         `json:"s3_endpoint"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3AccessKey         string         `json:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Behavior:
//   - Reads and unmarshals the JSON into JsonConfig.
//   - Copies set fields into the provided Config; zero-value strings and
//     nil pointers leave the existing value in place.
//   - Panics on read or unmarshal errors (caller should recover if
//     desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later
// stages override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.StoreDSN != "" {
		cfg.StoreDSN = jc.StoreDSN
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.UploadTimeout.Duration != 0 {
		cfg.UploadTimeout = time.Duration(jc.UploadTimeout.Duration)
	}
	if jc.MaxRetries != nil {
		cfg.MaxRetries = *jc.MaxRetries
	}
	if jc.MaxPayloadBytes != nil {
		cfg.MaxPayloadBytes = *jc.MaxPayloadBytes
	}
	if jc.AllowedMimeTypes != nil {
		cfg.AllowedMimeTypes = jc.AllowedMimeTypes
	}
	if jc.S3Endpoint != "" {
		cfg.S3Endpoint = jc.S3Endpoint
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3AccessKey != "" {
		cfg.S3AccessKey = jc.S3AccessKey
	}
	if jc.S3SecretKey != "" {
		cfg.S3SecretKey = jc.S3SecretKey
	}
}
