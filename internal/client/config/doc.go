// Package config loads runtime configuration for the VaultSync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   DSN of the local queue store
//	-i int      online check interval (seconds)
//	-t int      upload timeout (seconds)
//	-b string   storage bucket name
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be
// either strings like "15s" or integer nanoseconds:
//
//	{
//	  "store_dsn": "vaultsync.db",
//	  "online_check_interval": "15s",
//	  "upload_timeout": "30s",
//	  "max_retries": 3,
//	  "max_payload_bytes": 33554432,
//	  "allowed_mime_types": ["application/octet-stream"],
//	  "s3_endpoint": "http://127.0.0.1:9000",
//	  "s3_bucket": "vaultsync",
//	  "s3_region": "us-east-1"
//	}
//
// Primary API
//
//   - type Config                     — runtime settings for the client
//   - func LoadConfig() *Config       — builds Config by applying defaults, JSON, then flags
//   - func (*Config) LoadDefaults()   — sets sensible defaults
//
// Note: This package does not read environment variables directly; use
// the JSON file or flags to configure values.
package config
