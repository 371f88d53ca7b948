package config

import (
	"flag"
	"os"
	"time"

	"github.com/akulikov/vaultsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   DSN of the local queue store (default from Config)
//	-i int      online check interval in seconds (default from Config)
//	-t int      upload timeout in seconds (default from Config)
//	-b string   storage bucket name (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other
// components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-i", "-t", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.StoreDSN, "d", cfg.StoreDSN, "DSN of the local queue store")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	uploadTimeout := fs.Int("t", int(cfg.UploadTimeout.Seconds()), "upload timeout (in seconds)")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "storage bucket name")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.UploadTimeout = time.Duration(*uploadTimeout) * time.Second
}
