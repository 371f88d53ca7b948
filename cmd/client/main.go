package main

import (
	"context"
	"log"
	"os"

	"github.com/akulikov/vaultsync/internal/client/cli"
	"github.com/akulikov/vaultsync/internal/client/config"
	"github.com/akulikov/vaultsync/internal/logging"
	"github.com/rs/zerolog"
)

func main() {

	cfg := config.LoadConfig()

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	logger := logging.NewZerologLogger(zl)

	ctx := context.Background()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)
}
