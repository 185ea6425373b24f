package main

import (
	"fmt"
	"os"

	"github.com/absenced-dev/absenced/internal/config"
	"github.com/absenced-dev/absenced/internal/logger"
	"github.com/absenced-dev/absenced/internal/server"
)

// version is stamped at build time with -ldflags
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Msg("Starting Absenced server...")

	// Blocks until the listener stops
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed to start")
	}
}
