// Asynqmon is a standalone web UI for inspecting the recompute queue. It is
// deployed next to the worker and shares its Redis configuration.
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/absenced-dev/absenced/internal/config"
	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	h := asynqmon.New(asynqmon.Options{
		RootPath:     "/asynqmon",
		RedisConnOpt: asynq.RedisClientOpt{Addr: cfg.Redis.Address},
	})

	port := os.Getenv("ASYNQMON_PORT")
	if port == "" {
		port = "8090"
	}

	log.Printf("Starting Asynqmon on :%s with Redis at %s", port, cfg.Redis.Address)
	log.Fatal(http.ListenAndServe(":"+port, h))
}
