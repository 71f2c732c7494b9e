package main

import (
	"context"
	"log"

	"provenant/internal/config"
	"provenant/internal/infra/db"
	httpinfra "provenant/internal/infra/http"
)

func main() {
	cfg := config.FromEnv()

	store, err := db.NewStore(cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	srv := httpinfra.NewServer(cfg, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if pipeline := srv.Pipeline(); pipeline != nil && pipeline.Async() {
		pipeline.Start(ctx)
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
