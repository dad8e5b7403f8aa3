package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mteo/voicesearch/internal/config"
	"github.com/mteo/voicesearch/internal/elastic"
	"github.com/mteo/voicesearch/internal/httpserver"
	"github.com/mteo/voicesearch/internal/httpserver/searchapi"
	"github.com/mteo/voicesearch/internal/observability"
	"github.com/mteo/voicesearch/internal/search"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	obs, err := observability.Setup(ctx, "voicesearch-search", cfg.Observability)
	if err != nil {
		log.Fatalf("setup observability: %v", err)
	}
	defer obs.Shutdown(ctx)

	client, err := elastic.New(cfg.Elastic.URL())
	if err != nil {
		log.Fatalf("construct elasticsearch client: %v", err)
	}

	service := search.NewService(client, cfg.Elastic.Index, cfg.Search.PageSize)

	server, err := httpserver.New(httpserver.Options{
		ServiceName:           "voicesearch-search",
		ListenAddr:            cfg.Search.ListenAddr,
		GracefulShutdownDelay: cfg.Search.GracefulShutdownDelay,
		Observability:         obs,
	})
	if err != nil {
		log.Fatalf("construct server: %v", err)
	}
	searchapi.Register(server.App(), service)

	log.Printf("search service listening on %s (index %s)", cfg.Search.ListenAddr, cfg.Elastic.Index)
	if err := server.Listen(ctx); err != nil && err != context.Canceled {
		log.Fatalf("server stopped: %v", err)
	}
}
