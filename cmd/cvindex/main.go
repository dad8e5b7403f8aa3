package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mteo/voicesearch/internal/config"
	"github.com/mteo/voicesearch/internal/elastic"
	"github.com/mteo/voicesearch/internal/indexer"
)

func main() {
	csvFlag := flag.String("csv", "", "path to the transcribed manifest CSV (overrides config)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	csvPath := cfg.Elastic.CSVPath
	if *csvFlag != "" {
		csvPath = *csvFlag
	}

	client, err := elastic.New(cfg.Elastic.URL())
	if err != nil {
		log.Fatalf("construct elasticsearch client: %v", err)
	}

	if err := client.WaitForCluster(ctx, cfg.Elastic.ProbeRetries, cfg.Elastic.ProbeDelay); err != nil {
		log.Fatalf("elasticsearch at %s never became ready: %v", cfg.Elastic.URL(), err)
	}

	loader := indexer.NewLoader(client, cfg.Elastic.Index)
	if err := loader.Reindex(ctx, csvPath); err != nil {
		log.Fatalf("reindex %s: %v", cfg.Elastic.Index, err)
	}
}
