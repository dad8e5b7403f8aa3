package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mteo/voicesearch/internal/batch"
	"github.com/mteo/voicesearch/internal/config"
)

func main() {
	manifestFlag := flag.String("manifest", "", "path to the input manifest CSV (overrides config)")
	audioDirFlag := flag.String("audio-dir", "", "directory holding the MP3 clips (overrides config)")
	endpointFlag := flag.String("endpoint", "", "transcription service /asr URL (overrides config)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	manifestPath := cfg.Batch.ManifestPath
	if *manifestFlag != "" {
		manifestPath = *manifestFlag
	}
	audioDir := cfg.Batch.AudioDir
	if *audioDirFlag != "" {
		audioDir = *audioDirFlag
	}
	endpoint := cfg.Batch.EndpointURL
	if *endpointFlag != "" {
		endpoint = *endpointFlag
	}

	client := batch.NewClient(endpoint, cfg.Batch.RequestTimeout)
	runner := batch.NewRunner(client, audioDir, cfg.Batch.ProgressInterval)

	log.Printf("transcribing %s against %s", manifestPath, endpoint)
	summary, err := runner.Run(ctx, manifestPath)
	if err != nil {
		log.Fatalf("batch run failed: %v", err)
	}

	log.Printf("run %s finished: %d/%d transcribed, %d errors, output %s",
		summary.RunID, summary.Transcribed, summary.Total, summary.Errors, summary.OutputPath)
}
