package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mteo/voicesearch/internal/asr"
	"github.com/mteo/voicesearch/internal/audio"
	"github.com/mteo/voicesearch/internal/config"
	"github.com/mteo/voicesearch/internal/httpserver"
	"github.com/mteo/voicesearch/internal/httpserver/asrapi"
	"github.com/mteo/voicesearch/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Options{})
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	obs, err := observability.Setup(ctx, "voicesearch-asr", cfg.Observability)
	if err != nil {
		log.Fatalf("setup observability: %v", err)
	}
	defer obs.Shutdown(ctx)

	// An engine that fails to load does not abort startup: the service
	// stays up and reports the failure on every /asr request, matching how
	// the rest of the pipeline probes it.
	engineName := cfg.ASR.Engine.Backend
	engine, err := asr.NewEngine(cfg.ASR.Engine)
	if err != nil {
		log.Printf("asr engine %q failed to load: %v", engineName, err)
		engine = nil
	} else {
		engineName = engine.Name()
		log.Printf("asr engine %q ready", engineName)
	}

	normalizer := audio.NewNormalizer(cfg.ASR.FFmpegPath)
	transcriber := asr.NewTranscriber(engine, cfg.ASR.Chunk.Length, cfg.ASR.Chunk.Overlap)

	server, err := httpserver.New(httpserver.Options{
		ServiceName:           "voicesearch-asr",
		ListenAddr:            cfg.ASR.ListenAddr,
		BodyLimitMB:           cfg.ASR.BodyLimitMB,
		ReadTimeout:           cfg.ASR.RequestTimeout,
		GracefulShutdownDelay: cfg.ASR.GracefulShutdownDelay,
		Observability:         obs,
	})
	if err != nil {
		log.Fatalf("construct server: %v", err)
	}
	asrapi.Register(server.App(), normalizer, transcriber, engineName, obs)

	log.Printf("transcription service listening on %s", cfg.ASR.ListenAddr)
	if err := server.Listen(ctx); err != nil && err != context.Canceled {
		log.Fatalf("server stopped: %v", err)
	}
}
