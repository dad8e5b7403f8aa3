package asr

import (
	"context"
	"errors"
	"fmt"

	openaiengine "github.com/mteo/voicesearch/internal/asr/openai"
	"github.com/mteo/voicesearch/internal/asr/whispercpp"
	"github.com/mteo/voicesearch/internal/audio"
	"github.com/mteo/voicesearch/internal/config"
)

// ErrEngineUnavailable reports that no inference backend initialized at
// process start. Requests hitting this state fail fast and are not retried.
var ErrEngineUnavailable = errors.New("ASR model not loaded")

// Engine turns one normalized audio window into text.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, clip audio.PCM) (string, error)
}

// NewEngine builds the configured inference backend. The returned engine is
// constructed once during service initialization and treated as read-only
// afterwards.
func NewEngine(cfg config.EngineConfig) (Engine, error) {
	switch cfg.Backend {
	case "openai":
		return openaiengine.New(openaiengine.Options{
			APIKey: cfg.OpenAIKey,
			Model:  cfg.OpenAIModel,
		})
	case "whispercpp", "":
		return whispercpp.New(cfg.BinaryPath, cfg.ModelPath)
	default:
		return nil, fmt.Errorf("unknown asr backend %q", cfg.Backend)
	}
}
