// Package openai backs the ASR engine with the OpenAI Audio Transcriptions
// API for deployments without a local whisper.cpp install.
package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/mteo/voicesearch/internal/audio"
)

// Options configure the remote engine.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Engine calls the hosted transcription API once per audio window.
type Engine struct {
	client openai.Client
	model  string
}

// New builds the engine. A missing API key fails construction, which the
// service reports as the engine being unavailable.
func New(opts Options) (*Engine, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai: api key required")
	}
	requestOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(opts.BaseURL))
	}
	model := opts.Model
	if model == "" {
		model = "whisper-1"
	}
	return &Engine{client: openai.NewClient(requestOpts...), model: model}, nil
}

func (e *Engine) Name() string { return "openai" }

// Transcribe uploads the window as a WAV file. The API wants a named file,
// so the window is staged in a scoped temp directory first.
func (e *Engine) Transcribe(ctx context.Context, clip audio.PCM) (string, error) {
	tmpDir, err := os.MkdirTemp("", "asr-openai-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	wavPath := filepath.Join(tmpDir, "window.wav")
	if err := audio.WriteFile(wavPath, clip); err != nil {
		return "", err
	}

	f, err := os.Open(wavPath)
	if err != nil {
		return "", fmt.Errorf("open staged wav: %w", err)
	}
	defer f.Close()

	resp, err := e.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(e.model),
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return resp.Text, nil
}
