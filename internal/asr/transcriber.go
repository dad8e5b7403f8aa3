package asr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mteo/voicesearch/internal/audio"
	"github.com/mteo/voicesearch/internal/models"
)

// Transcriber runs an engine over fixed-size overlapping windows so memory
// and per-call latency stay bounded on long clips.
type Transcriber struct {
	engine  Engine
	chunk   time.Duration
	overlap time.Duration
}

// NewTranscriber wraps an engine with the chunking parameters.
func NewTranscriber(engine Engine, chunk, overlap time.Duration) *Transcriber {
	return &Transcriber{engine: engine, chunk: chunk, overlap: overlap}
}

// Ready reports whether an engine was loaded. A transcriber built with a
// nil engine still serves requests, failing each one with
// ErrEngineUnavailable.
func (t *Transcriber) Ready() bool {
	return t != nil && t.engine != nil
}

// Transcribe normalizes nothing itself: it expects a decoded clip, feeds it
// to the engine window by window and merges the partial texts. No partial
// result is returned when any window fails.
func (t *Transcriber) Transcribe(ctx context.Context, clip audio.PCM) (models.TranscriptionResult, error) {
	if t.engine == nil {
		return models.TranscriptionResult{}, ErrEngineUnavailable
	}

	var parts []string
	for i, window := range Windows(clip, t.chunk, t.overlap) {
		text, err := t.engine.Transcribe(ctx, window)
		if err != nil {
			return models.TranscriptionResult{}, fmt.Errorf("window %d: %w", i, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}

	return models.TranscriptionResult{
		Text:     strings.Join(parts, " "),
		Duration: clip.Duration(),
	}, nil
}

// Windows splits a clip into chunk-length windows advanced by
// chunk-overlap. A clip no longer than one window comes back unsplit; the
// trailing partial window is always included so no sample is dropped.
func Windows(clip audio.PCM, chunk, overlap time.Duration) []audio.PCM {
	if len(clip.Samples) == 0 {
		return nil
	}

	win := int(chunk.Seconds() * float64(clip.SampleRate))
	step := win - int(overlap.Seconds()*float64(clip.SampleRate))
	if win <= 0 || step <= 0 || len(clip.Samples) <= win {
		return []audio.PCM{clip}
	}

	var out []audio.PCM
	for start := 0; start < len(clip.Samples); start += step {
		end := start + win
		if end > len(clip.Samples) {
			end = len(clip.Samples)
		}
		out = append(out, audio.PCM{
			Samples:    clip.Samples[start:end],
			SampleRate: clip.SampleRate,
		})
		if end == len(clip.Samples) {
			break
		}
	}
	return out
}
