// Package batch replays a manifest of audio files through the transcription
// service, one row at a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mteo/voicesearch/internal/manifest"
)

// Runner drives one sequential batch over a manifest. Per-row failures are
// recorded in the generated_text column and never abort the run; only a
// missing or unparsable manifest is fatal.
type Runner struct {
	client           *Client
	audioDir         string
	progressInterval int
}

// Summary reports the outcome of a batch run.
type Summary struct {
	RunID       string
	Total       int
	Transcribed int
	Errors      int
	OutputPath  string
}

// NewRunner wires a runner over the given client and audio directory.
func NewRunner(client *Client, audioDir string, progressInterval int) *Runner {
	if progressInterval <= 0 {
		progressInterval = 100
	}
	return &Runner{client: client, audioDir: audioDir, progressInterval: progressInterval}
}

// Run loads the manifest, transcribes every row and writes the result table
// to a sibling _transcribed.csv. The source manifest is never mutated.
func (r *Runner) Run(ctx context.Context, manifestPath string) (Summary, error) {
	table, err := manifest.Load(manifestPath)
	if err != nil {
		return Summary{}, err
	}
	table.EnsureColumn(manifest.ColGeneratedText)
	table.EnsureColumn(manifest.ColDuration)

	summary := Summary{RunID: uuid.NewString(), Total: len(table.Rows)}
	log.Printf("batch %s: transcribing %d audio files", summary.RunID, summary.Total)

	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return Summary{}, fmt.Errorf("batch interrupted: %w", err)
		}

		filename := row[manifest.ColFilename]
		audioPath := filepath.Join(r.audioDir, filename)
		if _, err := os.Stat(audioPath); err != nil {
			log.Printf("batch %s: file not found: %s", summary.RunID, audioPath)
			row[manifest.ColGeneratedText] = "File not found"
			summary.Errors++
			continue
		}

		resp, err := r.client.Transcribe(ctx, audioPath, filename)
		if err != nil {
			var transport *TransportError
			if errors.As(err, &transport) {
				log.Printf("batch %s: API error for %s: %v", summary.RunID, filename, err)
				row[manifest.ColGeneratedText] = "API Error: " + err.Error()
			} else {
				log.Printf("batch %s: processing error for %s: %v", summary.RunID, filename, err)
				row[manifest.ColGeneratedText] = "Processing Error: " + err.Error()
			}
			summary.Errors++
			continue
		}

		row[manifest.ColGeneratedText] = resp.Transcription
		row[manifest.ColDuration] = resp.Duration
		summary.Transcribed++
		if summary.Transcribed%r.progressInterval == 0 {
			log.Printf("batch %s: transcribed %d files so far", summary.RunID, summary.Transcribed)
		}
	}

	summary.OutputPath = manifest.TranscribedPath(manifestPath)
	if err := table.Write(summary.OutputPath); err != nil {
		return Summary{}, err
	}
	log.Printf("batch %s: done, %d transcribed, %d errors, output %s",
		summary.RunID, summary.Transcribed, summary.Errors, summary.OutputPath)
	return summary, nil
}
