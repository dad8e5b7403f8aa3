package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat reports an upload that is not an MP3.
var ErrUnsupportedFormat = errors.New("only MP3 files are supported")

// TargetSampleRate is the rate the inference engines expect.
const TargetSampleRate = 16000

// PCM is a mono clip of signed 16-bit samples.
type PCM struct {
	Samples    []int
	SampleRate int
}

// Duration returns the clip length in seconds.
func (p PCM) Duration() float64 {
	if p.SampleRate == 0 {
		return 0
	}
	return float64(len(p.Samples)) / float64(p.SampleRate)
}

// Normalizer converts compressed uploads into 16 kHz mono PCM by shelling
// out to ffmpeg inside a scoped temp directory.
type Normalizer struct {
	FFmpegPath string
}

// NewNormalizer returns a normalizer using the given ffmpeg binary.
func NewNormalizer(ffmpegPath string) *Normalizer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Normalizer{FFmpegPath: ffmpegPath}
}

// Normalize decodes the MP3 payload, resamples to 16 kHz and downmixes to
// one channel. Intermediate files live in a temp directory that is removed
// on every exit path.
func (n *Normalizer) Normalize(ctx context.Context, data []byte, filename string) (PCM, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".mp3") {
		return PCM{}, ErrUnsupportedFormat
	}

	tmpDir, err := os.MkdirTemp("", "asr-decode-*")
	if err != nil {
		return PCM{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inputPath := filepath.Join(tmpDir, "input.mp3")
	if err := os.WriteFile(inputPath, data, 0o600); err != nil {
		return PCM{}, fmt.Errorf("write upload: %w", err)
	}

	wavPath := filepath.Join(tmpDir, "audio.wav")
	cmd := exec.CommandContext(ctx, n.FFmpegPath,
		"-i", inputPath,
		"-y",
		"-ar", fmt.Sprint(TargetSampleRate),
		"-ac", "1",
		"-c:a", "pcm_s16le",
		wavPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return PCM{}, fmt.Errorf("ffmpeg decode failed: %w: %s", err, lastLine(stderr.String()))
	}

	pcm, err := ReadFile(wavPath)
	if err != nil {
		return PCM{}, fmt.Errorf("parse decoded wav: %w", err)
	}
	return pcm, nil
}

// lastLine extracts the final non-empty stderr line, which is where ffmpeg
// puts the actual failure reason.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
