// Package whispercpp runs speech-to-text through a whisper.cpp CLI binary.
package whispercpp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mteo/voicesearch/internal/audio"
)

// Engine executes the whisper.cpp binary once per audio window. The binary
// and model paths are verified at construction so a broken install surfaces
// at process start instead of on the first request.
type Engine struct {
	binaryPath string
	modelPath  string
}

// New verifies the binary is executable and the model file exists.
func New(binaryPath, modelPath string) (*Engine, error) {
	resolved, err := exec.LookPath(binaryPath)
	if err != nil {
		return nil, fmt.Errorf("whisper binary %q: %w", binaryPath, err)
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("whisper model %q: %w", modelPath, err)
	}
	return &Engine{binaryPath: resolved, modelPath: modelPath}, nil
}

func (e *Engine) Name() string { return "whispercpp" }

// Transcribe writes the window to a temp WAV, runs the binary against it
// and reads back the emitted transcript. The temp directory is removed on
// every exit path.
func (e *Engine) Transcribe(ctx context.Context, clip audio.PCM) (string, error) {
	tmpDir, err := os.MkdirTemp("", "whisper-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	wavPath := filepath.Join(tmpDir, "window.wav")
	if err := audio.WriteFile(wavPath, clip); err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, e.binaryPath,
		"-m", e.modelPath,
		"-f", wavPath,
		"-np",
		"-otxt",
		"-of", wavPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	// whisper.cpp writes the transcript next to the output prefix.
	txt, err := os.ReadFile(wavPath + ".txt")
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return strings.TrimSpace(string(txt)), nil
}
