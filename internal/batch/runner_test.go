package batch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mteo/voicesearch/internal/manifest"
)

func fixtureManifest(t *testing.T, rows ...string) (manifestPath, audioDir string) {
	t.Helper()
	dir := t.TempDir()
	audioDir = filepath.Join(dir, "clips")
	if err := os.Mkdir(audioDir, 0o755); err != nil {
		t.Fatalf("mkdir clips: %v", err)
	}
	content := "filename,text\n" + strings.Join(rows, "\n") + "\n"
	manifestPath = filepath.Join(dir, "cv-valid-dev.csv")
	if err := os.WriteFile(manifestPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return manifestPath, audioDir
}

func touchAudio(t *testing.T, audioDir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(audioDir, name), []byte("mp3bytes"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
}

func TestRunMarksMissingFilesAndAttemptsRest(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transcription": "HELLO WORLD", "duration": "2.5"}`))
	}))
	defer server.Close()

	manifestPath, audioDir := fixtureManifest(t,
		"sample-0.mp3,hello",
		"sample-1.mp3,missing",
		"sample-2.mp3,world",
	)
	touchAudio(t, audioDir, "sample-0.mp3")
	touchAudio(t, audioDir, "sample-2.mp3")

	runner := NewRunner(NewClient(server.URL, 5*time.Second), audioDir, 100)
	summary, err := runner.Run(context.Background(), manifestPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.Total != 3 || summary.Transcribed != 2 || summary.Errors != 1 {
		t.Errorf("summary: got %+v", summary)
	}
	if calls != 2 {
		t.Errorf("service calls: want 2, got %d", calls)
	}

	out, err := manifest.Load(summary.OutputPath)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	if len(out.Rows) != 3 {
		t.Fatalf("output rows: want 3, got %d", len(out.Rows))
	}
	if got := out.Rows[1][manifest.ColGeneratedText]; got != "File not found" {
		t.Errorf("missing-file marker: got %q", got)
	}
	if got := out.Rows[0][manifest.ColGeneratedText]; got != "HELLO WORLD" {
		t.Errorf("transcription: got %q", got)
	}
	if got := out.Rows[0][manifest.ColDuration]; got != "2.5" {
		t.Errorf("duration: got %q", got)
	}
	// Every row ends with a non-empty generated_text.
	for i, row := range out.Rows {
		if row[manifest.ColGeneratedText] == "" {
			t.Errorf("row %d left unprocessed", i)
		}
	}
}

func TestRunRecordsAPIErrorsAndContinues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "boom"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	manifestPath, audioDir := fixtureManifest(t, "sample-0.mp3,hello", "sample-1.mp3,world")
	touchAudio(t, audioDir, "sample-0.mp3")
	touchAudio(t, audioDir, "sample-1.mp3")

	runner := NewRunner(NewClient(server.URL, 5*time.Second), audioDir, 100)
	summary, err := runner.Run(context.Background(), manifestPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Errors != 2 || summary.Transcribed != 0 {
		t.Errorf("summary: got %+v", summary)
	}

	out, err := manifest.Load(summary.OutputPath)
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	for i, row := range out.Rows {
		if !strings.HasPrefix(row[manifest.ColGeneratedText], "API Error: ") {
			t.Errorf("row %d: want API Error marker, got %q", i, row[manifest.ColGeneratedText])
		}
	}
}

func TestRunRecordsProcessingErrorOnBadResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	manifestPath, audioDir := fixtureManifest(t, "sample-0.mp3,hello")
	touchAudio(t, audioDir, "sample-0.mp3")

	runner := NewRunner(NewClient(server.URL, 5*time.Second), audioDir, 100)
	summary, err := runner.Run(context.Background(), manifestPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Errors != 1 {
		t.Errorf("summary: got %+v", summary)
	}

	out, _ := manifest.Load(summary.OutputPath)
	if !strings.HasPrefix(out.Rows[0][manifest.ColGeneratedText], "Processing Error: ") {
		t.Errorf("want Processing Error marker, got %q", out.Rows[0][manifest.ColGeneratedText])
	}
}

func TestRunFatalOnMissingManifest(t *testing.T) {
	runner := NewRunner(NewClient("http://localhost:0", time.Second), t.TempDir(), 100)
	if _, err := runner.Run(context.Background(), filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}

func TestRunDoesNotMutateSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"transcription": "X", "duration": "1.0"}`))
	}))
	defer server.Close()

	manifestPath, audioDir := fixtureManifest(t, "sample-0.mp3,hello")
	touchAudio(t, audioDir, "sample-0.mp3")
	before, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("read source: %v", err)
	}

	runner := NewRunner(NewClient(server.URL, 5*time.Second), audioDir, 100)
	if _, err := runner.Run(context.Background(), manifestPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	after, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("reread source: %v", err)
	}
	if string(before) != string(after) {
		t.Error("source manifest was mutated")
	}
}
