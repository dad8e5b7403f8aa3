package asrapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/mteo/voicesearch/internal/audio"
	"github.com/mteo/voicesearch/internal/models"
)

type fakeNormalizer struct {
	clip audio.PCM
	err  error
}

func (f *fakeNormalizer) Normalize(_ context.Context, _ []byte, _ string) (audio.PCM, error) {
	return f.clip, f.err
}

type fakeTranscriber struct {
	ready  bool
	result models.TranscriptionResult
	err    error
}

func (f *fakeTranscriber) Ready() bool { return f.ready }

func (f *fakeTranscriber) Transcribe(_ context.Context, _ audio.PCM) (models.TranscriptionResult, error) {
	return f.result, f.err
}

func newTestApp(n Normalizer, t Transcriber) *fiber.App {
	app := fiber.New()
	Register(app, n, t, "test", nil)
	return app
}

func uploadRequest(t *testing.T, field, filename string, payload []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/asr", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeDetail(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Detail
}

func TestPing(t *testing.T) {
	app := newTestApp(&fakeNormalizer{}, &fakeTranscriber{ready: true})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	if err != nil {
		t.Fatalf("ping request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "pong" {
		t.Errorf("expected pong, got %q", body)
	}
}

func TestTranscribeSuccess(t *testing.T) {
	clip := audio.PCM{Samples: make([]int, 24000), SampleRate: 16000}
	app := newTestApp(
		&fakeNormalizer{clip: clip},
		&fakeTranscriber{ready: true, result: models.TranscriptionResult{Text: "hello world", Duration: 1.5}},
	)

	resp, err := app.Test(uploadRequest(t, "file", "sample.mp3", []byte("mp3-bytes")))
	if err != nil {
		t.Fatalf("asr request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body models.TranscribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Transcription != "hello world" {
		t.Errorf("transcription = %q, want %q", body.Transcription, "hello world")
	}
	if body.Duration != "1.5" {
		t.Errorf("duration = %q, want %q", body.Duration, "1.5")
	}
}

func TestTranscribeRejectsNonMP3(t *testing.T) {
	app := newTestApp(&fakeNormalizer{}, &fakeTranscriber{ready: true})

	resp, err := app.Test(uploadRequest(t, "file", "sample.wav", []byte("wav-bytes")))
	if err != nil {
		t.Fatalf("asr request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if detail := decodeDetail(t, resp); detail != "Only MP3 files are supported." {
		t.Errorf("detail = %q", detail)
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	app := newTestApp(&fakeNormalizer{}, &fakeTranscriber{ready: true})

	resp, err := app.Test(uploadRequest(t, "audio", "sample.mp3", []byte("mp3-bytes")))
	if err != nil {
		t.Fatalf("asr request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestTranscribeEngineNotLoaded(t *testing.T) {
	app := newTestApp(&fakeNormalizer{}, &fakeTranscriber{ready: false})

	resp, err := app.Test(uploadRequest(t, "file", "sample.mp3", []byte("mp3-bytes")))
	if err != nil {
		t.Fatalf("asr request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if detail := decodeDetail(t, resp); detail != "ASR model not loaded." {
		t.Errorf("detail = %q", detail)
	}
}

func TestTranscribeInferenceFailure(t *testing.T) {
	app := newTestApp(
		&fakeNormalizer{clip: audio.PCM{Samples: []int{0}, SampleRate: 16000}},
		&fakeTranscriber{ready: true, err: errors.New("model crashed")},
	)

	resp, err := app.Test(uploadRequest(t, "file", "sample.mp3", []byte("mp3-bytes")))
	if err != nil {
		t.Fatalf("asr request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if detail := decodeDetail(t, resp); detail != "Error processing audio file: model crashed" {
		t.Errorf("detail = %q", detail)
	}
}
