package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/mteo/voicesearch/internal/models"
)

// TransportError marks network and HTTP-status failures from the
// transcription endpoint so the runner can record them as API errors rather
// than processing errors.
type TransportError struct {
	err error
}

func (e *TransportError) Error() string { return e.err.Error() }
func (e *TransportError) Unwrap() error { return e.err }

// Client posts audio files to the transcription service.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient builds a client for the given /asr endpoint URL.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// Transcribe uploads one audio file and decodes the service response. The
// file handle is scoped to this call.
func (c *Client) Transcribe(ctx context.Context, audioPath, filename string) (models.TranscribeResponse, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return models.TranscribeResponse{}, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return models.TranscribeResponse{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return models.TranscribeResponse{}, fmt.Errorf("copy audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return models.TranscribeResponse{}, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return models.TranscribeResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return models.TranscribeResponse{}, &TransportError{err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.TranscribeResponse{}, &TransportError{err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return models.TranscribeResponse{}, &TransportError{err: fmt.Errorf("http %d: %s", resp.StatusCode, truncate(payload, 200))}
	}

	var parsed models.TranscribeResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return models.TranscribeResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return parsed, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
