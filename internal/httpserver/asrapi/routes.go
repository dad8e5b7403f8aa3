// Package asrapi serves the transcription HTTP API: a liveness ping and a
// multipart MP3 upload endpoint returning the recognized text.
package asrapi

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mteo/voicesearch/internal/asr"
	"github.com/mteo/voicesearch/internal/audio"
	"github.com/mteo/voicesearch/internal/httpserver/httputil"
	"github.com/mteo/voicesearch/internal/models"
	"github.com/mteo/voicesearch/internal/observability"
)

// Normalizer converts an uploaded payload into 16 kHz mono PCM.
type Normalizer interface {
	Normalize(ctx context.Context, data []byte, filename string) (audio.PCM, error)
}

// Transcriber turns a decoded clip into text.
type Transcriber interface {
	Ready() bool
	Transcribe(ctx context.Context, clip audio.PCM) (models.TranscriptionResult, error)
}

type handler struct {
	normalizer  Normalizer
	transcriber Transcriber
	engineName  string
	obs         *observability.Provider
}

// Register wires up the transcription routes.
func Register(app *fiber.App, normalizer Normalizer, transcriber Transcriber, engineName string, obs *observability.Provider) {
	h := &handler{
		normalizer:  normalizer,
		transcriber: transcriber,
		engineName:  engineName,
		obs:         obs,
	}
	app.Get("/ping", h.ping)
	app.Post("/asr", h.transcribe)
}

func (h *handler) ping(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (h *handler) transcribe(c *fiber.Ctx) error {
	start := time.Now()
	ctx := c.UserContext()

	if h.transcriber == nil || !h.transcriber.Ready() {
		return h.fail(c, start, fiber.StatusInternalServerError, "ASR model not loaded.")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return h.fail(c, start, fiber.StatusBadRequest, "file is required")
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".mp3") {
		return h.fail(c, start, fiber.StatusBadRequest, "Only MP3 files are supported.")
	}

	src, err := fh.Open()
	if err != nil {
		return h.fail(c, start, fiber.StatusBadRequest, "failed to open file")
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return h.fail(c, start, fiber.StatusBadRequest, "failed to read file")
	}

	clip, err := h.normalizer.Normalize(ctx, data, fh.Filename)
	if err != nil {
		if errors.Is(err, audio.ErrUnsupportedFormat) {
			return h.fail(c, start, fiber.StatusBadRequest, "Only MP3 files are supported.")
		}
		log.Printf("asr: decode %q failed: %v", fh.Filename, err)
		return h.fail(c, start, fiber.StatusInternalServerError, "Error processing audio file: "+err.Error())
	}

	result, err := h.transcriber.Transcribe(ctx, clip)
	if err != nil {
		if errors.Is(err, asr.ErrEngineUnavailable) {
			return h.fail(c, start, fiber.StatusInternalServerError, "ASR model not loaded.")
		}
		log.Printf("asr: inference on %q failed: %v", fh.Filename, err)
		return h.fail(c, start, fiber.StatusInternalServerError, "Error processing audio file: "+err.Error())
	}

	h.obs.RecordTranscription(h.engineName, fiber.StatusOK, time.Since(start), result.Duration)
	return c.JSON(models.TranscribeResponse{
		Transcription: result.Text,
		Duration:      result.DurationString(),
	})
}

func (h *handler) fail(c *fiber.Ctx, start time.Time, status int, detail string) error {
	h.obs.RecordTranscription(h.engineName, status, time.Since(start), 0)
	return httputil.WriteDetail(c, status, detail)
}
