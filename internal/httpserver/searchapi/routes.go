// Package searchapi serves the search frontend's JSON API.
package searchapi

import (
	"context"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mteo/voicesearch/internal/httpserver/httputil"
	"github.com/mteo/voicesearch/internal/models"
	"github.com/mteo/voicesearch/internal/search"
)

// Searcher runs one query against the transcription index.
type Searcher interface {
	Search(ctx context.Context, q string, f search.Filters) (models.SearchResult, error)
}

type handler struct {
	searcher Searcher
}

// Register wires up the search routes.
func Register(app *fiber.App, searcher Searcher) {
	h := &handler{searcher: searcher}
	app.Get("/search", h.search)
}

func (h *handler) search(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	filters := search.Filters{
		Age:    strings.TrimSpace(c.Query("age")),
		Gender: strings.TrimSpace(c.Query("gender")),
		Accent: strings.TrimSpace(c.Query("accent")),
	}

	result, err := h.searcher.Search(c.UserContext(), q, filters)
	if err != nil {
		log.Printf("search: query %q failed: %v", q, err)
		return httputil.WriteError(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(result)
}
