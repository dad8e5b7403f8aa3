// Package search turns free text and facet filters into index queries.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mteo/voicesearch/internal/elastic"
	"github.com/mteo/voicesearch/internal/models"
)

// Service serves stateless search requests against one index.
type Service struct {
	client   *elastic.Client
	index    string
	pageSize int
}

// NewService wires a search service. pageSize caps every result set; there
// is no pagination cursor.
func NewService(client *elastic.Client, index string, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Service{client: client, index: index, pageSize: pageSize}
}

// Search runs one query and reshapes the engine response into hits, total
// and facet counts.
func (s *Service) Search(ctx context.Context, q string, f Filters) (models.SearchResult, error) {
	body, err := json.Marshal(BuildQuery(q, f))
	if err != nil {
		return models.SearchResult{}, fmt.Errorf("encode query: %w", err)
	}
	return s.client.Search(ctx, s.index, bytes.NewReader(body), s.pageSize)
}
