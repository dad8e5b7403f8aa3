// Package indexer bulk-loads the transcribed manifest into the search
// index, recreating the index schema on every run.
package indexer

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/mteo/voicesearch/internal/elastic"
	"github.com/mteo/voicesearch/internal/manifest"
	"github.com/mteo/voicesearch/internal/models"
)

// Mapping is the fixed field-type schema of the transcriptions index.
const Mapping = `{
  "mappings": {
    "properties": {
      "filename":       {"type": "keyword"},
      "text":           {"type": "text"},
      "up_votes":       {"type": "integer"},
      "down_votes":     {"type": "integer"},
      "age":            {"type": "keyword"},
      "gender":         {"type": "keyword"},
      "accent":         {"type": "keyword"},
      "duration":       {"type": "float"},
      "generated_text": {"type": "text"}
    }
  }
}`

// Loader drives one reindex run.
type Loader struct {
	client *elastic.Client
	index  string
}

// NewLoader wires a loader for the given index name.
func NewLoader(client *elastic.Client, index string) *Loader {
	return &Loader{client: client, index: index}
}

// Reindex loads the transcribed CSV, recreates the index and bulk-writes
// every row in a single request, then verifies the document count. Failed
// documents are reported, not retried.
func (l *Loader) Reindex(ctx context.Context, csvPath string) error {
	table, err := manifest.Load(csvPath)
	if err != nil {
		return err
	}
	docs := DocumentsFromTable(table)
	log.Printf("loaded %d records from %s, columns: %v", len(docs), csvPath, table.Columns)

	if err := l.client.RecreateIndex(ctx, l.index, Mapping); err != nil {
		return err
	}

	result, err := l.client.BulkIndex(ctx, l.index, docs)
	if err != nil {
		return fmt.Errorf("bulk load: %w", err)
	}
	log.Printf("indexed %d docs with %d errors", result.Succeeded, result.Failed)
	for _, detail := range result.Errors {
		log.Printf("bulk error: %s", detail)
	}

	count, err := l.client.Count(ctx, l.index)
	if err != nil {
		return fmt.Errorf("verify count: %w", err)
	}
	log.Printf("index %s contains %d docs", l.index, count)
	return nil
}

// DocumentsFromTable flattens manifest rows into typed documents. Duration
// coerces to float with 0.0 for unparsable or missing values; vote counts
// likewise default to 0; everything else stays a string, empty when absent.
func DocumentsFromTable(t *manifest.Table) []models.Document {
	docs := make([]models.Document, 0, len(t.Rows))
	for _, row := range t.Rows {
		docs = append(docs, models.Document{
			Filename:      row[manifest.ColFilename],
			Text:          row["text"],
			UpVotes:       toInt(row["up_votes"]),
			DownVotes:     toInt(row["down_votes"]),
			Age:           row["age"],
			Gender:        row["gender"],
			Accent:        row["accent"],
			Duration:      toFloat(row[manifest.ColDuration]),
			GeneratedText: row[manifest.ColGeneratedText],
		})
	}
	return docs
}

func toInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func toFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return f
}
