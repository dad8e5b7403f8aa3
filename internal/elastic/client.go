// Package elastic wraps the official Elasticsearch client with the handful
// of operations the loader and search frontend need.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/mteo/voicesearch/internal/models"
)

// Client is a thin wrapper over the low-level ES API.
type Client struct {
	es *elasticsearch.Client
}

// New builds a client for a single-node cluster URL.
func New(url string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
	})
	if err != nil {
		return nil, fmt.Errorf("build elasticsearch client: %w", err)
	}
	return &Client{es: es}, nil
}

// WaitForCluster probes the cluster until it responds, up to retries
// attempts spaced delay apart. This is the only retry loop in the system.
func (c *Client) WaitForCluster(ctx context.Context, retries int, delay time.Duration) error {
	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		info, err := c.info(ctx)
		if err == nil {
			log.Printf("connected to ES %s on cluster %s", info.Version.Number, info.ClusterName)
			return nil
		}
		lastErr = err
		log.Printf("[%d/%d] elasticsearch not ready (%v), retrying in %s", attempt, retries, err, delay)
	}
	return fmt.Errorf("elasticsearch connection failed after %d attempts: %w", retries, lastErr)
}

type clusterInfo struct {
	ClusterName string `json:"cluster_name"`
	Version     struct {
		Number string `json:"number"`
	} `json:"version"`
}

func (c *Client) info(ctx context.Context) (clusterInfo, error) {
	res, err := c.es.Info(c.es.Info.WithContext(ctx))
	if err != nil {
		return clusterInfo{}, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return clusterInfo{}, fmt.Errorf("cluster info: %s", res.Status())
	}
	var info clusterInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return clusterInfo{}, fmt.Errorf("decode cluster info: %w", err)
	}
	return info, nil
}

// RecreateIndex deletes any existing index of that name and creates it
// fresh with the given mapping body.
func (c *Client) RecreateIndex(ctx context.Context, name, mapping string) error {
	exists, err := c.es.Indices.Exists([]string{name}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	exists.Body.Close()
	if exists.StatusCode == 200 {
		del, err := c.es.Indices.Delete([]string{name}, c.es.Indices.Delete.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("delete index %s: %w", name, err)
		}
		defer del.Body.Close()
		if del.IsError() {
			return fmt.Errorf("delete index %s: %s", name, del.Status())
		}
		log.Printf("deleted existing index %s", name)
	}

	create, err := c.es.Indices.Create(name,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	defer create.Body.Close()
	if create.IsError() {
		return fmt.Errorf("create index %s: %s: %s", name, create.Status(), readBody(create))
	}
	log.Printf("created index %s", name)
	return nil
}

// BulkResult reports a bulk load outcome. Failed documents are counted, not
// retried.
type BulkResult struct {
	Succeeded int
	Failed    int
	Errors    []string
}

// BulkIndex writes all documents in one _bulk request, one action+source
// pair per document, the filename as document id.
func (c *Client) BulkIndex(ctx context.Context, index string, docs []models.Document) (BulkResult, error) {
	var payload bytes.Buffer
	enc := json.NewEncoder(&payload)
	for _, doc := range docs {
		action := map[string]map[string]string{
			"index": {"_index": index, "_id": doc.Filename},
		}
		if err := enc.Encode(action); err != nil {
			return BulkResult{}, fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(doc); err != nil {
			return BulkResult{}, fmt.Errorf("encode bulk source: %w", err)
		}
	}

	res, err := c.es.Bulk(bytes.NewReader(payload.Bytes()), c.es.Bulk.WithContext(ctx))
	if err != nil {
		return BulkResult{}, fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return BulkResult{}, fmt.Errorf("bulk request: %s: %s", res.Status(), readBody(res))
	}

	var parsed struct {
		Items []map[string]struct {
			Status int             `json:"status"`
			Error  json.RawMessage `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return BulkResult{}, fmt.Errorf("decode bulk response: %w", err)
	}

	var result BulkResult
	for _, item := range parsed.Items {
		for _, op := range item {
			if len(op.Error) > 0 && string(op.Error) != "null" {
				result.Failed++
				if len(result.Errors) < 3 {
					result.Errors = append(result.Errors, string(op.Error))
				}
			} else {
				result.Succeeded++
			}
		}
	}
	return result, nil
}

// Count returns the document count of an index.
func (c *Client) Count(ctx context.Context, index string) (int, error) {
	res, err := c.es.Count(c.es.Count.WithContext(ctx), c.es.Count.WithIndex(index))
	if err != nil {
		return 0, fmt.Errorf("count request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("count request: %s", res.Status())
	}
	var parsed struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return parsed.Count, nil
}

// Search runs a query body against an index and reshapes the response into
// hits, total and aggregations.
func (c *Client) Search(ctx context.Context, index string, body io.Reader, size int) (models.SearchResult, error) {
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(body),
		c.es.Search.WithSize(size),
	)
	if err != nil {
		return models.SearchResult{}, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return models.SearchResult{}, fmt.Errorf("search request: %s: %s", res.Status(), readBody(res))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []map[string]any `json:"hits"`
		} `json:"hits"`
		Aggregations map[string]any `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return models.SearchResult{}, fmt.Errorf("decode search response: %w", err)
	}

	hits := parsed.Hits.Hits
	if hits == nil {
		hits = []map[string]any{}
	}
	aggs := parsed.Aggregations
	if aggs == nil {
		aggs = map[string]any{}
	}
	return models.SearchResult{Hits: hits, Total: parsed.Hits.Total.Value, Aggregations: aggs}, nil
}

func readBody(res *esapi.Response) string {
	b, err := io.ReadAll(io.LimitReader(res.Body, 512))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
