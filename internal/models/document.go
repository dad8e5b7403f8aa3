package models

// Document is one flattened manifest row as stored in the search index.
// The filename doubles as the document id, so reindexing the same manifest
// overwrites rather than duplicates.
type Document struct {
	Filename      string  `json:"filename"`
	Text          string  `json:"text"`
	UpVotes       int     `json:"up_votes"`
	DownVotes     int     `json:"down_votes"`
	Age           string  `json:"age"`
	Gender        string  `json:"gender"`
	Accent        string  `json:"accent"`
	Duration      float64 `json:"duration"`
	GeneratedText string  `json:"generated_text"`
}

// SearchResult is the JSON body returned by GET /search.
type SearchResult struct {
	Hits         []map[string]any `json:"hits"`
	Total        int              `json:"total"`
	Aggregations map[string]any   `json:"aggregations"`
}
