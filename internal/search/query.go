package search

// Filters are the optional exact-match facet filters. All supplied filters
// must match.
type Filters struct {
	Age    string
	Gender string
	Accent string
}

// BuildQuery translates free text plus filters into an Elasticsearch query
// body with the three facet aggregations always attached.
func BuildQuery(q string, f Filters) map[string]any {
	var must any
	if q == "" {
		must = map[string]any{"match_all": map[string]any{}}
	} else {
		must = map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"generated_text", "text"},
			},
		}
	}

	boolQuery := map[string]any{"must": []any{must}}

	var filters []any
	for _, term := range []struct {
		field string
		value string
	}{
		{"age", f.Age},
		{"gender", f.Gender},
		{"accent", f.Accent},
	} {
		if term.value == "" {
			continue
		}
		filters = append(filters, map[string]any{
			"term": map[string]any{term.field: term.value},
		})
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"aggs": map[string]any{
			"ages":    map[string]any{"terms": map[string]any{"field": "age"}},
			"genders": map[string]any{"terms": map[string]any{"field": "gender"}},
			"accents": map[string]any{"terms": map[string]any{"field": "accent"}},
		},
	}
}
