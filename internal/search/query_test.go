package search

import (
	"encoding/json"
	"strings"
	"testing"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func boolPart(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	query, ok := body["query"].(map[string]any)
	if !ok {
		t.Fatalf("missing query: %s", mustJSON(t, body))
	}
	b, ok := query["bool"].(map[string]any)
	if !ok {
		t.Fatalf("missing bool: %s", mustJSON(t, body))
	}
	return b
}

func TestBuildQueryEmptyIsMatchAll(t *testing.T) {
	body := BuildQuery("", Filters{})
	b := boolPart(t, body)

	must := b["must"].([]any)
	if len(must) != 1 {
		t.Fatalf("must clauses: want 1, got %d", len(must))
	}
	if _, ok := must[0].(map[string]any)["match_all"]; !ok {
		t.Errorf("want match_all, got %s", mustJSON(t, must[0]))
	}
	if _, ok := b["filter"]; ok {
		t.Error("no filters supplied, filter clause should be absent")
	}
}

func TestBuildQueryTextSearchesBothFields(t *testing.T) {
	body := BuildQuery("hello world", Filters{})
	must := boolPart(t, body)["must"].([]any)

	mm, ok := must[0].(map[string]any)["multi_match"].(map[string]any)
	if !ok {
		t.Fatalf("want multi_match, got %s", mustJSON(t, must[0]))
	}
	if mm["query"] != "hello world" {
		t.Errorf("query text: got %v", mm["query"])
	}
	fields := mm["fields"].([]string)
	if len(fields) != 2 || fields[0] != "generated_text" || fields[1] != "text" {
		t.Errorf("fields: got %v", fields)
	}
}

func TestBuildQueryFiltersAreConjunctive(t *testing.T) {
	body := BuildQuery("test", Filters{Age: "twenties", Gender: "female"})
	filters := boolPart(t, body)["filter"].([]any)

	if len(filters) != 2 {
		t.Fatalf("filters: want 2, got %d", len(filters))
	}
	got := mustJSON(t, filters)
	for _, want := range []string{`"age":"twenties"`, `"gender":"female"`} {
		if !strings.Contains(got, want) {
			t.Errorf("filters missing %s: %s", want, got)
		}
	}
}

func TestBuildQueryAlwaysRequestsFacets(t *testing.T) {
	for _, q := range []string{"", "something"} {
		body := BuildQuery(q, Filters{})
		aggs, ok := body["aggs"].(map[string]any)
		if !ok {
			t.Fatalf("q=%q: missing aggs", q)
		}
		for _, name := range []string{"ages", "genders", "accents"} {
			if _, ok := aggs[name]; !ok {
				t.Errorf("q=%q: missing %s aggregation", q, name)
			}
		}
	}
}
