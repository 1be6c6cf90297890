package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
)

func TestSearchDecodesResults(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/chunks/points/search" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"result":[
			{"score":0.91,"vector":[0.1,0.2],"payload":{"doc_id":"doc-1","chunk_index":2,"text":"metformin dosing","filename":"guide.pdf","category":"guideline","created_at":"2024-05-01T00:00:00Z"}},
			{"score":0.76,"vector":[0.3,0.4],"payload":{"doc_id":"doc-2","chunk_index":0,"text":"insulin titration"}}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks", nil)
	got, err := client.Search(context.Background(), []float32{0.5, 0.5}, 15, 0.4, 128, domain.SearchFilters{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}

	first := got[0]
	if first.DocumentID != "doc-1" || first.ChunkIndex != 2 || first.Score != 0.91 {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if len(first.Embedding) != 2 {
		t.Fatalf("stored vector must be carried for the diversity stage, got %v", first.Embedding)
	}
	if first.Metadata.Filename != "guide.pdf" || first.Metadata.Category != "guideline" {
		t.Fatalf("unexpected metadata: %+v", first.Metadata)
	}
	if first.Metadata.CreatedAt == nil || first.Metadata.CreatedAt.Year() != 2024 {
		t.Fatalf("created_at not parsed: %v", first.Metadata.CreatedAt)
	}
	if got[1].Metadata.CreatedAt != nil {
		t.Fatalf("missing created_at must stay nil")
	}

	if gotBody["limit"].(float64) != 15 {
		t.Fatalf("limit = %v, want 15", gotBody["limit"])
	}
	if gotBody["score_threshold"].(float64) != 0.4 {
		t.Fatalf("score_threshold = %v, want 0.4", gotBody["score_threshold"])
	}
	params, ok := gotBody["params"].(map[string]any)
	if !ok || params["hnsw_ef"].(float64) != 128 {
		t.Fatalf("hnsw_ef not forwarded: %v", gotBody["params"])
	}
	if gotBody["with_vector"] != true {
		t.Fatalf("with_vector must be requested")
	}
}

func TestSearchOmitsOptionalKnobs(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks", nil)
	if _, err := client.Search(context.Background(), []float32{1}, 10, 0, 0, domain.SearchFilters{}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, present := gotBody["score_threshold"]; present {
		t.Fatalf("zero threshold must be omitted")
	}
	if _, present := gotBody["params"]; present {
		t.Fatalf("zero accuracy must be omitted")
	}
	if _, present := gotBody["filter"]; present {
		t.Fatalf("empty filters must be omitted")
	}
}

func TestSearchErrorIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "collection not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "chunks", nil)
	_, err := client.Search(context.Background(), []float32{1}, 10, 0, 0, domain.SearchFilters{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected backend unavailable kind, got %v", err)
	}
}

func TestBuildFilterConditions(t *testing.T) {
	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	filters := domain.SearchFilters{
		DocumentType:    "discharge_summary",
		DateFrom:        &from,
		RequiredPhrases: []string{"metformin"},
		ExcludedTerms:   []string{"pediatric"},
	}

	filter := buildFilter(filters)
	if filter == nil {
		t.Fatalf("expected non-nil filter")
	}

	must, _ := filter["must"].([]map[string]any)
	if len(must) != 3 {
		t.Fatalf("must conditions = %d, want 3", len(must))
	}
	mustNot, _ := filter["must_not"].([]map[string]any)
	if len(mustNot) != 1 {
		t.Fatalf("must_not conditions = %d, want 1", len(mustNot))
	}

	encoded, err := json.Marshal(filter)
	if err != nil {
		t.Fatalf("marshal filter: %v", err)
	}
	for _, fragment := range []string{"discharge_summary", "created_at", "metformin", "pediatric"} {
		if !strings.Contains(string(encoded), fragment) {
			t.Fatalf("filter %s missing fragment %q", encoded, fragment)
		}
	}
}

func TestBuildFilterEmpty(t *testing.T) {
	if got := buildFilter(domain.SearchFilters{}); got != nil {
		t.Fatalf("expected nil filter, got %v", got)
	}
}
