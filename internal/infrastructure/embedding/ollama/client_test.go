package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestEmbedQuerySendsModelAndInput(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
	}))
	defer server.Close()

	client := New(server.URL, "nomic-embed-text", nil)
	got, err := client.EmbedQuery(context.Background(), "diabetes treatment")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(got) != 3 || got[0] != 0.1 {
		t.Fatalf("unexpected embedding: %v", got)
	}
	if gotBody["model"] != "nomic-embed-text" {
		t.Fatalf("model = %v", gotBody["model"])
	}
	input, ok := gotBody["input"].([]any)
	if !ok || len(input) != 1 || input[0] != "diabetes treatment" {
		t.Fatalf("input = %v", gotBody["input"])
	}
}

func TestEmbedQueryEmptyResultIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "nomic-embed-text", nil)
	_, err := client.EmbedQuery(context.Background(), "diabetes")
	if err == nil || !strings.Contains(err.Error(), "empty embedding") {
		t.Fatalf("expected empty embedding error, got %v", err)
	}
}

func TestEmbedQueryStatusErrorIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, "nomic-embed-text", nil)
	_, err := client.EmbedQuery(context.Background(), "diabetes")
	if err == nil || !strings.Contains(err.Error(), "model not loaded") {
		t.Fatalf("expected status error with body, got %v", err)
	}
}
