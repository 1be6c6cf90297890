package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
	"github.com/arkhipovma/clinsearch/internal/infrastructure/httpx"
	"github.com/arkhipovma/clinsearch/internal/infrastructure/resilience"
)

// Client is the dense (cosine) search adapter over the Qdrant HTTP API.
type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, collection string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   executor,
	}
}

func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	topK int,
	similarityThreshold float64,
	accuracy int,
	filters domain.SearchFilters,
) ([]domain.RawSourceResult, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        topK,
		"with_payload": true,
		// MMR needs the stored embeddings downstream.
		"with_vector": true,
	}
	if similarityThreshold > 0 {
		reqBody["score_threshold"] = similarityThreshold
	}
	if accuracy > 0 {
		reqBody["params"] = map[string]any{"hnsw_ef": accuracy}
	}
	if filter := buildFilter(filters); filter != nil {
		reqBody["filter"] = filter
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
			Vector  []float32      `json:"vector"`
		} `json:"result"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, fmt.Sprintf("/collections/%s/points/search", c.collection), reqBody, &searchResp)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "qdrant.search", call, httpx.Classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, httpx.WrapBackend("qdrant search", err)
	}

	out := make([]domain.RawSourceResult, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.RawSourceResult{
			DocumentID: payloadString(r.Payload, "doc_id"),
			ChunkIndex: payloadInt(r.Payload, "chunk_index"),
			Text:       payloadString(r.Payload, "text"),
			Score:      r.Score,
			Embedding:  r.Vector,
			Metadata:   payloadMetadata(r.Payload),
		})
	}
	return out, nil
}

func buildFilter(filters domain.SearchFilters) map[string]any {
	var must, mustNot []map[string]any

	if filters.DocumentType != "" {
		must = append(must, map[string]any{
			"key":   "category",
			"match": map[string]any{"value": filters.DocumentType},
		})
	}
	if filters.DateFrom != nil || filters.DateTo != nil {
		rangeCond := map[string]any{}
		if filters.DateFrom != nil {
			rangeCond["gte"] = filters.DateFrom.UTC().Format(time.RFC3339)
		}
		if filters.DateTo != nil {
			rangeCond["lte"] = filters.DateTo.UTC().Format(time.RFC3339)
		}
		must = append(must, map[string]any{
			"key":   "created_at",
			"range": rangeCond,
		})
	}
	for _, phrase := range filters.RequiredPhrases {
		must = append(must, map[string]any{
			"key":   "text",
			"match": map[string]any{"text": phrase},
		})
	}
	for _, term := range filters.ExcludedTerms {
		mustNot = append(mustNot, map[string]any{
			"key":   "text",
			"match": map[string]any{"text": term},
		})
	}

	if len(must) == 0 && len(mustNot) == 0 {
		return nil
	}
	filter := map[string]any{}
	if len(must) > 0 {
		filter["must"] = must
	}
	if len(mustNot) > 0 {
		filter["must_not"] = mustNot
	}
	return filter
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal search body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return httpx.NewStatusError("qdrant", "search", resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode search response: %w", err)
	}
	return nil
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func payloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func payloadMetadata(payload map[string]any) domain.ResultMetadata {
	meta := domain.ResultMetadata{
		Filename: payloadString(payload, "filename"),
		Category: payloadString(payload, "category"),
	}
	if raw, ok := payload["tags"].([]any); ok {
		for _, t := range raw {
			if s, ok := t.(string); ok {
				meta.Tags = append(meta.Tags, s)
			}
		}
	}
	if created := payloadString(payload, "created_at"); created != "" {
		if ts, err := time.Parse(time.RFC3339, created); err == nil {
			meta.CreatedAt = &ts
		}
	}
	return meta
}
