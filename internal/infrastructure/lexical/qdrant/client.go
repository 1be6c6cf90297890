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

const sparseVectorName = "text_sparse"

// Client is the lexical search adapter: BM25-style sparse vectors over a
// Qdrant sparse collection. Scores are reported as normalized ranks so the
// fusion stage sees a [0,1] scale regardless of raw sparse dot products.
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

func (c *Client) SearchBM25(
	ctx context.Context,
	queryText string,
	expandedTerms []string,
	topK int,
	filters domain.SearchFilters,
) ([]domain.RawSourceResult, error) {
	sparse := encodeQuery(queryText, expandedTerms)
	if len(sparse.Indices) == 0 {
		return nil, nil
	}

	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   sparseVectorName,
			"vector": sparse,
		},
		"limit":        topK,
		"with_payload": true,
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, fmt.Sprintf("/collections/%s/points/search", c.collection), reqBody, &searchResp)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "qdrant.lexical", call, httpx.Classify)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, httpx.WrapBackend("lexical search", err)
	}

	total := len(searchResp.Result)
	out := make([]domain.RawSourceResult, 0, total)
	for rank, r := range searchResp.Result {
		out = append(out, domain.RawSourceResult{
			DocumentID: payloadString(r.Payload, "doc_id"),
			ChunkIndex: payloadInt(r.Payload, "chunk_index"),
			Text:       payloadString(r.Payload, "text"),
			Score:      normalizedRank(rank, total),
			Metadata:   payloadMetadata(r.Payload),
		})
	}
	return out, nil
}

// normalizedRank maps rank 0..n-1 onto (0,1], best hit first.
func normalizedRank(rank, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(total-rank) / float64(total)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal lexical body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create lexical request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant lexical request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return httpx.NewStatusError("qdrant", "lexical", resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode lexical response: %w", err)
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
	if v, ok := payload[key].(float64); ok {
		return int(v)
	}
	return 0
}

func payloadMetadata(payload map[string]any) domain.ResultMetadata {
	meta := domain.ResultMetadata{
		Filename: payloadString(payload, "filename"),
		Category: payloadString(payload, "category"),
	}
	if created := payloadString(payload, "created_at"); created != "" {
		if ts, err := time.Parse(time.RFC3339, created); err == nil {
			meta.CreatedAt = &ts
		}
	}
	return meta
}
