package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
	"github.com/arkhipovma/clinsearch/internal/observability/metrics"
)

type stubSearcher struct {
	response *domain.SearchResponse
	err      error
	gotReq   domain.SearchRequest
}

func (s *stubSearcher) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	s.gotReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

type stubFeedback struct {
	gotDocID string
	gotDelta float64
	err      error
}

func (s *stubFeedback) BoostFactors(_ context.Context, _ []string) (map[string]float64, error) {
	return nil, nil
}

func (s *stubFeedback) RecordFeedback(_ context.Context, documentID string, delta float64) error {
	s.gotDocID = documentID
	s.gotDelta = delta
	return s.err
}

func newTestRouter(searcher *stubSearcher, feedback *stubFeedback, rps float64, burst int) http.Handler {
	return NewRouter(searcher, feedback, nil, metrics.NewSearchMetrics("test"), rps, burst).Handler()
}

func TestSearchEndpointReturnsResults(t *testing.T) {
	searcher := &stubSearcher{response: &domain.SearchResponse{
		Query:      "diabetes",
		Results:    []domain.FusedResult{{DocumentID: "doc-1", CombinedScore: 0.8}},
		TotalCount: 1,
	}}
	handler := newTestRouter(searcher, &stubFeedback{}, 0, 0)

	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":"diabetes","top_k":5,"enable_bm25":true}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if searcher.gotReq.TopK != 5 || !searcher.gotReq.EnableBM25 {
		t.Fatalf("request not decoded: %+v", searcher.gotReq)
	}

	var resp domain.SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalCount != 1 || resp.Results[0].DocumentID != "doc-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id header missing")
	}
}

func TestSearchEndpointRejectsEmptyQuery(t *testing.T) {
	handler := newTestRouter(&stubSearcher{}, &stubFeedback{}, 0, 0)

	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":"   "}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchEndpointRejectsMalformedJSON(t *testing.T) {
	handler := newTestRouter(&stubSearcher{}, &stubFeedback{}, 0, 0)

	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchEndpointMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(&stubSearcher{}, &stubFeedback{}, 0, 0)

	req := httptest.NewRequest(http.MethodGet, "/v1/search", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestSearchEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", domain.WrapError(domain.ErrInvalidInput, "search", errors.New("query is empty")), http.StatusBadRequest},
		{"embedding down", domain.WrapError(domain.ErrEmbedding, "embed query", errors.New("ollama refused")), http.StatusServiceUnavailable},
		{"cancelled", context.Canceled, statusClientClosedRequest},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestRouter(&stubSearcher{err: tc.err}, &stubFeedback{}, 0, 0)

			req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":"q"}`))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestRateLimitReturns429(t *testing.T) {
	searcher := &stubSearcher{response: &domain.SearchResponse{}}
	handler := newTestRouter(searcher, &stubFeedback{}, 1, 1)

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":"q"}`)))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(`{"query":"q"}`)))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
}

func TestHealthzReportsOK(t *testing.T) {
	handler := newTestRouter(&stubSearcher{}, &stubFeedback{}, 0, 0)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestFeedbackEndpointRecords(t *testing.T) {
	feedback := &stubFeedback{}
	handler := newTestRouter(&stubSearcher{}, feedback, 0, 0)

	req := httptest.NewRequest(http.MethodPost, "/v1/feedback", strings.NewReader(`{"document_id":"doc-1","delta":0.2}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	if feedback.gotDocID != "doc-1" || feedback.gotDelta != 0.2 {
		t.Fatalf("feedback not forwarded: %q %v", feedback.gotDocID, feedback.gotDelta)
	}
}

func TestFeedbackEndpointRequiresDocumentID(t *testing.T) {
	handler := newTestRouter(&stubSearcher{}, &stubFeedback{}, 0, 0)

	req := httptest.NewRequest(http.MethodPost, "/v1/feedback", strings.NewReader(`{"delta":0.2}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	handler := newTestRouter(&stubSearcher{}, &stubFeedback{}, 0, 0)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
