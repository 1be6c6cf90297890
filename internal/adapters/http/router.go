package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/arkhipovma/clinsearch/internal/core/domain"
	"github.com/arkhipovma/clinsearch/internal/core/ports"
	"github.com/arkhipovma/clinsearch/internal/infrastructure/resilience"
	"github.com/arkhipovma/clinsearch/internal/observability/metrics"
)

const serviceName = "clinsearch-api"

type Router struct {
	searcher ports.PassageSearcher
	feedback ports.FeedbackStore
	executor *resilience.Executor
	metrics  *metrics.SearchMetrics

	rateLimitRPS   float64
	rateLimitBurst int
}

func NewRouter(
	searcher ports.PassageSearcher,
	feedback ports.FeedbackStore,
	executor *resilience.Executor,
	m *metrics.SearchMetrics,
	rateLimitRPS float64,
	rateLimitBurst int,
) *Router {
	return &Router{
		searcher:       searcher,
		feedback:       feedback,
		executor:       executor,
		metrics:        m,
		rateLimitRPS:   rateLimitRPS,
		rateLimitBurst: rateLimitBurst,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/search", rt.search)
	mux.HandleFunc("/v1/feedback", rt.recordFeedback)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{"status": "ok"}
	if rt.executor != nil {
		if states := rt.executor.BreakerStates(); len(states) > 0 {
			payload["breakers"] = states
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	start := time.Now()
	if rt.metrics != nil {
		rt.metrics.StartSearch()
	}

	response, err := rt.searcher.Search(r.Context(), req)

	if rt.metrics != nil {
		rt.metrics.FinishSearch(serviceName, time.Since(start), err)
	}
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}

	if rt.metrics != nil {
		rt.metrics.ObserveResultCount(response.TotalCount)
		if req.EnableBM25 && !response.BM25Enabled {
			rt.metrics.SourceDegraded(serviceName, string(domain.SourceLexical))
		}
		if req.UseGraph && !response.GraphEnabled {
			rt.metrics.SourceDegraded(serviceName, string(domain.SourceGraph))
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (rt *Router) recordFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if rt.feedback == nil {
		writeError(w, http.StatusNotImplemented, "feedback store not configured")
		return
	}

	var req struct {
		DocumentID string  `json:"document_id"`
		Delta      float64 `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.DocumentID) == "" {
		writeError(w, http.StatusBadRequest, "document_id is required")
		return
	}

	if err := rt.feedback.RecordFeedback(r.Context(), req.DocumentID, req.Delta); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
