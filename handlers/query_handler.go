// Package handlers contains the HTTP handlers for the assistant API.
// Handlers stay thin: decode, validate, delegate, encode.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lendkraft/bfsi-assistant/models"
	"github.com/lendkraft/bfsi-assistant/services/assistant"
	"github.com/lendkraft/bfsi-assistant/services/matcher"
	"github.com/lendkraft/bfsi-assistant/utils"
)

// QueryRequest is the body of POST /api/v1/query
type QueryRequest struct {
	Query   string `json:"query" validate:"required,min=3,max=2000"`
	Explain bool   `json:"explain,omitempty"`
}

// QueryResponse is the body returned for a processed query
type QueryResponse struct {
	RequestID string `json:"request_id"`
	assistant.QueryResult
}

// AssistantService defines the orchestrator operations the handler needs
type AssistantService interface {
	ProcessQuery(ctx context.Context, query string, explainTier bool) assistant.QueryResult
	GetAssistantInfo() assistant.Info
	TopMatches(ctx context.Context, query string, k int) ([]matcher.ScoredSample, error)
}

// QueryHandler handles query-related HTTP requests
type QueryHandler struct {
	service AssistantService
	logger  *zap.Logger
}

// NewQueryHandler creates a new QueryHandler
func NewQueryHandler(service AssistantService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		service: service,
		logger:  logger,
	}
}

// HandleQuery handles POST /api/v1/query
func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	requestID := chimiddleware.GetReqID(r.Context())

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse query request",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	result := h.service.ProcessQuery(r.Context(), req.Query, req.Explain)

	_ = utils.WriteOK(w, QueryResponse{
		RequestID:   requestID,
		QueryResult: result,
	})
}

// HandleInfo handles GET /api/v1/assistant/info
func (h *QueryHandler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, h.service.GetAssistantInfo())
}

// MatchEntry is one row of the top match listing
type MatchEntry struct {
	Instruction string  `json:"instruction"`
	Category    string  `json:"category"`
	Score       float64 `json:"score"`
	Index       int     `json:"index"`
}

// HandleMatches handles GET /api/v1/assistant/matches?query=...&k=...
// Debug surface: shows how a query scores against the curated corpus.
func (h *QueryHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if len(query) < 3 {
		_ = utils.WriteBadRequest(w, "query parameter must be at least 3 characters", nil)
		return
	}

	k := 5
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 20 {
			_ = utils.WriteBadRequest(w, "k must be an integer between 1 and 20", nil)
			return
		}
		k = parsed
	}

	scored, err := h.service.TopMatches(r.Context(), query, k)
	if err != nil {
		h.logger.Error("top match lookup failed", zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	entries := make([]MatchEntry, 0, len(scored))
	for _, s := range scored {
		entries = append(entries, MatchEntry{
			Instruction: s.Sample.Instruction,
			Category:    string(s.Sample.Category),
			Score:       s.Score,
			Index:       s.Index,
		})
	}

	_ = utils.WriteOK(w, entries)
}

// HandleCategories handles GET /api/v1/categories
func (h *QueryHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories := models.AllCategories()
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, string(c))
	}
	_ = utils.WriteOK(w, names)
}
