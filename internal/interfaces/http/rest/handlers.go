// Package rest is the engine's operational HTTP surface: a thin chi router
// mapping JSON endpoints onto the service facade.
package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"weave-backend/internal/domain/graph"
	"weave-backend/internal/service/engine"
	"weave-backend/pkg/errors"
)

// Handler holds the dependencies shared by all endpoints
type Handler struct {
	service  *engine.Service
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates the endpoint set over the service facade
func NewHandler(service *engine.Service, logger *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// decode parses and validates a JSON request body
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// handleServiceError maps the error taxonomy onto HTTP statuses
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.IsNotFound(err):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("internal error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "an internal error occurred")
	}
}

func (h *Handler) upsertNode(w http.ResponseWriter, r *http.Request) {
	var req UpsertNodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.service.UpsertNode(r.Context(), graph.NodeKind(req.Kind), req.Key, req.Props)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, IDResponse{ID: id})
}

func (h *Handler) addEdge(w http.ResponseWriter, r *http.Request) {
	var req AddEdgeRequest
	if !h.decode(w, r, &req) {
		return
	}

	props := graph.EdgeProps{Extra: req.Props}
	id, err := h.service.AddEdge(r.Context(), graph.EdgeType(req.Type), req.SourceID, req.TargetID, req.Weight, props)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	respond(w, http.StatusCreated, IDResponse{ID: id})
}

func (h *Handler) trendingTopics(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string][]string{
		"topics": h.service.GetTrendingTopics(r.Context(), queryInt(r, "limit", 10)),
	})
}

func (h *Handler) popularTopics(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string][]string{
		"topics": h.service.GetPopularTopics(r.Context(), queryInt(r, "limit", 10)),
	})
}

func (h *Handler) topicsByCategory(w http.ResponseWriter, r *http.Request) {
	categories := r.URL.Query()["category"]
	respond(w, http.StatusOK, map[string][]string{
		"topics": h.service.GetTopicsByCategory(r.Context(), categories),
	})
}

func (h *Handler) trendingContent(w http.ResponseWriter, r *http.Request) {
	window := time.Duration(queryInt(r, "window_hours", 0)) * time.Hour
	items := h.service.GetTrendingContent(r.Context(), queryInt(r, "limit", 10), window)
	respond(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) recommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	excludeSeen := r.URL.Query().Get("exclude_seen") != "false"
	items := h.service.GetRecommendedContent(r.Context(), userID, queryInt(r, "limit", 10), excludeSeen)
	respond(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) similarUsers(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	items := h.service.GetSimilarUsers(r.Context(), userID, queryInt(r, "limit", 10))
	respond(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) similarContent(w http.ResponseWriter, r *http.Request) {
	contentID := chi.URLParam(r, "contentId")
	items := h.service.GetSimilarContent(r.Context(), contentID, queryInt(r, "limit", 10))
	respond(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) userFeed(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	items := h.service.GetUserFeed(r.Context(), userID, queryInt(r, "limit", 20))
	respond(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) topicClusters(w http.ResponseWriter, r *http.Request) {
	clusters := h.service.GetTopicClusters(r.Context(), queryInt(r, "limit", 10))
	respond(w, http.StatusOK, map[string]any{"clusters": clusters})
}

func (h *Handler) bridgeNodes(w http.ResponseWriter, r *http.Request) {
	items := h.service.GetBridgeNodes(r.Context(), queryInt(r, "limit", 10))
	respond(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) recordInteraction(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.RecordInteraction(r.Context(), req.UserID, req.ContentID, req.Type, req.Data); err != nil {
		h.handleServiceError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (h *Handler) updateInterests(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := h.service.UpdateUserInterests(r.Context(), userID); err != nil {
		h.handleServiceError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (h *Handler) generateContent(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}

	draft, err := h.service.GenerateContent(r.Context(), req.AgentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	respond(w, http.StatusCreated, draft)
}

func (h *Handler) generateBatch(w http.ResponseWriter, r *http.Request) {
	var req GenerateBatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	drafts, err := h.service.GenerateBatch(r.Context(), req.Count)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{"drafts": drafts})
}

func (h *Handler) runAdaptation(w http.ResponseWriter, r *http.Request) {
	h.service.RunAdaptationCycle(r.Context())
	respond(w, http.StatusNoContent, nil)
}

func (h *Handler) receiveFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.service.ReceiveFeedback(r.Context(), req.ContentID, req.AgentID, req.ViewTime, req.Likes)
	respond(w, http.StatusNoContent, nil)
}

func (h *Handler) startViewing(w http.ResponseWriter, r *http.Request) {
	var req ViewingRequest
	if !h.decode(w, r, &req) {
		return
	}

	tracker, err := h.service.Session(chi.URLParam(r, "userId"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	tracker.StartViewing(req.ContentID)
	respond(w, http.StatusNoContent, nil)
}

func (h *Handler) stopViewing(w http.ResponseWriter, r *http.Request) {
	tracker, err := h.service.Session(chi.URLParam(r, "userId"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	contentID, viewTime := tracker.StopViewing()
	respond(w, http.StatusOK, map[string]any{
		"content_id": contentID,
		"view_time":  viewTime,
	})
}

func (h *Handler) pauseViewing(w http.ResponseWriter, r *http.Request) {
	tracker, err := h.service.Session(chi.URLParam(r, "userId"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	tracker.Attention().Pause()
	respond(w, http.StatusNoContent, nil)
}

func (h *Handler) resumeViewing(w http.ResponseWriter, r *http.Request) {
	tracker, err := h.service.Session(chi.URLParam(r, "userId"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	tracker.Attention().Resume()
	respond(w, http.StatusNoContent, nil)
}

func (h *Handler) cursorCurrent(w http.ResponseWriter, r *http.Request) {
	item, ok := h.service.Cursor(chi.URLParam(r, "userId")).Current()
	respond(w, http.StatusOK, map[string]any{"item": item, "ok": ok})
}

func (h *Handler) cursorNext(w http.ResponseWriter, r *http.Request) {
	item, ok := h.service.Cursor(chi.URLParam(r, "userId")).Next()
	respond(w, http.StatusOK, map[string]any{"item": item, "ok": ok})
}

func (h *Handler) cursorPrevious(w http.ResponseWriter, r *http.Request) {
	item, ok := h.service.Cursor(chi.URLParam(r, "userId")).Previous()
	respond(w, http.StatusOK, map[string]any{"item": item, "ok": ok})
}

func (h *Handler) cursorPreview(w http.ResponseWriter, r *http.Request) {
	items := h.service.Cursor(chi.URLParam(r, "userId")).Preview(queryInt(r, "count", 3))
	respond(w, http.StatusOK, map[string]any{"items": items})
}

// cursorFilter applies an agent or topic filter; with neither parameter it
// clears any active filter
func (h *Handler) cursorFilter(w http.ResponseWriter, r *http.Request) {
	cursor := h.service.Cursor(chi.URLParam(r, "userId"))
	switch {
	case r.URL.Query().Get("agent") != "":
		cursor.FilterByAgent(r.URL.Query().Get("agent"))
	case r.URL.Query().Get("topic") != "":
		cursor.FilterByTopic(r.URL.Query().Get("topic"))
	default:
		cursor.ClearFilters()
	}
	respond(w, http.StatusNoContent, nil)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func queryInt(r *http.Request, name string, fallback int) int {
	if val := r.URL.Query().Get(name); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
