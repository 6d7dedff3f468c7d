package rest

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// UpsertNodeRequest creates or updates a node
type UpsertNodeRequest struct {
	Kind  string         `json:"kind" validate:"required,oneof=USER CONTENT TOPIC HASHTAG AGENT"`
	Key   string         `json:"key" validate:"required"`
	Props map[string]any `json:"props"`
}

// AddEdgeRequest creates an edge between two existing nodes
type AddEdgeRequest struct {
	Type     string         `json:"type" validate:"required"`
	SourceID string         `json:"source_id" validate:"required"`
	TargetID string         `json:"target_id" validate:"required"`
	Weight   float64        `json:"weight" validate:"gte=0"`
	Props    map[string]any `json:"props"`
}

// InteractionRequest records a user interaction with content
type InteractionRequest struct {
	UserID    string         `json:"user_id" validate:"required"`
	ContentID string         `json:"content_id" validate:"required"`
	Type      string         `json:"type" validate:"required,oneof=view like share comment"`
	Data      map[string]any `json:"data"`
}

// FeedbackRequest routes engagement metrics back to a content agent
type FeedbackRequest struct {
	ContentID string  `json:"content_id" validate:"required"`
	AgentID   string  `json:"agent_id" validate:"required"`
	ViewTime  float64 `json:"view_time" validate:"gte=0"`
	Likes     int     `json:"likes" validate:"gte=0"`
}

// GenerateRequest asks one agent (random when agent_id is empty) for a draft
type GenerateRequest struct {
	AgentID string `json:"agent_id"`
}

// GenerateBatchRequest asks up to count distinct agents for drafts
type GenerateBatchRequest struct {
	Count int `json:"count" validate:"gt=0"`
}

// ViewingRequest drives the per-user attention session
type ViewingRequest struct {
	ContentID string `json:"content_id" validate:"required"`
}

// IDResponse returns a created entity id
type IDResponse struct {
	ID string `json:"id"`
}

// ErrorResponse is the JSON error body
type ErrorResponse struct {
	Error string `json:"error"`
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, ErrorResponse{Error: message})
}
