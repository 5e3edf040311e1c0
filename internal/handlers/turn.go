// Package handlers contains the HTTP handlers for the turn API.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/backroomlabs/backroom-engine/internal/engine"
	"github.com/backroomlabs/backroom-engine/pkg/chat"
)

// TurnHandler streams turn resolution over server-sent events. Each
// engine chunk becomes one SSE data frame; the session id travels in a
// response header so the client can continue the conversation.
type TurnHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewTurnHandler creates a new turn handler
func NewTurnHandler(eng *engine.Engine, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{
		engine: eng,
		logger: logger,
	}
}

// ServeHTTP handles POST /v1/turn
func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for turn endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		writeJSONError(w, h.logger, http.StatusMethodNotAllowed,
			"Method not allowed. Only POST is supported.")
		return
	}

	var request chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeJSONError(w, h.logger, http.StatusBadRequest,
			"Invalid request body. Expected JSON with 'event' field.")
		return
	}

	if err := request.Validate(); err != nil {
		h.logger.Warn("Invalid turn request", "error", err)
		writeJSONError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("Response writer does not support streaming")
		writeJSONError(w, h.logger, http.StatusInternalServerError,
			"Streaming unsupported.")
		return
	}

	h.logger.Info("Turn endpoint accessed",
		"event", string(request.Event.Type),
		"session_id", request.SessionID,
		"remote_addr", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var streamed bool
	emit := func(c chat.StreamChunk) {
		if !streamed {
			streamed = true
		}
		writeChunk(w, flusher, h.logger, c)
	}

	sid, err := h.engine.ResolveTurn(r.Context(), withHeaderSession(w, request), emit)
	if err != nil {
		h.logger.Error("Turn resolution failed",
			"session_id", sid,
			"event", string(request.Event.Type),
			"error", err)
		if streamed {
			// Too late for an HTTP status; signal in-band.
			writeChunk(w, flusher, h.logger, chat.ErrorChunk(
				"Turn could not be completed. Please try again."))
			return
		}
		writeJSONError(w, h.logger, http.StatusInternalServerError,
			"Failed to resolve turn. Please try again.")
	}
}

// withHeaderSession ensures the request carries a session id and sets
// the X-Session-Id response header before streaming begins.
func withHeaderSession(w http.ResponseWriter, request chat.TurnRequest) chat.TurnRequest {
	if request.SessionID == "" {
		request.SessionID = chat.NewSessionID()
	}
	w.Header().Set("X-Session-Id", request.SessionID)
	return request
}

func writeChunk(w http.ResponseWriter, flusher http.Flusher, logger *slog.Logger, c chat.StreamChunk) {
	data, err := json.Marshal(c)
	if err != nil {
		logger.Error("Error encoding stream chunk", "error", err, "type", string(c.Type))
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		logger.Warn("Error writing stream chunk, client likely disconnected", "error", err)
		return
	}
	flusher.Flush()
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: msg}); err != nil {
		logger.Error("Error encoding error response", "error", err)
	}
}
