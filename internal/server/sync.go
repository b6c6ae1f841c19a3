package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kopisync/internal/scheduler"
	"github.com/desertthunder/kopisync/internal/tasks"
)

// Triggerer runs a sync family synchronously.
type Triggerer interface {
	Trigger(ctx context.Context, kind scheduler.Kind) (*tasks.SyncResult, error)
}

// SyncResponse is the body of every /kopis/sync response.
type SyncResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Errors  int    `json:"errors"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SyncHandler serves the manual sync trigger.
//
// The type query parameter selects venues (default), concerts or all.
type SyncHandler struct {
	trigger Triggerer
	logger  *log.Logger
}

// NewSyncHandler creates a handler that runs syncs through trigger.
func NewSyncHandler(trigger Triggerer, logger *log.Logger) *SyncHandler {
	return &SyncHandler{trigger: trigger, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *SyncHandler) Routes() []string {
	return []string{"/kopis/sync"}
}

// ServeHTTP runs the requested sync and reports its counters.
//
// Run failures are reported with success=false and status 200.
func (h *SyncHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	kind, err := scheduler.ParseKind(r.URL.Query().Get("type"))
	if err != nil {
		writeJSON(w, http.StatusOK, SyncResponse{Message: fmt.Sprintf("Sync failed: %v", err)})
		return
	}

	h.logger.Info("manual sync triggered", "type", kind, "remote", r.RemoteAddr)
	// A dropped client must not abort a run halfway through.
	result, err := h.trigger.Trigger(context.WithoutCancel(r.Context()), kind)
	if err != nil {
		h.logger.Error("manual sync failed", "type", kind, "error", err)
		writeJSON(w, http.StatusOK, SyncResponse{Message: fmt.Sprintf("Sync failed: %v", err)})
		return
	}

	h.logger.Info("manual sync completed",
		"type", kind, "added", result.Added, "updated", result.Updated, "errors", result.Errors)
	writeJSON(w, http.StatusOK, SyncResponse{
		Success: true,
		Message: "Sync completed successfully",
		Added:   result.Added,
		Updated: result.Updated,
		Errors:  result.Errors,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
