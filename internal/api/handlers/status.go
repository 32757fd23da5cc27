package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/amaumene/plexdigest/internal/controllers"
	"github.com/sirupsen/logrus"
)

// RunStatus exposes the state of digest runs
type RunStatus interface {
	LastRun() *controllers.RunSummary
	Running() bool
}

// StatusHandler handles status requests
type StatusHandler struct {
	runs     RunStatus
	schedule string
	nextRun  func() time.Time
	logger   *logrus.Logger
}

// NewStatusHandler creates a new status handler. nextRun may be nil outside schedule mode.
func NewStatusHandler(runs RunStatus, schedule string, nextRun func() time.Time, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		runs:     runs,
		schedule: schedule,
		nextRun:  nextRun,
		logger:   logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	Running  bool                    `json:"running"`
	Schedule string                  `json:"schedule,omitempty"`
	NextRun  *time.Time              `json:"next_run,omitempty"`
	LastRun  *controllers.RunSummary `json:"last_run"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := StatusResponse{
		Running:  h.runs.Running(),
		Schedule: h.schedule,
		LastRun:  h.runs.LastRun(),
	}
	if h.nextRun != nil {
		if next := h.nextRun(); !next.IsZero() {
			response.NextRun = &next
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.WithError(err).Error("Failed to write status response")
	}
}
