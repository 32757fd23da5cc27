package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amaumene/plexdigest/internal/controllers"
	"github.com/sirupsen/logrus"
)

// RunTrigger starts a digest run in the background
type RunTrigger interface {
	Trigger() error
}

// RunHandler handles manual digest run requests
type RunHandler struct {
	trigger RunTrigger
	logger  *logrus.Logger
}

// NewRunHandler creates a new run handler
func NewRunHandler(trigger RunTrigger, logger *logrus.Logger) *RunHandler {
	return &RunHandler{
		trigger: trigger,
		logger:  logger,
	}
}

// ServeHTTP handles the run endpoint
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	err := h.trigger.Trigger()
	if errors.Is(err, controllers.ErrRunInProgress) {
		http.Error(w, "A digest run is already in progress", http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to trigger digest run")
		http.Error(w, "Failed to trigger run", http.StatusInternalServerError)
		return
	}

	h.logger.WithField("remote_addr", r.RemoteAddr).Info("Digest run triggered")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}
