package handlers

import (
	"net/http"

	"github.com/nia-core/beliefgate/internal/service"
)

// MaintenanceHandler triggers the background workers on demand.
type MaintenanceHandler struct {
	decay    *service.DecayService
	backfill *service.BackfillService
}

func NewMaintenanceHandler(ds *service.DecayService, bs *service.BackfillService) *MaintenanceHandler {
	return &MaintenanceHandler{decay: ds, backfill: bs}
}

func (h *MaintenanceHandler) TriggerDecay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.decay.RunDecay(r.Context()))
}

func (h *MaintenanceHandler) TriggerBackfill(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.backfill.RunBackfill(r.Context()))
}
