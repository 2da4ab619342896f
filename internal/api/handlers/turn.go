package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/service"
)

type TurnHandler struct {
	svc *service.IngestService
}

func NewTurnHandler(svc *service.IngestService) *TurnHandler {
	return &TurnHandler{svc: svc}
}

type turnRequest struct {
	ID       string           `json:"id"`
	Messages []domain.Message `json:"messages"`
}

// Ingest runs a dialogue turn through extraction, validation and persistence.
// An absent id gets a fresh one.
func (h *TurnHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeError(w, http.StatusServiceUnavailable, "extraction is not configured")
		return
	}

	var req turnRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages are required")
		return
	}

	turn := domain.Turn{ID: uuid.New(), Messages: req.Messages}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid turn id")
			return
		}
		turn.ID = id
	}

	if strings.TrimSpace(turn.Transcript()) == "" {
		writeError(w, http.StatusBadRequest, "messages have no content")
		return
	}

	result, err := h.svc.ProcessTurn(r.Context(), turn)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExtractorFailed):
			writeError(w, http.StatusBadGateway, "extraction failed")
		case result != nil:
			// Writes made before the failure stay committed; report them.
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":  "failed to process turn",
				"result": result,
			})
		default:
			writeError(w, http.StatusInternalServerError, "failed to process turn")
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}
