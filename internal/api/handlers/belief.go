package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/service"
)

type BeliefHandler struct {
	svc *service.BeliefService
}

func NewBeliefHandler(svc *service.BeliefService) *BeliefHandler {
	return &BeliefHandler{svc: svc}
}

type validateBeliefsRequest struct {
	Candidates []domain.ClaimCandidate `json:"candidates"`
	Transcript string                  `json:"transcript,omitempty"`
}

type validateBeliefsResponse struct {
	Verdicts []domain.ValidationVerdict `json:"verdicts"`
}

// Validate runs the validator only; nothing is persisted.
func (h *BeliefHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateBeliefsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Candidates) == 0 {
		writeError(w, http.StatusBadRequest, "candidates are required")
		return
	}
	writeJSON(w, http.StatusOK, validateBeliefsResponse{
		Verdicts: h.svc.ValidateBatch(req.Candidates, req.Transcript),
	})
}

type batchRequest struct {
	OriginTurnID string                  `json:"origin_turn_id"`
	Candidates   []domain.ClaimCandidate `json:"candidates"`
	Transcript   string                  `json:"transcript,omitempty"`
}

func (h *BeliefHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	turnID, err := uuid.Parse(req.OriginTurnID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid origin_turn_id")
		return
	}

	result, err := h.svc.ProcessCandidates(r.Context(), req.Candidates, req.Transcript, turnID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyBatch), errors.Is(err, service.ErrOriginTurnMissing),
			errors.Is(err, service.ErrTranscriptMissing):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to upsert beliefs")
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *BeliefHandler) List(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		writeError(w, http.StatusBadRequest, "subject is required")
		return
	}
	beliefs, err := h.svc.ListActive(r.Context(), subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list beliefs")
		return
	}
	if beliefs == nil {
		beliefs = []domain.Belief{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"beliefs": beliefs})
}

func (h *BeliefHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "belief")
	if !ok {
		return
	}
	b, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrBeliefNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get belief")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type historyResponse struct {
	Belief *domain.Belief         `json:"belief"`
	Edges  []domain.CausalityEdge `json:"edges"`
}

func (h *BeliefHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "belief")
	if !ok {
		return
	}
	b, edges, err := h.svc.History(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrBeliefNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get belief history")
		return
	}
	if edges == nil {
		edges = []domain.CausalityEdge{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Belief: b, Edges: edges})
}
