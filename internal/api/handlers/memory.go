package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/service"
)

type MemoryHandler struct {
	svc *service.MemoryService
}

func NewMemoryHandler(svc *service.MemoryService) *MemoryHandler {
	return &MemoryHandler{svc: svc}
}

type memoryRequest struct {
	Candidate     domain.MemoryCandidate `json:"candidate"`
	SourceMessage string                 `json:"source_message"`
	SourceTurnID  string                 `json:"source_turn_id,omitempty"`
}

func (h *MemoryHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req memoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Validate(req.Candidate, req.SourceMessage))
}

// Commit answers 201 for a new record, 200 for a reinforcement and 422 when the
// candidate is rejected; the verdict is in the body in every case.
func (h *MemoryHandler) Commit(w http.ResponseWriter, r *http.Request) {
	var req memoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var turnID *uuid.UUID
	if req.SourceTurnID != "" {
		id, err := uuid.Parse(req.SourceTurnID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid source_turn_id")
			return
		}
		turnID = &id
	}

	result, err := h.svc.Commit(r.Context(), req.Candidate, req.SourceMessage, turnID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to commit memory")
		return
	}

	status := http.StatusOK
	switch result.Outcome {
	case service.CommitCreated:
		status = http.StatusCreated
	case service.CommitRejected:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (h *MemoryHandler) List(w http.ResponseWriter, r *http.Request) {
	about := r.URL.Query().Get("about")
	if about == "" {
		about = "user"
	}
	memories, err := h.svc.ListActive(r.Context(), about)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list memories")
		return
	}
	if memories == nil {
		memories = []domain.MemoryRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"memories": memories})
}

type correctRequest struct {
	Statement string `json:"statement"`
}

func (h *MemoryHandler) Correct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "memory")
	if !ok {
		return
	}
	var req correctRequest
	if !decodeBody(w, r, &req) {
		return
	}

	replacement, err := h.svc.Correct(r.Context(), id, req.Statement)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMemoryContentEmpty):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrMemoryNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to correct memory")
		}
		return
	}
	writeJSON(w, http.StatusCreated, replacement)
}
