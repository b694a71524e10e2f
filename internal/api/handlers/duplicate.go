package handlers

import (
	"errors"
	"net/http"

	"github.com/Harshitk-cp/begrippen/internal/domain"
	"github.com/Harshitk-cp/begrippen/internal/service"
	"go.uber.org/zap"
)

type DuplicateHandler struct {
	svc    *service.DuplicateService
	logger *zap.Logger
}

func NewDuplicateHandler(svc *service.DuplicateService, logger *zap.Logger) *DuplicateHandler {
	return &DuplicateHandler{svc: svc, logger: logger}
}

// duplicatesRequest carries either an inline corpus or, when Corpus is
// omitted, asks for a check against the stored definitions.
type duplicatesRequest struct {
	Definition domain.Definition   `json:"definition"`
	Corpus     []domain.Definition `json:"corpus"`
}

type duplicatesResponse struct {
	Matches []domain.DuplicateMatch `json:"matches"`
}

func (h *DuplicateHandler) Find(w http.ResponseWriter, r *http.Request) {
	var req duplicatesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var (
		matches []domain.DuplicateMatch
		err     error
	)
	if req.Corpus != nil {
		matches, err = h.svc.FindDuplicates(req.Definition, req.Corpus)
	} else {
		matches, err = h.svc.FindDuplicatesInStore(r.Context(), req.Definition)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyDefinition), errors.Is(err, service.ErrContextRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNoDefinitionStore):
			writeError(w, http.StatusServiceUnavailable, "no definition store configured; send a corpus")
		default:
			h.logger.Error("duplicate check failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to check duplicates")
		}
		return
	}

	if matches == nil {
		matches = []domain.DuplicateMatch{}
	}
	writeJSON(w, http.StatusOK, duplicatesResponse{Matches: matches})
}
