package handlers

import (
	"errors"
	"net/http"

	"github.com/Harshitk-cp/begrippen/internal/domain"
	"github.com/Harshitk-cp/begrippen/internal/service"
)

type CategorizeHandler struct {
	svc *service.CategorizerService
}

func NewCategorizeHandler(svc *service.CategorizerService) *CategorizeHandler {
	return &CategorizeHandler{svc: svc}
}

type categorizeRequest struct {
	Term    string            `json:"term"`
	Text    string            `json:"text"`
	Context domain.ContextRef `json:"context"`
}

func (h *CategorizeHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.svc.Categorize(req.Term, req.Text, req.Context)
	if err != nil {
		if errors.Is(err, service.ErrEmptyDefinition) || errors.Is(err, service.ErrContextRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to categorize definition")
		return
	}

	writeJSON(w, http.StatusOK, res)
}
