package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Harshitk-cp/begrippen/internal/api/middleware"
	"github.com/Harshitk-cp/begrippen/internal/domain"
	"github.com/Harshitk-cp/begrippen/internal/service"
	"go.uber.org/zap"
)

type ValidationHandler struct {
	svc    *service.ValidationService
	logger *zap.Logger
}

func NewValidationHandler(svc *service.ValidationService, logger *zap.Logger) *ValidationHandler {
	return &ValidationHandler{svc: svc, logger: logger}
}

type validateRequest struct {
	Begrip        string             `json:"begrip"`
	Text          string             `json:"text"`
	Category      string             `json:"category"`
	Context       *domain.ContextRef `json:"context"`
	CorrelationID string             `json:"correlation_id"`
	RuleTimeoutMS int                `json:"rule_timeout_ms"`
}

func (h *ValidationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = middleware.RequestIDFromContext(r.Context())
	}

	result, err := h.svc.Validate(r.Context(), service.ValidationRequest{
		Begrip:        req.Begrip,
		Text:          req.Text,
		Category:      category,
		Context:       req.Context,
		CorrelationID: correlationID,
		RuleTimeout:   time.Duration(req.RuleTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTextRequired), errors.Is(err, service.ErrInvalidCategory):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("validation failed",
				zap.String("correlation_id", correlationID),
				zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to validate definition")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}
