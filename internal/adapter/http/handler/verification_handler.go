package handler

import (
	"wallet-ledger-core/internal/adapter/http/dto"
	"wallet-ledger-core/internal/core/domain"
	"wallet-ledger-core/internal/core/ports"
	"wallet-ledger-core/pkg/apperror"
	"wallet-ledger-core/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VerificationHandler exposes the verification workflow surface: flag
// updates and rejection arrive from the KYC workflow over signed callbacks,
// status is readable by the authenticated user.
type VerificationHandler struct {
	gate ports.VerificationGate
}

// NewVerificationHandler creates a new VerificationHandler.
func NewVerificationHandler(gate ports.VerificationGate) *VerificationHandler {
	return &VerificationHandler{gate: gate}
}

// SetFlag handles POST /internal/v1/verifications/flags.
func (h *VerificationHandler) SetFlag(c *gin.Context) {
	var req dto.VerificationFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid user id"))
		return
	}

	record, err := h.gate.SetFlag(c.Request.Context(), userID, domain.VerificationFlag(req.Flag), *req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toVerificationResponse(record))
}

// Reject handles POST /internal/v1/verifications/reject.
func (h *VerificationHandler) Reject(c *gin.Context) {
	var req dto.VerificationRejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid user id"))
		return
	}

	record, err := h.gate.Reject(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toVerificationResponse(record))
}

// GetStatus handles GET /api/v1/verifications/me.
func (h *VerificationHandler) GetStatus(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	record, err := h.gate.Status(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toVerificationResponse(record))
}

// toVerificationResponse converts domain.VerificationRecord to DTO.
func toVerificationResponse(r *domain.VerificationRecord) dto.VerificationStatusResponse {
	missing := r.MissingSteps()
	steps := make([]string, 0, len(missing))
	for _, m := range missing {
		steps = append(steps, string(m))
	}
	return dto.VerificationStatusResponse{
		UserID:            r.UserID.String(),
		PhoneVerified:     r.PhoneVerified,
		DocumentsVerified: r.DocumentsVerified,
		BiometricVerified: r.BiometricVerified,
		Status:            string(r.Status),
		MissingSteps:      steps,
	}
}
