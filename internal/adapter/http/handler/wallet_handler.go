package handler

import (
	"wallet-ledger-core/internal/adapter/http/dto"
	"wallet-ledger-core/internal/adapter/http/middleware"
	"wallet-ledger-core/internal/core/domain"
	"wallet-ledger-core/internal/core/ports"
	"wallet-ledger-core/pkg/apperror"
	"wallet-ledger-core/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	registry     ports.WalletRegistry
	reportingSvc ports.ReportingService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(registry ports.WalletRegistry, reportingSvc ports.ReportingService) *WalletHandler {
	return &WalletHandler{registry: registry, reportingSvc: reportingSvc}
}

// CreateWallet handles POST /api/v1/wallets. Creation is get-or-create:
// repeating the call for an existing type returns the existing wallet.
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	ownerID, ok := sessionUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, err := h.registry.GetOrCreate(c.Request.Context(), ownerID, domain.WalletType(req.WalletType), req.Currency)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toWalletResponse(wallet))
}

// ListWallets handles GET /api/v1/wallets.
func (h *WalletHandler) ListWallets(c *gin.Context) {
	ownerID, ok := sessionUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	wallets, err := h.reportingSvc.ListWallets(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WalletResponse, 0, len(wallets))
	for i := range wallets {
		items = append(items, toWalletResponse(&wallets[i]))
	}
	response.OK(c, dto.WalletListResponse{Items: items})
}

// GetWallet handles GET /api/v1/wallets/:id.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	ownerID, ok := sessionUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	wallet, err := h.reportingSvc.GetWallet(c.Request.Context(), ownerID, walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWalletResponse(wallet))
}

// sessionUserID extracts the authenticated user's id from the context.
func sessionUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.CtxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// sessionRole extracts the authenticated user's role from the context.
func sessionRole(c *gin.Context) (domain.Role, bool) {
	v, ok := c.Get(middleware.CtxRole)
	if !ok {
		return "", false
	}
	role, ok := v.(domain.Role)
	return role, ok
}

// toWalletResponse converts domain.Wallet to DTO.
func toWalletResponse(w *domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		ID:             w.ID.String(),
		OwnerID:        w.OwnerID.String(),
		WalletType:     string(w.Type),
		Currency:       w.Currency,
		Balance:        w.Balance.String(),
		PendingBalance: w.PendingBalance.String(),
		Available:      w.Available().String(),
		Active:         w.Active,
		CreatedAt:      w.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
