package handler

import (
	"math"
	"strconv"

	"wallet-ledger-core/internal/adapter/http/dto"
	"wallet-ledger-core/internal/adapter/http/middleware"
	"wallet-ledger-core/internal/core/domain"
	"wallet-ledger-core/internal/core/ports"
	"wallet-ledger-core/pkg/apperror"
	"wallet-ledger-core/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles transaction submission, querying and cancellation,
// plus the HMAC-authenticated settlement callback.
type LedgerHandler struct {
	engine       ports.LedgerEngine
	reportingSvc ports.ReportingService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(engine ports.LedgerEngine, reportingSvc ports.ReportingService) *LedgerHandler {
	return &LedgerHandler{engine: engine, reportingSvc: reportingSvc}
}

// SubmitTransaction handles POST /api/v1/transactions.
func (h *LedgerHandler) SubmitTransaction(c *gin.Context) {
	ownerID, ok := sessionUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	role, ok := sessionRole(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.SubmitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := domain.ParseAmount(req.Amount, req.Currency)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount(err.Error()))
		return
	}

	fromWalletID, err := parseOptionalUUID(req.FromWalletID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid from_wallet_id"))
		return
	}
	toWalletID, err := parseOptionalUUID(req.ToWalletID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid to_wallet_id"))
		return
	}

	idemKey := c.GetHeader(middleware.HeaderIdempotencyKey)
	if idemKey != "" && !dto.SafeIdempotencyKey(idemKey) {
		response.Error(c, apperror.Validation("invalid idempotency key"))
		return
	}

	txn, err := h.engine.Submit(c.Request.Context(), ports.SubmitRequest{
		OwnerID:        ownerID,
		Role:           role,
		Type:           domain.TransactionType(req.Type),
		Amount:         amount,
		Currency:       req.Currency,
		FromWalletID:   fromWalletID,
		ToWalletID:     toWalletID,
		IdempotencyKey: idemKey,
		Description:    req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// GetTransaction handles GET /api/v1/transactions/:id.
func (h *LedgerHandler) GetTransaction(c *gin.Context) {
	ownerID, ok := sessionUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	txn, err := h.reportingSvc.GetTransaction(c.Request.Context(), ownerID, txID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionResponse(txn))
}

// ListTransactions handles GET /api/v1/transactions.
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	ownerID, ok := sessionUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.TransactionListParams{
		OwnerID:  ownerID,
		Page:     page,
		PageSize: pageSize,
	}

	if s := c.Query("status"); s != "" {
		status := domain.TransactionStatus(s)
		params.Status = &status
	}
	if t := c.Query("type"); t != "" {
		txType := domain.TransactionType(t)
		params.Type = &txType
	}
	if w := c.Query("wallet_id"); w != "" {
		if id, err := uuid.Parse(w); err == nil {
			params.WalletID = &id
		}
	}
	if f := c.Query("from"); f != "" {
		if v, err := strconv.ParseInt(f, 10, 64); err == nil {
			params.From = &v
		}
	}
	if t := c.Query("to"); t != "" {
		if v, err := strconv.ParseInt(t, 10, 64); err == nil {
			params.To = &v
		}
	}

	txns, total, err := h.reportingSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	response.OK(c, dto.TransactionListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// CancelTransaction handles POST /api/v1/transactions/:id/cancel.
func (h *LedgerHandler) CancelTransaction(c *gin.Context) {
	ownerID, ok := sessionUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	txn, err := h.engine.Cancel(c.Request.Context(), ownerID, txID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionResponse(txn))
}

// SettleCallback handles POST /internal/v1/settlements. The settlement
// confirmer authenticates with an HMAC signature, not a session token.
func (h *LedgerHandler) SettleCallback(c *gin.Context) {
	var req dto.SettleCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	txn, err := h.engine.Settle(c.Request.Context(), txID, ports.SettleResult(req.Result))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionResponse(txn))
}

// parseOptionalUUID parses an optional UUID string pointer.
func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// toTransactionResponse converts domain.Transaction to DTO.
func toTransactionResponse(tx *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:          tx.ID.String(),
		Type:        string(tx.Type),
		Amount:      tx.Amount.String(),
		Currency:    tx.Currency,
		Status:      string(tx.Status),
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if tx.FromWalletID != nil {
		s := tx.FromWalletID.String()
		resp.FromWalletID = &s
	}
	if tx.ToWalletID != nil {
		s := tx.ToWalletID.String()
		resp.ToWalletID = &s
	}
	if tx.SettledAt != nil {
		s := tx.SettledAt.Format("2006-01-02T15:04:05Z07:00")
		resp.SettledAt = &s
	}
	return resp
}
