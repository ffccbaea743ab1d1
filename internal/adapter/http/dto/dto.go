package dto

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Role     string `json:"role" binding:"required"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// CreateWalletRequest is the request body for wallet get-or-create.
type CreateWalletRequest struct {
	WalletType string `json:"wallet_type" binding:"required"`
	Currency   string `json:"currency" binding:"required,len=3"`
}

// WalletResponse is the response body for wallet queries. Balances are
// decimal strings so no precision is lost in transit.
type WalletResponse struct {
	ID             string `json:"id"`
	OwnerID        string `json:"owner_id"`
	WalletType     string `json:"wallet_type"`
	Currency       string `json:"currency"`
	Balance        string `json:"balance"`
	PendingBalance string `json:"pending_balance"`
	Available      string `json:"available"`
	Active         bool   `json:"active"`
	CreatedAt      string `json:"created_at"`
}

// WalletListResponse wraps an owner's wallet list.
type WalletListResponse struct {
	Items []WalletResponse `json:"items"`
}

// SubmitTransactionRequest is the request body for transaction submission.
// The idempotency key travels in the Idempotency-Key header, not the body.
type SubmitTransactionRequest struct {
	Type         string  `json:"type" binding:"required"`
	Amount       string  `json:"amount" binding:"required"`
	Currency     string  `json:"currency" binding:"required,len=3"`
	FromWalletID *string `json:"from_wallet_id,omitempty"`
	ToWalletID   *string `json:"to_wallet_id,omitempty"`
	Description  string  `json:"description,omitempty" binding:"max=255"`
}

// TransactionResponse is the response body for transaction results.
type TransactionResponse struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Amount       string  `json:"amount"`
	Currency     string  `json:"currency"`
	FromWalletID *string `json:"from_wallet_id,omitempty"`
	ToWalletID   *string `json:"to_wallet_id,omitempty"`
	Status       string  `json:"status"`
	Description  string  `json:"description,omitempty"`
	CreatedAt    string  `json:"created_at"`
	SettledAt    *string `json:"settled_at,omitempty"`
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// SettleCallbackRequest is the HMAC-signed body posted by the settlement
// confirmer once the external leg of a transaction finishes.
type SettleCallbackRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,uuid"`
	Result        string `json:"result" binding:"required,oneof=completed failed"`
}

// VerificationFlagRequest is the HMAC-signed body posted by the
// verification workflow when one verification step finishes.
type VerificationFlagRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Flag   string `json:"flag" binding:"required,oneof=phone documents biometric"`
	Value  *bool  `json:"value" binding:"required"`
}

// VerificationRejectRequest marks a user's verification as rejected.
type VerificationRejectRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// VerificationStatusResponse is the response body for verification status.
type VerificationStatusResponse struct {
	UserID            string   `json:"user_id"`
	PhoneVerified     bool     `json:"phone_verified"`
	DocumentsVerified bool     `json:"documents_verified"`
	BiometricVerified bool     `json:"biometric_verified"`
	Status            string   `json:"kyc_status"`
	MissingSteps      []string `json:"missing_steps"`
}
