package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-ledger-core/internal/core/domain"
	"wallet-ledger-core/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransaction() *domain.Transaction {
	key := "idem-key-1"
	fromWallet := uuid.New()
	toWallet := uuid.New()
	resID := uuid.New()
	return &domain.Transaction{
		ID:             uuid.New(),
		IdempotencyKey: &key,
		OwnerID:        uuid.New(),
		Type:           domain.TransactionTypeSend,
		Amount:         decimal.RequireFromString("100.00"),
		Currency:       "USD",
		FromWalletID:   &fromWallet,
		ToWalletID:     &toWallet,
		ReservationID:  &resID,
		Status:         domain.TransactionStatusPending,
		Description:    "test transfer",
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
}

func testTransactionColumns() []string {
	return []string{"id", "idempotency_key", "owner_id", "transaction_type", "amount", "currency",
		"from_wallet_id", "to_wallet_id", "reservation_id", "status", "description", "created_at", "settled_at"}
}

func transactionRow(t *domain.Transaction) *pgxmock.Rows {
	return pgxmock.NewRows(testTransactionColumns()).AddRow(
		t.ID, t.IdempotencyKey, t.OwnerID, t.Type, t.Amount, t.Currency,
		t.FromWalletID, t.ToWalletID, t.ReservationID, t.Status,
		t.Description, t.CreatedAt, t.SettledAt,
	)
}

func TestTransactionRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(txn.ID, txn.IdempotencyKey, txn.OwnerID, txn.Type, txn.Amount, txn.Currency,
			txn.FromWalletID, txn.ToWalletID, txn.ReservationID, txn.Status,
			txn.Description, txn.CreatedAt, txn.SettledAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, txn)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(txn.ID).
		WillReturnRows(transactionRow(txn))

	result, err := repo.GetByID(context.Background(), txn.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txn.ID, result.ID)
	assert.Equal(t, domain.TransactionStatusPending, result.Status)
	assert.True(t, result.Amount.Equal(txn.Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(testTransactionColumns()))

	result, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestTransactionRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	txn := newTestTransaction()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE id .+ FOR UPDATE").
		WithArgs(txn.ID).
		WillReturnRows(transactionRow(txn))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), tx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, txn.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE transactions SET status").
		WithArgs(domain.TransactionStatusCompleted, pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateStatus(context.Background(), tx, id, domain.TransactionStatusCompleted)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	ownerID := uuid.New()
	txn := newTestTransaction()
	txn.OwnerID = ownerID

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(ownerID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE owner_id .+ ORDER BY created_at DESC").
		WithArgs(ownerID, 20, 0).
		WillReturnRows(transactionRow(txn))

	txns, total, err := repo.List(context.Background(), ports.TransactionListParams{
		OwnerID:  ownerID,
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, txns, 1)
	assert.Equal(t, txn.ID, txns[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepo_List_WithFilters(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewTransactionRepo(mock)
	ownerID := uuid.New()
	status := domain.TransactionStatusCompleted
	txType := domain.TransactionTypeSend

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(ownerID, status, txType).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery("SELECT .+ FROM transactions WHERE owner_id .+ status .+ transaction_type").
		WithArgs(ownerID, status, txType, 10, 0).
		WillReturnRows(pgxmock.NewRows(testTransactionColumns()))

	txns, total, err := repo.List(context.Background(), ports.TransactionListParams{
		OwnerID:  ownerID,
		Status:   &status,
		Type:     &txType,
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, txns)
	assert.NoError(t, mock.ExpectationsWereMet())
}
