package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-ledger-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	rec := &domain.IdempotencyRecord{
		Key:           "owner:abc:k1",
		TransactionID: uuid.New(),
		CreatedAt:     time.Now().UTC(),
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO idempotency_records").
		WithArgs(rec.Key, rec.TransactionID, rec.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), tx, rec)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Get(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)
	txID := uuid.New()
	createdAt := time.Now().UTC()

	mock.ExpectQuery("SELECT key, transaction_id, created_at FROM idempotency_records").
		WithArgs("owner:abc:k1").
		WillReturnRows(pgxmock.NewRows([]string{"key", "transaction_id", "created_at"}).
			AddRow("owner:abc:k1", txID, createdAt))

	rec, err := repo.Get(context.Background(), "owner:abc:k1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, txID, rec.TransactionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepo_Get_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewIdempotencyRepo(mock)

	mock.ExpectQuery("SELECT key, transaction_id, created_at FROM idempotency_records").
		WithArgs("owner:abc:missing").
		WillReturnRows(pgxmock.NewRows([]string{"key", "transaction_id", "created_at"}))

	rec, err := repo.Get(context.Background(), "owner:abc:missing")
	require.NoError(t, err)
	assert.Nil(t, rec, "missing key should return nil, nil")
}
