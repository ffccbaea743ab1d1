package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wallet-ledger-core/internal/core/domain"
	"wallet-ledger-core/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return fmt.Errorf("username already exists")
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.wallets {
		if existing.OwnerID == w.OwnerID && existing.Type == w.Type {
			return false, nil
		}
	}
	cp := *w
	r.wallets[w.ID] = &cp
	return true, nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID, walletType domain.WalletType) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.OwnerID == ownerID && w.Type == walletType {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Wallet
	for _, w := range r.wallets {
		if w.OwnerID == ownerID {
			result = append(result, *w)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryWalletRepo) UpdateBalances(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance, pending decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Balance = balance
	w.PendingBalance = pending
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryWalletRepo) Deactivate(ctx context.Context, walletID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Active = false
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Reservation Repo ---

type inMemoryReservationRepo struct {
	mu           sync.RWMutex
	reservations map[uuid.UUID]*domain.Reservation
}

func newInMemoryReservationRepo() *inMemoryReservationRepo {
	return &inMemoryReservationRepo{reservations: make(map[uuid.UUID]*domain.Reservation)}
}

func (r *inMemoryReservationRepo) Create(ctx context.Context, tx pgx.Tx, res *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *res
	r.reservations[res.ID] = &cp
	return nil
}

func (r *inMemoryReservationRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.reservations[id]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (r *inMemoryReservationRepo) UpdateState(ctx context.Context, tx pgx.Tx, id uuid.UUID, state domain.ReservationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[id]
	if !ok {
		return fmt.Errorf("reservation not found")
	}
	res.State = state
	now := time.Now().UTC()
	res.SettledAt = &now
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.transactions[t.ID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryTransactionRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return fmt.Errorf("transaction not found")
	}
	t.Status = status
	if t.IsTerminal() {
		now := time.Now().UTC()
		t.SettledAt = &now
	}
	return nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if t.OwnerID != params.OwnerID {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		if params.WalletID != nil {
			fromMatch := t.FromWalletID != nil && *t.FromWalletID == *params.WalletID
			toMatch := t.ToWalletID != nil && *t.ToWalletID == *params.WalletID
			if !fromMatch && !toMatch {
				continue
			}
		}
		if params.From != nil && t.CreatedAt.Unix() < *params.From {
			continue
		}
		if params.To != nil && t.CreatedAt.Unix() > *params.To {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	total := int64(len(result))

	// Simple pagination
	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Transaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

// --- In-Memory Verification Repo ---

type inMemoryVerificationRepo struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*domain.VerificationRecord
}

func newInMemoryVerificationRepo() *inMemoryVerificationRepo {
	return &inMemoryVerificationRepo{records: make(map[uuid.UUID]*domain.VerificationRecord)}
}

func (r *inMemoryVerificationRepo) Get(ctx context.Context, userID uuid.UUID) (*domain.VerificationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[userID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *inMemoryVerificationRepo) Upsert(ctx context.Context, record *domain.VerificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	r.records[record.UserID] = &cp
	return nil
}

// --- In-Memory Idempotency Repo ---

type inMemoryIdempotencyRepo struct {
	mu      sync.RWMutex
	records map[string]*domain.IdempotencyRecord
}

func newInMemoryIdempotencyRepo() *inMemoryIdempotencyRepo {
	return &inMemoryIdempotencyRepo{records: make(map[string]*domain.IdempotencyRecord)}
}

func (r *inMemoryIdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, record *domain.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	r.records[record.Key] = &cp
	return nil
}

func (r *inMemoryIdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes transaction blocks behind one mutex, the
// coarse stand-in for per-row locks: the available-funds check and the
// pending increment become one atomic step, same as SELECT FOR UPDATE
// gives against a real database.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &memTx{transactor: t}, nil
}

// memTx is a no-op pgx.Tx that releases the transactor lock exactly once,
// on Commit or on the deferred Rollback, whichever comes first.
type memTx struct {
	transactor *inMemoryTransactor
	done       bool
	mu         sync.Mutex
}

func (t *memTx) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.done {
		t.done = true
		t.transactor.mu.Unlock()
	}
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) Commit(ctx context.Context) error          { t.finish(); return nil }
func (t *memTx) Rollback(ctx context.Context) error        { t.finish(); return nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }
