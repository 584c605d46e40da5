package integration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"payment-processing-core/internal/core/domain"
	"payment-processing-core/internal/core/ports"

	"github.com/google/uuid"
)

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*domain.Account
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{accounts: make(map[uuid.UUID]*domain.Account)}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return domain.ErrConflict
		}
	}
	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *inMemoryAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryAccountRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return fmt.Errorf("account not found")
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryAccountRepo) ListMerchants(ctx context.Context) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Account
	for _, a := range r.accounts {
		if a.Role == domain.RoleMerchant {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *inMemoryAccountRepo) IncrementStats(ctx context.Context, merchantID uuid.UUID, delta domain.StatsDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[merchantID]
	if !ok {
		return fmt.Errorf("account not found")
	}
	a.Stats.TotalTransactions += delta.Transactions
	a.Stats.TotalVolumeMinor += delta.VolumeMinor
	a.Stats.TotalCommissionMinor += delta.CommissionMinor
	return nil
}

// --- In-Memory Transaction Repo ---

// inMemoryTransactionRepo enforces the same uniqueness the database schema
// does: one transaction per (merchant_id, reference_id) pair. Create under
// a held lock is the linearization point the concurrency tests rely on.
type inMemoryTransactionRepo struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*domain.Transaction
	byRef map[string]uuid.UUID // merchantID:referenceID -> id
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{
		byID:  make(map[uuid.UUID]*domain.Transaction),
		byRef: make(map[string]uuid.UUID),
	}
}

func refKey(merchantID uuid.UUID, referenceID string) string {
	return merchantID.String() + ":" + referenceID
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := refKey(tx.MerchantID, tx.ReferenceID)
	if _, exists := r.byRef[key]; exists {
		return domain.ErrConflict
	}
	if _, exists := r.byID[tx.ID]; exists {
		return domain.ErrConflict
	}
	cp := *tx
	r.byID[tx.ID] = &cp
	r.byRef[key] = tx.ID
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *tx
	return &cp, nil
}

func (r *inMemoryTransactionRepo) GetByReference(ctx context.Context, merchantID uuid.UUID, referenceID string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byRef[refKey(merchantID, referenceID)]
	if !ok {
		return nil, nil
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *inMemoryTransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, gatewayTxID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("transaction not found")
	}
	// Unconditional overwrite, matching the SQL adapter: a failed charge
	// clears any provisional gateway reference.
	tx.Status = status
	tx.GatewayTransactionID = gatewayTxID
	tx.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matched []domain.Transaction
	for _, tx := range r.byID {
		if params.MerchantID != uuid.Nil && tx.MerchantID != params.MerchantID {
			continue
		}
		if params.Status != nil && tx.Status != *params.Status {
			continue
		}
		if params.Gateway != nil && tx.Gateway != *params.Gateway {
			continue
		}
		matched = append(matched, *tx)
	}
	total := int64(len(matched))

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []domain.Transaction{}, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// --- Counting Gateway ---

// countingGateway is a provider stub that records how many charges actually
// reach the external boundary. The delay widens the race window so the
// idempotency guarantees are tested under real contention rather than by luck.
type countingGateway struct {
	kind    domain.GatewayKind
	calls   atomic.Int64
	delay   time.Duration
	failErr error // When set, every charge returns this error
}

func (g *countingGateway) Kind() domain.GatewayKind {
	return g.kind
}

func (g *countingGateway) Charge(ctx context.Context, params ports.ChargeParams) (*ports.ChargeResult, error) {
	g.calls.Add(1)
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ports.ErrGatewayNetwork
		}
	}
	if g.failErr != nil {
		return nil, g.failErr
	}
	return &ports.ChargeResult{
		ExternalID: "ext_" + params.TransactionID,
		Status:     domain.TransactionStatusCompleted,
	}, nil
}
