package ports

import (
	"context"

	"payment-processing-core/internal/core/domain"

	"github.com/google/uuid"
)

// AccountRepository defines persistence operations for accounts.
// Reads always hit the store: authorization decisions must reflect the
// latest role/status, never a cached copy.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error
	ListMerchants(ctx context.Context) ([]domain.Account, error)
	// IncrementStats applies a counter delta with atomic SQL arithmetic.
	// Concurrent increments for the same merchant must not lose updates.
	IncrementStats(ctx context.Context, merchantID uuid.UUID, delta domain.StatsDelta) error
}

// TransactionRepository defines persistence operations for transactions.
type TransactionRepository interface {
	// Create inserts a new pending transaction. Returns domain.ErrConflict
	// when the id or the (merchant_id, reference_id) pair already exists.
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByReference(ctx context.Context, merchantID uuid.UUID, referenceID string) (*domain.Transaction, error)
	// UpdateStatus moves a transaction to a new status and records the
	// external gateway reference. Create must always be observed first.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, gatewayTxID string) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	MerchantID uuid.UUID
	Status     *domain.TransactionStatus
	Gateway    *domain.GatewayKind
	Page       int
	PageSize   int
}
