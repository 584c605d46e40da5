package ports

import (
	"context"
	"time"

	"payment-processing-core/internal/core/domain"

	"github.com/google/uuid"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles bearer credential signing and verification.
// The credential carries only an identity pointer; role and status are
// always resolved from a fresh account read.
type TokenService interface {
	Generate(accountID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed credential claims.
type TokenClaims struct {
	AccountID uuid.UUID
}

// IdempotencyCache is the fast-path cache of finalized charge responses,
// keyed by "merchant_id:reference_id". A hit short-circuits ProcessCharge
// without touching the ledger or the gateway.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// BuildIdempotencyKey constructs the standard cache key format.
func BuildIdempotencyKey(merchantID uuid.UUID, referenceID string) string {
	return merchantID.String() + ":" + referenceID
}

// --- Service Ports (Business Logic) ---

// AuthService resolves credentials to live accounts and gates operations
// by role.
type AuthService interface {
	// Authenticate verifies the bearer credential and re-reads the account
	// so a demotion or suspension takes effect immediately.
	Authenticate(ctx context.Context, credential string) (*domain.Account, error)
	// Authorize fails unless the account holds the required role.
	Authorize(account *domain.Account, required domain.AccountRole) error
	Login(ctx context.Context, email, password string) (string, time.Time, error) // token, expiry, error
}

// ChargeRequest holds the validated input for charge processing.
type ChargeRequest struct {
	ReferenceID        string // Idempotency token, unique per merchant
	AmountMinor        int64
	Currency           string
	Gateway            domain.GatewayKind
	PaymentMethodToken string
	Customer           domain.Customer
	Description        *string
}

// PaymentService is the transaction orchestrator.
type PaymentService interface {
	ProcessCharge(ctx context.Context, merchant *domain.Account, req ChargeRequest) (*domain.Transaction, error)
}

// AccountService covers owner-gated account administration.
type AccountService interface {
	RegisterMerchant(ctx context.Context, req RegisterMerchantRequest) (*domain.Account, error)
	SetStatus(ctx context.Context, accountID uuid.UUID, status domain.AccountStatus) (*domain.Account, error)
	ListMerchants(ctx context.Context) ([]domain.Account, error)
}

// RegisterMerchantRequest holds input for merchant registration.
type RegisterMerchantRequest struct {
	Email              string
	Password           string
	DisplayName        string
	CommissionRateBps  int32
	SettlementCurrency string
}

// ReportingService is the read-only reconciliation surface: callers query
// transaction state here instead of assuming an error meant no money moved.
type ReportingService interface {
	GetTransaction(ctx context.Context, caller *domain.Account, id uuid.UUID) (*domain.Transaction, error)
	GetMerchantStats(ctx context.Context, merchantID uuid.UUID) (*domain.AccountStats, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}
