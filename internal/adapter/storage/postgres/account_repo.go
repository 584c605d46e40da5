package postgres

import (
	"context"
	"errors"
	"fmt"

	"payment-processing-core/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepo implements ports.AccountRepository.
type AccountRepo struct {
	pool Pool
}

// NewAccountRepo creates a new AccountRepo.
func NewAccountRepo(pool Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

const accountColumns = `id, role, email, display_name, password_hash, status,
	commission_rate_bps, settlement_currency,
	total_transactions, total_volume_minor, total_commission_minor,
	created_at, updated_at`

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (id, role, email, display_name, password_hash, status,
		commission_rate_bps, settlement_currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.Role, a.Email, a.DisplayName, a.PasswordHash, a.Status,
		a.CommissionRateBps, a.SettlementCurrency, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID fetches an account by UUID. Returns nil, nil when absent.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, query, id), "get account by id")
}

// GetByEmail fetches an account by email. Returns nil, nil when absent.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, query, email), "get account by email")
}

// UpdateStatus transitions an account's lifecycle state.
func (r *AccountRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.AccountStatus) error {
	query := `UPDATE accounts SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update account status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// IncrementStats applies one completed charge's delta to the account's
// running counters. The arithmetic happens inside the UPDATE so concurrent
// charges never lose increments to a read-modify-write race.
func (r *AccountRepo) IncrementStats(ctx context.Context, merchantID uuid.UUID, delta domain.StatsDelta) error {
	query := `UPDATE accounts SET
		total_transactions = total_transactions + $1,
		total_volume_minor = total_volume_minor + $2,
		total_commission_minor = total_commission_minor + $3,
		updated_at = NOW()
		WHERE id = $4`

	tag, err := r.pool.Exec(ctx, query,
		delta.Transactions, delta.VolumeMinor, delta.CommissionMinor, merchantID,
	)
	if err != nil {
		return fmt.Errorf("increment account stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", merchantID)
	}
	return nil
}

// ListMerchants returns all merchant accounts, newest first.
func (r *AccountRepo) ListMerchants(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE role = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, domain.RoleMerchant)
	if err != nil {
		return nil, fmt.Errorf("list merchants: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := scanAccountFields(rows, &a); err != nil {
			return nil, fmt.Errorf("scan merchant row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merchants: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepo) scanAccount(row pgx.Row, op string) (*domain.Account, error) {
	a := &domain.Account{}
	if err := scanAccountFields(row, a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

func scanAccountFields(row pgx.Row, a *domain.Account) error {
	return row.Scan(
		&a.ID, &a.Role, &a.Email, &a.DisplayName, &a.PasswordHash, &a.Status,
		&a.CommissionRateBps, &a.SettlementCurrency,
		&a.Stats.TotalTransactions, &a.Stats.TotalVolumeMinor, &a.Stats.TotalCommissionMinor,
		&a.CreatedAt, &a.UpdatedAt,
	)
}
