package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"payment-processing-core/internal/core/domain"
	"payment-processing-core/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// TransactionRepo implements ports.TransactionRepository. The table carries
// a unique constraint on (merchant_id, reference_id); that constraint, not
// any cache, is what makes charge tokens idempotent.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `id, reference_id, merchant_id, amount_minor, commission_minor, net_minor,
	currency, gateway, gateway_transaction_id, status,
	customer_name, customer_email, customer_phone, description,
	created_at, updated_at`

// Create inserts a new transaction. A duplicate (merchant, reference) pair
// surfaces as domain.ErrConflict so the caller can resolve to the existing
// record instead of charging twice.
func (r *TransactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, reference_id, merchant_id, amount_minor, commission_minor, net_minor,
		currency, gateway, gateway_transaction_id, status,
		customer_name, customer_email, customer_phone, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.pool.Exec(ctx, query,
		t.ID, t.ReferenceID, t.MerchantID, t.AmountMinor, t.CommissionMinor, t.NetMinor,
		t.Currency, t.Gateway, t.GatewayTransactionID, t.Status,
		t.Customer.Name, t.Customer.Email, t.Customer.Phone, t.Description,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID. Returns nil, nil when absent.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.scanTransaction(r.pool.QueryRow(ctx, query, id), "get transaction by id")
}

// GetByReference fetches a transaction by merchant and reference token.
// Returns nil, nil when absent.
func (r *TransactionRepo) GetByReference(ctx context.Context, merchantID uuid.UUID, referenceID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE merchant_id = $1 AND reference_id = $2`
	return r.scanTransaction(r.pool.QueryRow(ctx, query, merchantID, referenceID), "get transaction by reference")
}

// UpdateStatus moves a transaction to a new status, recording the provider's
// id when the charge reached a gateway.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, gatewayTxID string) error {
	query := `UPDATE transactions SET status = $1, gateway_transaction_id = $2, updated_at = NOW() WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, status, gatewayTxID, id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

// List returns a filtered, paginated page of transactions plus the total
// count for the filter.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conds []string
	var args []any

	addCond := func(expr string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if params.MerchantID != uuid.Nil {
		addCond("merchant_id = $%d", params.MerchantID)
	}
	if params.Status != nil {
		addCond("status = $%d", *params.Status)
	}
	if params.Gateway != nil {
		addCond("gateway = $%d", *params.Gateway)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM transactions` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	args = append(args, pageSize, (page-1)*pageSize)
	listQuery := fmt.Sprintf(`SELECT %s FROM transactions%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := scanTransactionFields(rows, &t); err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}

	return txns, total, nil
}

func (r *TransactionRepo) scanTransaction(row pgx.Row, op string) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	if err := scanTransactionFields(row, t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

func scanTransactionFields(row pgx.Row, t *domain.Transaction) error {
	return row.Scan(
		&t.ID, &t.ReferenceID, &t.MerchantID, &t.AmountMinor, &t.CommissionMinor, &t.NetMinor,
		&t.Currency, &t.Gateway, &t.GatewayTransactionID, &t.Status,
		&t.Customer.Name, &t.Customer.Email, &t.Customer.Phone, &t.Description,
		&t.CreatedAt, &t.UpdatedAt,
	)
}
