package service

import (
	"context"
	"fmt"

	"payment-processing-core/internal/core/domain"
	"payment-processing-core/internal/core/ports"
	"payment-processing-core/pkg/apperror"

	"github.com/google/uuid"
)

// reportingService implements ports.ReportingService. It is the read-only
// reconciliation surface: after an ambiguous failure, callers query the
// transaction here instead of assuming the charge did not happen.
type reportingService struct {
	txRepo      ports.TransactionRepository
	accountRepo ports.AccountRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(txRepo ports.TransactionRepository, accountRepo ports.AccountRepository) ports.ReportingService {
	return &reportingService{txRepo: txRepo, accountRepo: accountRepo}
}

// GetTransaction returns a transaction visible to the caller: owners see
// everything, merchants only their own records.
func (s *reportingService) GetTransaction(ctx context.Context, caller *domain.Account, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	if caller.Role != domain.RoleOwner && txn.MerchantID != caller.ID {
		return nil, apperror.ErrNotFound("transaction")
	}
	return txn, nil
}

// GetMerchantStats returns the merchant's running counters.
func (s *reportingService) GetMerchantStats(ctx context.Context, merchantID uuid.UUID) (*domain.AccountStats, error) {
	account, err := s.accountRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrNotFound("account")
	}
	stats := account.Stats
	return &stats, nil
}

// ListTransactions returns a paginated list of transactions.
func (s *reportingService) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, total, nil
}
