package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"payment-processing-core/internal/core/domain"
	"payment-processing-core/internal/core/ports"
	"payment-processing-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AccountServiceImpl implements ports.AccountService: the owner-gated
// administration surface for merchant accounts.
type AccountServiceImpl struct {
	accountRepo          ports.AccountRepository
	hashSvc              ports.HashService
	defaultCommissionBps int32
	log                  zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(
	accountRepo ports.AccountRepository,
	hashSvc ports.HashService,
	defaultCommissionBps int32,
	log zerolog.Logger,
) *AccountServiceImpl {
	return &AccountServiceImpl{
		accountRepo:          accountRepo,
		hashSvc:              hashSvc,
		defaultCommissionBps: defaultCommissionBps,
		log:                  log,
	}
}

// RegisterMerchant creates a new merchant account in the PENDING state.
// Merchants become eligible to charge only after an owner activates them.
func (s *AccountServiceImpl) RegisterMerchant(ctx context.Context, req ports.RegisterMerchantRequest) (*domain.Account, error) {
	existing, err := s.accountRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailExists()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	rateBps := req.CommissionRateBps
	if rateBps <= 0 {
		rateBps = s.defaultCommissionBps
	}

	// Stored uppercase so charge-time currency comparisons are exact.
	currency := strings.ToUpper(req.SettlementCurrency)
	if !domain.ValidCurrency(currency) {
		return nil, apperror.ErrValidationFailed("settlement_currency", "must be a 3-letter code")
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:                 uuid.New(),
		Role:               domain.RoleMerchant,
		Email:              req.Email,
		DisplayName:        req.DisplayName,
		PasswordHash:       passwordHash,
		Status:             domain.AccountStatusPending,
		CommissionRateBps:  rateBps,
		SettlementCurrency: currency,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, apperror.ErrPersistenceFailure(fmt.Errorf("create account: %w", err))
	}

	s.log.Info().
		Str("account_id", account.ID.String()).
		Str("email", account.Email).
		Int32("commission_bps", rateBps).
		Msg("merchant registered")

	return account, nil
}

// SetStatus transitions an account between lifecycle states. Valid moves:
// pending→active (verification) and active→suspended / suspended→active
// (administrative). Owners cannot be suspended through this path.
func (s *AccountServiceImpl) SetStatus(ctx context.Context, accountID uuid.UUID, status domain.AccountStatus) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrNotFound("account")
	}
	if account.Role != domain.RoleMerchant {
		return nil, apperror.ErrAuthorizationDenied()
	}

	if !validStatusTransition(account.Status, status) {
		return nil, apperror.ErrValidationFailed("status",
			fmt.Sprintf("cannot transition from %s to %s", account.Status, status))
	}

	if err := s.accountRepo.UpdateStatus(ctx, accountID, status); err != nil {
		return nil, apperror.ErrPersistenceFailure(fmt.Errorf("update status: %w", err))
	}

	s.log.Info().
		Str("account_id", accountID.String()).
		Str("from", string(account.Status)).
		Str("to", string(status)).
		Msg("merchant status changed")

	account.Status = status
	return account, nil
}

// ListMerchants returns all merchant accounts.
func (s *AccountServiceImpl) ListMerchants(ctx context.Context) ([]domain.Account, error) {
	merchants, err := s.accountRepo.ListMerchants(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list merchants: %w", err))
	}
	return merchants, nil
}

func validStatusTransition(from, to domain.AccountStatus) bool {
	switch from {
	case domain.AccountStatusPending:
		return to == domain.AccountStatusActive
	case domain.AccountStatusActive:
		return to == domain.AccountStatusSuspended
	case domain.AccountStatusSuspended:
		return to == domain.AccountStatusActive
	}
	return false
}
