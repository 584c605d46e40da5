package service

import (
	"context"
	"fmt"
	"time"

	"payment-processing-core/internal/core/domain"
	"payment-processing-core/internal/core/ports"
	"payment-processing-core/pkg/apperror"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	accountRepo ports.AccountRepository
	hashSvc     ports.HashService
	tokenSvc    ports.TokenService
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	accountRepo ports.AccountRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		accountRepo: accountRepo,
		hashSvc:     hashSvc,
		tokenSvc:    tokenSvc,
	}
}

// Authenticate verifies the bearer credential and resolves it to the
// current account state. The credential is only an identity pointer:
// role and status come from the store on every call, so suspensions
// take effect without waiting for token expiry.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, credential string) (*domain.Account, error) {
	claims, err := s.tokenSvc.Validate(credential)
	if err != nil {
		return nil, apperror.ErrAuthenticationFailed()
	}

	account, err := s.accountRepo.GetByID(ctx, claims.AccountID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve account: %w", err))
	}
	if account == nil {
		return nil, apperror.ErrAuthenticationFailed()
	}

	return account, nil
}

// Authorize fails with AuthorizationDenied unless the account holds the
// required role. It is a pure check with no side effects.
func (s *AuthServiceImpl) Authorize(account *domain.Account, required domain.AccountRole) error {
	if account == nil || account.Role != required {
		return apperror.ErrAuthorizationDenied()
	}
	return nil
}

// Login validates credentials and returns a signed token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find account: %w", err))
	}
	if account == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, account.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	// Suspended accounts cannot obtain fresh credentials. Pending merchants
	// can: they may inspect their own state while awaiting verification.
	if account.Status == domain.AccountStatusSuspended {
		return "", time.Time{}, apperror.ErrAuthorizationDenied()
	}

	token, expiry, err := s.tokenSvc.Generate(account.ID)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, nil
}
