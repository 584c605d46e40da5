package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"payment-processing-core/internal/core/domain"
	"payment-processing-core/internal/core/ports"
	"payment-processing-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaymentPolicy tunes the orchestrator. Values come from configuration.
type PaymentPolicy struct {
	MinAmountMinor int64
	GatewayTimeout time.Duration
	RetryAttempts  int // Extra attempts after a transient gateway failure
	RetryBackoff   time.Duration
	IdempotencyTTL time.Duration
}

// PaymentServiceImpl implements ports.PaymentService: the transaction
// orchestrator. It owns a Transaction from creation until it is persisted
// in a terminal state; afterwards the ledger owns it.
type PaymentServiceImpl struct {
	txRepo      ports.TransactionRepository
	accountRepo ports.AccountRepository
	idempCache  ports.IdempotencyCache
	gateways    map[domain.GatewayKind]ports.Gateway
	policy      PaymentPolicy
	log         zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl. Adapters are injected
// once at startup; the orchestrator never constructs provider clients.
func NewPaymentService(
	txRepo ports.TransactionRepository,
	accountRepo ports.AccountRepository,
	idempCache ports.IdempotencyCache,
	gateways []ports.Gateway,
	policy PaymentPolicy,
	log zerolog.Logger,
) *PaymentServiceImpl {
	byKind := make(map[domain.GatewayKind]ports.Gateway, len(gateways))
	for _, gw := range gateways {
		byKind[gw.Kind()] = gw
	}
	return &PaymentServiceImpl{
		txRepo:      txRepo,
		accountRepo: accountRepo,
		idempCache:  idempCache,
		gateways:    byKind,
		policy:      policy,
		log:         log,
	}
}

// ProcessCharge runs one charge end to end:
// eligibility → fast-path idempotency → create pending record →
// external charge → terminal status + stats → response.
//
// Caller cancellation never aborts a charge in flight: once the pending
// record exists, the gateway call and the terminal persistence run on a
// detached context so money movement is always recorded.
func (s *PaymentServiceImpl) ProcessCharge(ctx context.Context, merchant *domain.Account, req ports.ChargeRequest) (*domain.Transaction, error) {
	// Eligibility is re-checked here even though the transport layer loads
	// the account fresh: the orchestrator must hold on its own.
	if !merchant.CanCharge() {
		return nil, apperror.ErrIneligibleMerchant()
	}

	// Fail-fast rejections: no persisted artifact.
	if req.Currency != merchant.SettlementCurrency {
		return nil, apperror.ErrCurrencyMismatch(merchant.SettlementCurrency)
	}
	if req.AmountMinor < s.policy.MinAmountMinor {
		return nil, apperror.ErrAmountBelowMinimum(s.policy.MinAmountMinor)
	}

	gw, ok := s.gateways[req.Gateway]
	if !ok {
		return nil, apperror.ErrValidationFailed("gateway", fmt.Sprintf("unknown gateway %q", req.Gateway))
	}

	idempKey := ports.BuildIdempotencyKey(merchant.ID, req.ReferenceID)

	// Fast path: a finalized response for this token short-circuits
	// everything, including the gateway.
	cached, err := s.idempCache.Get(ctx, idempKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("idempotency cache check failed, falling through to ledger")
	}
	if cached != nil {
		return unmarshalCachedTransaction(cached)
	}

	// Commission is computed exactly once, at creation key time, from the
	// merchant's current rate. It is never recomputed afterwards.
	commission := domain.Commission(req.AmountMinor, merchant.CommissionRateBps)

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:              uuid.New(),
		ReferenceID:     req.ReferenceID,
		MerchantID:      merchant.ID,
		AmountMinor:     req.AmountMinor,
		CommissionMinor: commission,
		NetMinor:        domain.Net(req.AmountMinor, commission),
		Currency:        req.Currency,
		Gateway:         req.Gateway,
		Status:          domain.TransactionStatusPending,
		Customer:        req.Customer,
		Description:     req.Description,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Lookup-or-create keyed by (merchant, reference): a retried token
	// returns the existing record and never reaches the gateway again.
	if err := s.txRepo.Create(ctx, txn); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return s.existingTransaction(ctx, merchant.ID, req.ReferenceID)
		}
		return nil, apperror.ErrPersistenceFailure(fmt.Errorf("create transaction: %w", err))
	}

	// The pending row is now the durable checkpoint. From here on, run
	// detached from the caller's context.
	opCtx := context.WithoutCancel(ctx)

	result, gwErr := s.chargeWithRetry(opCtx, gw, ports.ChargeParams{
		TransactionID:      txn.ID.String(),
		AmountMinor:        req.AmountMinor,
		Currency:           req.Currency,
		PaymentMethodToken: req.PaymentMethodToken,
		Customer:           req.Customer,
		Description:        chargeDescription(req, merchant),
	})

	if gwErr != nil {
		if err := s.txRepo.UpdateStatus(opCtx, txn.ID, domain.TransactionStatusFailed, ""); err != nil {
			// The row stays pending; reconciliation reads it from the ledger.
			s.log.Error().Err(err).Str("tx_id", txn.ID.String()).Msg("failed to mark transaction failed")
			return nil, apperror.ErrPersistenceFailure(err)
		}
		txn.Status = domain.TransactionStatusFailed

		s.cacheFinalized(opCtx, idempKey, txn)

		if errors.Is(gwErr, ports.ErrGatewayRejected) {
			return nil, apperror.ErrPaymentFailed(gwErr)
		}
		return nil, apperror.ErrGatewayUnavailable(gwErr)
	}

	if err := s.txRepo.UpdateStatus(opCtx, txn.ID, result.Status, result.ExternalID); err != nil {
		// The charge reached the gateway; never drop it silently.
		s.log.Error().Err(err).
			Str("tx_id", txn.ID.String()).
			Str("gateway_tx_id", result.ExternalID).
			Msg("failed to persist gateway outcome")
		return nil, apperror.ErrPersistenceFailure(err)
	}
	txn.Status = result.Status
	txn.GatewayTransactionID = result.ExternalID

	// Counters move only on the transition to COMPLETED, exactly once per
	// transaction; the delta is atomic SQL arithmetic in the repository.
	if txn.Status == domain.TransactionStatusCompleted {
		if err := s.accountRepo.IncrementStats(opCtx, merchant.ID, txn.StatsDelta()); err != nil {
			s.log.Error().Err(err).Str("tx_id", txn.ID.String()).Msg("failed to increment merchant stats")
			return nil, apperror.ErrPersistenceFailure(err)
		}
	}

	if txn.IsTerminal() {
		s.cacheFinalized(opCtx, idempKey, txn)
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("merchant_id", merchant.ID.String()).
		Str("gateway", string(txn.Gateway)).
		Str("status", string(txn.Status)).
		Int64("amount_minor", txn.AmountMinor).
		Int64("commission_minor", txn.CommissionMinor).
		Msg("charge processed")

	return txn, nil
}

// chargeWithRetry invokes the gateway with a per-attempt deadline.
// Transient network failures are retried with linear backoff; rejections
// return immediately.
func (s *PaymentServiceImpl) chargeWithRetry(ctx context.Context, gw ports.Gateway, params ports.ChargeParams) (*ports.ChargeResult, error) {
	var lastErr error

	for attempt := 0; attempt <= s.policy.RetryAttempts; attempt++ {
		if attempt > 0 {
			s.log.Warn().Err(lastErr).
				Str("tx_id", params.TransactionID).
				Int("attempt", attempt).
				Msg("retrying gateway charge")
			time.Sleep(s.policy.RetryBackoff * time.Duration(attempt))
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.policy.GatewayTimeout)
		result, err := gw.Charge(attemptCtx, params)
		cancel()

		if err == nil {
			return result, nil
		}
		if errors.Is(err, ports.ErrGatewayRejected) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// existingTransaction resolves an idempotency collision to the already
// persisted record.
func (s *PaymentServiceImpl) existingTransaction(ctx context.Context, merchantID uuid.UUID, referenceID string) (*domain.Transaction, error) {
	existing, err := s.txRepo.GetByReference(ctx, merchantID, referenceID)
	if err != nil {
		return nil, apperror.ErrPersistenceFailure(fmt.Errorf("lookup existing transaction: %w", err))
	}
	if existing == nil {
		return nil, apperror.InternalError(fmt.Errorf("conflict on create but no transaction for reference %q", referenceID))
	}

	s.log.Info().
		Str("tx_id", existing.ID.String()).
		Str("reference_id", referenceID).
		Msg("idempotent retry, returning existing transaction")

	return existing, nil
}

// cacheFinalized stores a terminal transaction for the fast path (best-effort).
func (s *PaymentServiceImpl) cacheFinalized(ctx context.Context, key string, txn *domain.Transaction) {
	respJSON, err := json.Marshal(txn)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to marshal transaction for cache")
		return
	}
	if err := s.idempCache.Set(ctx, key, respJSON, s.policy.IdempotencyTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to cache finalized transaction")
	}
}

func chargeDescription(req ports.ChargeRequest, merchant *domain.Account) string {
	if req.Description != nil && *req.Description != "" {
		return *req.Description
	}
	return "Payment to " + merchant.DisplayName
}

// unmarshalCachedTransaction deserializes a cached transaction.
func unmarshalCachedTransaction(data []byte) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	if err := json.Unmarshal(data, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached tx: %w", err))
	}
	return txn, nil
}
