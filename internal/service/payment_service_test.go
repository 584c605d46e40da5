package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"payment-processing-core/internal/core/domain"
	"payment-processing-core/internal/core/ports"
	"payment-processing-core/internal/core/ports/mocks"
	"payment-processing-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testPolicy = PaymentPolicy{
	MinAmountMinor: 100,
	GatewayTimeout: 2 * time.Second,
	RetryAttempts:  2,
	RetryBackoff:   time.Millisecond,
	IdempotencyTTL: time.Hour,
}

type paymentFixture struct {
	txRepo      *mocks.MockTransactionRepository
	accountRepo *mocks.MockAccountRepository
	cache       *mocks.MockIdempotencyCache
	gateway     *mocks.MockGateway
	svc         *PaymentServiceImpl
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	ctrl := gomock.NewController(t)
	f := &paymentFixture{
		txRepo:      mocks.NewMockTransactionRepository(ctrl),
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		cache:       mocks.NewMockIdempotencyCache(ctrl),
		gateway:     mocks.NewMockGateway(ctrl),
	}
	f.gateway.EXPECT().Kind().Return(domain.GatewayCard).AnyTimes()
	f.svc = NewPaymentService(
		f.txRepo, f.accountRepo, f.cache,
		[]ports.Gateway{f.gateway},
		testPolicy, zerolog.Nop(),
	)
	return f
}

func activeMerchant() *domain.Account {
	return &domain.Account{
		ID:                 uuid.New(),
		Role:               domain.RoleMerchant,
		Email:              "merchant@example.com",
		DisplayName:        "Acme Books",
		Status:             domain.AccountStatusActive,
		CommissionRateBps:  70,
		SettlementCurrency: "INR",
	}
}

func cardChargeRequest() ports.ChargeRequest {
	return ports.ChargeRequest{
		ReferenceID:        "order-1001",
		AmountMinor:        500000,
		Currency:           "INR",
		Gateway:            domain.GatewayCard,
		PaymentMethodToken: "pm_card_visa",
		Customer:           domain.Customer{Name: "Jane Doe"},
	}
}

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestProcessCharge_Success(t *testing.T) {
	f := newPaymentFixture(t)
	merchant := activeMerchant()
	req := cardChargeRequest()

	f.cache.EXPECT().Get(gomock.Any(), ports.BuildIdempotencyKey(merchant.ID, req.ReferenceID)).Return(nil, nil)

	var created *domain.Transaction
	f.txRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, txn *domain.Transaction) error {
			created = txn
			return nil
		})

	f.gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params ports.ChargeParams) (*ports.ChargeResult, error) {
			assert.Equal(t, int64(500000), params.AmountMinor)
			assert.Equal(t, "INR", params.Currency)
			assert.Equal(t, "pm_card_visa", params.PaymentMethodToken)
			assert.Equal(t, "Payment to Acme Books", params.Description)
			return &ports.ChargeResult{ExternalID: "pi_abc123", Status: domain.TransactionStatusCompleted}, nil
		})

	f.txRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), domain.TransactionStatusCompleted, "pi_abc123").Return(nil)

	f.accountRepo.EXPECT().IncrementStats(gomock.Any(), merchant.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, delta domain.StatsDelta) error {
			assert.Equal(t, int64(1), delta.Transactions)
			assert.Equal(t, int64(500000), delta.VolumeMinor)
			assert.Equal(t, int64(3500), delta.CommissionMinor)
			return nil
		})

	f.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), testPolicy.IdempotencyTTL).Return(nil)

	txn, err := f.svc.ProcessCharge(context.Background(), merchant, req)
	require.NoError(t, err)
	require.NotNil(t, created)

	// 70 basis points of 500000, rounded half-up.
	assert.Equal(t, int64(3500), txn.CommissionMinor)
	assert.Equal(t, int64(496500), txn.NetMinor)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, "pi_abc123", txn.GatewayTransactionID)
	assert.Equal(t, merchant.ID, txn.MerchantID)
	assert.Equal(t, created.ID, txn.ID)
}

func TestProcessCharge_SuspendedMerchant(t *testing.T) {
	f := newPaymentFixture(t)
	merchant := activeMerchant()
	merchant.Status = domain.AccountStatusSuspended

	// No repository, cache, or gateway interaction at all.
	_, err := f.svc.ProcessCharge(context.Background(), merchant, cardChargeRequest())
	require.Error(t, err)
	assert.Equal(t, "PAY_001", appErrCode(t, err))
}

func TestProcessCharge_OwnerCannotCharge(t *testing.T) {
	f := newPaymentFixture(t)
	merchant := activeMerchant()
	merchant.Role = domain.RoleOwner

	_, err := f.svc.ProcessCharge(context.Background(), merchant, cardChargeRequest())
	require.Error(t, err)
	assert.Equal(t, "PAY_001", appErrCode(t, err))
}

func TestProcessCharge_CurrencyMismatch(t *testing.T) {
	f := newPaymentFixture(t)
	req := cardChargeRequest()
	req.Currency = "USD"

	_, err := f.svc.ProcessCharge(context.Background(), activeMerchant(), req)
	require.Error(t, err)
	assert.Equal(t, "PAY_002", appErrCode(t, err))
}

func TestProcessCharge_AmountBelowMinimum(t *testing.T) {
	f := newPaymentFixture(t)
	req := cardChargeRequest()
	req.AmountMinor = 99

	_, err := f.svc.ProcessCharge(context.Background(), activeMerchant(), req)
	require.Error(t, err)
	assert.Equal(t, "PAY_003", appErrCode(t, err))
}

func TestProcessCharge_UnknownGateway(t *testing.T) {
	f := newPaymentFixture(t)
	req := cardChargeRequest()
	req.Gateway = domain.GatewayBankTransfer // not registered in this fixture

	_, err := f.svc.ProcessCharge(context.Background(), activeMerchant(), req)
	require.Error(t, err)
	assert.Equal(t, "VAL_001", appErrCode(t, err))
}

func TestProcessCharge_CacheHitShortCircuits(t *testing.T) {
	f := newPaymentFixture(t)
	merchant := activeMerchant()
	req := cardChargeRequest()

	finalized := &domain.Transaction{
		ID:                   uuid.New(),
		ReferenceID:          req.ReferenceID,
		MerchantID:           merchant.ID,
		AmountMinor:          req.AmountMinor,
		CommissionMinor:      3500,
		NetMinor:             496500,
		Currency:             "INR",
		Gateway:              domain.GatewayCard,
		GatewayTransactionID: "pi_prior",
		Status:               domain.TransactionStatusCompleted,
	}
	cached, err := json.Marshal(finalized)
	require.NoError(t, err)

	// Neither Create nor Charge may be called.
	f.cache.EXPECT().Get(gomock.Any(), ports.BuildIdempotencyKey(merchant.ID, req.ReferenceID)).Return(cached, nil)

	txn, err := f.svc.ProcessCharge(context.Background(), merchant, req)
	require.NoError(t, err)
	assert.Equal(t, finalized.ID, txn.ID)
	assert.Equal(t, "pi_prior", txn.GatewayTransactionID)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
}

func TestProcessCharge_ConflictReturnsExisting(t *testing.T) {
	f := newPaymentFixture(t)
	merchant := activeMerchant()
	req := cardChargeRequest()

	existing := &domain.Transaction{
		ID:          uuid.New(),
		ReferenceID: req.ReferenceID,
		MerchantID:  merchant.ID,
		Status:      domain.TransactionStatusCompleted,
	}

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.txRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domain.ErrConflict)
	f.txRepo.EXPECT().GetByReference(gomock.Any(), merchant.ID, req.ReferenceID).Return(existing, nil)
	// The gateway is never reached on a replayed reference.

	txn, err := f.svc.ProcessCharge(context.Background(), merchant, req)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, txn.ID)
}

func TestProcessCharge_GatewayRejected(t *testing.T) {
	f := newPaymentFixture(t)
	merchant := activeMerchant()

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.txRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	// A rejection is a final verdict; exactly one attempt.
	f.gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).
		Return(nil, ports.ErrGatewayRejected).Times(1)

	f.txRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), domain.TransactionStatusFailed, "").Return(nil)
	f.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	// IncrementStats must never be called for a failed charge.

	_, err := f.svc.ProcessCharge(context.Background(), merchant, cardChargeRequest())
	require.Error(t, err)
	assert.Equal(t, "GW_001", appErrCode(t, err))
}

func TestProcessCharge_NetworkErrorRetriesThenFails(t *testing.T) {
	f := newPaymentFixture(t)
	merchant := activeMerchant()

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.txRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	// Initial attempt plus RetryAttempts extras, all transient failures.
	f.gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).
		Return(nil, ports.ErrGatewayNetwork).Times(testPolicy.RetryAttempts + 1)

	f.txRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), domain.TransactionStatusFailed, "").Return(nil)
	f.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.svc.ProcessCharge(context.Background(), merchant, cardChargeRequest())
	require.Error(t, err)
	assert.Equal(t, "GW_002", appErrCode(t, err))
}

func TestProcessCharge_NetworkErrorThenSuccess(t *testing.T) {
	f := newPaymentFixture(t)
	merchant := activeMerchant()

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.txRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	gomock.InOrder(
		f.gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).Return(nil, ports.ErrGatewayNetwork),
		f.gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).
			Return(&ports.ChargeResult{ExternalID: "pi_retry", Status: domain.TransactionStatusCompleted}, nil),
	)

	f.txRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), domain.TransactionStatusCompleted, "pi_retry").Return(nil)
	f.accountRepo.EXPECT().IncrementStats(gomock.Any(), merchant.ID, gomock.Any()).Return(nil)
	f.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	txn, err := f.svc.ProcessCharge(context.Background(), merchant, cardChargeRequest())
	require.NoError(t, err)
	assert.Equal(t, "pi_retry", txn.GatewayTransactionID)
}

func TestProcessCharge_PendingOutcomeSkipsStatsAndCache(t *testing.T) {
	f := newPaymentFixture(t)
	merchant := activeMerchant()

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.txRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	f.gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).
		Return(&ports.ChargeResult{ExternalID: "order_async", Status: domain.TransactionStatusPending}, nil)
	f.txRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), domain.TransactionStatusPending, "order_async").Return(nil)
	// No IncrementStats, no cache Set: the transaction is not terminal.

	txn, err := f.svc.ProcessCharge(context.Background(), merchant, cardChargeRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)
}

func TestProcessCharge_CacheFailureFallsThrough(t *testing.T) {
	f := newPaymentFixture(t)
	merchant := activeMerchant()

	// A broken cache degrades to the ledger path, it does not block charges.
	f.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))
	f.txRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	f.gateway.EXPECT().Charge(gomock.Any(), gomock.Any()).
		Return(&ports.ChargeResult{ExternalID: "pi_ok", Status: domain.TransactionStatusCompleted}, nil)
	f.txRepo.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), domain.TransactionStatusCompleted, "pi_ok").Return(nil)
	f.accountRepo.EXPECT().IncrementStats(gomock.Any(), merchant.ID, gomock.Any()).Return(nil)
	f.cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	txn, err := f.svc.ProcessCharge(context.Background(), merchant, cardChargeRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
}
