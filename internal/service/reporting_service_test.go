package service

import (
	"context"
	"testing"

	"payment-processing-core/internal/core/domain"
	"payment-processing-core/internal/core/ports"
	"payment-processing-core/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newReportingFixture(t *testing.T) (*mocks.MockTransactionRepository, *mocks.MockAccountRepository, ports.ReportingService) {
	ctrl := gomock.NewController(t)
	txRepo := mocks.NewMockTransactionRepository(ctrl)
	accountRepo := mocks.NewMockAccountRepository(ctrl)
	return txRepo, accountRepo, NewReportingService(txRepo, accountRepo)
}

func TestGetTransaction_MerchantSeesOwn(t *testing.T) {
	txRepo, _, svc := newReportingFixture(t)
	merchant := activeMerchant()
	txn := &domain.Transaction{ID: uuid.New(), MerchantID: merchant.ID}

	txRepo.EXPECT().GetByID(gomock.Any(), txn.ID).Return(txn, nil)

	got, err := svc.GetTransaction(context.Background(), merchant, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)
}

func TestGetTransaction_MerchantCannotSeeOthers(t *testing.T) {
	txRepo, _, svc := newReportingFixture(t)
	merchant := activeMerchant()
	txn := &domain.Transaction{ID: uuid.New(), MerchantID: uuid.New()} // someone else's

	txRepo.EXPECT().GetByID(gomock.Any(), txn.ID).Return(txn, nil)

	// Existence of another merchant's record is not disclosed.
	_, err := svc.GetTransaction(context.Background(), merchant, txn.ID)
	require.Error(t, err)
	assert.Equal(t, "PAY_004", appErrCode(t, err))
}

func TestGetTransaction_OwnerSeesAll(t *testing.T) {
	txRepo, _, svc := newReportingFixture(t)
	owner := activeMerchant()
	owner.Role = domain.RoleOwner
	txn := &domain.Transaction{ID: uuid.New(), MerchantID: uuid.New()}

	txRepo.EXPECT().GetByID(gomock.Any(), txn.ID).Return(txn, nil)

	got, err := svc.GetTransaction(context.Background(), owner, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)
}

func TestGetTransaction_NotFound(t *testing.T) {
	txRepo, _, svc := newReportingFixture(t)
	id := uuid.New()

	txRepo.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

	_, err := svc.GetTransaction(context.Background(), activeMerchant(), id)
	require.Error(t, err)
	assert.Equal(t, "PAY_004", appErrCode(t, err))
}

func TestGetMerchantStats(t *testing.T) {
	_, accountRepo, svc := newReportingFixture(t)
	merchant := activeMerchant()
	merchant.Stats = domain.AccountStats{
		TotalTransactions:    12,
		TotalVolumeMinor:     6000000,
		TotalCommissionMinor: 42000,
	}

	accountRepo.EXPECT().GetByID(gomock.Any(), merchant.ID).Return(merchant, nil)

	stats, err := svc.GetMerchantStats(context.Background(), merchant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.TotalTransactions)
	assert.Equal(t, int64(6000000), stats.TotalVolumeMinor)
	assert.Equal(t, int64(42000), stats.TotalCommissionMinor)
}

func TestGetMerchantStats_UnknownAccount(t *testing.T) {
	_, accountRepo, svc := newReportingFixture(t)
	id := uuid.New()

	accountRepo.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

	_, err := svc.GetMerchantStats(context.Background(), id)
	require.Error(t, err)
	assert.Equal(t, "PAY_004", appErrCode(t, err))
}

func TestListTransactions(t *testing.T) {
	txRepo, _, svc := newReportingFixture(t)
	merchantID := uuid.New()
	params := ports.TransactionListParams{MerchantID: merchantID, Page: 1, PageSize: 10}

	txRepo.EXPECT().List(gomock.Any(), params).
		Return([]domain.Transaction{{ID: uuid.New()}, {ID: uuid.New()}}, int64(2), nil)

	txns, total, err := svc.ListTransactions(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, txns, 2)
	assert.Equal(t, int64(2), total)
}
