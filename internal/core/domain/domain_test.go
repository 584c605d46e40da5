package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommission_RoundHalfUp(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		rateBps  int32
		expected int64
	}{
		{"exact", 10000, 70, 70},
		{"rounds down below half", 333, 70, 2},       // 2.331
		{"rounds up at half", 500, 70, 4},            // 3.5
		{"rounds up above half", 995, 70, 7},         // 6.965
		{"zero amount", 0, 70, 0},
		{"zero rate", 10000, 0, 0},
		{"large amount", 500000, 70, 3500},
		{"full percent", 10000, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Commission(tt.amount, tt.rateBps))
		})
	}
}

func TestCommission_Conservation(t *testing.T) {
	amounts := []int64{1, 333, 500, 9999, 10000, 500000, 123456789}
	rates := []int32{0, 1, 70, 250, 9999}

	for _, amount := range amounts {
		for _, rate := range rates {
			commission := Commission(amount, rate)
			net := Net(amount, commission)
			assert.Equal(t, amount, net+commission,
				"conservation violated for amount=%d rate=%d", amount, rate)
			assert.GreaterOrEqual(t, net, int64(0))
		}
	}
}

func TestValidCurrency(t *testing.T) {
	assert.True(t, ValidCurrency("USD"))
	assert.True(t, ValidCurrency("inr"))
	assert.False(t, ValidCurrency(""))
	assert.False(t, ValidCurrency("US"))
	assert.False(t, ValidCurrency("USDT"))
	assert.False(t, ValidCurrency("U5D"))
	assert.False(t, ValidCurrency("US-"))
}

func TestKnownGateway(t *testing.T) {
	assert.True(t, KnownGateway(GatewayCard))
	assert.True(t, KnownGateway(GatewayBankTransfer))
	assert.False(t, KnownGateway(GatewayKind("PAYPAL")))
	assert.False(t, KnownGateway(GatewayKind("")))
}

func TestAccount_CanCharge(t *testing.T) {
	tests := []struct {
		name    string
		role    AccountRole
		status  AccountStatus
		allowed bool
	}{
		{"active merchant", RoleMerchant, AccountStatusActive, true},
		{"pending merchant", RoleMerchant, AccountStatusPending, false},
		{"suspended merchant", RoleMerchant, AccountStatusSuspended, false},
		{"active owner", RoleOwner, AccountStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Account{Role: tt.role, Status: tt.status}
			assert.Equal(t, tt.allowed, a.CanCharge())
		})
	}
}

func TestTransaction_IsTerminal(t *testing.T) {
	tx := &Transaction{Status: TransactionStatusPending}
	assert.False(t, tx.IsTerminal())

	tx.Status = TransactionStatusCompleted
	assert.True(t, tx.IsTerminal())

	tx.Status = TransactionStatusFailed
	assert.True(t, tx.IsTerminal())
}

func TestTransaction_StatsDelta(t *testing.T) {
	tx := &Transaction{
		AmountMinor:     500000,
		CommissionMinor: 3500,
		NetMinor:        496500,
		Status:          TransactionStatusCompleted,
	}

	delta := tx.StatsDelta()
	assert.Equal(t, int64(1), delta.Transactions)
	assert.Equal(t, int64(500000), delta.VolumeMinor)
	assert.Equal(t, int64(3500), delta.CommissionMinor)

	tx.Status = TransactionStatusFailed
	assert.Equal(t, StatsDelta{}, tx.StatsDelta())

	tx.Status = TransactionStatusPending
	assert.Equal(t, StatsDelta{}, tx.StatsDelta())
}
