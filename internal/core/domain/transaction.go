package domain

import (
	"time"

	"github.com/google/uuid"
)

// GatewayKind identifies which external payment provider handles a charge.
type GatewayKind string

const (
	GatewayCard         GatewayKind = "CARD"
	GatewayBankTransfer GatewayKind = "BANK_TRANSFER"
)

// KnownGateway reports whether k is one of the supported gateways.
func KnownGateway(k GatewayKind) bool {
	return k == GatewayCard || k == GatewayBankTransfer
}

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Customer is the snapshot of customer details captured at charge time.
// It is copied into the transaction record and never mutated afterward.
type Customer struct {
	Name  string  `json:"name"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// Transaction is the durable financial record of one charge.
// Amount conservation holds at all times: NetMinor + CommissionMinor == AmountMinor.
type Transaction struct {
	ID                   uuid.UUID         `json:"id"`
	ReferenceID          string            `json:"reference_id"` // Caller-supplied idempotency token
	MerchantID           uuid.UUID         `json:"merchant_id"`
	AmountMinor          int64             `json:"amount_minor"`
	CommissionMinor      int64             `json:"commission_minor"`
	NetMinor             int64             `json:"net_minor"`
	Currency             string            `json:"currency"`
	Gateway              GatewayKind       `json:"gateway"`
	GatewayTransactionID string            `json:"gateway_transaction_id"` // Empty until the gateway responds
	Status               TransactionStatus `json:"status"`
	Customer             Customer          `json:"customer"`
	Description          *string           `json:"description,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// IsTerminal returns true once the transaction has reached a final state.
// Terminal transactions are read-only; a refund would be a new compensating
// record, never a mutation.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}

// StatsDelta returns the counter increment this transaction contributes to
// its merchant's stats. Only completed transactions count.
func (t *Transaction) StatsDelta() StatsDelta {
	if t.Status != TransactionStatusCompleted {
		return StatsDelta{}
	}
	return StatsDelta{
		Transactions:    1,
		VolumeMinor:     t.AmountMinor,
		CommissionMinor: t.CommissionMinor,
	}
}
