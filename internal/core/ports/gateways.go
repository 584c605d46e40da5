package ports

import (
	"context"
	"errors"

	"payment-processing-core/internal/core/domain"
)

// Gateway failure classes. Adapters wrap provider errors into exactly one
// of these so the orchestrator stays provider-agnostic.
var (
	// ErrGatewayNetwork marks transient transport failures (timeouts,
	// connection resets, 5xx). Retryable per the orchestrator's policy.
	ErrGatewayNetwork = errors.New("gateway network error")
	// ErrGatewayRejected marks terminal payment rejections (declined card,
	// invalid order). Never retried; persisted as a failed transaction.
	ErrGatewayRejected = errors.New("gateway rejected payment")
)

// ChargeParams is the provider-neutral input for an external charge.
// Amounts are always integer minor units; no monetary value is ever sent
// to a provider as a floating-point number.
type ChargeParams struct {
	TransactionID      string // Internal id, passed through as provider metadata
	AmountMinor        int64
	Currency           string
	PaymentMethodToken string // Card gateway only
	Customer           domain.Customer
	Description        string
}

// ChargeResult is the normalized outcome of an external charge.
type ChargeResult struct {
	ExternalID string
	Status     domain.TransactionStatus
}

// Gateway is the polymorphic charge capability implemented by each
// payment-provider adapter. Adapters are interchangeable: the orchestrator
// selects one solely by the request's gateway field.
type Gateway interface {
	Kind() domain.GatewayKind
	Charge(ctx context.Context, params ChargeParams) (*ChargeResult, error)
}
