package dto

import (
	"payment-processing-core/internal/core/domain"
)

// LoginRequest is the request body for account login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// RegisterMerchantRequest is the request body for merchant registration.
type RegisterMerchantRequest struct {
	Email              string `json:"email" binding:"required,email"`
	Password           string `json:"password" binding:"required,min=8,max=128"`
	DisplayName        string `json:"display_name" binding:"required,min=1,max=100"`
	CommissionRateBps  int32  `json:"commission_rate_bps" binding:"omitempty,gte=0,lte=10000"`
	SettlementCurrency string `json:"settlement_currency" binding:"required,len=3,alpha"`
}

// AccountResponse is the response body for account state.
type AccountResponse struct {
	ID                 string `json:"id"`
	Role               string `json:"role"`
	Email              string `json:"email"`
	DisplayName        string `json:"display_name"`
	Status             string `json:"status"`
	CommissionRateBps  int32  `json:"commission_rate_bps"`
	SettlementCurrency string `json:"settlement_currency"`
	CreatedAt          string `json:"created_at"`
}

// SetStatusRequest is the request body for account status transitions.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE SUSPENDED"`
}

// CustomerInfo carries customer fields on a charge request.
type CustomerInfo struct {
	Name  string  `json:"name" binding:"required,min=1,max=200"`
	Email *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone *string `json:"phone,omitempty" binding:"omitempty,max=32"`
}

// ChargeRequest is the request body for charge processing.
type ChargeRequest struct {
	ReferenceID        string       `json:"reference_id" binding:"required,max=100,safe_id"`
	AmountMinor        int64        `json:"amount_minor" binding:"required,gt=0"`
	Currency           string       `json:"currency" binding:"required,len=3,alpha"`
	Gateway            string       `json:"gateway" binding:"required"`
	PaymentMethodToken string       `json:"payment_method_token,omitempty"`
	Customer           CustomerInfo `json:"customer" binding:"required"`
	Description        *string      `json:"description,omitempty" binding:"omitempty,max=500"`
}

// TransactionResponse is the response body for charge results.
type TransactionResponse struct {
	ID                   string  `json:"id"`
	ReferenceID          string  `json:"reference_id"`
	AmountMinor          int64   `json:"amount_minor"`
	CommissionMinor      int64   `json:"commission_minor"`
	NetMinor             int64   `json:"net_minor"`
	Currency             string  `json:"currency"`
	Gateway              string  `json:"gateway"`
	GatewayTransactionID string  `json:"gateway_transaction_id,omitempty"`
	Status               string  `json:"status"`
	CustomerName         string  `json:"customer_name"`
	Description          *string `json:"description,omitempty"`
	CreatedAt            string  `json:"created_at"`
	UpdatedAt            string  `json:"updated_at"`
}

// StatsResponse is the response body for merchant counters.
type StatsResponse struct {
	TotalTransactions    int64 `json:"total_transactions"`
	TotalVolumeMinor     int64 `json:"total_volume_minor"`
	TotalCommissionMinor int64 `json:"total_commission_minor"`
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// FromTransaction converts a domain transaction to its wire shape.
func FromTransaction(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                   tx.ID.String(),
		ReferenceID:          tx.ReferenceID,
		AmountMinor:          tx.AmountMinor,
		CommissionMinor:      tx.CommissionMinor,
		NetMinor:             tx.NetMinor,
		Currency:             tx.Currency,
		Gateway:              string(tx.Gateway),
		GatewayTransactionID: tx.GatewayTransactionID,
		Status:               string(tx.Status),
		CustomerName:         tx.Customer.Name,
		Description:          tx.Description,
		CreatedAt:            tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:            tx.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// FromAccount converts a domain account to its wire shape. The password
// hash never crosses this boundary.
func FromAccount(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:                 a.ID.String(),
		Role:               string(a.Role),
		Email:              a.Email,
		DisplayName:        a.DisplayName,
		Status:             string(a.Status),
		CommissionRateBps:  a.CommissionRateBps,
		SettlementCurrency: a.SettlementCurrency,
		CreatedAt:          a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
