package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountRole distinguishes the platform owner from merchants.
type AccountRole string

const (
	RoleOwner    AccountRole = "OWNER"
	RoleMerchant AccountRole = "MERCHANT"
)

// AccountStatus represents the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusPending   AccountStatus = "PENDING"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// AccountStats holds running counters updated alongside completed charges.
type AccountStats struct {
	TotalTransactions    int64 `json:"total_transactions"`
	TotalVolumeMinor     int64 `json:"total_volume_minor"`
	TotalCommissionMinor int64 `json:"total_commission_minor"`
}

// StatsDelta is the increment applied to AccountStats for one completed charge.
type StatsDelta struct {
	Transactions    int64
	VolumeMinor     int64
	CommissionMinor int64
}

// Account represents a platform participant (owner or merchant).
type Account struct {
	ID                 uuid.UUID     `json:"id"`
	Role               AccountRole   `json:"role"`
	Email              string        `json:"email"`
	DisplayName        string        `json:"display_name"`
	PasswordHash       string        `json:"-"` // Never expose
	Status             AccountStatus `json:"status"`
	CommissionRateBps  int32         `json:"commission_rate_bps"`
	SettlementCurrency string        `json:"settlement_currency"`
	Stats              AccountStats  `json:"stats"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// IsActive returns true if the account is in the ACTIVE state.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// CanCharge returns true if the account may initiate charges:
// only active merchants qualify.
func (a *Account) CanCharge() bool {
	return a.Role == RoleMerchant && a.Status == AccountStatusActive
}
