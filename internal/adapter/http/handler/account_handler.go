package handler

import (
	"strconv"

	"payment-processing-core/internal/adapter/http/dto"
	"payment-processing-core/internal/adapter/http/middleware"
	"payment-processing-core/internal/core/domain"
	"payment-processing-core/internal/core/ports"
	"payment-processing-core/pkg/apperror"
	"payment-processing-core/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountHandler handles account administration and self-service endpoints.
type AccountHandler struct {
	accountSvc   ports.AccountService
	reportingSvc ports.ReportingService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService, reportingSvc ports.ReportingService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc, reportingSvc: reportingSvc}
}

// RegisterMerchant handles POST /api/v1/accounts (owner only).
func (h *AccountHandler) RegisterMerchant(c *gin.Context) {
	var req dto.RegisterMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, dto.BindingError(err))
		return
	}
	dto.SanitizeStruct(&req)

	account, err := h.accountSvc.RegisterMerchant(c.Request.Context(), ports.RegisterMerchantRequest{
		Email:              req.Email,
		Password:           req.Password,
		DisplayName:        req.DisplayName,
		CommissionRateBps:  req.CommissionRateBps,
		SettlementCurrency: req.SettlementCurrency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromAccount(account))
}

// SetStatus handles PATCH /api/v1/accounts/:id/status (owner only).
func (h *AccountHandler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrValidationFailed("id", "must be a valid UUID"))
		return
	}

	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, dto.BindingError(err))
		return
	}

	account, svcErr := h.accountSvc.SetStatus(c.Request.Context(), id, domain.AccountStatus(req.Status))
	if svcErr != nil {
		response.Error(c, svcErr)
		return
	}

	response.OK(c, dto.FromAccount(account))
}

// ListMerchants handles GET /api/v1/accounts (owner only).
func (h *AccountHandler) ListMerchants(c *gin.Context) {
	merchants, err := h.accountSvc.ListMerchants(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AccountResponse, 0, len(merchants))
	for i := range merchants {
		items = append(items, dto.FromAccount(&merchants[i]))
	}

	response.OK(c, items)
}

// GetMyStats handles GET /api/v1/accounts/me/stats.
func (h *AccountHandler) GetMyStats(c *gin.Context) {
	caller := middleware.AccountFrom(c)
	if caller == nil {
		response.Error(c, apperror.ErrAuthenticationFailed())
		return
	}

	stats, err := h.reportingSvc.GetMerchantStats(c.Request.Context(), caller.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.StatsResponse{
		TotalTransactions:    stats.TotalTransactions,
		TotalVolumeMinor:     stats.TotalVolumeMinor,
		TotalCommissionMinor: stats.TotalCommissionMinor,
	})
}

// GetMyAccount handles GET /api/v1/accounts/me.
func (h *AccountHandler) GetMyAccount(c *gin.Context) {
	caller := middleware.AccountFrom(c)
	if caller == nil {
		response.Error(c, apperror.ErrAuthenticationFailed())
		return
	}
	response.OK(c, dto.FromAccount(caller))
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
