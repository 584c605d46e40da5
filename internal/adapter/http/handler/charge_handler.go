package handler

import (
	"payment-processing-core/internal/adapter/http/dto"
	"payment-processing-core/internal/adapter/http/middleware"
	"payment-processing-core/internal/core/domain"
	"payment-processing-core/internal/core/ports"
	"payment-processing-core/pkg/apperror"
	"payment-processing-core/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChargeHandler handles charge endpoints.
type ChargeHandler struct {
	paymentSvc   ports.PaymentService
	reportingSvc ports.ReportingService
}

// NewChargeHandler creates a new ChargeHandler.
func NewChargeHandler(paymentSvc ports.PaymentService, reportingSvc ports.ReportingService) *ChargeHandler {
	return &ChargeHandler{paymentSvc: paymentSvc, reportingSvc: reportingSvc}
}

// CreateCharge handles POST /api/v1/charges.
func (h *ChargeHandler) CreateCharge(c *gin.Context) {
	merchant := middleware.AccountFrom(c)
	if merchant == nil {
		response.Error(c, apperror.ErrAuthenticationFailed())
		return
	}

	var req dto.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, dto.BindingError(err))
		return
	}
	dto.SanitizeStruct(&req)
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	txn, err := h.paymentSvc.ProcessCharge(c.Request.Context(), merchant, ports.ChargeRequest{
		ReferenceID:        req.ReferenceID,
		AmountMinor:        req.AmountMinor,
		Currency:           req.NormalizedCurrency(),
		Gateway:            domain.GatewayKind(req.Gateway),
		PaymentMethodToken: req.PaymentMethodToken,
		Customer: domain.Customer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromTransaction(txn))
}

// GetCharge handles GET /api/v1/charges/:id.
func (h *ChargeHandler) GetCharge(c *gin.Context) {
	caller := middleware.AccountFrom(c)
	if caller == nil {
		response.Error(c, apperror.ErrAuthenticationFailed())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrValidationFailed("id", "must be a valid UUID"))
		return
	}

	txn, err := h.reportingSvc.GetTransaction(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromTransaction(txn))
}

// ListCharges handles GET /api/v1/charges.
func (h *ChargeHandler) ListCharges(c *gin.Context) {
	caller := middleware.AccountFrom(c)
	if caller == nil {
		response.Error(c, apperror.ErrAuthenticationFailed())
		return
	}

	params, appErr := listParamsFromQuery(c, caller)
	if appErr != nil {
		response.Error(c, appErr)
		return
	}

	txns, total, err := h.reportingSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, dto.FromTransaction(&txns[i]))
	}

	totalPages := int((total + int64(params.PageSize) - 1) / int64(params.PageSize))
	response.OK(c, dto.TransactionListResponse{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	})
}

// listParamsFromQuery builds list parameters scoped to the caller:
// merchants only ever see their own transactions.
func listParamsFromQuery(c *gin.Context, caller *domain.Account) (ports.TransactionListParams, *apperror.AppError) {
	params := ports.TransactionListParams{
		MerchantID: caller.ID,
		Page:       1,
		PageSize:   20,
	}

	if caller.Role == domain.RoleOwner {
		params.MerchantID = uuid.Nil // all merchants
		if m := c.Query("merchant_id"); m != "" {
			id, err := uuid.Parse(m)
			if err != nil {
				return params, apperror.ErrValidationFailed("merchant_id", "must be a valid UUID")
			}
			params.MerchantID = id
		}
	}

	if s := c.Query("status"); s != "" {
		status := domain.TransactionStatus(s)
		switch status {
		case domain.TransactionStatusPending, domain.TransactionStatusCompleted, domain.TransactionStatusFailed:
			params.Status = &status
		default:
			return params, apperror.ErrValidationFailed("status", "unknown status")
		}
	}

	if g := c.Query("gateway"); g != "" {
		gw := domain.GatewayKind(g)
		if !domain.KnownGateway(gw) {
			return params, apperror.ErrValidationFailed("gateway", "unknown gateway")
		}
		params.Gateway = &gw
	}

	if p := c.Query("page"); p != "" {
		if n, err := parsePositiveInt(p); err == nil {
			params.Page = n
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if n, err := parsePositiveInt(ps); err == nil && n <= 100 {
			params.PageSize = n
		}
	}

	return params, nil
}
