package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"payment-processing-core/config"
	"payment-processing-core/internal/core/domain"
	"payment-processing-core/internal/core/ports"

	"github.com/rs/zerolog"
)

// BankTransferGateway adapts the bank-transfer provider's order API.
// A charge creates a capture-enabled order; the provider settles it
// asynchronously, so a fresh order is a pending transaction, not a
// completed one.
type BankTransferGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    HTTPClient
	log       zerolog.Logger
}

// NewBankTransferGateway builds the adapter from validated configuration.
func NewBankTransferGateway(cfg config.BankTransferGatewayConfig, client HTTPClient, log zerolog.Logger) (*BankTransferGateway, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, fmt.Errorf("bank transfer gateway: %w", ErrMissingCredentials)
	}
	if client == nil {
		client = defaultClient()
	}
	return &BankTransferGateway{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		client:    client,
		log:       log,
	}, nil
}

// Kind implements ports.Gateway.
func (g *BankTransferGateway) Kind() domain.GatewayKind {
	return domain.GatewayBankTransfer
}

type bankOrderRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Receipt        string            `json:"receipt"`
	PaymentCapture bool              `json:"payment_capture"`
	Notes          map[string]string `json:"notes"`
}

type bankOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Charge creates a capture-enabled order with the internal transaction id
// as the receipt, so a provider-side lookup can always be tied back to
// exactly one ledger row.
func (g *BankTransferGateway) Charge(ctx context.Context, params ports.ChargeParams) (*ports.ChargeResult, error) {
	order := bankOrderRequest{
		Amount:         params.AmountMinor,
		Currency:       strings.ToUpper(params.Currency),
		Receipt:        params.TransactionID,
		PaymentCapture: true,
		Notes: map[string]string{
			"transaction_id": params.TransactionID,
			"customer_name":  params.Customer.Name,
			"description":    params.Description,
		},
	}
	if params.Customer.Email != nil {
		order.Notes["customer_email"] = *params.Customer.Email
	}
	if params.Customer.Phone != nil {
		order.Notes["customer_contact"] = *params.Customer.Phone
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("bank transfer gateway: marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("bank transfer gateway: build request: %w", err)
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: bank transfer gateway: %v", ports.ErrGatewayNetwork, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: bank transfer gateway: read response: %v", ports.ErrGatewayNetwork, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: bank transfer gateway: provider returned %d", ports.ErrGatewayNetwork, resp.StatusCode)
	}

	var result bankOrderResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: bank transfer gateway: decode response: %v", ports.ErrGatewayNetwork, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		code := "unknown"
		if result.Error != nil {
			code = result.Error.Code
		}
		g.log.Warn().Int("http_status", resp.StatusCode).Str("code", code).Msg("bank transfer order rejected")
		return nil, fmt.Errorf("%w: bank transfer gateway: %s", ports.ErrGatewayRejected, code)
	}

	status, ok := mapBankOrderStatus(result.Status)
	if !ok {
		return nil, fmt.Errorf("%w: bank transfer gateway: order ended in state %q", ports.ErrGatewayRejected, result.Status)
	}

	return &ports.ChargeResult{ExternalID: result.ID, Status: status}, nil
}

// mapBankOrderStatus translates provider order states to the internal
// vocabulary.
func mapBankOrderStatus(external string) (domain.TransactionStatus, bool) {
	switch external {
	case "paid":
		return domain.TransactionStatusCompleted, true
	case "created", "attempted":
		return domain.TransactionStatusPending, true
	default:
		return "", false
	}
}
