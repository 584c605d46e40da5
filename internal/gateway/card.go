package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"payment-processing-core/config"
	"payment-processing-core/internal/core/domain"
	"payment-processing-core/internal/core/ports"

	"github.com/rs/zerolog"
)

// CardGateway adapts the card provider's payment-intent API. Charges are
// confirm-on-create: a single call both creates and attempts the payment.
type CardGateway struct {
	baseURL   string
	secretKey string
	client    HTTPClient
	log       zerolog.Logger
}

// NewCardGateway builds the adapter from validated configuration.
// Missing credentials fail construction, not individual requests.
func NewCardGateway(cfg config.CardGatewayConfig, client HTTPClient, log zerolog.Logger) (*CardGateway, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("card gateway: %w", ErrMissingCredentials)
	}
	if client == nil {
		client = defaultClient()
	}
	return &CardGateway{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		client:    client,
		log:       log,
	}, nil
}

// Kind implements ports.Gateway.
func (g *CardGateway) Kind() domain.GatewayKind {
	return domain.GatewayCard
}

type cardIntentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Charge creates and confirms a payment intent. The amount travels as an
// integer in minor units.
func (g *CardGateway) Charge(ctx context.Context, params ports.ChargeParams) (*ports.ChargeResult, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.AmountMinor, 10))
	form.Set("currency", strings.ToLower(params.Currency))
	form.Set("payment_method", params.PaymentMethodToken)
	form.Set("description", params.Description)
	form.Set("confirm", "true")
	form.Set("metadata[transaction_id]", params.TransactionID)
	form.Set("metadata[customer_name]", params.Customer.Name)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("card gateway: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", params.TransactionID)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: card gateway: %v", ports.ErrGatewayNetwork, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: card gateway: read response: %v", ports.ErrGatewayNetwork, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: card gateway: provider returned %d", ports.ErrGatewayNetwork, resp.StatusCode)
	}

	var intent cardIntentResponse
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("%w: card gateway: decode response: %v", ports.ErrGatewayNetwork, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		code := "unknown"
		if intent.Error != nil {
			code = intent.Error.Code
		}
		g.log.Warn().Int("http_status", resp.StatusCode).Str("code", code).Msg("card charge rejected")
		return nil, fmt.Errorf("%w: card gateway: %s", ports.ErrGatewayRejected, code)
	}

	status, ok := mapCardStatus(intent.Status)
	if !ok {
		return nil, fmt.Errorf("%w: card gateway: charge ended in state %q", ports.ErrGatewayRejected, intent.Status)
	}

	return &ports.ChargeResult{ExternalID: intent.ID, Status: status}, nil
}

// mapCardStatus translates provider intent states to the internal
// vocabulary. Unknown or dead-end states are not mapped and surface as
// rejections.
func mapCardStatus(external string) (domain.TransactionStatus, bool) {
	switch external {
	case "succeeded":
		return domain.TransactionStatusCompleted, true
	case "processing", "requires_action", "requires_confirmation", "requires_capture":
		return domain.TransactionStatusPending, true
	default:
		return "", false
	}
}
