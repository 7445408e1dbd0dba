// Package payment implements the payment gateway port against the PayPal
// Checkout Orders v2 REST API.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"vtm/internal/application/payment/paymentgateway"
	"vtm/internal/shared/config"
	apperrors "vtm/internal/shared/errors"
	"vtm/internal/shared/logger"
)

const defaultTimeout = 20 * time.Second

type PayPalGateway struct {
	baseURL string
	client  *http.Client
	logger  logger.Interface
}

// NewPayPalGateway builds a gateway client. OAuth2 client-credentials token
// acquisition and refresh is handled by the transport.
func NewPayPalGateway(cfg *config.PayPalConfig, logger logger.Interface) *PayPalGateway {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     strings.TrimSuffix(cfg.BaseURL, "/") + "/v1/oauth2/token",
	}

	client := creds.Client(context.Background())
	client.Timeout = timeout

	return &PayPalGateway{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

var _ paymentgateway.PaymentGateway = (*PayPalGateway)(nil)

type orderAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	Amount      orderAmount `json:"amount"`
	Description string      `json:"description,omitempty"`
}

type createOrderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

// CreateOrder creates a capture-intent order for the given amount.
func (g *PayPalGateway) CreateOrder(ctx context.Context, amount, currency, description string) (*paymentgateway.Order, error) {
	req := createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			Amount:      orderAmount{CurrencyCode: currency, Value: amount},
			Description: description,
		}},
	}

	var resp orderResponse
	if err := g.post(ctx, "/v2/checkout/orders", req, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, apperrors.NewExternalServiceError("payment processor returned no order id")
	}

	order := &paymentgateway.Order{OrderID: resp.ID}
	for _, link := range resp.Links {
		if link.Rel == "approve" {
			order.ApproveURL = link.Href
		}
	}

	g.logger.Infow("payment order created", "order_id", resp.ID, "amount", amount, "currency", currency)
	return order, nil
}

// CaptureOrder asks the processor to capture a previously approved order and
// returns its completion status.
func (g *PayPalGateway) CaptureOrder(ctx context.Context, orderID string) (*paymentgateway.CaptureResult, error) {
	if orderID == "" {
		return nil, apperrors.NewValidationError("order id is required")
	}

	var resp orderResponse
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", orderID)
	if err := g.post(ctx, path, struct{}{}, &resp); err != nil {
		return nil, err
	}

	g.logger.Infow("payment capture result", "order_id", orderID, "status", resp.Status)
	return &paymentgateway.CaptureResult{Status: resp.Status}, nil
}

func (g *PayPalGateway) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return apperrors.NewExternalServiceError("payment processor unreachable", err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewExternalServiceError("failed to read processor response", err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Warnw("payment processor error response",
			"path", path, "status", resp.StatusCode, "body", string(data))
		return apperrors.NewExternalServiceError(
			fmt.Sprintf("payment processor returned status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.NewExternalServiceError("malformed processor response", err.Error())
	}
	return nil
}
