// Package gateway wraps the Razorpay-style payment gateway API used for
// order intents and payment signature verification.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/agrimandi/agrimandi-backend/pkg/config"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
)

var (
	errKeyIDRequired  = errors.New("gateway key id is required")
	errSecretRequired = errors.New("gateway key secret is required")
)

// OrderRequest is the payload for creating a gateway order intent.
type OrderRequest struct {
	AmountPaise int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
}

// Order is the gateway's order intent referenced later during verification.
type Order struct {
	ID          string `json:"id"`
	AmountPaise int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
}

// Client exposes the gateway operations with centralized auth and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
	logger     *logger.Logger
}

// NewClient initializes the gateway wrapper and validates the credentials.
func NewClient(cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errSecretRequired
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		keyID:      keyID,
		keySecret:  keySecret,
		logger:     logg,
	}, nil
}

// KeyID returns the public key identifier clients embed in checkout forms.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// CreateOrder registers an order intent with the gateway.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	httpReq.SetBasicAuth(c.keyID, c.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway create order: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway create order: status %d: %s", resp.StatusCode, string(payload))
	}

	var order Order
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, fmt.Errorf("decode gateway order: %w", err)
	}
	return &order, nil
}
