// internal/infrastructure/crm/client.go
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vision-studio/storefront-backend/internal/config"
)

// Client talks to the external CRM over its JSON API. All calls are
// bearer-authenticated and every response carries a {"success": bool}
// envelope; success=false is an error even on HTTP 200.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient creates a new CRM API client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		baseURL:  cfg.External.CRM.BaseURL,
		apiToken: cfg.External.CRM.APIToken,
		httpClient: &http.Client{
			Timeout: cfg.External.CRM.Timeout,
		},
		log: log,
	}
}

// Enabled reports whether a CRM endpoint is configured. When disabled the
// storefront falls back to local behavior (no lead capture, local orders).
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// LeadRequest represents an abandoned-cart lead submission
type LeadRequest struct {
	Email     string         `json:"email"`
	SessionID string         `json:"session_id"`
	Source    string         `json:"source"`
	CartValue int64          `json:"cart_value"` // In cents
	ItemCount int            `json:"item_count"`
	Items     []LeadItem     `json:"items,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// LeadItem represents one cart line in a lead submission
type LeadItem struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// OrderRequest represents an order submission to the CRM
type OrderRequest struct {
	Email          string      `json:"email"`
	CustomerName   string      `json:"customer_name"`
	Phone          string      `json:"phone"`
	Street         string      `json:"street"`
	District       string      `json:"district"`
	Notes          string      `json:"notes,omitempty"`
	DeliveryDate   string      `json:"delivery_date"` // YYYY-MM-DD
	PaymentMethod  string      `json:"payment_method"`
	PaymentDetails string      `json:"payment_details,omitempty"`
	Items          []OrderItem `json:"items"`
	TotalAmount    int64       `json:"total_amount"` // In cents
}

// OrderItem represents one order line in a CRM submission
type OrderItem struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// OrderResponse represents the CRM's view of a created order
type OrderResponse struct {
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
}

// StatsResponse represents CRM-side sales statistics
type StatsResponse struct {
	TotalLeads     int64 `json:"total_leads"`
	ConvertedLeads int64 `json:"converted_leads"`
	TotalOrders    int64 `json:"total_orders"`
	TotalRevenue   int64 `json:"total_revenue"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// CaptureLead submits an abandoned-cart lead to the CRM
func (c *Client) CaptureLead(ctx context.Context, lead *LeadRequest) error {
	if !c.Enabled() {
		return fmt.Errorf("crm is not configured")
	}
	_, err := c.do(ctx, http.MethodPost, "/api/leads", "", lead)
	return err
}

// CreateOrder submits an order to the CRM. The idempotency key makes retries
// of the same checkout session safe: the CRM returns the already-created
// order instead of creating a duplicate.
func (c *Client) CreateOrder(ctx context.Context, idempotencyKey string, req *OrderRequest) (*OrderResponse, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("crm is not configured")
	}

	data, err := c.do(ctx, http.MethodPost, "/api/orders", idempotencyKey, req)
	if err != nil {
		return nil, err
	}

	var resp OrderResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode crm order response: %w", err)
	}
	if resp.OrderNumber == "" {
		return nil, fmt.Errorf("crm order response missing order number")
	}
	return &resp, nil
}

// Stats retrieves CRM-side sales statistics
func (c *Client) Stats(ctx context.Context) (*StatsResponse, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("crm is not configured")
	}

	data, err := c.do(ctx, http.MethodGet, "/api/stats", "", nil)
	if err != nil {
		return nil, err
	}

	var resp StatsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode crm stats response: %w", err)
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path, idempotencyKey string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode crm request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build crm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read crm response: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("CRM request completed")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("crm returned status %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode crm response: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("crm rejected request: %s", env.Message)
	}
	return env.Data, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
