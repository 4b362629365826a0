// internal/infrastructure/crm/client_test.go
package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vision-studio/storefront-backend/internal/config"
)

func newTestClient(baseURL string) *Client {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{}
	cfg.External.CRM.BaseURL = baseURL
	cfg.External.CRM.APIToken = "test-token"
	cfg.External.CRM.Timeout = 2 * time.Second

	return NewClient(cfg, log)
}

func TestClient_Disabled(t *testing.T) {
	client := newTestClient("")

	assert.False(t, client.Enabled())
	err := client.CaptureLead(context.Background(), &LeadRequest{Email: "a@b.com"})
	assert.Error(t, err)
}

func TestClient_CaptureLead(t *testing.T) {
	var gotAuth string
	var gotLead LeadRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/leads", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotLead))
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.CaptureLead(context.Background(), &LeadRequest{
		Email:     "jane@example.com",
		SessionID: "sess-1",
		Source:    "abandoned_cart",
		CartValue: 129900,
		ItemCount: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "jane@example.com", gotLead.Email)
	assert.Equal(t, int64(129900), gotLead.CartValue)
}

func TestClient_CreateOrder(t *testing.T) {
	var gotKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/orders", r.URL.Path)
		gotKey = r.Header.Get("Idempotency-Key")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"order_number": "CRM-2026-000123", "status": "confirmed"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resp, err := client.CreateOrder(context.Background(), "key-abc", &OrderRequest{
		Email:       "jane@example.com",
		TotalAmount: 129900,
	})

	require.NoError(t, err)
	assert.Equal(t, "key-abc", gotKey)
	assert.Equal(t, "CRM-2026-000123", resp.OrderNumber)
}

func TestClient_CreateOrder_EnvelopeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// success=false must be treated as an error even on HTTP 200
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "invalid district"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CreateOrder(context.Background(), "key-abc", &OrderRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid district")
}

func TestClient_CreateOrder_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CreateOrder(context.Background(), "key-abc", &OrderRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_Stats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/stats", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"total_leads": 42, "total_orders": 7, "total_revenue": 908300},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	stats, err := client.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.TotalLeads)
	assert.Equal(t, int64(908300), stats.TotalRevenue)
}
