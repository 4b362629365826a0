// internal/domain/order/submitter_test.go
package order

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vision-studio/storefront-backend/internal/config"
	"github.com/vision-studio/storefront-backend/internal/infrastructure/crm"
)

func TestLocalSubmitter_NumberFormat(t *testing.T) {
	s := NewLocalSubmitter()
	pattern := regexp.MustCompile(fmt.Sprintf(`^VS-%d-\d{6}$`, time.Now().Year()))

	for i := 0; i < 20; i++ {
		number, err := s.Submit(context.Background(), "key", &Order{})
		require.NoError(t, err)
		assert.Regexp(t, pattern, number)
	}
	assert.Equal(t, SourceLocal, s.Source())
}

func TestCRMSubmitter_Submit(t *testing.T) {
	var gotKey string
	var gotReq crm.OrderRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/orders", r.URL.Path)
		gotKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"order_number": "CRM-2026-000042", "status": "confirmed"},
		})
	}))
	defer server.Close()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	cfg := &config.Config{}
	cfg.External.CRM.BaseURL = server.URL
	cfg.External.CRM.APIToken = "token"
	cfg.External.CRM.Timeout = 2 * time.Second

	s := NewCRMSubmitter(crm.NewClient(cfg, log))
	o := &Order{
		Email:         "jane@example.com",
		CustomerName:  "Jane Lim",
		Phone:         "0123456789",
		Street:        "12 Jalan Indah",
		District:      "Petaling Jaya",
		DeliveryDate:  time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		PaymentMethod: "fpx",
		TotalAmount:   149900,
		Items: []OrderItem{
			{ProductID: 1, Name: "Sofa - 3-Seater", Price: 149900, Quantity: 1},
		},
	}

	number, err := s.Submit(context.Background(), "key-1", o)
	require.NoError(t, err)

	assert.Equal(t, "CRM-2026-000042", number)
	assert.Equal(t, "key-1", gotKey)
	assert.Equal(t, SourceCRM, s.Source())
	assert.Equal(t, "2026-09-07", gotReq.DeliveryDate)
	require.Len(t, gotReq.Items, 1)
	assert.Equal(t, "Sofa - 3-Seater", gotReq.Items[0].Name)
	assert.Equal(t, int64(149900), gotReq.TotalAmount)
}

func TestCRMSubmitter_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "duplicate order"})
	}))
	defer server.Close()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	cfg := &config.Config{}
	cfg.External.CRM.BaseURL = server.URL
	cfg.External.CRM.Timeout = 2 * time.Second

	s := NewCRMSubmitter(crm.NewClient(cfg, log))
	_, err := s.Submit(context.Background(), "key-1", &Order{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate order")
}
