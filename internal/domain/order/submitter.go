// internal/domain/order/submitter.go
package order

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/vision-studio/storefront-backend/internal/infrastructure/crm"
)

// Submitter issues the durable order number for an order. The two
// implementations differ only in who numbers the order: the external CRM
// or the storefront itself.
type Submitter interface {
	Submit(ctx context.Context, idempotencyKey string, o *Order) (orderNumber string, err error)
	Source() string
}

// CRMSubmitter submits orders to the external CRM and uses its order number
type CRMSubmitter struct {
	client *crm.Client
}

// NewCRMSubmitter creates a CRM-backed order submitter
func NewCRMSubmitter(client *crm.Client) *CRMSubmitter {
	return &CRMSubmitter{client: client}
}

// Source returns the submitter's order source tag
func (s *CRMSubmitter) Source() string { return SourceCRM }

// Submit sends the order to the CRM. The idempotency key travels with the
// request so a retried submission after a lost response cannot create a
// duplicate order.
func (s *CRMSubmitter) Submit(ctx context.Context, idempotencyKey string, o *Order) (string, error) {
	req := &crm.OrderRequest{
		Email:          o.Email,
		CustomerName:   o.CustomerName,
		Phone:          o.Phone,
		Street:         o.Street,
		District:       o.District,
		Notes:          o.Notes,
		DeliveryDate:   o.DeliveryDate.Format("2006-01-02"),
		PaymentMethod:  o.PaymentMethod,
		PaymentDetails: o.PaymentDetails,
		TotalAmount:    o.TotalAmount,
	}
	for _, item := range o.Items {
		req.Items = append(req.Items, crm.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	resp, err := s.client.CreateOrder(ctx, idempotencyKey, req)
	if err != nil {
		return "", fmt.Errorf("failed to submit order to crm: %w", err)
	}
	return resp.OrderNumber, nil
}

// LocalSubmitter numbers orders locally, for guests and for deployments
// without a CRM. Nothing is persisted outside the storefront's own ledger.
type LocalSubmitter struct{}

// NewLocalSubmitter creates a local order submitter
func NewLocalSubmitter() *LocalSubmitter {
	return &LocalSubmitter{}
}

// Source returns the submitter's order source tag
func (s *LocalSubmitter) Source() string { return SourceLocal }

// Submit generates a local order number of the form VS-<year>-<6 digits>
func (s *LocalSubmitter) Submit(_ context.Context, _ string, _ *Order) (string, error) {
	return fmt.Sprintf("VS-%d-%06d", time.Now().Year(), rand.Intn(1000000)), nil
}
