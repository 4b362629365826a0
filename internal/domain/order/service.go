// internal/domain/order/service.go
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vision-studio/storefront-backend/internal/config"
	"gorm.io/gorm"
)

// Service handles order placement and retrieval
type Service struct {
	db     *gorm.DB
	crm    Submitter
	local  Submitter
	config *config.Config
	log    *logrus.Logger
}

// NewService creates a new order service. crmSubmitter may be nil when no
// CRM is configured; local numbering is then used for everyone.
func NewService(db *gorm.DB, crmSubmitter, localSubmitter Submitter, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		db:     db,
		crm:    crmSubmitter,
		local:  localSubmitter,
		config: cfg,
		log:    log,
	}
}

// PlaceRequest carries everything needed to place an order
type PlaceRequest struct {
	IdempotencyKey string
	UserID         *uint
	Email          string
	CustomerName   string
	Phone          string
	Street         string
	District       string
	Notes          string
	DeliveryDate   time.Time
	PaymentMethod  string
	PaymentDetails string
	Lines          []Line
}

// ListRequest represents order list query parameters
type ListRequest struct {
	Status string `form:"status"`
	Email  string `form:"email"`
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
}

// ListResponse represents a page of orders
type ListResponse struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// Place submits an order and records it locally. The idempotency key makes
// the whole operation replay-safe: resubmitting the same checkout session
// returns the already-placed order instead of creating a second one.
func (s *Service) Place(ctx context.Context, req *PlaceRequest) (*Order, error) {
	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("idempotency key is required")
	}
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("order has no items")
	}

	// Replay of an already-placed order
	var existing Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("idempotency_key = ?", req.IdempotencyKey).
		First(&existing).Error
	if err == nil {
		s.log.WithFields(logrus.Fields{
			"order_number":    existing.OrderNumber,
			"idempotency_key": req.IdempotencyKey,
		}).Info("Order placement replayed, returning existing order")
		return &existing, nil
	}

	o := &Order{
		IdempotencyKey: req.IdempotencyKey,
		UserID:         req.UserID,
		Email:          req.Email,
		Status:         StatusPending,
		CustomerName:   req.CustomerName,
		Phone:          req.Phone,
		Street:         req.Street,
		District:       req.District,
		Notes:          req.Notes,
		DeliveryDate:   req.DeliveryDate,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
	}
	for _, line := range req.Lines {
		o.Subtotal += line.Price * int64(line.Quantity)
		o.Items = append(o.Items, OrderItem{
			ProductID:  line.ProductID,
			Name:       line.Name,
			Price:      line.Price,
			Quantity:   line.Quantity,
			TotalPrice: line.Price * int64(line.Quantity),
		})
	}
	o.TotalAmount = o.Subtotal + o.Tax + o.Shipping - o.Discount

	submitter := s.submitterFor(req.UserID)
	orderNumber, err := submitter.Submit(ctx, req.IdempotencyKey, o)
	if err != nil {
		return nil, err
	}
	o.OrderNumber = orderNumber
	o.Source = submitter.Source()
	o.Status = StatusConfirmed

	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		// A concurrent replay may have won the unique-index race
		var dup Order
		dupErr := s.db.WithContext(ctx).Preload("Items").
			Where("idempotency_key = ?", req.IdempotencyKey).
			First(&dup).Error
		if dupErr == nil {
			return &dup, nil
		}
		return nil, fmt.Errorf("failed to record order: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"order_number": o.OrderNumber,
		"source":       o.Source,
		"total":        o.TotalAmount,
	}).Info("📦 Order placed")

	return o, nil
}

// submitterFor picks the CRM for identified users when one is configured,
// the local numbering scheme otherwise
func (s *Service) submitterFor(userID *uint) Submitter {
	if userID != nil && s.crm != nil {
		return s.crm
	}
	return s.local
}

// List retrieves orders with filtering and pagination
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Order{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Email != "" {
		query = query.Where("email = ?", req.Email)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	err := query.Preload("Items").
		Order("created_at DESC").
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return &ListResponse{Orders: orders, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

// Get retrieves an order by ID
func (s *Service) Get(ctx context.Context, id uint) (*Order, error) {
	var o Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		return nil, fmt.Errorf("order not found")
	}
	return &o, nil
}

// GetByNumber retrieves an order by its order number
func (s *Service) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	var o Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&o).Error
	if err != nil {
		return nil, fmt.Errorf("order not found")
	}
	return &o, nil
}

// UserOrders retrieves a user's order history
func (s *Service) UserOrders(ctx context.Context, userID uint, req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&Order{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	err := query.Preload("Items").
		Order("created_at DESC").
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return &ListResponse{Orders: orders, Total: total, Page: req.Page, Limit: req.Limit}, nil
}
