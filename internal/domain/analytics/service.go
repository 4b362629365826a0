// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/vision-studio/storefront-backend/internal/config"
	"github.com/vision-studio/storefront-backend/internal/domain/order"
	"github.com/vision-studio/storefront-backend/internal/domain/user"
	"gorm.io/gorm"
)

// Service handles admin dashboard aggregates
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new analytics service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// DashboardStats represents overall dashboard statistics
type DashboardStats struct {
	// Sales metrics
	TotalRevenue     int64 `json:"total_revenue"` // In cents
	RevenueToday     int64 `json:"revenue_today"`
	RevenueThisWeek  int64 `json:"revenue_this_week"`
	RevenueThisMonth int64 `json:"revenue_this_month"`

	// Order metrics
	TotalOrders     int64 `json:"total_orders"`
	OrdersToday     int64 `json:"orders_today"`
	OrdersThisWeek  int64 `json:"orders_this_week"`
	OrdersThisMonth int64 `json:"orders_this_month"`
	AvgOrderValue   int64 `json:"avg_order_value"` // In cents

	// User metrics
	TotalUsers    int64 `json:"total_users"`
	NewUsersToday int64 `json:"new_users_today"`

	// Funnel metrics
	CheckoutsStarted   int64   `json:"checkouts_started"`
	CheckoutsCompleted int64   `json:"checkouts_completed"`
	CartsAbandoned     int64   `json:"carts_abandoned"`
	ConversionRate     float64 `json:"conversion_rate"` // Percentage
}

// ProductSalesData represents per-product sales aggregates
type ProductSalesData struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	TotalSold   int64  `json:"total_sold"`
	Revenue     int64  `json:"revenue"`
}

// StatusData represents order counts grouped by status
type StatusData struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
	Value  int64  `json:"value"`
}

// EventListRequest represents journey event list query parameters
type EventListRequest struct {
	Type  string `form:"type"`
	Email string `form:"email"`
	Page  int    `form:"page,default=1"`
	Limit int    `form:"limit,default=50"`
}

// EventListResponse represents a page of journey events
type EventListResponse struct {
	Events []JourneyEvent `json:"events"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

// GetDashboardStats computes dashboard statistics
func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	db := s.db.WithContext(ctx)

	now := time.Now().UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := todayStart.AddDate(0, 0, -int(todayStart.Weekday()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	// Revenue
	revenue := func(since *time.Time) (int64, error) {
		var total int64
		query := db.Model(&order.Order{}).Select("COALESCE(SUM(total_amount), 0)")
		if since != nil {
			query = query.Where("created_at >= ?", *since)
		}
		err := query.Scan(&total).Error
		return total, err
	}

	var err error
	if stats.TotalRevenue, err = revenue(nil); err != nil {
		return nil, fmt.Errorf("failed to compute total revenue: %w", err)
	}
	if stats.RevenueToday, err = revenue(&todayStart); err != nil {
		return nil, fmt.Errorf("failed to compute revenue today: %w", err)
	}
	if stats.RevenueThisWeek, err = revenue(&weekStart); err != nil {
		return nil, fmt.Errorf("failed to compute revenue this week: %w", err)
	}
	if stats.RevenueThisMonth, err = revenue(&monthStart); err != nil {
		return nil, fmt.Errorf("failed to compute revenue this month: %w", err)
	}

	// Orders
	orders := func(since *time.Time) (int64, error) {
		var count int64
		query := db.Model(&order.Order{})
		if since != nil {
			query = query.Where("created_at >= ?", *since)
		}
		err := query.Count(&count).Error
		return count, err
	}

	if stats.TotalOrders, err = orders(nil); err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if stats.OrdersToday, err = orders(&todayStart); err != nil {
		return nil, fmt.Errorf("failed to count orders today: %w", err)
	}
	if stats.OrdersThisWeek, err = orders(&weekStart); err != nil {
		return nil, fmt.Errorf("failed to count orders this week: %w", err)
	}
	if stats.OrdersThisMonth, err = orders(&monthStart); err != nil {
		return nil, fmt.Errorf("failed to count orders this month: %w", err)
	}

	if stats.TotalOrders > 0 {
		stats.AvgOrderValue = stats.TotalRevenue / stats.TotalOrders
	}

	// Users
	if err := db.Model(&user.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&user.User{}).Where("created_at >= ?", todayStart).Count(&stats.NewUsersToday).Error; err != nil {
		return nil, fmt.Errorf("failed to count new users: %w", err)
	}

	// Funnel
	eventCount := func(eventType string) (int64, error) {
		var count int64
		err := db.Model(&JourneyEvent{}).Where("type = ?", eventType).Count(&count).Error
		return count, err
	}

	if stats.CheckoutsStarted, err = eventCount(EventCheckoutStarted); err != nil {
		return nil, fmt.Errorf("failed to count started checkouts: %w", err)
	}
	if stats.CheckoutsCompleted, err = eventCount(EventCheckoutCompleted); err != nil {
		return nil, fmt.Errorf("failed to count completed checkouts: %w", err)
	}
	if stats.CartsAbandoned, err = eventCount(EventCartAbandoned); err != nil {
		return nil, fmt.Errorf("failed to count abandoned carts: %w", err)
	}

	if stats.CheckoutsStarted > 0 {
		stats.ConversionRate = float64(stats.CheckoutsCompleted) / float64(stats.CheckoutsStarted) * 100
	}

	return stats, nil
}

// GetTopProducts returns the best selling products by revenue
func (s *Service) GetTopProducts(ctx context.Context, limit int) ([]ProductSalesData, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var top []ProductSalesData
	err := s.db.WithContext(ctx).Model(&order.OrderItem{}).
		Select("product_id, name as product_name, SUM(quantity) as total_sold, SUM(total_price) as revenue").
		Group("product_id, name").
		Order("revenue DESC").
		Limit(limit).
		Scan(&top).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute top products: %w", err)
	}
	return top, nil
}

// GetOrdersByStatus returns order counts and value grouped by status
func (s *Service) GetOrdersByStatus(ctx context.Context) ([]StatusData, error) {
	var byStatus []StatusData
	err := s.db.WithContext(ctx).Model(&order.Order{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(total_amount), 0) as value").
		Group("status").
		Order("count DESC").
		Scan(&byStatus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute orders by status: %w", err)
	}
	return byStatus, nil
}

// GetEvents retrieves journey events with filtering and pagination
func (s *Service) GetEvents(ctx context.Context, req *EventListRequest) (*EventListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 200 {
		req.Limit = 50
	}

	query := s.db.WithContext(ctx).Model(&JourneyEvent{})
	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}
	if req.Email != "" {
		query = query.Where("email = ?", req.Email)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	var events []JourneyEvent
	err := query.Order("created_at DESC").
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}

	return &EventListResponse{
		Events: events,
		Total:  total,
		Page:   req.Page,
		Limit:  req.Limit,
	}, nil
}
