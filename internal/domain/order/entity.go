// internal/domain/order/entity.go
package order

import (
	"time"

	"gorm.io/gorm"
)

// Order status constants
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

// Order sources: who issued the order number
const (
	SourceCRM   = "crm"
	SourceLocal = "local"
)

// Order represents a placed order. The order number is the durable external
// identifier; the local row is the storefront's own ledger of it.
type Order struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	OrderNumber    string `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	IdempotencyKey string `gorm:"uniqueIndex;not null;size:64" json:"-"`
	UserID         *uint  `gorm:"index" json:"user_id,omitempty"`
	Email          string `gorm:"not null;size:255;index" json:"email"`
	Status         string `gorm:"not null;size:20;default:'pending'" json:"status"`
	Source         string `gorm:"not null;size:10" json:"source"`

	// Amounts in cents
	Subtotal    int64 `gorm:"not null" json:"subtotal"`
	Tax         int64 `gorm:"default:0" json:"tax"`
	Shipping    int64 `gorm:"default:0" json:"shipping"`
	Discount    int64 `gorm:"default:0" json:"discount"`
	TotalAmount int64 `gorm:"not null" json:"total_amount"`

	// Delivery details
	CustomerName string    `gorm:"not null;size:255" json:"customer_name"`
	Phone        string    `gorm:"not null;size:20" json:"phone"`
	Street       string    `gorm:"not null;size:500" json:"street"`
	District     string    `gorm:"not null;size:100" json:"district"`
	Notes        string    `gorm:"type:text" json:"notes,omitempty"`
	DeliveryDate time.Time `gorm:"not null" json:"delivery_date"`

	PaymentMethod  string `gorm:"not null;size:20" json:"payment_method"`
	PaymentDetails string `gorm:"size:100" json:"payment_details,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items,omitempty"`
}

// OrderItem represents one order line, copied from the cart at placement
// time so later catalog changes never rewrite order history
type OrderItem struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	OrderID    uint   `gorm:"not null;index" json:"order_id"`
	ProductID  uint   `gorm:"not null" json:"product_id"`
	Name       string `gorm:"not null;size:255" json:"name"`
	Price      int64  `gorm:"not null" json:"price"`
	Quantity   int    `gorm:"not null" json:"quantity"`
	TotalPrice int64  `gorm:"not null" json:"total_price"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// Line is an order line as handed in by the checkout flow
type Line struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}
