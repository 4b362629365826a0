// internal/domain/analytics/entity.go
package analytics

import "time"

// Journey event types emitted by the storefront core
const (
	EventPageView          = "page_view"
	EventAddToCart         = "add_to_cart"
	EventRemoveFromCart    = "remove_from_cart"
	EventCartCleared       = "cart_cleared"
	EventCartAbandoned     = "cart_abandoned"
	EventCheckoutStarted   = "checkout_started"
	EventCheckoutCompleted = "checkout_completed"
)

// JourneyEvent represents one recorded journey event. Events are best-effort:
// a lost event is never a correctness failure for the storefront core.
type JourneyEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"not null;size:50;index" json:"type"`
	SessionID string    `gorm:"size:64;index" json:"session_id"`
	Email     string    `gorm:"size:255;index" json:"email"`
	Payload   string    `gorm:"type:text" json:"payload"` // JSON-encoded event details
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName overrides the table name
func (JourneyEvent) TableName() string {
	return "journey_events"
}
