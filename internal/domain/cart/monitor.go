// internal/domain/cart/monitor.go
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vision-studio/storefront-backend/internal/domain/analytics"
	"github.com/vision-studio/storefront-backend/internal/infrastructure/crm"
)

// LeadCapturer submits abandoned-cart leads to the CRM
type LeadCapturer interface {
	Enabled() bool
	CaptureLead(ctx context.Context, lead *crm.LeadRequest) error
}

// Monitor watches session carts for abandonment. Per session it keeps a
// one-shot latch and a debounced inactivity timer: every cart mutation
// restarts the timer, and the abandoned signal fires at most once per fill
// episode, either when the timer elapses or on explicit checkout dismissal.
type Monitor struct {
	store   Store
	tracker Tracker
	leads   LeadCapturer
	window  time.Duration
	log     *logrus.Logger

	mu      sync.Mutex
	watches map[string]*watch
	stopped bool
}

type watch struct {
	timer   *time.Timer
	tracked bool
	email   string
}

// NewMonitor creates a new abandoned-cart monitor
func NewMonitor(store Store, tracker Tracker, leads LeadCapturer, window time.Duration, log *logrus.Logger) *Monitor {
	return &Monitor{
		store:   store,
		tracker: tracker,
		leads:   leads,
		window:  window,
		watches: make(map[string]*watch),
		log:     log,
	}
}

// Touch records cart activity for a session: it (re)starts the inactivity
// timer. Rapid successive mutations keep pushing the deadline out.
func (m *Monitor) Touch(sessionID, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	w, ok := m.watches[sessionID]
	if !ok {
		w = &watch{}
		m.watches[sessionID] = w
	}
	if email != "" {
		w.email = email
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(m.window, func() {
		m.fire(sessionID, "inactivity")
	})
}

// Dismiss fires the abandoned signal immediately, bypassing the timer. Used
// when the visitor closes the checkout view with a non-empty cart.
func (m *Monitor) Dismiss(sessionID string) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	if w, ok := m.watches[sessionID]; ok && w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	m.mu.Unlock()

	m.fire(sessionID, "dismissal")
}

// Reset clears the latch and cancels the timer for a session. Called when
// the cart becomes empty, is cleared, or an order is placed.
func (m *Monitor) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.watches[sessionID]; ok {
		if w.timer != nil {
			w.timer.Stop()
		}
		delete(m.watches, sessionID)
	}
}

// Stop cancels all timers. Used on shutdown.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopped = true
	for sessionID, w := range m.watches {
		if w.timer != nil {
			w.timer.Stop()
		}
		delete(m.watches, sessionID)
	}
}

// fire emits the abandoned signal for a session if the latch is unset and
// the cart is still non-empty
func (m *Monitor) fire(sessionID, trigger string) {
	m.mu.Lock()
	w, ok := m.watches[sessionID]
	if !ok || w.tracked || m.stopped {
		m.mu.Unlock()
		return
	}
	email := w.email
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := m.store.Load(ctx, sessionID)
	if err != nil {
		m.log.WithField("session_id", sessionID).WithError(err).Warn("Failed to load cart for abandonment check")
		return
	}
	if c.IsEmpty() {
		return
	}

	m.mu.Lock()
	if w.tracked {
		m.mu.Unlock()
		return
	}
	w.tracked = true
	m.mu.Unlock()

	if email == "" {
		email = c.Email
	}

	items := make([]map[string]any, len(c.Items))
	for i, item := range c.Items {
		items[i] = map[string]any{
			"product_id": item.ProductID,
			"name":       item.Name,
			"price":      item.Price,
			"quantity":   item.Quantity,
		}
	}

	m.tracker.Track(analytics.EventCartAbandoned, sessionID, email, map[string]any{
		"trigger":    trigger,
		"item_count": c.ItemCount(),
		"value":      c.TotalValue(),
		"items":      items,
	})

	m.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"trigger":    trigger,
		"item_count": c.ItemCount(),
		"value":      c.TotalValue(),
	}).Info("🛒 Cart abandoned")

	// Lead capture is best-effort and only for identified visitors
	if email != "" && m.leads != nil && m.leads.Enabled() {
		lead := &crm.LeadRequest{
			Email:     email,
			SessionID: sessionID,
			Source:    "abandoned_cart",
			CartValue: c.TotalValue(),
			ItemCount: c.ItemCount(),
		}
		for _, item := range c.Items {
			lead.Items = append(lead.Items, crm.LeadItem{
				ProductID: item.ProductID,
				Name:      item.Name,
				Price:     item.Price,
				Quantity:  item.Quantity,
			})
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := m.leads.CaptureLead(ctx, lead); err != nil {
				m.log.WithField("session_id", sessionID).WithError(err).Warn("Failed to submit abandoned-cart lead")
			}
		}()
	}
}
