// internal/domain/analytics/tracker.go
package analytics

import (
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var journeyEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_journey_events_total",
		Help: "Total number of journey events recorded",
	},
	[]string{"type"},
)

// Tracker records journey events fire-and-forget. No caller awaits the write;
// failures are logged and dropped.
type Tracker struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewTracker creates a new journey event tracker
func NewTracker(db *gorm.DB, log *logrus.Logger) *Tracker {
	return &Tracker{
		db:  db,
		log: log,
	}
}

// Track records a journey event asynchronously
func (t *Tracker) Track(eventType, sessionID, email string, payload map[string]any) {
	journeyEventsTotal.WithLabelValues(eventType).Inc()

	event := JourneyEvent{
		Type:      eventType,
		SessionID: sessionID,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			event.Payload = string(data)
		}
	}

	go func() {
		if err := t.db.Create(&event).Error; err != nil {
			t.log.WithFields(logrus.Fields{
				"event_type": eventType,
				"session_id": sessionID,
			}).WithError(err).Warn("Failed to record journey event")
		}
	}()
}
