// internal/domain/cart/monitor_test.go
package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vision-studio/storefront-backend/internal/domain/analytics"
)

const monitorWindow = 40 * time.Millisecond

func newTestMonitor(leads *fakeLeads) (*Monitor, *memStore, *recordingTracker) {
	store := newMemStore()
	tracker := &recordingTracker{}
	m := NewMonitor(store, tracker, leads, monitorWindow, testLogger())
	return m, store, tracker
}

func seedCart(t *testing.T, store *memStore, sessionID, email string) {
	t.Helper()
	err := store.Save(context.Background(), &SessionCart{
		SessionID: sessionID,
		Email:     email,
		Items: []LineItem{
			{ProductID: 1, Name: "Sofa", Price: sofaPrice, Quantity: 1},
		},
	})
	require.NoError(t, err)
}

func TestMonitor_FiresOnceAfterInactivity(t *testing.T) {
	m, store, tracker := newTestMonitor(&fakeLeads{})
	defer m.Stop()
	seedCart(t, store, "s1", "")

	m.Touch("s1", "")

	require.Eventually(t, func() bool {
		return len(tracker.byType(analytics.EventCartAbandoned)) == 1
	}, time.Second, 5*time.Millisecond)

	// Latch holds: further mutations of the same fill episode never re-fire
	m.Touch("s1", "")
	time.Sleep(3 * monitorWindow)
	assert.Len(t, tracker.byType(analytics.EventCartAbandoned), 1)

	events := tracker.byType(analytics.EventCartAbandoned)
	assert.Equal(t, "inactivity", events[0].Payload["trigger"])
	assert.Equal(t, 1, events[0].Payload["item_count"])
	assert.Equal(t, int64(sofaPrice), events[0].Payload["value"])
}

func TestMonitor_TouchDebouncesTimer(t *testing.T) {
	m, store, tracker := newTestMonitor(&fakeLeads{})
	defer m.Stop()
	seedCart(t, store, "s1", "")

	// Keep touching faster than the window: the signal must not fire
	for i := 0; i < 5; i++ {
		m.Touch("s1", "")
		time.Sleep(monitorWindow / 2)
	}
	assert.Empty(t, tracker.byType(analytics.EventCartAbandoned))

	// Leave it alone and the debounced timer finally elapses
	require.Eventually(t, func() bool {
		return len(tracker.byType(analytics.EventCartAbandoned)) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMonitor_DismissFiresImmediately(t *testing.T) {
	m, store, tracker := newTestMonitor(&fakeLeads{})
	defer m.Stop()
	seedCart(t, store, "s1", "")

	m.Touch("s1", "")
	m.Dismiss("s1")

	events := tracker.byType(analytics.EventCartAbandoned)
	require.Len(t, events, 1)
	assert.Equal(t, "dismissal", events[0].Payload["trigger"])

	// The timer was cancelled and the latch is set: nothing more fires
	time.Sleep(3 * monitorWindow)
	assert.Len(t, tracker.byType(analytics.EventCartAbandoned), 1)
}

func TestMonitor_ResetAllowsNewEpisode(t *testing.T) {
	m, store, tracker := newTestMonitor(&fakeLeads{})
	defer m.Stop()
	seedCart(t, store, "s1", "")

	m.Touch("s1", "")
	require.Eventually(t, func() bool {
		return len(tracker.byType(analytics.EventCartAbandoned)) == 1
	}, time.Second, 5*time.Millisecond)

	// Cart cleared / order placed: latch resets, a new fill can re-flag
	m.Reset("s1")
	m.Touch("s1", "")

	require.Eventually(t, func() bool {
		return len(tracker.byType(analytics.EventCartAbandoned)) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestMonitor_EmptyCartNeverFires(t *testing.T) {
	m, _, tracker := newTestMonitor(&fakeLeads{})
	defer m.Stop()

	m.Touch("empty-session", "")
	time.Sleep(3 * monitorWindow)
	assert.Empty(t, tracker.byType(analytics.EventCartAbandoned))

	m.Dismiss("empty-session")
	assert.Empty(t, tracker.byType(analytics.EventCartAbandoned))
}

func TestMonitor_LeadCapturedForIdentifiedVisitor(t *testing.T) {
	leads := &fakeLeads{enabled: true}
	m, store, tracker := newTestMonitor(leads)
	defer m.Stop()
	seedCart(t, store, "s1", "jane@example.com")

	m.Touch("s1", "jane@example.com")

	require.Eventually(t, func() bool {
		return len(leads.captured()) == 1
	}, time.Second, 5*time.Millisecond)

	lead := leads.captured()[0]
	assert.Equal(t, "jane@example.com", lead.Email)
	assert.Equal(t, "abandoned_cart", lead.Source)
	assert.Equal(t, int64(sofaPrice), lead.CartValue)
	require.Len(t, lead.Items, 1)
	assert.Equal(t, "Sofa", lead.Items[0].Name)

	events := tracker.byType(analytics.EventCartAbandoned)
	require.Len(t, events, 1)
	assert.Equal(t, "jane@example.com", events[0].Email)
}

func TestMonitor_NoLeadForAnonymousVisitor(t *testing.T) {
	leads := &fakeLeads{enabled: true}
	m, store, tracker := newTestMonitor(leads)
	defer m.Stop()
	seedCart(t, store, "s1", "")

	m.Touch("s1", "")

	require.Eventually(t, func() bool {
		return len(tracker.byType(analytics.EventCartAbandoned)) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(2 * monitorWindow)
	assert.Empty(t, leads.captured())
}

func TestMonitor_LeadFailureDoesNotUndoSignal(t *testing.T) {
	leads := &fakeLeads{enabled: true, failErr: fmt.Errorf("crm unreachable")}
	m, store, tracker := newTestMonitor(leads)
	defer m.Stop()
	seedCart(t, store, "s1", "jane@example.com")

	m.Touch("s1", "jane@example.com")

	// The analytics event fires and the latch sets regardless of lead failure
	require.Eventually(t, func() bool {
		return len(tracker.byType(analytics.EventCartAbandoned)) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(3 * monitorWindow)
	assert.Len(t, tracker.byType(analytics.EventCartAbandoned), 1)
}

func TestMonitor_StopCancelsTimers(t *testing.T) {
	m, store, tracker := newTestMonitor(&fakeLeads{})
	seedCart(t, store, "s1", "")

	m.Touch("s1", "")
	m.Stop()

	time.Sleep(3 * monitorWindow)
	assert.Empty(t, tracker.byType(analytics.EventCartAbandoned))
}
