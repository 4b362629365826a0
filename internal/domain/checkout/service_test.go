// internal/domain/checkout/service_test.go
package checkout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vision-studio/storefront-backend/internal/config"
	"github.com/vision-studio/storefront-backend/internal/domain/analytics"
	"github.com/vision-studio/storefront-backend/internal/domain/cart"
	"github.com/vision-studio/storefront-backend/internal/domain/order"
)

// memSessionStore is an in-memory SessionStore for tests
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*Session)}
}

func (s *memSessionStore) Load(_ context.Context, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		cp := *session
		return &cp, nil
	}
	return nil, ErrNoSession
}

func (s *memSessionStore) Save(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.SessionID] = &cp
	return nil
}

func (s *memSessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// fakeCarts serves a fixed cart and records clears
type fakeCarts struct {
	mu      sync.Mutex
	items   []cart.LineItem
	cleared bool
}

func (f *fakeCarts) Get(_ context.Context, sessionID string) (*cart.CartResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &cart.SessionCart{SessionID: sessionID, Items: append([]cart.LineItem{}, f.items...)}
	return &cart.CartResponse{Cart: c, Totals: c.Totals()}, nil
}

func (f *fakeCarts) Clear(_ context.Context, sessionID string) (*cart.CartResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	f.cleared = true
	c := &cart.SessionCart{SessionID: sessionID, Items: []cart.LineItem{}}
	return &cart.CartResponse{Cart: c, Totals: c.Totals()}, nil
}

func (f *fakeCarts) wasCleared() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

// fakeOrders records placement requests and can be set to fail
type fakeOrders struct {
	mu       sync.Mutex
	failErr  error
	requests []*order.PlaceRequest
}

func (f *fakeOrders) Place(_ context.Context, req *order.PlaceRequest) (*order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.failErr != nil {
		return nil, f.failErr
	}
	return &order.Order{
		OrderNumber: "VS-2026-123456",
		Source:      order.SourceLocal,
		Status:      order.StatusConfirmed,
		TotalAmount: 149900,
	}, nil
}

func (f *fakeOrders) placed() []*order.PlaceRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*order.PlaceRequest{}, f.requests...)
}

func (f *fakeOrders) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failErr = err
}

// fakeMonitor records dismiss/reset calls
type fakeMonitor struct {
	mu        sync.Mutex
	dismissed []string
	resets    []string
}

func (f *fakeMonitor) Dismiss(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dismissed = append(f.dismissed, sessionID)
}

func (f *fakeMonitor) Reset(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, sessionID)
}

func (f *fakeMonitor) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.resets)
}

// recordingTracker captures emitted journey events
type recordingTracker struct {
	mu     sync.Mutex
	events []trackedEvent
}

type trackedEvent struct {
	Type    string
	Email   string
	Payload map[string]any
}

func (t *recordingTracker) Track(eventType, _, email string, payload map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, trackedEvent{Type: eventType, Email: email, Payload: payload})
}

func (t *recordingTracker) byType(eventType string) []trackedEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []trackedEvent
	for _, e := range t.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	svc      *Service
	sessions *memSessionStore
	carts    *fakeCarts
	orders   *fakeOrders
	monitor  *fakeMonitor
	tracker  *recordingTracker
}

func newFixture() *fixture {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{}
	cfg.Checkout.SessionTTL = time.Hour
	cfg.Checkout.ConfirmationDelay = 20 * time.Millisecond
	cfg.Checkout.DeliveryWindowDays = 28

	f := &fixture{
		sessions: newMemSessionStore(),
		carts: &fakeCarts{items: []cart.LineItem{
			{ProductID: 1, Name: "Sofa - 3-Seater", Price: 149900, Quantity: 1},
		}},
		orders:  &fakeOrders{},
		monitor: &fakeMonitor{},
		tracker: &recordingTracker{},
	}
	f.svc = NewService(f.sessions, f.carts, f.orders, f.monitor, f.tracker, cfg, log)
	return f
}

// validDeliveryDate picks a near-future date that is never a Sunday
func validDeliveryDate() string {
	d := time.Now().UTC().AddDate(0, 0, 2)
	if d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

func validDelivery() *DeliveryRequest {
	return &DeliveryRequest{
		Name:         "Jane Lim",
		Email:        "jane@example.com",
		Phone:        "0123456789",
		Street:       "12 Jalan Indah",
		District:     "Petaling Jaya",
		DeliveryDate: validDeliveryDate(),
	}
}

// advanceTo drives a fresh session up to the given step
func advanceTo(t *testing.T, f *fixture, sessionID string, step int) {
	t.Helper()
	ctx := context.Background()

	_, err := f.svc.Start(ctx, sessionID, nil, "")
	require.NoError(t, err)

	if step >= StepDelivery {
		res, err := f.svc.Next(ctx, sessionID)
		require.NoError(t, err)
		require.True(t, res.Moved)
	}
	if step >= StepMethod {
		_, err := f.svc.SetDelivery(ctx, sessionID, validDelivery())
		require.NoError(t, err)
		res, err := f.svc.Next(ctx, sessionID)
		require.NoError(t, err)
		require.True(t, res.Moved)
	}
	if step >= StepDetails {
		_, err := f.svc.SetPaymentMethod(ctx, sessionID, &PaymentMethodRequest{Method: PaymentFPX})
		require.NoError(t, err)
		res, err := f.svc.Next(ctx, sessionID)
		require.NoError(t, err)
		require.True(t, res.Moved)
	}
}

func TestStart_RequiresNonEmptyCart(t *testing.T) {
	f := newFixture()
	f.carts.items = nil

	_, err := f.svc.Start(context.Background(), "s1", nil, "")
	assert.Error(t, err)
}

func TestStart_FreshSessionEveryTime(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.Start(ctx, "s1", nil, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, StepCart, first.Step)
	assert.NotEmpty(t, first.IdempotencyKey)

	advanceTo(t, f, "s2", StepMethod)

	// Restarting never resumes: a new session begins at step 1 with a new key
	second, err := f.svc.Start(ctx, "s1", nil, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, StepCart, second.Step)
	assert.NotEqual(t, first.IdempotencyKey, second.IdempotencyKey)

	events := f.tracker.byType(analytics.EventCheckoutStarted)
	assert.Len(t, events, 3)
}

func TestNext_GateBlocksWithoutDelivery(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	advanceTo(t, f, "s1", StepDelivery)

	// No delivery details yet: next() is a no-op
	res, err := f.svc.Next(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, res.Moved)
	assert.Equal(t, StepDelivery, res.Session.Step)
	assert.NotEmpty(t, res.Blocked)

	_, err = f.svc.SetDelivery(ctx, "s1", validDelivery())
	require.NoError(t, err)

	res, err = f.svc.Next(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, res.Moved)
	assert.Equal(t, StepMethod, res.Session.Step)
}

func TestNext_GateBlocksWithoutPaymentMethod(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	advanceTo(t, f, "s1", StepMethod)

	res, err := f.svc.Next(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, res.Moved)
	assert.Equal(t, StepMethod, res.Session.Step)
}

func TestNext_NeverSkipsFromDetails(t *testing.T) {
	f := newFixture()
	advanceTo(t, f, "s1", StepDetails)

	// Only submission advances past step 4
	res, err := f.svc.Next(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, res.Moved)
	assert.Equal(t, StepDetails, res.Session.Step)
}

func TestBack_MovesOneStepNeverBelowOne(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	advanceTo(t, f, "s1", StepMethod)

	res, err := f.svc.Back(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, res.Moved)
	assert.Equal(t, StepDelivery, res.Session.Step)

	res, err = f.svc.Back(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StepCart, res.Session.Step)

	res, err = f.svc.Back(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, res.Moved)
	assert.Equal(t, StepCart, res.Session.Step)
}

func TestSetDelivery_RejectsSunday(t *testing.T) {
	f := newFixture()
	advanceTo(t, f, "s1", StepDelivery)

	d := time.Now().UTC()
	for d.Weekday() != time.Sunday {
		d = d.AddDate(0, 0, 1)
	}

	req := validDelivery()
	req.DeliveryDate = d.Format("2006-01-02")
	_, err := f.svc.SetDelivery(context.Background(), "s1", req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sunday")
}

func TestSetDelivery_RejectsOutsideWindow(t *testing.T) {
	f := newFixture()
	advanceTo(t, f, "s1", StepDelivery)
	ctx := context.Background()

	req := validDelivery()
	req.DeliveryDate = time.Now().UTC().AddDate(0, 0, 40).Format("2006-01-02")
	_, err := f.svc.SetDelivery(ctx, "s1", req)
	assert.Error(t, err)

	req.DeliveryDate = time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	_, err = f.svc.SetDelivery(ctx, "s1", req)
	assert.Error(t, err)
}

func TestSetDelivery_RejectsUnknownDistrict(t *testing.T) {
	f := newFixture()
	advanceTo(t, f, "s1", StepDelivery)

	req := validDelivery()
	req.District = "George Town"
	_, err := f.svc.SetDelivery(context.Background(), "s1", req)
	assert.Error(t, err)
}

func TestSetPaymentMethod_CardNotAvailable(t *testing.T) {
	f := newFixture()
	advanceTo(t, f, "s1", StepMethod)
	ctx := context.Background()

	_, err := f.svc.SetPaymentMethod(ctx, "s1", &PaymentMethodRequest{Method: PaymentCard})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")

	_, err = f.svc.SetPaymentMethod(ctx, "s1", &PaymentMethodRequest{Method: "cheque"})
	assert.Error(t, err)
}

func TestSubmit_FPXRequiresBank(t *testing.T) {
	f := newFixture()
	advanceTo(t, f, "s1", StepDetails)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FPX bank")

	_, err = f.svc.SetPaymentDetails(ctx, "s1", &PaymentDetailsRequest{Bank: "maybank2u"})
	require.NoError(t, err)

	res, err := f.svc.Submit(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, res.Session.Step)
	assert.Equal(t, "VS-2026-123456", res.Order.OrderNumber)
}

func TestSubmit_SuccessClearsEverythingAfterDelay(t *testing.T) {
	f := newFixture()
	advanceTo(t, f, "s1", StepDetails)
	ctx := context.Background()

	_, err := f.svc.SetPaymentDetails(ctx, "s1", &PaymentDetailsRequest{Bank: "cimbclicks"})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, "s1")
	require.NoError(t, err)

	events := f.tracker.byType(analytics.EventCheckoutCompleted)
	require.Len(t, events, 1)
	assert.Equal(t, "VS-2026-123456", events[0].Payload["order_number"])

	// After the display delay: cart cleared, latch reset, session gone
	require.Eventually(t, func() bool {
		return f.carts.wasCleared() && f.monitor.resetCount() > 0
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		_, err := f.svc.Get(ctx, "s1")
		return err == ErrNoSession
	}, time.Second, 5*time.Millisecond)
}

func TestSubmit_FailureKeepsStepAndKey(t *testing.T) {
	f := newFixture()
	advanceTo(t, f, "s1", StepDetails)
	ctx := context.Background()

	_, err := f.svc.SetPaymentDetails(ctx, "s1", &PaymentDetailsRequest{Bank: "publicbank"})
	require.NoError(t, err)

	f.orders.setFail(fmt.Errorf("crm unreachable"))
	_, err = f.svc.Submit(ctx, "s1")
	require.Error(t, err)

	session, err := f.svc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StepDetails, session.Step)

	// Retrying reuses the same idempotency key so a lost response cannot
	// create a duplicate order
	f.orders.setFail(nil)
	_, err = f.svc.Submit(ctx, "s1")
	require.NoError(t, err)

	placed := f.orders.placed()
	require.Len(t, placed, 2)
	assert.Equal(t, placed[0].IdempotencyKey, placed[1].IdempotencyKey)
	assert.NotEmpty(t, placed[0].IdempotencyKey)
}

func TestSubmit_RequestCarriesCartAndDelivery(t *testing.T) {
	f := newFixture()
	advanceTo(t, f, "s1", StepDetails)
	ctx := context.Background()

	_, err := f.svc.SetPaymentDetails(ctx, "s1", &PaymentDetailsRequest{Bank: "rhbnow"})
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, "s1")
	require.NoError(t, err)

	placed := f.orders.placed()
	require.Len(t, placed, 1)
	req := placed[0]
	assert.Equal(t, "Jane Lim", req.CustomerName)
	assert.Equal(t, "Petaling Jaya", req.District)
	assert.Equal(t, PaymentFPX, req.PaymentMethod)
	assert.Equal(t, "rhbnow", req.PaymentDetails)
	require.Len(t, req.Lines, 1)
	assert.Equal(t, "Sofa - 3-Seater", req.Lines[0].Name)
	assert.Equal(t, int64(149900), req.Lines[0].Price)
}

func TestClose_DismissesMonitorAndDiscardsSession(t *testing.T) {
	f := newFixture()
	advanceTo(t, f, "s1", StepDelivery)
	ctx := context.Background()

	require.NoError(t, f.svc.Close(ctx, "s1"))

	_, err := f.svc.Get(ctx, "s1")
	assert.Equal(t, ErrNoSession, err)

	f.monitor.mu.Lock()
	defer f.monitor.mu.Unlock()
	assert.Equal(t, []string{"s1"}, f.monitor.dismissed)
}
