// internal/domain/cart/service_test.go
package cart

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
	"github.com/vision-studio/storefront-backend/internal/domain/catalog"
	"github.com/vision-studio/storefront-backend/internal/infrastructure/crm"
)

// memStore is an in-memory Store for tests
type memStore struct {
	mu    sync.Mutex
	carts map[string]*SessionCart
}

func newMemStore() *memStore {
	return &memStore{carts: make(map[string]*SessionCart)}
}

func (s *memStore) Load(_ context.Context, sessionID string) (*SessionCart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.carts[sessionID]; ok {
		cp := *c
		cp.Items = append([]LineItem{}, c.Items...)
		return &cp, nil
	}
	now := time.Now().UTC()
	return &SessionCart{SessionID: sessionID, Items: []LineItem{}, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *memStore) Save(_ context.Context, c *SessionCart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	cp.Items = append([]LineItem{}, c.Items...)
	s.carts[c.SessionID] = &cp
	return nil
}

func (s *memStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

// fakeCatalog serves a fixed product set
type fakeCatalog struct {
	products map[uint]*catalog.Product
	packages map[uint]*catalog.Package
}

func (f *fakeCatalog) Product(_ context.Context, id uint) (*catalog.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("product not found or inactive")
}

func (f *fakeCatalog) Variant(_ context.Context, productID, variantID uint) (*catalog.Variant, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, fmt.Errorf("product not found or inactive")
	}
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i], nil
		}
	}
	return nil, fmt.Errorf("product variant not found")
}

func (f *fakeCatalog) Size(_ context.Context, productID, sizeID uint) (*catalog.Size, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, fmt.Errorf("product not found or inactive")
	}
	for i := range p.Sizes {
		if p.Sizes[i].ID == sizeID {
			return &p.Sizes[i], nil
		}
	}
	return nil, fmt.Errorf("product size not found")
}

func (f *fakeCatalog) Package(_ context.Context, bundleID uint) (*catalog.Package, error) {
	if pkg, ok := f.packages[bundleID]; ok {
		return pkg, nil
	}
	return nil, fmt.Errorf("package not found or inactive")
}

// recordingTracker captures emitted journey events
type recordingTracker struct {
	mu     sync.Mutex
	events []trackedEvent
}

type trackedEvent struct {
	Type      string
	SessionID string
	Email     string
	Payload   map[string]any
}

func (t *recordingTracker) Track(eventType, sessionID, email string, payload map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, trackedEvent{Type: eventType, SessionID: sessionID, Email: email, Payload: payload})
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

// fakeLeads captures CRM lead submissions
type fakeLeads struct {
	mu      sync.Mutex
	enabled bool
	failErr error
	leads   []*crm.LeadRequest
}

func (f *fakeLeads) Enabled() bool { return f.enabled }

func (f *fakeLeads) CaptureLead(_ context.Context, lead *crm.LeadRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.leads = append(f.leads, lead)
	return nil
}

func (f *fakeLeads) captured() []*crm.LeadRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*crm.LeadRequest{}, f.leads...)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Cart.SessionTTL = 24 * time.Hour
	cfg.Cart.AbandonWindow = 40 * time.Millisecond
	return cfg
}

const sofaPrice = 129900 // $1299.00

func sofaCatalog() *fakeCatalog {
	sofa := &catalog.Product{
		ID:       1,
		Name:     "Sofa",
		Price:    sofaPrice,
		Category: "living-room",
		Variants: []catalog.Variant{
			{ID: 10, ProductID: 1, Color: "Charcoal", Material: "Fabric"},
		},
		Sizes: []catalog.Size{
			{ID: 20, ProductID: 1, Label: "3-Seater", PriceAdjustment: 20000},
		},
	}
	table := &catalog.Product{ID: 2, Name: "Coffee Table", Price: 34900, Category: "living-room"}

	return &fakeCatalog{
		products: map[uint]*catalog.Product{1: sofa, 2: table},
		packages: map[uint]*catalog.Package{
			20001: {
				ID:   1,
				Name: "Living Room Essentials",
				Kind: catalog.PackageKindRoom,
				Items: []catalog.PackageItem{
					{PackageID: 1, ProductID: 1, Product: *sofa},
					{PackageID: 1, ProductID: 2, Product: *table},
				},
			},
		},
	}
}

func newTestService() (*Service, *memStore, *recordingTracker) {
	store := newMemStore()
	tracker := &recordingTracker{}
	svc := NewService(store, sofaCatalog(), tracker, testConfig(), testLogger())
	return svc, store, tracker
}

func TestComposeName(t *testing.T) {
	assert.Equal(t, "Sofa", ComposeName("Sofa", "", ""))
	assert.Equal(t, "Sofa - 3-Seater", ComposeName("Sofa", "", "3-Seater"))
	assert.Equal(t, "Sofa - Charcoal - 3-Seater", ComposeName("Sofa", "Charcoal", "3-Seater"))
}

func TestAddItem_MergesOnIdentity(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "", &AddItemRequest{ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	resp, err := svc.AddItem(ctx, "s1", "", &AddItemRequest{ProductID: 1, Quantity: 2})
	require.NoError(t, err)

	require.Len(t, resp.Cart.Items, 1)
	assert.Equal(t, 3, resp.Cart.Items[0].Quantity)
	assert.Equal(t, int64(3*sofaPrice), resp.Totals.Total)
}

func TestAddItem_SizeMakesDistinctLineItem(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "", &AddItemRequest{ProductID: 1})
	require.NoError(t, err)
	resp, err := svc.AddItem(ctx, "s1", "", &AddItemRequest{ProductID: 1, SizeID: 20})
	require.NoError(t, err)

	require.Len(t, resp.Cart.Items, 2)
	assert.Equal(t, "Sofa", resp.Cart.Items[0].Name)
	assert.Equal(t, int64(129900), resp.Cart.Items[0].Price)
	assert.Equal(t, "Sofa - 3-Seater", resp.Cart.Items[1].Name)
	assert.Equal(t, int64(149900), resp.Cart.Items[1].Price)
	assert.Equal(t, int64(279800), resp.Totals.Total)
}

func TestAddItem_VariantChangesNameNotPrice(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.AddItem(context.Background(), "s1", "", &AddItemRequest{ProductID: 1, VariantID: 10})
	require.NoError(t, err)

	require.Len(t, resp.Cart.Items, 1)
	assert.Equal(t, "Sofa - Charcoal", resp.Cart.Items[0].Name)
	assert.Equal(t, int64(sofaPrice), resp.Cart.Items[0].Price)
}

func TestAddItem_EmitsAnalyticsEvent(t *testing.T) {
	svc, _, tracker := newTestService()

	_, err := svc.AddItem(context.Background(), "s1", "jane@example.com", &AddItemRequest{ProductID: 1, SizeID: 20, Quantity: 2})
	require.NoError(t, err)

	events := tracker.byType(analytics.EventAddToCart)
	require.Len(t, events, 1)
	assert.Equal(t, "s1", events[0].SessionID)
	assert.Equal(t, "jane@example.com", events[0].Email)
	assert.Equal(t, "Sofa - 3-Seater", events[0].Payload["name"])
	assert.Equal(t, int64(149900), events[0].Payload["price"])
	assert.Equal(t, 2, events[0].Payload["quantity"])
}

func TestRemoveItem_ExactIdentityMatch(t *testing.T) {
	svc, _, tracker := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "", &AddItemRequest{ProductID: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "s1", "", &AddItemRequest{ProductID: 1, SizeID: 20})
	require.NoError(t, err)

	// Same product id, different composed name: only the exact match goes
	resp, err := svc.RemoveItem(ctx, "s1", &RemoveItemRequest{ProductID: 1, Name: "Sofa - 3-Seater"})
	require.NoError(t, err)

	require.Len(t, resp.Cart.Items, 1)
	assert.Equal(t, "Sofa", resp.Cart.Items[0].Name)
	assert.Equal(t, int64(sofaPrice), resp.Totals.Total)

	events := tracker.byType(analytics.EventRemoveFromCart)
	require.Len(t, events, 1)
	assert.Equal(t, int64(149900), events[0].Payload["price"])
}

func TestRemoveItem_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.RemoveItem(context.Background(), "s1", &RemoveItemRequest{ProductID: 99, Name: "Ghost"})
	assert.Error(t, err)
}

func TestClear_EmitsPreClearSnapshot(t *testing.T) {
	svc, _, tracker := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "s1", "", &AddItemRequest{ProductID: 1, Quantity: 2})
	require.NoError(t, err)

	resp, err := svc.Clear(ctx, "s1")
	require.NoError(t, err)

	assert.True(t, resp.Cart.IsEmpty())
	assert.Equal(t, int64(0), resp.Totals.Total)

	events := tracker.byType(analytics.EventCartCleared)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].Payload["item_count"])
	assert.Equal(t, int64(2*sofaPrice), events[0].Payload["value"])
}

func TestAddBundle_MergesByProductIDAlone(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	// The sofa is already in the cart under a size-composed name
	_, err := svc.AddItem(ctx, "s1", "", &AddItemRequest{ProductID: 1, SizeID: 20})
	require.NoError(t, err)

	resp, result, err := svc.AddBundle(ctx, "s1", "", 20001)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Incremented)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, "Living Room Essentials", result.PackageName)

	require.Len(t, resp.Cart.Items, 2)
	assert.Equal(t, "Sofa - 3-Seater", resp.Cart.Items[0].Name)
	assert.Equal(t, 2, resp.Cart.Items[0].Quantity)
	assert.Equal(t, "Coffee Table", resp.Cart.Items[1].Name)
	assert.Equal(t, 1, resp.Cart.Items[1].Quantity)
}

func TestAddBundle_UnknownBundle(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, err := svc.AddBundle(context.Background(), "s1", "", 99999)
	assert.Error(t, err)
}

func TestTotals_RecomputedAfterEveryMutation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	resp, err := svc.AddItem(ctx, "s1", "", &AddItemRequest{ProductID: 1, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3*sofaPrice), resp.Totals.Total)

	resp, _, err = svc.AddBundle(ctx, "s1", "", 20001)
	require.NoError(t, err)
	assert.Equal(t, int64(4*sofaPrice+34900), resp.Totals.Total)

	resp, err = svc.RemoveItem(ctx, "s1", &RemoveItemRequest{ProductID: 2, Name: "Coffee Table"})
	require.NoError(t, err)
	assert.Equal(t, int64(4*sofaPrice), resp.Totals.Total)

	resp, err = svc.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Totals.Total)
}

func TestGet_EmptyCart(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.Get(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.True(t, resp.Cart.IsEmpty())
	assert.Equal(t, int64(0), resp.Totals.Total)
	assert.Equal(t, 0, resp.Totals.ItemCount)
}
