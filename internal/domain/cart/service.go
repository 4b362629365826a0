// internal/domain/cart/service.go
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vision-studio/storefront-backend/internal/config"
	"github.com/vision-studio/storefront-backend/internal/domain/analytics"
	"github.com/vision-studio/storefront-backend/internal/domain/catalog"
)

// Catalog resolves products, options and packages for cart additions
type Catalog interface {
	Product(ctx context.Context, id uint) (*catalog.Product, error)
	Variant(ctx context.Context, productID, variantID uint) (*catalog.Variant, error)
	Size(ctx context.Context, productID, sizeID uint) (*catalog.Size, error)
	Package(ctx context.Context, bundleID uint) (*catalog.Package, error)
}

// Tracker records journey events fire-and-forget
type Tracker interface {
	Track(eventType, sessionID, email string, payload map[string]any)
}

// Service handles cart business logic
type Service struct {
	store   Store
	catalog Catalog
	tracker Tracker
	monitor *Monitor
	config  *config.Config
	log     *logrus.Logger
}

// NewService creates a new cart service
func NewService(store Store, cat Catalog, tracker Tracker, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		store:   store,
		catalog: cat,
		tracker: tracker,
		config:  cfg,
		log:     log,
	}
}

// AttachMonitor wires the abandoned-cart monitor. The monitor is constructed
// after the service because it reads carts through the same store.
func (s *Service) AttachMonitor(m *Monitor) {
	s.monitor = m
}

// AddItemRequest represents an add-to-cart request
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	VariantID uint `json:"variant_id"`
	SizeID    uint `json:"size_id"`
	Quantity  int  `json:"quantity"`
}

// RemoveItemRequest identifies a line item by its (id, name) identity
type RemoveItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
}

// AddBundleRequest represents a package addition
type AddBundleRequest struct {
	BundleID uint `json:"bundle_id" binding:"required"`
}

// CartResponse represents the cart with its derived totals
type CartResponse struct {
	Cart   *SessionCart `json:"cart"`
	Totals CartTotals   `json:"totals"`
}

// BundleAddResult reports how a package addition landed in the cart. The
// split is feedback for the caller only; the cart state does not keep it.
type BundleAddResult struct {
	PackageName string `json:"package_name"`
	Added       int    `json:"added"`
	Incremented int    `json:"incremented"`
}

// Get retrieves the cart with freshly computed totals
func (s *Service) Get(ctx context.Context, sessionID string) (*CartResponse, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &CartResponse{Cart: c, Totals: c.Totals()}, nil
}

// AddItem adds a configured product to the cart, merging into an existing
// line item when the (id, composed name) identity matches
func (s *Service) AddItem(ctx context.Context, sessionID, email string, req *AddItemRequest) (*CartResponse, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	product, err := s.catalog.Product(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	var variantColor string
	if req.VariantID != 0 {
		variant, err := s.catalog.Variant(ctx, req.ProductID, req.VariantID)
		if err != nil {
			return nil, err
		}
		variantColor = variant.Color
	}

	var sizeLabel string
	var sizeAdjustment int64
	if req.SizeID != 0 {
		size, err := s.catalog.Size(ctx, req.ProductID, req.SizeID)
		if err != nil {
			return nil, err
		}
		sizeLabel = size.Label
		sizeAdjustment = size.PriceAdjustment
	}

	name := ComposeName(product.Name, variantColor, sizeLabel)
	price := product.Price + sizeAdjustment

	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if email != "" {
		c.Email = email
	}

	if idx := c.FindItem(product.ID, name); idx >= 0 {
		c.Items[idx].Quantity += req.Quantity
	} else {
		c.Items = append(c.Items, LineItem{
			ProductID: product.ID,
			Name:      name,
			Price:     price,
			Quantity:  req.Quantity,
			Image:     product.Image,
			Category:  product.Category,
			AddedAt:   time.Now().UTC(),
		})
	}

	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}

	s.tracker.Track(analytics.EventAddToCart, sessionID, c.Email, map[string]any{
		"product_id": product.ID,
		"name":       name,
		"price":      price,
		"quantity":   req.Quantity,
	})
	s.touchMonitor(sessionID, c.Email)

	return &CartResponse{Cart: c, Totals: c.Totals()}, nil
}

// AddBundle adds every constituent of a package to the cart. Unlike single
// additions, merging is by product id alone: a constituent whose id is
// already present gets its quantity bumped by one, whatever its name.
func (s *Service) AddBundle(ctx context.Context, sessionID, email string, bundleID uint) (*CartResponse, *BundleAddResult, error) {
	pkg, err := s.catalog.Package(ctx, bundleID)
	if err != nil {
		return nil, nil, err
	}

	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if email != "" {
		c.Email = email
	}

	result := &BundleAddResult{PackageName: pkg.Name}
	for _, item := range pkg.Items {
		product := item.Product
		if idx := c.FindByProductID(product.ID); idx >= 0 {
			c.Items[idx].Quantity++
			result.Incremented++
			continue
		}
		c.Items = append(c.Items, LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  1,
			Image:     product.Image,
			Category:  product.Category,
			AddedAt:   time.Now().UTC(),
		})
		result.Added++
	}

	if err := s.store.Save(ctx, c); err != nil {
		return nil, nil, err
	}

	s.tracker.Track(analytics.EventAddToCart, sessionID, c.Email, map[string]any{
		"bundle_id":   bundleID,
		"name":        pkg.Name,
		"added":       result.Added,
		"incremented": result.Incremented,
	})
	s.touchMonitor(sessionID, c.Email)

	return &CartResponse{Cart: c, Totals: c.Totals()}, result, nil
}

// RemoveItem deletes the line item matching the exact (id, name) identity.
// There is no partial-quantity decrement; removal drops the whole line.
func (s *Service) RemoveItem(ctx context.Context, sessionID string, req *RemoveItemRequest) (*CartResponse, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := c.FindItem(req.ProductID, req.Name)
	if idx < 0 {
		return nil, fmt.Errorf("item not found in cart")
	}
	removed := c.Items[idx]
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)

	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}

	s.tracker.Track(analytics.EventRemoveFromCart, sessionID, c.Email, map[string]any{
		"product_id": removed.ProductID,
		"name":       removed.Name,
		"price":      removed.Price,
		"quantity":   removed.Quantity,
	})

	if c.IsEmpty() {
		s.resetMonitor(sessionID)
	} else {
		s.touchMonitor(sessionID, c.Email)
	}

	return &CartResponse{Cart: c, Totals: c.Totals()}, nil
}

// Clear empties the cart unconditionally and resets the abandonment latch
// so a future fill can be flagged again
func (s *Service) Clear(ctx context.Context, sessionID string) (*CartResponse, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	preCount := c.ItemCount()
	preValue := c.TotalValue()

	c.Items = []LineItem{}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}

	s.tracker.Track(analytics.EventCartCleared, sessionID, c.Email, map[string]any{
		"item_count": preCount,
		"value":      preValue,
	})
	s.resetMonitor(sessionID)

	return &CartResponse{Cart: c, Totals: c.Totals()}, nil
}

func (s *Service) touchMonitor(sessionID, email string) {
	if s.monitor != nil {
		s.monitor.Touch(sessionID, email)
	}
}

func (s *Service) resetMonitor(sessionID string) {
	if s.monitor != nil {
		s.monitor.Reset(sessionID)
	}
}
