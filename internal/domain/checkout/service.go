// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vision-studio/storefront-backend/internal/config"
	"github.com/vision-studio/storefront-backend/internal/domain/analytics"
	"github.com/vision-studio/storefront-backend/internal/domain/cart"
	"github.com/vision-studio/storefront-backend/internal/domain/order"
)

// CartAccess is the slice of the cart service the checkout flow needs
type CartAccess interface {
	Get(ctx context.Context, sessionID string) (*cart.CartResponse, error)
	Clear(ctx context.Context, sessionID string) (*cart.CartResponse, error)
}

// OrderPlacer places orders
type OrderPlacer interface {
	Place(ctx context.Context, req *order.PlaceRequest) (*order.Order, error)
}

// Monitor is the slice of the abandoned-cart monitor the checkout flow needs
type Monitor interface {
	Dismiss(sessionID string)
	Reset(sessionID string)
}

// Tracker records journey events fire-and-forget
type Tracker interface {
	Track(eventType, sessionID, email string, payload map[string]any)
}

// Service drives the five-step checkout state machine
type Service struct {
	sessions SessionStore
	carts    CartAccess
	orders   OrderPlacer
	monitor  Monitor
	tracker  Tracker
	config   *config.Config
	log      *logrus.Logger
}

// NewService creates a new checkout service
func NewService(sessions SessionStore, carts CartAccess, orders OrderPlacer, monitor Monitor, tracker Tracker, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		sessions: sessions,
		carts:    carts,
		orders:   orders,
		monitor:  monitor,
		tracker:  tracker,
		config:   cfg,
		log:      log,
	}
}

// DeliveryRequest represents the delivery details form
type DeliveryRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"required"`
	Street       string `json:"street" binding:"required"`
	District     string `json:"district" binding:"required"`
	Notes        string `json:"notes"`
	DeliveryDate string `json:"delivery_date" binding:"required"` // YYYY-MM-DD
}

// PaymentMethodRequest represents the payment method selection
type PaymentMethodRequest struct {
	Method string `json:"method" binding:"required"`
}

// PaymentDetailsRequest represents method-specific payment details
type PaymentDetailsRequest struct {
	Bank string `json:"bank"`
}

// StepResult reports the outcome of a step transition. An unsatisfied gate
// is not an error: the step simply does not change.
type StepResult struct {
	Session *Session `json:"session"`
	Moved   bool     `json:"moved"`
	Blocked string   `json:"blocked,omitempty"`
}

// SubmitResult represents a successful order placement
type SubmitResult struct {
	Session *Session     `json:"session"`
	Order   *order.Order `json:"order"`
}

// Start creates a fresh checkout session at step 1. Any previous session
// for the visitor is discarded; checkout never resumes mid-flight.
func (s *Service) Start(ctx context.Context, sessionID string, userID *uint, email string) (*Session, error) {
	cartResp, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cartResp.Cart.IsEmpty() {
		return nil, fmt.Errorf("cannot start checkout with an empty cart")
	}

	now := time.Now().UTC()
	session := &Session{
		SessionID:      sessionID,
		UserID:         userID,
		Email:          email,
		Step:           StepCart,
		IdempotencyKey: uuid.New().String(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.tracker.Track(analytics.EventCheckoutStarted, sessionID, email, map[string]any{
		"item_count": cartResp.Totals.ItemCount,
		"value":      cartResp.Totals.Total,
	})

	return session, nil
}

// Get retrieves the active checkout session
func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	return s.sessions.Load(ctx, sessionID)
}

// SetDelivery records the delivery details and date. Validation failures
// leave the session untouched.
func (s *Service) SetDelivery(ctx context.Context, sessionID string, req *DeliveryRequest) (*Session, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step != StepDelivery {
		return nil, fmt.Errorf("delivery details are set at step %d", StepDelivery)
	}

	if !ValidDistrict(req.District) {
		return nil, fmt.Errorf("delivery is not available in %q", req.District)
	}
	date, err := time.Parse("2006-01-02", req.DeliveryDate)
	if err != nil {
		return nil, fmt.Errorf("invalid delivery date format, expected YYYY-MM-DD")
	}
	if err := ValidateDeliveryDate(date, time.Now().UTC(), s.config.Checkout.DeliveryWindowDays); err != nil {
		return nil, err
	}

	session.Delivery = DeliveryDetails{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Street:   req.Street,
		District: req.District,
		Notes:    req.Notes,
	}
	session.DeliveryDate = &date

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SetPaymentMethod records the payment method selection
func (s *Service) SetPaymentMethod(ctx context.Context, sessionID string, req *PaymentMethodRequest) (*Session, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step != StepMethod {
		return nil, fmt.Errorf("payment method is selected at step %d", StepMethod)
	}

	switch req.Method {
	case PaymentFinancing, PaymentFPX, PaymentBankTransfer:
	case PaymentCard:
		return nil, fmt.Errorf("card payments are not available")
	default:
		return nil, fmt.Errorf("unknown payment method %q", req.Method)
	}

	session.PaymentMethod = req.Method
	if req.Method != PaymentFPX {
		session.SelectedBank = ""
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SetPaymentDetails records method-specific details, currently the FPX bank
func (s *Service) SetPaymentDetails(ctx context.Context, sessionID string, req *PaymentDetailsRequest) (*Session, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step != StepDetails {
		return nil, fmt.Errorf("payment details are set at step %d", StepDetails)
	}
	if session.PaymentMethod != PaymentFPX {
		return nil, fmt.Errorf("payment method %q requires no further details", session.PaymentMethod)
	}
	if !ValidBank(req.Bank) {
		return nil, fmt.Errorf("unknown FPX bank %q", req.Bank)
	}

	session.SelectedBank = req.Bank
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Next advances the session by one step when the current step's exit gate
// is satisfied; otherwise it is a no-op and reports why.
func (s *Service) Next(ctx context.Context, sessionID string) (*StepResult, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	blocked := ""
	switch session.Step {
	case StepCart:
		cartResp, err := s.carts.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if cartResp.Cart.IsEmpty() {
			blocked = "cart is empty"
		}
	case StepDelivery:
		if !session.Delivery.Complete() {
			blocked = "delivery details are incomplete"
		} else if session.DeliveryDate == nil {
			blocked = "no delivery date selected"
		}
	case StepMethod:
		if session.PaymentMethod == "" {
			blocked = "no payment method selected"
		}
	case StepDetails:
		blocked = "order submission advances this step"
	default:
		blocked = "checkout is complete"
	}

	if blocked != "" {
		return &StepResult{Session: session, Blocked: blocked}, nil
	}

	session.Step++
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return &StepResult{Session: session, Moved: true}, nil
}

// Back moves the session one step backwards, never below step 1
func (s *Service) Back(ctx context.Context, sessionID string) (*StepResult, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step <= StepCart || session.Step >= StepConfirmation {
		return &StepResult{Session: session}, nil
	}

	session.Step--
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return &StepResult{Session: session, Moved: true}, nil
}

// Close abandons the checkout. The session is discarded and the dismissal
// counts as an abandonment trigger when the cart is still non-empty.
func (s *Service) Close(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.monitor.Dismiss(sessionID)
	return nil
}

// Submit places the order from step 4. On success the session advances to
// the confirmation step, and after the configured display delay the cart is
// cleared and the session discarded. On failure the session stays at step 4
// so the visitor can retry; the idempotency key makes the retry safe.
func (s *Service) Submit(ctx context.Context, sessionID string) (*SubmitResult, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step != StepDetails {
		return nil, fmt.Errorf("order is submitted at step %d", StepDetails)
	}
	if session.PaymentMethod == PaymentFPX && session.SelectedBank == "" {
		return nil, fmt.Errorf("select an FPX bank before submitting")
	}

	cartResp, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if cartResp.Cart.IsEmpty() {
		return nil, fmt.Errorf("cannot submit an order with an empty cart")
	}

	req := &order.PlaceRequest{
		IdempotencyKey: session.IdempotencyKey,
		UserID:         session.UserID,
		Email:          session.Delivery.Email,
		CustomerName:   session.Delivery.Name,
		Phone:          session.Delivery.Phone,
		Street:         session.Delivery.Street,
		District:       session.Delivery.District,
		Notes:          session.Delivery.Notes,
		DeliveryDate:   *session.DeliveryDate,
		PaymentMethod:  session.PaymentMethod,
		PaymentDetails: session.SelectedBank,
	}
	for _, item := range cartResp.Cart.Items {
		req.Lines = append(req.Lines, order.Line{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	placed, err := s.orders.Place(ctx, req)
	if err != nil {
		s.log.WithField("session_id", sessionID).WithError(err).Warn("Order submission failed")
		return nil, fmt.Errorf("order submission failed: %w", err)
	}

	session.Step = StepConfirmation
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.tracker.Track(analytics.EventCheckoutCompleted, sessionID, session.Delivery.Email, map[string]any{
		"order_number": placed.OrderNumber,
		"total":        placed.TotalAmount,
		"source":       placed.Source,
	})

	// Confirmation stays on screen for the display delay, then the cart
	// and session are gone and the abandonment latch resets.
	time.AfterFunc(s.config.Checkout.ConfirmationDelay, func() {
		s.complete(sessionID)
	})

	return &SubmitResult{Session: session, Order: placed}, nil
}

func (s *Service) complete(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.carts.Clear(ctx, sessionID); err != nil {
		s.log.WithField("session_id", sessionID).WithError(err).Warn("Failed to clear cart after order placement")
	}
	s.monitor.Reset(sessionID)
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.log.WithField("session_id", sessionID).WithError(err).Warn("Failed to discard checkout session")
	}
}
