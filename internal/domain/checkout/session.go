// internal/domain/checkout/session.go
package checkout

import (
	"fmt"
	"time"
)

// Checkout steps. The progression is strictly linear.
const (
	StepCart         = 1
	StepDelivery     = 2
	StepMethod       = 3
	StepDetails      = 4
	StepConfirmation = 5
)

// Payment methods. Card exists in the type system but no request path
// constructs it; selecting it is rejected outright.
const (
	PaymentFinancing    = "financing"
	PaymentFPX          = "fpx"
	PaymentBankTransfer = "bank-transfer"
	PaymentCard         = "card"
)

// Districts the storefront delivers to
var Districts = []string{
	"Kuala Lumpur",
	"Petaling Jaya",
	"Subang Jaya",
	"Shah Alam",
}

// FPXBanks selectable for FPX payments
var FPXBanks = []string{
	"maybank2u",
	"cimbclicks",
	"publicbank",
	"rhbnow",
}

// DeliveryDetails holds the delivery form fields
type DeliveryDetails struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	District string `json:"district"`
	Notes    string `json:"notes,omitempty"`
}

// Complete reports whether every required delivery field is filled
func (d *DeliveryDetails) Complete() bool {
	return d.Name != "" && d.Email != "" && d.Phone != "" && d.Street != "" && d.District != ""
}

// Session represents one checkout attempt. It is created fresh on every
// checkout entry and discarded on order placement or explicit close; only
// the cart survives checkout entry and exit.
type Session struct {
	SessionID      string          `json:"session_id"`
	UserID         *uint           `json:"user_id,omitempty"`
	Email          string          `json:"email,omitempty"`
	Step           int             `json:"step"`
	Delivery       DeliveryDetails `json:"delivery"`
	DeliveryDate   *time.Time      `json:"delivery_date,omitempty"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	SelectedBank   string          `json:"selected_bank,omitempty"`
	IdempotencyKey string          `json:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ValidDistrict reports whether the district is one the storefront serves
func ValidDistrict(district string) bool {
	for _, d := range Districts {
		if d == district {
			return true
		}
	}
	return false
}

// ValidBank reports whether the bank is a supported FPX bank
func ValidBank(bank string) bool {
	for _, b := range FPXBanks {
		if b == bank {
			return true
		}
	}
	return false
}

// ValidateDeliveryDate checks the date against the delivery window: no
// earlier than today, no later than today plus the window, and never a
// Sunday.
func ValidateDeliveryDate(date, now time.Time, windowDays int) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	if day.Before(today) {
		return fmt.Errorf("delivery date cannot be in the past")
	}
	if day.After(today.AddDate(0, 0, windowDays)) {
		return fmt.Errorf("delivery date must be within %d days", windowDays)
	}
	if day.Weekday() == time.Sunday {
		return fmt.Errorf("deliveries are not available on Sundays")
	}
	return nil
}
