package model

import "time"

// OrderStatus describes the lifecycle of a paid order.
type OrderStatus string

const (
	// OrderStatusPaymentClearing marks a freshly paid order inside its clearing period.
	OrderStatusPaymentClearing OrderStatus = "zahlung_erhalten_clearing"
)

// FeeBreakdown carries the platform fee split reported with the payment.
type FeeBreakdown struct {
	OriginalPriceInCents    int64
	BuyerServiceFeeInCents  int64
	SellerCommissionInCents int64
	TotalPlatformFeeInCents int64
}

// Order ("Auftrag") is a paid engagement created from exactly one draft.
type Order struct {
	ID      string
	DraftID string

	CustomerID              string
	Category                string
	Subcategory             string
	Description             string
	Street                  string
	PostalCode              string
	City                    string
	PreferredDate           string
	TimePreference          string
	ProviderID              string
	PriceInCents            int64
	ProviderStripeAccountID string
	Details                 map[string]any

	PaymentIntentID   string
	Currency          string
	AmountPaidInCents int64
	PaymentMethodID   string
	StripeCustomerID  string
	Fees              FeeBreakdown

	Status               OrderStatus
	PaidAt               time.Time
	ClearingPeriodEndsAt time.Time
	BuyerApprovedAt      *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewOrderFromDraft copies every draft field onto a new order.
func NewOrderFromDraft(id string, d *Draft) *Order {
	return &Order{
		ID:                      id,
		DraftID:                 d.ID,
		CustomerID:              d.CustomerID,
		Category:                d.Category,
		Subcategory:             d.Subcategory,
		Description:             d.Description,
		Street:                  d.Street,
		PostalCode:              d.PostalCode,
		City:                    d.City,
		PreferredDate:           d.PreferredDate,
		TimePreference:          d.TimePreference,
		ProviderID:              d.ProviderID,
		PriceInCents:            d.PriceInCents,
		ProviderStripeAccountID: d.ProviderStripeAccountID,
		Details:                 d.Details,
	}
}
