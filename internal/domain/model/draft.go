package model

import "time"

// DraftStatus describes the payment lifecycle of a temporary job draft.
type DraftStatus string

const (
	DraftStatusPendingPaymentSetup DraftStatus = "pending_payment_setup"
	DraftStatusConverted           DraftStatus = "converted"
)

// Draft is a customer's job request captured before payment.
type Draft struct {
	ID                      string
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
	Status                  DraftStatus
	ConvertedToOrderID      *string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Converted reports whether the draft already produced an order.
func (d *Draft) Converted() bool {
	return d.Status == DraftStatusConverted
}
