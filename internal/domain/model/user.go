package model

import "time"

// Address is a saved billing/shipping address on a user profile.
type Address struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2,omitempty"`
	PostalCode string    `json:"postalCode"`
	City       string    `json:"city"`
	State      string    `json:"state,omitempty"`
	Country    string    `json:"country"`
	IsDefault  bool      `json:"isDefault"`
	Source     string    `json:"source,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SameLocation reports whether both addresses name the same recipient at the same place.
func (a Address) SameLocation(other Address) bool {
	return a.Line1 == other.Line1 &&
		a.PostalCode == other.PostalCode &&
		a.City == other.City &&
		a.Country == other.Country &&
		a.Name == other.Name
}

// CardSummary is the masked card part of a saved payment method.
type CardSummary struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"expMonth"`
	ExpYear  int64  `json:"expYear"`
	Funding  string `json:"funding,omitempty"`
}

// SepaDebitSummary is the masked bank-debit part of a saved payment method.
type SepaDebitSummary struct {
	BankCode string `json:"bankCode,omitempty"`
	Country  string `json:"country,omitempty"`
	Last4    string `json:"last4"`
}

// SavedPaymentMethod is the compact payment method record kept on a profile.
type SavedPaymentMethod struct {
	ID             string            `json:"id"`
	Type           string            `json:"type"`
	Created        int64             `json:"created"`
	Customer       string            `json:"customer"`
	BillingDetails BillingDetails    `json:"billingDetails"`
	Card           *CardSummary      `json:"card,omitempty"`
	SepaDebit      *SepaDebitSummary `json:"sepaDebit,omitempty"`
	IsDefault      bool              `json:"isDefault"`
	AddedAt        time.Time         `json:"addedAt"`
}

// AccountStatus mirrors connected-account capability flags.
type AccountStatus struct {
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
	UpdatedAt        *time.Time
}

// PersonalDetails holds the profile's own name and address fields.
type PersonalDetails struct {
	FirstName  string
	LastName   string
	Street     string
	PostalCode string
	City       string
	Country    string
}

// User is the profile projection relevant to payment mirroring.
type User struct {
	ID               string
	Email            string
	Personal         PersonalDetails
	StripeAccountID  *string
	StripeCustomerID *string
	Account          AccountStatus
	Addresses        []Address
	PaymentMethods   []SavedPaymentMethod
	UpdatedAt        time.Time
}
