package model

// PostalAddress is a postal address as reported by the payment processor.
type PostalAddress struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Complete reports whether the address carries everything required to save it.
func (a PostalAddress) Complete() bool {
	return a.Line1 != "" && a.PostalCode != "" && a.City != "" && a.Country != ""
}

// BillingDetails are the billing contact details attached to a payment method.
type BillingDetails struct {
	Name    string        `json:"name,omitempty"`
	Email   string        `json:"email,omitempty"`
	Phone   string        `json:"phone,omitempty"`
	Address PostalAddress `json:"address"`
}

// PaymentMethodDetails is the processor's full view of a payment method.
type PaymentMethodDetails struct {
	ID             string
	Type           string
	Created        int64
	CustomerID     string
	BillingDetails BillingDetails
	Card           *CardSummary
	SepaDebit      *SepaDebitSummary
}

// Customer is the processor-side customer record.
type Customer struct {
	ID       string
	Deleted  bool
	Email    string
	Metadata map[string]string
}
