package model

import "time"

// EventType is the processor's event type string.
type EventType string

const (
	EventTypePaymentIntentSucceeded EventType = "payment_intent.succeeded"
	EventTypeSetupIntentSucceeded   EventType = "setup_intent.succeeded"
	EventTypeAccountUpdated         EventType = "account.updated"
)

// Metadata keys attached to payment intents and customers at creation time.
const (
	MetadataDraftID          = "tempJobDraftId"
	MetadataUserID           = "firebaseUserId"
	MetadataFirebaseUID      = "firebaseUID"
	MetadataOriginalPrice    = "originalJobPriceInCents"
	MetadataBuyerServiceFee  = "buyerServiceFeeInCents"
	MetadataSellerCommission = "sellerCommissionInCents"
	MetadataTotalPlatformFee = "totalPlatformFeeInCents"
)

// PaymentEvent is a verified processor event decoded into one of the variants below.
type PaymentEvent interface {
	EventID() string
	Type() EventType
}

// PaymentIntentSucceeded is emitted once a payment has been captured.
type PaymentIntentSucceeded struct {
	ID                   string
	PaymentIntentID      string
	AmountReceived       int64
	Currency             string
	ApplicationFeeAmount int64
	PaymentMethodID      string
	CustomerID           string
	Metadata             map[string]string
	// Created is when the payment succeeded; zero when the event carried no timestamp.
	Created time.Time
}

func (e PaymentIntentSucceeded) EventID() string { return e.ID }
func (e PaymentIntentSucceeded) Type() EventType { return EventTypePaymentIntentSucceeded }

// SetupIntentSucceeded is emitted once a payment method has been tokenized for a customer.
type SetupIntentSucceeded struct {
	ID              string
	SetupIntentID   string
	CustomerID      string
	PaymentMethodID string
}

func (e SetupIntentSucceeded) EventID() string { return e.ID }
func (e SetupIntentSucceeded) Type() EventType { return EventTypeSetupIntentSucceeded }

// AccountUpdated is emitted whenever a connected account changes.
type AccountUpdated struct {
	ID               string
	AccountID        string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

func (e AccountUpdated) EventID() string { return e.ID }
func (e AccountUpdated) Type() EventType { return EventTypeAccountUpdated }

// UnhandledEvent is any event type this service only acknowledges.
type UnhandledEvent struct {
	ID      string
	RawType string
}

func (e UnhandledEvent) EventID() string { return e.ID }
func (e UnhandledEvent) Type() EventType { return EventType(e.RawType) }
