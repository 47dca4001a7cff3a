package payments

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"

	domainErrors "github.com/tilvo/tasko/internal/domain/errors"
	"github.com/tilvo/tasko/internal/domain/model"
)

// objectRef is a reference that the processor sends either as a bare id
// or as an expanded object carrying an id.
type objectRef string

func (r *objectRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = ""
		return nil
	}

	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = objectRef(strings.TrimSpace(id))
		return nil
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("object reference: %w", err)
	}
	*r = objectRef(strings.TrimSpace(obj.ID))
	return nil
}

func (r objectRef) ID() string {
	return string(r)
}

type paymentIntentObject struct {
	ID                   string            `json:"id"`
	AmountReceived       int64             `json:"amount_received"`
	Currency             string            `json:"currency"`
	ApplicationFeeAmount *int64            `json:"application_fee_amount"`
	PaymentMethod        objectRef         `json:"payment_method"`
	Customer             objectRef         `json:"customer"`
	Metadata             map[string]string `json:"metadata"`
	Created              int64             `json:"created"`
}

type setupIntentObject struct {
	ID            string    `json:"id"`
	Customer      objectRef `json:"customer"`
	PaymentMethod objectRef `json:"payment_method"`
}

type accountObject struct {
	ID               string `json:"id"`
	ChargesEnabled   bool   `json:"charges_enabled"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	DetailsSubmitted bool   `json:"details_submitted"`
}

// decodeEvent turns a verified processor event into its typed variant.
func decodeEvent(event stripe.Event) (model.PaymentEvent, error) {
	var raw json.RawMessage
	if event.Data != nil {
		raw = event.Data.Raw
	}

	switch model.EventType(event.Type) {
	case model.EventTypePaymentIntentSucceeded:
		var pi paymentIntentObject
		if err := unmarshalObject(raw, &pi); err != nil {
			return nil, err
		}
		var fee int64
		if pi.ApplicationFeeAmount != nil {
			fee = *pi.ApplicationFeeAmount
		}
		metadata := pi.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		return model.PaymentIntentSucceeded{
			ID:                   event.ID,
			PaymentIntentID:      pi.ID,
			AmountReceived:       pi.AmountReceived,
			Currency:             pi.Currency,
			ApplicationFeeAmount: fee,
			PaymentMethodID:      pi.PaymentMethod.ID(),
			CustomerID:           pi.Customer.ID(),
			Metadata:             metadata,
			Created:              eventTime(event.Created, pi.Created),
		}, nil

	case model.EventTypeSetupIntentSucceeded:
		var si setupIntentObject
		if err := unmarshalObject(raw, &si); err != nil {
			return nil, err
		}
		return model.SetupIntentSucceeded{
			ID:              event.ID,
			SetupIntentID:   si.ID,
			CustomerID:      si.Customer.ID(),
			PaymentMethodID: si.PaymentMethod.ID(),
		}, nil

	case model.EventTypeAccountUpdated:
		var acct accountObject
		if err := unmarshalObject(raw, &acct); err != nil {
			return nil, err
		}
		return model.AccountUpdated{
			ID:               event.ID,
			AccountID:        acct.ID,
			ChargesEnabled:   acct.ChargesEnabled,
			PayoutsEnabled:   acct.PayoutsEnabled,
			DetailsSubmitted: acct.DetailsSubmitted,
		}, nil

	default:
		return model.UnhandledEvent{ID: event.ID, RawType: string(event.Type)}, nil
	}
}

// eventTime prefers the event's own timestamp and falls back to the object's.
func eventTime(eventCreated, objectCreated int64) time.Time {
	switch {
	case eventCreated > 0:
		return time.Unix(eventCreated, 0).UTC()
	case objectCreated > 0:
		return time.Unix(objectCreated, 0).UTC()
	default:
		return time.Time{}
	}
}

func unmarshalObject(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty data object", domainErrors.ErrMalformedEvent)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", domainErrors.ErrMalformedEvent, err)
	}
	return nil
}
