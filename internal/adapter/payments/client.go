package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"

	domainErrors "github.com/tilvo/tasko/internal/domain/errors"
	"github.com/tilvo/tasko/internal/domain/model"
)

// Client wraps the processor API and webhook verification.
type Client struct {
	api           *client.API
	webhookSecret string
	logger        *slog.Logger
}

// New creates a processor client. Nil backends select the processor's defaults.
func New(secretKey, webhookSecret string, backends *stripe.Backends, logger *slog.Logger) *Client {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &Client{api: api, webhookSecret: webhookSecret, logger: logger}
}

// ParseEvent verifies the signature over the untouched payload and decodes the event.
func (c *Client) ParseEvent(payload []byte, signature string) (model.PaymentEvent, error) {
	if signature == "" {
		return nil, domainErrors.ErrMissingSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrInvalidSignature, err)
	}

	decoded, err := decodeEvent(event)
	if err != nil {
		return nil, fmt.Errorf("decode %s event %s: %w", event.Type, event.ID, err)
	}
	return decoded, nil
}

// PaymentMethod retrieves full payment method details.
func (c *Client) PaymentMethod(ctx context.Context, id string) (*model.PaymentMethodDetails, error) {
	pm, err := c.api.PaymentMethods.Get(id, &stripe.PaymentMethodParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return nil, c.mapError("payment method", id, err)
	}
	return toPaymentMethodDetails(pm), nil
}

// Customer retrieves a customer, including the deleted marker.
func (c *Client) Customer(ctx context.Context, id string) (*model.Customer, error) {
	cus, err := c.api.Customers.Get(id, &stripe.CustomerParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		return nil, c.mapError("customer", id, err)
	}
	return &model.Customer{
		ID:       cus.ID,
		Deleted:  cus.Deleted,
		Email:    cus.Email,
		Metadata: cus.Metadata,
	}, nil
}

func (c *Client) mapError(object, id string, err error) error {
	attrs := []any{slog.String("object", object), slog.String("id", id), slog.String("error", err.Error())}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		attrs = append(attrs, slog.Int("status", stripeErr.HTTPStatusCode), slog.String("processor_request_id", stripeErr.RequestID))
		if stripeErr.HTTPStatusCode == http.StatusNotFound {
			c.logger.Debug("processor object not found", attrs...)
			return fmt.Errorf("%s %s: %w", object, id, domainErrors.ErrNotFound)
		}
	}
	c.logger.Warn("processor request failed", attrs...)
	return fmt.Errorf("%s %s: %w", object, id, err)
}

func toPaymentMethodDetails(pm *stripe.PaymentMethod) *model.PaymentMethodDetails {
	details := &model.PaymentMethodDetails{
		ID:      pm.ID,
		Type:    string(pm.Type),
		Created: pm.Created,
	}
	if pm.Customer != nil {
		details.CustomerID = pm.Customer.ID
	}
	if bd := pm.BillingDetails; bd != nil {
		details.BillingDetails = model.BillingDetails{
			Name:  bd.Name,
			Email: bd.Email,
			Phone: bd.Phone,
		}
		if a := bd.Address; a != nil {
			details.BillingDetails.Address = model.PostalAddress{
				Line1:      a.Line1,
				Line2:      a.Line2,
				PostalCode: a.PostalCode,
				City:       a.City,
				State:      a.State,
				Country:    a.Country,
			}
		}
	}
	if card := pm.Card; card != nil {
		details.Card = &model.CardSummary{
			Brand:    string(card.Brand),
			Last4:    card.Last4,
			ExpMonth: card.ExpMonth,
			ExpYear:  card.ExpYear,
			Funding:  string(card.Funding),
		}
	}
	if sepa := pm.SEPADebit; sepa != nil {
		details.SepaDebit = &model.SepaDebitSummary{
			BankCode: sepa.BankCode,
			Country:  sepa.Country,
			Last4:    sepa.Last4,
		}
	}
	return details
}
