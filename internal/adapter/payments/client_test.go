package payments

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	domainErrors "github.com/tilvo/tasko/internal/domain/errors"
	"github.com/tilvo/tasko/internal/domain/model"
)

const testSecret = "whsec_test"

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func sign(payload []byte, secret string) string {
	ts := time.Now()
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(webhook.ComputeSignature(ts, payload, secret)))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	if handler == nil {
		return New("sk_test", testSecret, nil, testLogger())
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(server.URL),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	return New("sk_test", testSecret, &stripe.Backends{API: backend, Connect: backend, Uploads: backend}, testLogger())
}

func TestParseEventSignatureFailures(t *testing.T) {
	client := newTestClient(t, nil)
	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)

	if _, err := client.ParseEvent(payload, ""); !errors.Is(err, domainErrors.ErrMissingSignature) {
		t.Fatalf("expected missing signature, got %v", err)
	}
	if _, err := client.ParseEvent(payload, sign(payload, "whsec_other")); !errors.Is(err, domainErrors.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}
	if _, err := client.ParseEvent(payload, "garbage"); !errors.Is(err, domainErrors.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for malformed header, got %v", err)
	}

	tampered := append([]byte(nil), payload...)
	signature := sign(payload, testSecret)
	tampered[len(tampered)-3] = ' '
	if _, err := client.ParseEvent(tampered, signature); !errors.Is(err, domainErrors.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature for tampered body, got %v", err)
	}
}

func TestParseEventPaymentIntentSucceeded(t *testing.T) {
	client := newTestClient(t, nil)

	cases := []struct {
		name    string
		payload string
		created int64
	}{
		{
			name:    "bare ids",
			created: 1714557600,
			payload: `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{
				"id":"pi_1","object":"payment_intent","amount_received":5000,"currency":"eur",
				"application_fee_amount":750,"payment_method":"pm_1","customer":"cus_1","created":1714557600,
				"metadata":{"tempJobDraftId":"D1","firebaseUserId":"U1"}}}}`,
		},
		{
			name:    "expanded objects",
			created: 1714557600,
			payload: `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{
				"id":"pi_1","object":"payment_intent","amount_received":5000,"currency":"eur",
				"application_fee_amount":750,"payment_method":{"id":"pm_1","object":"payment_method"},
				"customer":{"id":"cus_1","object":"customer"},"created":1714557600,
				"metadata":{"tempJobDraftId":"D1","firebaseUserId":"U1"}}}}`,
		},
		{
			name:    "event timestamp preferred",
			created: 1714561200,
			payload: `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","created":1714561200,"data":{"object":{
				"id":"pi_1","object":"payment_intent","amount_received":5000,"currency":"eur",
				"application_fee_amount":750,"payment_method":"pm_1","customer":"cus_1","created":1714557600,
				"metadata":{"tempJobDraftId":"D1","firebaseUserId":"U1"}}}}`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := []byte(tc.payload)
			event, err := client.ParseEvent(payload, sign(payload, testSecret))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			pi, ok := event.(model.PaymentIntentSucceeded)
			if !ok {
				t.Fatalf("expected PaymentIntentSucceeded, got %T", event)
			}
			if pi.ID != "evt_1" || pi.PaymentIntentID != "pi_1" || pi.AmountReceived != 5000 || pi.Currency != "eur" {
				t.Fatalf("unexpected payment facts: %+v", pi)
			}
			if pi.PaymentMethodID != "pm_1" || pi.CustomerID != "cus_1" || pi.ApplicationFeeAmount != 750 {
				t.Fatalf("unexpected references: %+v", pi)
			}
			if pi.Metadata[model.MetadataDraftID] != "D1" || pi.Metadata[model.MetadataUserID] != "U1" {
				t.Fatalf("unexpected metadata: %+v", pi.Metadata)
			}
			if !pi.Created.Equal(time.Unix(tc.created, 0)) {
				t.Fatalf("unexpected created time: %v", pi.Created)
			}
		})
	}
}

func TestParseEventOtherVariants(t *testing.T) {
	client := newTestClient(t, nil)

	setup := []byte(`{"id":"evt_2","object":"event","type":"setup_intent.succeeded","data":{"object":{
		"id":"seti_1","customer":{"id":"cus_1"},"payment_method":"pm_2"}}}`)
	event, err := client.ParseEvent(setup, sign(setup, testSecret))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	si, ok := event.(model.SetupIntentSucceeded)
	if !ok || si.CustomerID != "cus_1" || si.PaymentMethodID != "pm_2" || si.SetupIntentID != "seti_1" {
		t.Fatalf("unexpected setup event: %#v", event)
	}

	account := []byte(`{"id":"evt_3","object":"event","type":"account.updated","data":{"object":{
		"id":"acct_1","charges_enabled":true,"payouts_enabled":false,"details_submitted":true}}}`)
	event, err = client.ParseEvent(account, sign(account, testSecret))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	acct, ok := event.(model.AccountUpdated)
	if !ok || acct.AccountID != "acct_1" || !acct.ChargesEnabled || acct.PayoutsEnabled || !acct.DetailsSubmitted {
		t.Fatalf("unexpected account event: %#v", event)
	}

	other := []byte(`{"id":"evt_4","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`)
	event, err = client.ParseEvent(other, sign(other, testSecret))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unhandled, ok := event.(model.UnhandledEvent); !ok || unhandled.Type() != "charge.refunded" || unhandled.EventID() != "evt_4" {
		t.Fatalf("unexpected unhandled event: %#v", event)
	}
}

func TestParseEventMalformedObject(t *testing.T) {
	client := newTestClient(t, nil)
	payload := []byte(`{"id":"evt_5","object":"event","type":"setup_intent.succeeded","data":{"object":{"id":"seti_1","customer":42}}}`)
	if _, err := client.ParseEvent(payload, sign(payload, testSecret)); !errors.Is(err, domainErrors.ErrMalformedEvent) {
		t.Fatalf("expected malformed event error, got %v", err)
	}
}

func TestPaymentMethod(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/payment_methods/pm_card":
			_, _ = io.WriteString(w, `{"id":"pm_card","object":"payment_method","type":"card","created":1714557600,
				"customer":"cus_1","billing_details":{"name":"Ada Lovelace","email":"ada@example.com",
				"address":{"line1":"Main 1","postal_code":"10115","city":"Berlin","country":"DE"}},
				"card":{"brand":"visa","last4":"4242","exp_month":12,"exp_year":2030,"funding":"credit"}}`)
		case "/v1/payment_methods/pm_sepa":
			_, _ = io.WriteString(w, `{"id":"pm_sepa","object":"payment_method","type":"sepa_debit","created":1714557600,
				"billing_details":{"name":"Ada"},"sepa_debit":{"bank_code":"37040044","country":"DE","last4":"3000"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"type":"invalid_request_error","message":"No such PaymentMethod"}}`)
		}
	}))

	card, err := client.PaymentMethod(context.Background(), "pm_card")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.Card == nil || card.Card.Brand != "visa" || card.Card.ExpYear != 2030 || card.SepaDebit != nil {
		t.Fatalf("unexpected card summary: %+v", card)
	}
	if card.CustomerID != "cus_1" || card.BillingDetails.Address.City != "Berlin" || !card.BillingDetails.Address.Complete() {
		t.Fatalf("unexpected billing details: %+v", card.BillingDetails)
	}

	sepa, err := client.PaymentMethod(context.Background(), "pm_sepa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sepa.SepaDebit == nil || sepa.SepaDebit.Last4 != "3000" || sepa.Card != nil {
		t.Fatalf("unexpected sepa summary: %+v", sepa)
	}

	if _, err := client.PaymentMethod(context.Background(), "pm_missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCustomer(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/customers/cus_live":
			_, _ = io.WriteString(w, `{"id":"cus_live","object":"customer","email":"ada@example.com","metadata":{"firebaseUID":"U1"}}`)
		case "/v1/customers/cus_gone":
			_, _ = io.WriteString(w, `{"id":"cus_gone","object":"customer","deleted":true}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error":{"type":"api_error","message":"boom"}}`)
		}
	}))

	live, err := client.Customer(context.Background(), "cus_live")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if live.Deleted || live.Metadata[model.MetadataFirebaseUID] != "U1" || live.Email != "ada@example.com" {
		t.Fatalf("unexpected customer: %+v", live)
	}

	gone, err := client.Customer(context.Background(), "cus_gone")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gone.Deleted {
		t.Fatalf("expected deleted customer, got %+v", gone)
	}

	var logs bytes.Buffer
	client.logger = slog.New(slog.NewJSONHandler(&logs, nil))
	if _, err := client.Customer(context.Background(), "cus_broken"); err == nil || errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected server error, got %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON log entry, got %q: %v", logs.String(), err)
	}
	if entry["msg"] != "processor request failed" || entry["level"] != "WARN" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
	if entry["object"] != "customer" || entry["id"] != "cus_broken" || entry["status"] != float64(http.StatusInternalServerError) {
		t.Fatalf("expected processor failure attributes, got %v", entry)
	}
}
