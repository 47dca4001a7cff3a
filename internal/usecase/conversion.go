package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/tilvo/tasko/internal/domain/errors"
	"github.com/tilvo/tasko/internal/domain/model"
	"github.com/tilvo/tasko/internal/domain/repository"
)

const addressSavepoint = "billing_address_mirror"

// ConversionSettings holds business constants of the draft-to-order conversion.
type ConversionSettings struct {
	ClearingPeriod time.Duration
}

// ConversionUseCase turns a paid draft into exactly one order.
type ConversionUseCase struct {
	orders    repository.OrderRepository
	processor PaymentProcessor
	settings  ConversionSettings
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewConversionUseCase constructs ConversionUseCase.
func NewConversionUseCase(orders repository.OrderRepository, processor PaymentProcessor, settings ConversionSettings, logger *slog.Logger) *ConversionUseCase {
	return &ConversionUseCase{
		orders:    orders,
		processor: processor,
		settings:  settings,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Convert handles a succeeded payment intent. A non-nil error means the conversion
// did not commit and the event must be redelivered.
func (u *ConversionUseCase) Convert(ctx context.Context, event model.PaymentIntentSucceeded) (Outcome, error) {
	draftID := strings.TrimSpace(event.Metadata[model.MetadataDraftID])
	userID := strings.TrimSpace(event.Metadata[model.MetadataUserID])
	if draftID == "" || userID == "" {
		return Skipped(fmt.Sprintf("%v: %s=%q %s=%q", domainErrors.ErrMissingMetadata,
			model.MetadataDraftID, draftID, model.MetadataUserID, userID)), nil
	}

	billing, billingOutcome := u.billingDetails(ctx, event.PaymentMethodID)

	var result Outcome
	err := u.orders.RunConversion(ctx, func(tx repository.ConversionTx) error {
		draft, err := tx.DraftForUpdate(ctx, draftID)
		if err != nil {
			return fmt.Errorf("load draft %s: %w", draftID, err)
		}

		user, err := tx.UserForUpdate(ctx, userID)
		if err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
			return fmt.Errorf("load user %s: %w", userID, err)
		}

		if draft.Converted() {
			result = Skipped("draft already converted")
			return nil
		}

		now := u.now()
		order := u.buildOrder(draft, event, now)
		if err := tx.InsertOrder(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := tx.MarkDraftConverted(ctx, draft.ID, order.ID, now); err != nil {
			return fmt.Errorf("mark draft converted: %w", err)
		}

		u.logStep(ctx, "billing address mirror", draftID, u.mirrorAddress(ctx, tx, user, billing, billingOutcome, now))
		u.logStep(ctx, "order confirmation", draftID, u.enqueueConfirmation(ctx, tx, order, user, billing))

		result = Applied("order " + order.ID + " created")
		return nil
	})
	if err != nil {
		return Failed("order conversion", err), fmt.Errorf("convert draft %s: %w", draftID, err)
	}

	return result, nil
}

func (u *ConversionUseCase) buildOrder(draft *model.Draft, event model.PaymentIntentSucceeded, now time.Time) *model.Order {
	order := model.NewOrderFromDraft(u.newID(), draft)
	order.PaymentIntentID = event.PaymentIntentID
	order.Currency = event.Currency
	order.AmountPaidInCents = event.AmountReceived
	order.PaymentMethodID = event.PaymentMethodID
	order.StripeCustomerID = event.CustomerID
	order.Fees = feeBreakdown(event.Metadata, event.ApplicationFeeAmount)
	order.Status = model.OrderStatusPaymentClearing
	order.PaidAt = now
	if !event.Created.IsZero() {
		order.PaidAt = event.Created
	}
	order.ClearingPeriodEndsAt = order.PaidAt.Add(u.settings.ClearingPeriod)
	order.BuyerApprovedAt = nil
	order.CreatedAt = now
	order.UpdatedAt = now
	return order
}

// feeBreakdown reads the platform fee split from metadata. Missing values are zero,
// except the total which falls back to the processor's application fee.
func feeBreakdown(metadata map[string]string, applicationFee int64) model.FeeBreakdown {
	fees := model.FeeBreakdown{
		OriginalPriceInCents:    metadataInt(metadata, model.MetadataOriginalPrice),
		BuyerServiceFeeInCents:  metadataInt(metadata, model.MetadataBuyerServiceFee),
		SellerCommissionInCents: metadataInt(metadata, model.MetadataSellerCommission),
	}
	if total, ok := lookupMetadataInt(metadata, model.MetadataTotalPlatformFee); ok {
		fees.TotalPlatformFeeInCents = total
	} else {
		fees.TotalPlatformFeeInCents = applicationFee
	}
	return fees
}

func metadataInt(metadata map[string]string, key string) int64 {
	v, _ := lookupMetadataInt(metadata, key)
	return v
}

func lookupMetadataInt(metadata map[string]string, key string) (int64, bool) {
	raw, ok := metadata[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// billingDetails fetches the payment method outside the critical section.
func (u *ConversionUseCase) billingDetails(ctx context.Context, paymentMethodID string) (*model.BillingDetails, Outcome) {
	if paymentMethodID == "" {
		return nil, Skipped("no payment method on payment intent")
	}
	pm, err := u.processor.PaymentMethod(ctx, paymentMethodID)
	if err != nil {
		return nil, Failed("fetch payment method "+paymentMethodID, err)
	}
	return &pm.BillingDetails, Applied("billing details fetched")
}

func (u *ConversionUseCase) mirrorAddress(ctx context.Context, tx repository.ConversionTx, user *model.User, billing *model.BillingDetails, fetched Outcome, now time.Time) Outcome {
	if fetched.Kind != OutcomeApplied {
		return fetched
	}
	if user == nil {
		return Skipped("user profile not found")
	}
	if !billing.Address.Complete() {
		return Skipped(domainErrors.ErrIncompleteAddress.Error())
	}

	book, changed := mergeBillingAddress(addressBook{Addresses: user.Addresses, Personal: user.Personal}, *billing, u.newID(), now)
	if !changed {
		return Skipped("address already saved")
	}

	err := tx.Savepoint(ctx, addressSavepoint, func() error {
		return tx.SaveAddressBook(ctx, user.ID, book.Addresses, book.Personal, now)
	})
	if err != nil {
		return Failed("save address book", err)
	}
	return Applied("billing address saved as default")
}

func (u *ConversionUseCase) enqueueConfirmation(ctx context.Context, tx repository.ConversionTx, order *model.Order, user *model.User, billing *model.BillingDetails) Outcome {
	recipient, name := "", ""
	if user != nil {
		recipient = user.Email
		name = user.Personal.FirstName
	}
	if billing != nil {
		if recipient == "" {
			recipient = billing.Email
		}
		if name == "" {
			name, _ = splitName(billing.Name)
		}
	}
	if recipient == "" {
		return Skipped("no email address for customer")
	}

	notification := orderConfirmation(u.newID(), order, recipient, name)
	err := tx.Savepoint(ctx, "order_confirmation", func() error {
		return tx.EnqueueNotification(ctx, notification)
	})
	if err != nil {
		return Failed("enqueue order confirmation", err)
	}
	return Applied("order confirmation queued")
}

func (u *ConversionUseCase) logStep(ctx context.Context, step, draftID string, outcome Outcome) {
	attrs := append([]any{slog.String("step", step), slog.String("draft_id", draftID)}, outcome.LogAttrs()...)
	u.logger.Log(ctx, outcome.Level(), "conversion step finished", attrs...)
}
