package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	domainErrors "github.com/tilvo/tasko/internal/domain/errors"
	"github.com/tilvo/tasko/internal/domain/model"
	"github.com/tilvo/tasko/internal/domain/repository"
)

// PaymentMethodUseCase mirrors newly tokenized payment methods onto user profiles.
type PaymentMethodUseCase struct {
	users     repository.UserRepository
	processor PaymentProcessor
	now       func() time.Time
}

// NewPaymentMethodUseCase constructs PaymentMethodUseCase.
func NewPaymentMethodUseCase(users repository.UserRepository, processor PaymentProcessor) *PaymentMethodUseCase {
	return &PaymentMethodUseCase{
		users:     users,
		processor: processor,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Mirror stores the event's payment method as the owner's default. It never fails the event.
func (u *PaymentMethodUseCase) Mirror(ctx context.Context, event model.SetupIntentSucceeded) Outcome {
	customerID := strings.TrimSpace(event.CustomerID)
	methodID := strings.TrimSpace(event.PaymentMethodID)
	if customerID == "" || methodID == "" {
		return Skipped("setup intent without customer or payment method")
	}

	customer, err := u.processor.Customer(ctx, customerID)
	if err != nil {
		return Failed("fetch customer "+customerID, err)
	}
	if customer.Deleted {
		return Skipped(domainErrors.ErrCustomerDeleted.Error())
	}

	userID := strings.TrimSpace(customer.Metadata[model.MetadataFirebaseUID])
	if userID == "" {
		return Skipped("customer " + customerID + " has no " + model.MetadataFirebaseUID + " metadata")
	}

	pm, err := u.processor.PaymentMethod(ctx, methodID)
	if err != nil {
		return Failed("fetch payment method "+methodID, err)
	}

	user, err := u.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return Skipped("user " + userID + " not found")
		}
		return Failed("load user "+userID, err)
	}

	now := u.now()
	methods, added := appendDefaultPaymentMethod(user.PaymentMethods, savedPaymentMethod(pm, customerID, now))
	if !added {
		return Skipped("payment method already saved")
	}

	if err := u.users.UpdatePaymentMethods(ctx, user.ID, methods, now); err != nil {
		return Failed("save payment methods for user "+user.ID, err)
	}
	return Applied("payment method " + pm.ID + " saved as default")
}

func savedPaymentMethod(pm *model.PaymentMethodDetails, customerID string, at time.Time) model.SavedPaymentMethod {
	saved := model.SavedPaymentMethod{
		ID:             pm.ID,
		Type:           pm.Type,
		Created:        pm.Created,
		Customer:       customerID,
		BillingDetails: pm.BillingDetails,
		IsDefault:      true,
		AddedAt:        at,
	}
	if pm.Card != nil {
		card := *pm.Card
		saved.Card = &card
	}
	if pm.SepaDebit != nil {
		sepa := *pm.SepaDebit
		saved.SepaDebit = &sepa
	}
	return saved
}

// appendDefaultPaymentMethod demotes existing methods and appends candidate as the only default.
// A method id already present leaves the list untouched.
func appendDefaultPaymentMethod(methods []model.SavedPaymentMethod, candidate model.SavedPaymentMethod) ([]model.SavedPaymentMethod, bool) {
	for _, existing := range methods {
		if existing.ID == candidate.ID {
			return methods, false
		}
	}

	merged := make([]model.SavedPaymentMethod, 0, len(methods)+1)
	for _, existing := range methods {
		existing.IsDefault = false
		merged = append(merged, existing)
	}
	candidate.IsDefault = true
	return append(merged, candidate), true
}
