package usecase

import (
	"strings"
	"time"

	"github.com/tilvo/tasko/internal/domain/model"
)

const addressSourceBilling = "stripe_billing"

// addressBook is the mutable part of a profile touched by the billing address mirror.
type addressBook struct {
	Addresses []model.Address
	Personal  model.PersonalDetails
}

// mergeBillingAddress adds billing as the new default address unless it is incomplete
// or already saved. The duplicate path leaves existing default flags untouched.
// Personal fields are only filled where the profile has none.
func mergeBillingAddress(book addressBook, billing model.BillingDetails, id string, at time.Time) (addressBook, bool) {
	if !billing.Address.Complete() {
		return book, false
	}

	candidate := model.Address{
		ID:         id,
		Name:       strings.TrimSpace(billing.Name),
		Line1:      billing.Address.Line1,
		Line2:      billing.Address.Line2,
		PostalCode: billing.Address.PostalCode,
		City:       billing.Address.City,
		State:      billing.Address.State,
		Country:    billing.Address.Country,
		IsDefault:  true,
		Source:     addressSourceBilling,
		CreatedAt:  at,
	}

	for _, existing := range book.Addresses {
		if existing.SameLocation(candidate) {
			return book, false
		}
	}

	merged := make([]model.Address, 0, len(book.Addresses)+1)
	for _, existing := range book.Addresses {
		existing.IsDefault = false
		merged = append(merged, existing)
	}
	merged = append(merged, candidate)

	personal := book.Personal
	if candidate.IsDefault {
		first, last := splitName(candidate.Name)
		fillIfEmpty(&personal.FirstName, first)
		fillIfEmpty(&personal.LastName, last)
		fillIfEmpty(&personal.Street, candidate.Line1)
		fillIfEmpty(&personal.PostalCode, candidate.PostalCode)
		fillIfEmpty(&personal.City, candidate.City)
		fillIfEmpty(&personal.Country, candidate.Country)
	}

	return addressBook{Addresses: merged, Personal: personal}, true
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

func fillIfEmpty(field *string, value string) {
	if *field == "" && value != "" {
		*field = value
	}
}
