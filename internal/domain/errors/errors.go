package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrMissingSignature  = errors.New("missing webhook signature")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrMissingMetadata   = errors.New("missing event metadata")
	ErrCustomerDeleted   = errors.New("customer deleted")
	ErrIncompleteAddress = errors.New("incomplete billing address")
	ErrMalformedEvent    = errors.New("malformed event payload")
)
