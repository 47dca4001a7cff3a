package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"not found", ErrNotFound},
		{"missing signature", ErrMissingSignature},
		{"invalid signature", ErrInvalidSignature},
		{"missing metadata", ErrMissingMetadata},
		{"customer deleted", ErrCustomerDeleted},
		{"incomplete address", ErrIncompleteAddress},
		{"malformed event", ErrMalformedEvent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("context: %w", tc.err)
			if !stdErrors.Is(wrapped, tc.err) {
				t.Fatalf("expected wrapped error to match %v", tc.err)
			}
		})
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	all := []error{ErrNotFound, ErrMissingSignature, ErrInvalidSignature, ErrMissingMetadata, ErrCustomerDeleted, ErrIncompleteAddress, ErrMalformedEvent}
	for i := range all {
		for j := range all {
			if i != j && stdErrors.Is(all[i], all[j]) {
				t.Fatalf("expected %v and %v to be distinct", all[i], all[j])
			}
		}
	}
}
