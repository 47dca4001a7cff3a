package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tilvo/tasko/internal/domain/model"
	testhelpers "github.com/tilvo/tasko/internal/test"
)

func accountStore() *testhelpers.MemoryStore {
	store := testhelpers.NewMemoryStore()
	account := "acct_1"
	store.Users["U1"] = &model.User{ID: "U1", StripeAccountID: &account}
	return store
}

func TestMirrorAccountStatusOverwritesFlags(t *testing.T) {
	store := accountStore()
	uc := NewAccountStatusUseCase(store)
	uc.now = func() time.Time { return fixedNow }

	outcome := uc.Mirror(context.Background(), model.AccountUpdated{
		ID: "evt_1", AccountID: "acct_1", ChargesEnabled: true, DetailsSubmitted: true,
	})
	if outcome.Kind != OutcomeApplied {
		t.Fatalf("expected applied outcome, got %+v", outcome)
	}

	status := store.User("U1").Account
	if !status.ChargesEnabled || status.PayoutsEnabled || !status.DetailsSubmitted {
		t.Fatalf("unexpected flags %+v", status)
	}
	if status.UpdatedAt == nil || !status.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("expected update timestamp, got %v", status.UpdatedAt)
	}
}

func TestMirrorAccountStatusWithoutMatchingUser(t *testing.T) {
	store := accountStore()
	uc := NewAccountStatusUseCase(store)

	outcome := uc.Mirror(context.Background(), model.AccountUpdated{AccountID: "acct_unknown", ChargesEnabled: true})
	if outcome.Kind != OutcomeSkipped {
		t.Fatalf("expected skipped outcome, got %+v", outcome)
	}
	if store.AccountWrites != 0 {
		t.Fatalf("expected no writes, got %d", store.AccountWrites)
	}
}

func TestMirrorAccountStatusFailures(t *testing.T) {
	store := accountStore()
	uc := NewAccountStatusUseCase(store)

	if outcome := uc.Mirror(context.Background(), model.AccountUpdated{}); outcome.Kind != OutcomeSkipped {
		t.Fatalf("expected empty account id to be skipped, got %+v", outcome)
	}

	store.UpdateUserErr = errors.New("write failed")
	if outcome := uc.Mirror(context.Background(), model.AccountUpdated{AccountID: "acct_1"}); outcome.Kind != OutcomeFailed {
		t.Fatalf("expected failed outcome on write error, got %+v", outcome)
	}

	store.UpdateUserErr = nil
	store.UserReadErr = errors.New("read failed")
	if outcome := uc.Mirror(context.Background(), model.AccountUpdated{AccountID: "acct_1"}); outcome.Kind != OutcomeFailed {
		t.Fatalf("expected failed outcome on read error, got %+v", outcome)
	}
}
