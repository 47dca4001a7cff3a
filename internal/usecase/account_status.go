package usecase

import (
	"context"
	"errors"
	"time"

	domainErrors "github.com/tilvo/tasko/internal/domain/errors"
	"github.com/tilvo/tasko/internal/domain/model"
	"github.com/tilvo/tasko/internal/domain/repository"
)

// AccountStatusUseCase mirrors connected-account capability flags.
type AccountStatusUseCase struct {
	users repository.UserRepository
	now   func() time.Time
}

// NewAccountStatusUseCase constructs AccountStatusUseCase.
func NewAccountStatusUseCase(users repository.UserRepository) *AccountStatusUseCase {
	return &AccountStatusUseCase{
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Mirror overwrites the flags on the profile owning the account.
func (u *AccountStatusUseCase) Mirror(ctx context.Context, event model.AccountUpdated) Outcome {
	if event.AccountID == "" {
		return Skipped("account event without account id")
	}

	user, err := u.users.FindByStripeAccountID(ctx, event.AccountID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return Skipped("no user for account " + event.AccountID)
		}
		return Failed("find user for account "+event.AccountID, err)
	}

	now := u.now()
	status := model.AccountStatus{
		ChargesEnabled:   event.ChargesEnabled,
		PayoutsEnabled:   event.PayoutsEnabled,
		DetailsSubmitted: event.DetailsSubmitted,
		UpdatedAt:        &now,
	}
	if err := u.users.UpdateAccountStatus(ctx, user.ID, status); err != nil {
		return Failed("update account status for user "+user.ID, err)
	}
	return Applied("account status mirrored to user " + user.ID)
}
