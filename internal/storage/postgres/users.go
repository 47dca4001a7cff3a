package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/tilvo/tasko/internal/domain/errors"
	"github.com/tilvo/tasko/internal/domain/model"
)

const userColumns = `id, email, first_name, last_name, street, postal_code, city, country,
       stripe_account_id, stripe_customer_id, charges_enabled, payouts_enabled, details_submitted,
       stripe_account_updated_at, addresses, payment_methods, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u              model.User
		addresses      []byte
		paymentMethods []byte
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Personal.FirstName, &u.Personal.LastName, &u.Personal.Street,
		&u.Personal.PostalCode, &u.Personal.City, &u.Personal.Country,
		&u.StripeAccountID, &u.StripeCustomerID, &u.Account.ChargesEnabled, &u.Account.PayoutsEnabled,
		&u.Account.DetailsSubmitted, &u.Account.UpdatedAt, &addresses, &paymentMethods, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	if err := decodeJSONB(addresses, &u.Addresses); err != nil {
		return nil, fmt.Errorf("decode addresses: %w", err)
	}
	if err := decodeJSONB(paymentMethods, &u.PaymentMethods); err != nil {
		return nil, fmt.Errorf("decode payment methods: %w", err)
	}
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(r.storage.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *userRepository) FindByStripeAccountID(ctx context.Context, accountID string) (*model.User, error) {
	return scanUser(r.storage.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE stripe_account_id=$1 LIMIT 1`, accountID))
}

func (r *userRepository) UpdatePaymentMethods(ctx context.Context, userID string, methods []model.SavedPaymentMethod, at time.Time) error {
	const query = `UPDATE users SET payment_methods=$1, updated_at=$2 WHERE id=$3`

	encoded, err := jsonb(methods, "[]")
	if err != nil {
		return fmt.Errorf("encode payment methods: %w", err)
	}

	tag, err := r.storage.pool.Exec(ctx, query, encoded, at, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *userRepository) UpdateAccountStatus(ctx context.Context, userID string, status model.AccountStatus) error {
	const query = `UPDATE users SET charges_enabled=$1, payouts_enabled=$2, details_submitted=$3,
                   stripe_account_updated_at=$4, updated_at=NOW() WHERE id=$5`

	tag, err := r.storage.pool.Exec(ctx, query, status.ChargesEnabled, status.PayoutsEnabled,
		status.DetailsSubmitted, status.UpdatedAt, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}
