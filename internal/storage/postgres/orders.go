package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/tilvo/tasko/internal/domain/errors"
	"github.com/tilvo/tasko/internal/domain/model"
	"github.com/tilvo/tasko/internal/domain/repository"
)

const draftColumns = `id, customer_id, category, subcategory, description, street, postal_code, city,
       preferred_date, time_preference, provider_id, price_in_cents, provider_stripe_account_id,
       details, status, converted_to_order_id, created_at, updated_at`

type conversionTx struct {
	tx pgx.Tx
}

// RunConversion executes fn in a serializable transaction, replaying it on conflicts.
func (r *orderRepository) RunConversion(ctx context.Context, fn func(tx repository.ConversionTx) error) error {
	return r.storage.WithinSerializable(ctx, func(tx pgx.Tx) error {
		return fn(&conversionTx{tx: tx})
	})
}

func (c *conversionTx) DraftForUpdate(ctx context.Context, draftID string) (*model.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM temporary_job_drafts WHERE id=$1 FOR UPDATE`

	var (
		d       model.Draft
		details []byte
	)
	err := c.tx.QueryRow(ctx, query, draftID).Scan(
		&d.ID, &d.CustomerID, &d.Category, &d.Subcategory, &d.Description, &d.Street, &d.PostalCode, &d.City,
		&d.PreferredDate, &d.TimePreference, &d.ProviderID, &d.PriceInCents, &d.ProviderStripeAccountID,
		&details, &d.Status, &d.ConvertedToOrderID, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	if err := decodeJSONB(details, &d.Details); err != nil {
		return nil, fmt.Errorf("decode draft details: %w", err)
	}
	return &d, nil
}

func (c *conversionTx) UserForUpdate(ctx context.Context, userID string) (*model.User, error) {
	return scanUser(c.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1 FOR UPDATE`, userID))
}

func (c *conversionTx) InsertOrder(ctx context.Context, o *model.Order) error {
	const query = `INSERT INTO orders (
            id, draft_id, customer_id, category, subcategory, description, street, postal_code, city,
            preferred_date, time_preference, provider_id, price_in_cents, provider_stripe_account_id, details,
            payment_intent_id, currency, amount_paid_in_cents, payment_method_id, stripe_customer_id,
            original_price_in_cents, buyer_service_fee_in_cents, seller_commission_in_cents, total_platform_fee_in_cents,
            status, paid_at, clearing_period_ends_at, buyer_approved_at, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
            $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`

	details, err := jsonb(o.Details, "{}")
	if err != nil {
		return fmt.Errorf("encode order details: %w", err)
	}

	_, err = c.tx.Exec(ctx, query,
		o.ID, o.DraftID, o.CustomerID, o.Category, o.Subcategory, o.Description, o.Street, o.PostalCode, o.City,
		o.PreferredDate, o.TimePreference, o.ProviderID, o.PriceInCents, o.ProviderStripeAccountID, details,
		o.PaymentIntentID, o.Currency, o.AmountPaidInCents, o.PaymentMethodID, o.StripeCustomerID,
		o.Fees.OriginalPriceInCents, o.Fees.BuyerServiceFeeInCents, o.Fees.SellerCommissionInCents, o.Fees.TotalPlatformFeeInCents,
		o.Status, o.PaidAt, o.ClearingPeriodEndsAt, o.BuyerApprovedAt, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (c *conversionTx) MarkDraftConverted(ctx context.Context, draftID, orderID string, at time.Time) error {
	const query = `UPDATE temporary_job_drafts SET status=$1, converted_to_order_id=$2, updated_at=$3 WHERE id=$4`
	tag, err := c.tx.Exec(ctx, query, model.DraftStatusConverted, orderID, at, draftID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (c *conversionTx) SaveAddressBook(ctx context.Context, userID string, addresses []model.Address, personal model.PersonalDetails, at time.Time) error {
	const query = `UPDATE users SET addresses=$1, first_name=$2, last_name=$3, street=$4, postal_code=$5,
                   city=$6, country=$7, updated_at=$8 WHERE id=$9`

	encoded, err := jsonb(addresses, "[]")
	if err != nil {
		return fmt.Errorf("encode addresses: %w", err)
	}

	_, err = c.tx.Exec(ctx, query, encoded, personal.FirstName, personal.LastName, personal.Street,
		personal.PostalCode, personal.City, personal.Country, at, userID)
	return err
}

func (c *conversionTx) EnqueueNotification(ctx context.Context, n *model.Notification) error {
	const query = `INSERT INTO notifications (id, kind, recipient, subject, body, status, attempts, created_at, updated_at)
                   VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $7)`
	_, err := c.tx.Exec(ctx, query, n.ID, n.Kind, n.Recipient, n.Subject, n.Body, n.Status, n.CreatedAt)
	return err
}

// Savepoint scopes fn so that a failure rolls back only its own writes.
func (c *conversionTx) Savepoint(ctx context.Context, name string, fn func() error) error {
	ident := pgx.Identifier{name}.Sanitize()
	if _, err := c.tx.Exec(ctx, "SAVEPOINT "+ident); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}

	if err := fn(); err != nil {
		if _, rbErr := c.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+ident); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rbErr))
		}
		return err
	}

	if _, err := c.tx.Exec(ctx, "RELEASE SAVEPOINT "+ident); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}
