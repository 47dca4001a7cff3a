package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tilvo/tasko/internal/domain/model"
)

// claimLease is how long a claimed notification stays invisible to other workers.
const claimLease = 5 * time.Minute

func (r *notificationRepository) ClaimPending(ctx context.Context, limit int) ([]model.Notification, error) {
	const selectQuery = `SELECT id, kind, recipient, subject, body, status, attempts, last_error, created_at, sent_at
                         FROM notifications
                         WHERE status = $1 OR (status = $2 AND updated_at < $3)
                         ORDER BY created_at
                         LIMIT $4
                         FOR UPDATE SKIP LOCKED`
	const claimQuery = `UPDATE notifications SET status=$1, updated_at=NOW() WHERE id = ANY($2)`

	var claimed []model.Notification
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		claimed = nil
		staleBefore := time.Now().Add(-claimLease)
		rows, err := tx.Query(ctx, selectQuery, model.NotificationStatusPending, model.NotificationStatusSending, staleBefore, limit)
		if err != nil {
			return err
		}

		for rows.Next() {
			var n model.Notification
			if err := rows.Scan(&n.ID, &n.Kind, &n.Recipient, &n.Subject, &n.Body, &n.Status, &n.Attempts,
				&n.LastError, &n.CreatedAt, &n.SentAt); err != nil {
				rows.Close()
				return err
			}
			n.Status = model.NotificationStatusSending
			claimed = append(claimed, n)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(claimed) == 0 {
			return nil
		}

		ids := make([]string, 0, len(claimed))
		for _, n := range claimed {
			ids = append(ids, n.ID)
		}
		_, err = tx.Exec(ctx, claimQuery, model.NotificationStatusSending, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *notificationRepository) MarkSent(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE notifications SET status=$1, sent_at=$2, last_error=NULL, updated_at=$2 WHERE id=$3`
	_, err := r.storage.pool.Exec(ctx, query, model.NotificationStatusSent, at, id)
	return err
}

// MarkFailed records a delivery error and parks the notification once maxAttempts is reached.
func (r *notificationRepository) MarkFailed(ctx context.Context, id string, reason string, maxAttempts int) error {
	const query = `UPDATE notifications
                   SET attempts = attempts + 1,
                       last_error = $1,
                       status = CASE WHEN attempts + 1 >= $2 THEN $3 ELSE $4 END,
                       updated_at = NOW()
                   WHERE id = $5`
	_, err := r.storage.pool.Exec(ctx, query, reason, maxAttempts, model.NotificationStatusFailed, model.NotificationStatusPending, id)
	return err
}
