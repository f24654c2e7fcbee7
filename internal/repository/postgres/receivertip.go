package postgres

import (
	"context"
	"database/sql"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

const receiverTipColumns = `id, internaltip_id, receiver_id, access_counter, last_access, notification_mark,
	notification_date, expressed_pertinence, auth_options, label, enable_notifications, created_at`

func scanReceiverTip(rows *sql.Rows) (model.ReceiverTip, error) {
	var rt model.ReceiverTip
	err := rows.Scan(
		&rt.ID,
		&rt.InternalTipID,
		&rt.ReceiverID,
		&rt.AccessCounter,
		&rt.LastAccess,
		&rt.NotificationMark,
		&rt.NotificationDate,
		&rt.ExpressedPertinence,
		&rt.AuthOptions,
		&rt.Label,
		&rt.EnableNotifications,
		&rt.CreatedAt,
	)
	return rt, err
}

func (t *Tx) CreateReceiverTip(ctx context.Context, rt *model.ReceiverTip) error {
	const q = `
		INSERT INTO receivertips (` + receiverTipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := t.exec(ctx, q,
		rt.ID,
		rt.InternalTipID,
		rt.ReceiverID,
		rt.AccessCounter,
		rt.LastAccess,
		rt.NotificationMark,
		rt.NotificationDate,
		rt.ExpressedPertinence,
		rt.AuthOptions,
		rt.Label,
		rt.EnableNotifications,
		rt.CreatedAt,
	)
	return err
}

// GetReceiverTip fetches and locks one receiver tip.
func (t *Tx) GetReceiverTip(ctx context.Context, id string) (*model.ReceiverTip, error) {
	const q = `SELECT ` + receiverTipColumns + ` FROM receivertips WHERE id = $1 FOR UPDATE`
	return scanOne(ctx, t.tx, scanReceiverTip, q, id)
}

func (t *Tx) ReceiverTipParent(ctx context.Context, id string) (string, error) {
	const q = `SELECT internaltip_id FROM receivertips WHERE id = $1`
	return t.parentID(ctx, q, id)
}

func (t *Tx) ListReceiverTips(ctx context.Context, f repository.ReceiverTipFilter) ([]model.ReceiverTip, error) {
	var w where
	if f.InternalTipID != "" {
		w.add("internaltip_id = $%d", f.InternalTipID)
	}
	if f.ReceiverID != "" {
		w.add("receiver_id = $%d", f.ReceiverID)
	}
	if f.Mark != "" {
		w.add("notification_mark = $%d", f.Mark)
	}
	q := `SELECT ` + receiverTipColumns + ` FROM receivertips` + w.String() + ` ORDER BY created_at, id`
	return scanAll(ctx, t.tx, scanReceiverTip, q, w.args...)
}

// UpdateReceiverTip persists the mutable fields of a receiver tip.
func (t *Tx) UpdateReceiverTip(ctx context.Context, rt *model.ReceiverTip) error {
	const q = `
		UPDATE receivertips
		SET access_counter = $2, last_access = $3, notification_mark = $4, notification_date = $5,
			expressed_pertinence = $6, auth_options = $7, label = $8, enable_notifications = $9
		WHERE id = $1
	`
	return t.execOne(ctx, q,
		rt.ID,
		rt.AccessCounter,
		rt.LastAccess,
		rt.NotificationMark,
		rt.NotificationDate,
		rt.ExpressedPertinence,
		rt.AuthOptions,
		rt.Label,
		rt.EnableNotifications,
	)
}

func (t *Tx) DeleteReceiverTip(ctx context.Context, id string) (int64, error) {
	return t.exec(ctx, `DELETE FROM receivertips WHERE id = $1`, id)
}

func (t *Tx) DeleteReceiverTips(ctx context.Context, internalTipID string) (int64, error) {
	return t.exec(ctx, `DELETE FROM receivertips WHERE internaltip_id = $1`, internalTipID)
}

// TallyPertinence counts positive and negative votes among the receiver tips
// of one internal tip. Unexpressed tips are excluded by the filter itself.
func (t *Tx) TallyPertinence(ctx context.Context, internalTipID string) (int, int, error) {
	const q = `
		SELECT
			COUNT(*) FILTER (WHERE expressed_pertinence = $2),
			COUNT(*) FILTER (WHERE expressed_pertinence = $3)
		FROM receivertips
		WHERE internaltip_id = $1 AND expressed_pertinence <> $4
	`
	var pos, neg int
	err := t.tx.QueryRowContext(ctx, q,
		internalTipID,
		model.PertinencePositive,
		model.PertinenceNegative,
		model.PertinenceUnexpressed,
	).Scan(&pos, &neg)
	return pos, neg, err
}
