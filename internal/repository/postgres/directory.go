package postgres

import (
	"context"
	"database/sql"

	"whistlebox/internal/model"
)

func scanContext(rows *sql.Rows) (model.Context, error) {
	var c model.Context
	err := rows.Scan(&c.ID, &c.Name, &c.TipTimeToLiveDays, &c.EnableComments, &c.EnableMessages, &c.CreatedAt)
	return c, err
}

// GetContext fetches one context by id.
func (t *Tx) GetContext(ctx context.Context, id string) (*model.Context, error) {
	const q = `
		SELECT id, name, tip_timetolive, enable_comments, enable_messages, created_at
		FROM contexts
		WHERE id = $1
	`
	return scanOne(ctx, t.tx, scanContext, q, id)
}

// SaveContext inserts or replaces a context row.
func (t *Tx) SaveContext(ctx context.Context, c *model.Context) error {
	const q = `
		INSERT INTO contexts (id, name, tip_timetolive, enable_comments, enable_messages, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			tip_timetolive = EXCLUDED.tip_timetolive,
			enable_comments = EXCLUDED.enable_comments,
			enable_messages = EXCLUDED.enable_messages
	`
	_, err := t.exec(ctx, q, c.ID, c.Name, c.TipTimeToLiveDays, c.EnableComments, c.EnableMessages, c.CreatedAt)
	return err
}

func scanReceiver(rows *sql.Rows) (model.Receiver, error) {
	var r model.Receiver
	err := rows.Scan(&r.ID, &r.Name, &r.Level, &r.CanDeleteSubmission, &r.CanPostponeExpiration, &r.CreatedAt)
	return r, err
}

// GetReceiver fetches one receiver by id.
func (t *Tx) GetReceiver(ctx context.Context, id string) (*model.Receiver, error) {
	const q = `
		SELECT id, name, level, can_delete_submission, can_postpone_expiration, created_at
		FROM receivers
		WHERE id = $1
	`
	return scanOne(ctx, t.tx, scanReceiver, q, id)
}

// SaveReceiver inserts or replaces a receiver row.
func (t *Tx) SaveReceiver(ctx context.Context, r *model.Receiver) error {
	const q = `
		INSERT INTO receivers (id, name, level, can_delete_submission, can_postpone_expiration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			level = EXCLUDED.level,
			can_delete_submission = EXCLUDED.can_delete_submission,
			can_postpone_expiration = EXCLUDED.can_postpone_expiration
	`
	_, err := t.exec(ctx, q, r.ID, r.Name, r.Level, r.CanDeleteSubmission, r.CanPostponeExpiration, r.CreatedAt)
	return err
}
