package postgres

import (
	"context"
	"database/sql"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

func scanWhistleblowerTip(rows *sql.Rows) (model.WhistleblowerTip, error) {
	var wt model.WhistleblowerTip
	err := rows.Scan(&wt.ReceiptHash, &wt.InternalTipID, &wt.LastAccess, &wt.AuthOptions, &wt.CreatedAt)
	return wt, err
}

// CreateWhistleblowerTip inserts the row unless the receipt hash is taken.
// A collision is reported as repository.ErrDuplicateKey without aborting tx.
func (t *Tx) CreateWhistleblowerTip(ctx context.Context, wt *model.WhistleblowerTip) error {
	const q = `
		INSERT INTO whistleblowertips (receipt_hash, internaltip_id, last_access, auth_options, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (receipt_hash) DO NOTHING
	`
	n, err := t.exec(ctx, q, wt.ReceiptHash, wt.InternalTipID, wt.LastAccess, wt.AuthOptions, wt.CreatedAt)
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrDuplicateKey
	}
	return nil
}

// GetWhistleblowerTip fetches and locks the tip keyed by a receipt hash.
func (t *Tx) GetWhistleblowerTip(ctx context.Context, receiptHash string) (*model.WhistleblowerTip, error) {
	const q = `
		SELECT receipt_hash, internaltip_id, last_access, auth_options, created_at
		FROM whistleblowertips
		WHERE receipt_hash = $1
		FOR UPDATE
	`
	return scanOne(ctx, t.tx, scanWhistleblowerTip, q, receiptHash)
}

func (t *Tx) WhistleblowerTipParent(ctx context.Context, receiptHash string) (string, error) {
	const q = `SELECT internaltip_id FROM whistleblowertips WHERE receipt_hash = $1`
	return t.parentID(ctx, q, receiptHash)
}

func (t *Tx) ListWhistleblowerTips(ctx context.Context, f repository.WhistleblowerTipFilter) ([]model.WhistleblowerTip, error) {
	var w where
	if f.InternalTipID != "" {
		w.add("w.internaltip_id = $%d", f.InternalTipID)
	}
	if f.InactiveBefore != nil {
		w.add("i.wb_last_access < $%d", *f.InactiveBefore)
	}
	q := `
		SELECT w.receipt_hash, w.internaltip_id, w.last_access, w.auth_options, w.created_at
		FROM whistleblowertips w
		JOIN internaltips i ON i.id = w.internaltip_id` + w.String() + `
		ORDER BY w.created_at, w.internaltip_id`
	return scanAll(ctx, t.tx, scanWhistleblowerTip, q, w.args...)
}

func (t *Tx) UpdateWhistleblowerTip(ctx context.Context, wt *model.WhistleblowerTip) error {
	const q = `UPDATE whistleblowertips SET last_access = $2, auth_options = $3 WHERE receipt_hash = $1`
	return t.execOne(ctx, q, wt.ReceiptHash, wt.LastAccess, wt.AuthOptions)
}

func (t *Tx) DeleteWhistleblowerTip(ctx context.Context, receiptHash string) (int64, error) {
	return t.exec(ctx, `DELETE FROM whistleblowertips WHERE receipt_hash = $1`, receiptHash)
}

func (t *Tx) DeleteWhistleblowerTips(ctx context.Context, internalTipID string) (int64, error) {
	return t.exec(ctx, `DELETE FROM whistleblowertips WHERE internaltip_id = $1`, internalTipID)
}
