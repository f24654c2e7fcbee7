package postgres

import (
	"context"
	"database/sql"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

const internalTipColumns = `id, context_id, created_at, expiration_date, wb_last_access, receivers, answers, total_score, pertinence, new`

func scanInternalTip(rows *sql.Rows) (model.InternalTip, error) {
	var (
		it      model.InternalTip
		answers []byte
	)
	err := rows.Scan(
		&it.ID,
		&it.ContextID,
		&it.CreatedAt,
		&it.ExpirationDate,
		&it.WBLastAccess,
		&it.Receivers,
		&answers,
		&it.TotalScore,
		&it.PertinenceScore,
		&it.New,
	)
	if len(answers) > 0 {
		it.Answers = answers
	}
	return it, err
}

func (t *Tx) CreateInternalTip(ctx context.Context, it *model.InternalTip) error {
	const q = `
		INSERT INTO internaltips (` + internalTipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	var answers any
	if len(it.Answers) > 0 {
		answers = []byte(it.Answers)
	}
	_, err := t.exec(ctx, q,
		it.ID,
		it.ContextID,
		it.CreatedAt,
		it.ExpirationDate,
		it.WBLastAccess,
		it.Receivers,
		answers,
		it.TotalScore,
		it.PertinenceScore,
		it.New,
	)
	return err
}

// GetInternalTip fetches and locks one internal tip.
func (t *Tx) GetInternalTip(ctx context.Context, id string) (*model.InternalTip, error) {
	const q = `SELECT ` + internalTipColumns + ` FROM internaltips WHERE id = $1 FOR UPDATE`
	return scanOne(ctx, t.tx, scanInternalTip, q, id)
}

func (t *Tx) ListInternalTips(ctx context.Context, f repository.InternalTipFilter) ([]model.InternalTip, error) {
	var w where
	if f.ContextID != "" {
		w.add("context_id = $%d", f.ContextID)
	}
	if f.ExpiredBefore != nil {
		w.add("expiration_date < $%d", *f.ExpiredBefore)
	}
	q := `SELECT ` + internalTipColumns + ` FROM internaltips` + w.String() + ` ORDER BY created_at, id`
	return scanAll(ctx, t.tx, scanInternalTip, q, w.args...)
}

// UpdateInternalTip persists the mutable fields of an internal tip.
func (t *Tx) UpdateInternalTip(ctx context.Context, it *model.InternalTip) error {
	const q = `
		UPDATE internaltips
		SET expiration_date = $2, wb_last_access = $3, total_score = $4, pertinence = $5, new = $6
		WHERE id = $1
	`
	return t.execOne(ctx, q, it.ID, it.ExpirationDate, it.WBLastAccess, it.TotalScore, it.PertinenceScore, it.New)
}

func (t *Tx) DeleteInternalTip(ctx context.Context, id string) (int64, error) {
	return t.exec(ctx, `DELETE FROM internaltips WHERE id = $1`, id)
}
