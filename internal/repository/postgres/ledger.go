package postgres

import (
	"context"
	"database/sql"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

const commentColumns = `id, internaltip_id, created_at, source, author_id, content, notification_mark`

func scanComment(rows *sql.Rows) (model.Comment, error) {
	var (
		c      model.Comment
		author sql.NullString
	)
	err := rows.Scan(&c.ID, &c.InternalTipID, &c.CreatedAt, &c.Source, &author, &c.Content, &c.NotificationMark)
	c.AuthorID = author.String
	return c, err
}

func (t *Tx) CreateComment(ctx context.Context, c *model.Comment) error {
	const q = `
		INSERT INTO comments (` + commentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	author := sql.NullString{String: c.AuthorID, Valid: c.AuthorID != ""}
	_, err := t.exec(ctx, q, c.ID, c.InternalTipID, c.CreatedAt, c.Source, author, c.Content, c.NotificationMark)
	return err
}

func (t *Tx) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	const q = `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	return scanOne(ctx, t.tx, scanComment, q, id)
}

func (t *Tx) ListComments(ctx context.Context, f repository.CommentFilter) ([]model.Comment, error) {
	var w where
	if f.InternalTipID != "" {
		w.add("internaltip_id = $%d", f.InternalTipID)
	}
	if f.Mark != "" {
		w.add("notification_mark = $%d", f.Mark)
	}
	q := `SELECT ` + commentColumns + ` FROM comments` + w.String() + ` ORDER BY created_at, id`
	return scanAll(ctx, t.tx, scanComment, q, w.args...)
}

func (t *Tx) UpdateCommentMark(ctx context.Context, id string, mark model.NotificationMark) (int64, error) {
	return t.exec(ctx, `UPDATE comments SET notification_mark = $2 WHERE id = $1`, id, mark)
}

func (t *Tx) DeleteComments(ctx context.Context, internalTipID string) (int64, error) {
	return t.exec(ctx, `DELETE FROM comments WHERE internaltip_id = $1`, internalTipID)
}

const messageColumns = `id, receivertip_id, internaltip_id, created_at, source, content, notification_mark`

func scanMessage(rows *sql.Rows) (model.Message, error) {
	var m model.Message
	err := rows.Scan(&m.ID, &m.ReceiverTipID, &m.InternalTipID, &m.CreatedAt, &m.Source, &m.Content, &m.NotificationMark)
	return m, err
}

func (t *Tx) CreateMessage(ctx context.Context, m *model.Message) error {
	const q = `
		INSERT INTO messages (` + messageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := t.exec(ctx, q, m.ID, m.ReceiverTipID, m.InternalTipID, m.CreatedAt, m.Source, m.Content, m.NotificationMark)
	return err
}

func (t *Tx) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	const q = `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	return scanOne(ctx, t.tx, scanMessage, q, id)
}

func messageWhere(f repository.MessageFilter, withMark bool) *where {
	w := &where{}
	if f.InternalTipID != "" {
		w.add("internaltip_id = $%d", f.InternalTipID)
	}
	if f.ReceiverTipID != "" {
		w.add("receivertip_id = $%d", f.ReceiverTipID)
	}
	if withMark && f.Mark != "" {
		w.add("notification_mark = $%d", f.Mark)
	}
	return w
}

func (t *Tx) ListMessages(ctx context.Context, f repository.MessageFilter) ([]model.Message, error) {
	w := messageWhere(f, true)
	q := `SELECT ` + messageColumns + ` FROM messages` + w.String() + ` ORDER BY created_at, id`
	return scanAll(ctx, t.tx, scanMessage, q, w.args...)
}

func (t *Tx) UpdateMessageMark(ctx context.Context, id string, mark model.NotificationMark) (int64, error) {
	return t.exec(ctx, `UPDATE messages SET notification_mark = $2 WHERE id = $1`, id, mark)
}

func (t *Tx) DeleteMessages(ctx context.Context, f repository.MessageFilter) (int64, error) {
	if f.InternalTipID == "" && f.ReceiverTipID == "" {
		return 0, repository.ErrEmptyFilter
	}
	w := messageWhere(f, false)
	return t.exec(ctx, `DELETE FROM messages`+w.String(), w.args...)
}

func scanSecureFileDelete(rows *sql.Rows) (model.SecureFileDelete, error) {
	var d model.SecureFileDelete
	err := rows.Scan(&d.ID, &d.StorageKey, &d.CreatedAt)
	return d, err
}

func (t *Tx) CreateSecureFileDelete(ctx context.Context, d *model.SecureFileDelete) error {
	const q = `INSERT INTO securefiledeletes (id, storage_key, created_at) VALUES ($1, $2, $3)`
	_, err := t.exec(ctx, q, d.ID, d.StorageKey, d.CreatedAt)
	return err
}

// ListSecureFileDeletes returns the oldest pending records first. Rows locked
// by a concurrent drain are skipped.
func (t *Tx) ListSecureFileDeletes(ctx context.Context, limit int) ([]model.SecureFileDelete, error) {
	const q = `
		SELECT id, storage_key, created_at
		FROM securefiledeletes
		ORDER BY created_at, id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	return scanAll(ctx, t.tx, scanSecureFileDelete, q, limit)
}

func (t *Tx) DeleteSecureFileDelete(ctx context.Context, id string) (int64, error) {
	return t.exec(ctx, `DELETE FROM securefiledeletes WHERE id = $1`, id)
}

// Counts returns row counts for every entity table in one round trip.
func (t *Tx) Counts(ctx context.Context) (model.Counts, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM internaltips),
			(SELECT COUNT(*) FROM receivertips),
			(SELECT COUNT(*) FROM whistleblowertips),
			(SELECT COUNT(*) FROM files),
			(SELECT COUNT(*) FROM receiverfiles),
			(SELECT COUNT(*) FROM comments),
			(SELECT COUNT(*) FROM messages),
			(SELECT COUNT(*) FROM securefiledeletes)
	`
	var c model.Counts
	err := t.tx.QueryRowContext(ctx, q).Scan(
		&c.InternalTips,
		&c.ReceiverTips,
		&c.WhistleblowerTips,
		&c.Files,
		&c.ReceiverFiles,
		&c.Comments,
		&c.Messages,
		&c.SecureFileDeletes,
	)
	return c, err
}
