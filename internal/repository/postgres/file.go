package postgres

import (
	"context"
	"database/sql"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

const fileColumns = `id, internaltip_id, name, checksum, size, content_type, description, mark,
	completed, metadata_cleaned, uploaded_at, storage_key`

func scanFile(rows *sql.Rows) (model.File, error) {
	var f model.File
	err := rows.Scan(
		&f.ID,
		&f.InternalTipID,
		&f.Name,
		&f.Checksum,
		&f.Size,
		&f.ContentType,
		&f.Description,
		&f.Mark,
		&f.Completed,
		&f.MetadataCleaned,
		&f.UploadedAt,
		&f.StorageKey,
	)
	return f, err
}

func (t *Tx) CreateFile(ctx context.Context, f *model.File) error {
	const q = `
		INSERT INTO files (` + fileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := t.exec(ctx, q,
		f.ID,
		f.InternalTipID,
		f.Name,
		f.Checksum,
		f.Size,
		f.ContentType,
		f.Description,
		f.Mark,
		f.Completed,
		f.MetadataCleaned,
		f.UploadedAt,
		f.StorageKey,
	)
	return err
}

func (t *Tx) GetFile(ctx context.Context, id string) (*model.File, error) {
	const q = `SELECT ` + fileColumns + ` FROM files WHERE id = $1 FOR UPDATE`
	return scanOne(ctx, t.tx, scanFile, q, id)
}

func (t *Tx) ListFiles(ctx context.Context, f repository.FileFilter) ([]model.File, error) {
	var w where
	if f.InternalTipID != "" {
		w.add("internaltip_id = $%d", f.InternalTipID)
	}
	if f.Mark != "" {
		w.add("mark = $%d", f.Mark)
	}
	q := `SELECT ` + fileColumns + ` FROM files` + w.String() + ` ORDER BY uploaded_at, id`
	return scanAll(ctx, t.tx, scanFile, q, w.args...)
}

// UpdateFile persists processing state. Name, checksum and content are fixed
// at registration.
func (t *Tx) UpdateFile(ctx context.Context, f *model.File) error {
	const q = `
		UPDATE files
		SET mark = $2, completed = $3, metadata_cleaned = $4, description = $5
		WHERE id = $1
	`
	return t.execOne(ctx, q, f.ID, f.Mark, f.Completed, f.MetadataCleaned, f.Description)
}

func (t *Tx) DeleteFiles(ctx context.Context, internalTipID string) (int64, error) {
	return t.exec(ctx, `DELETE FROM files WHERE internaltip_id = $1`, internalTipID)
}

const receiverFileColumns = `id, file_id, receivertip_id, internaltip_id, status, downloads, last_access,
	created_at, storage_key`

func scanReceiverFile(rows *sql.Rows) (model.ReceiverFile, error) {
	var rf model.ReceiverFile
	err := rows.Scan(
		&rf.ID,
		&rf.FileID,
		&rf.ReceiverTipID,
		&rf.InternalTipID,
		&rf.Status,
		&rf.Downloads,
		&rf.LastAccess,
		&rf.CreatedAt,
		&rf.StorageKey,
	)
	return rf, err
}

func (t *Tx) CreateReceiverFile(ctx context.Context, rf *model.ReceiverFile) error {
	const q = `
		INSERT INTO receiverfiles (` + receiverFileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := t.exec(ctx, q,
		rf.ID,
		rf.FileID,
		rf.ReceiverTipID,
		rf.InternalTipID,
		rf.Status,
		rf.Downloads,
		rf.LastAccess,
		rf.CreatedAt,
		rf.StorageKey,
	)
	return err
}

func (t *Tx) GetReceiverFile(ctx context.Context, id string) (*model.ReceiverFile, error) {
	const q = `SELECT ` + receiverFileColumns + ` FROM receiverfiles WHERE id = $1 FOR UPDATE`
	return scanOne(ctx, t.tx, scanReceiverFile, q, id)
}

func receiverFileWhere(f repository.ReceiverFileFilter) *where {
	w := &where{}
	if f.InternalTipID != "" {
		w.add("internaltip_id = $%d", f.InternalTipID)
	}
	if f.ReceiverTipID != "" {
		w.add("receivertip_id = $%d", f.ReceiverTipID)
	}
	if f.FileID != "" {
		w.add("file_id = $%d", f.FileID)
	}
	return w
}

func (t *Tx) ListReceiverFiles(ctx context.Context, f repository.ReceiverFileFilter) ([]model.ReceiverFile, error) {
	w := receiverFileWhere(f)
	q := `SELECT ` + receiverFileColumns + ` FROM receiverfiles` + w.String() + ` ORDER BY created_at, id`
	return scanAll(ctx, t.tx, scanReceiverFile, q, w.args...)
}

func (t *Tx) UpdateReceiverFile(ctx context.Context, rf *model.ReceiverFile) error {
	const q = `UPDATE receiverfiles SET status = $2, downloads = $3, last_access = $4 WHERE id = $1`
	return t.execOne(ctx, q, rf.ID, rf.Status, rf.Downloads, rf.LastAccess)
}

func (t *Tx) DeleteReceiverFiles(ctx context.Context, f repository.ReceiverFileFilter) (int64, error) {
	if f.Empty() {
		return 0, repository.ErrEmptyFilter
	}
	w := receiverFileWhere(f)
	return t.exec(ctx, `DELETE FROM receiverfiles`+w.String(), w.args...)
}
