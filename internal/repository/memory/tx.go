package memory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

// Tx implements repository.Tx on the working copy of a Store. Foreign keys and
// unique keys are enforced the same way the SQL schema enforces them.
type Tx struct {
	t *tables
}

func duplicate(what string) error {
	return fmt.Errorf("%w: %s", repository.ErrDuplicateKey, what)
}

func foreignKey(what string) error {
	return fmt.Errorf("%w: %s", repository.ErrForeignKey, what)
}

func (tx *Tx) GetContext(_ context.Context, id string) (*model.Context, error) {
	c, ok := tx.t.contexts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (tx *Tx) SaveContext(_ context.Context, c *model.Context) error {
	if old, ok := tx.t.contexts[c.ID]; ok {
		c.CreatedAt = old.CreatedAt
	}
	tx.t.contexts[c.ID] = *c
	return nil
}

func (tx *Tx) GetReceiver(_ context.Context, id string) (*model.Receiver, error) {
	r, ok := tx.t.receivers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (tx *Tx) SaveReceiver(_ context.Context, r *model.Receiver) error {
	if old, ok := tx.t.receivers[r.ID]; ok {
		r.CreatedAt = old.CreatedAt
	}
	tx.t.receivers[r.ID] = *r
	return nil
}

func (tx *Tx) CreateInternalTip(_ context.Context, it *model.InternalTip) error {
	if _, ok := tx.t.internalTips[it.ID]; ok {
		return duplicate("internaltips_pkey")
	}
	tx.t.internalTips[it.ID] = copyInternalTip(*it)
	return nil
}

func (tx *Tx) GetInternalTip(_ context.Context, id string) (*model.InternalTip, error) {
	it, ok := tx.t.internalTips[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	it = copyInternalTip(it)
	return &it, nil
}

func (tx *Tx) ListInternalTips(_ context.Context, f repository.InternalTipFilter) ([]model.InternalTip, error) {
	keep := func(it model.InternalTip) bool {
		if f.ContextID != "" && it.ContextID != f.ContextID {
			return false
		}
		if f.ExpiredBefore != nil && !it.ExpirationDate.Before(*f.ExpiredBefore) {
			return false
		}
		return true
	}
	key := func(it model.InternalTip) (time.Time, string) { return it.CreatedAt, it.ID }
	return collect(tx.t.internalTips, keep, key, copyInternalTip), nil
}

func (tx *Tx) UpdateInternalTip(_ context.Context, it *model.InternalTip) error {
	cur, ok := tx.t.internalTips[it.ID]
	if !ok {
		return sql.ErrNoRows
	}
	cur.ExpirationDate = it.ExpirationDate
	cur.WBLastAccess = it.WBLastAccess
	cur.TotalScore = it.TotalScore
	cur.PertinenceScore = it.PertinenceScore
	cur.New = it.New
	tx.t.internalTips[it.ID] = cur
	return nil
}

func (tx *Tx) DeleteInternalTip(_ context.Context, id string) (int64, error) {
	if _, ok := tx.t.internalTips[id]; !ok {
		return 0, nil
	}
	switch {
	case anyWhere(tx.t.receiverTips, func(v model.ReceiverTip) bool { return v.InternalTipID == id }):
		return 0, foreignKey("receivertips_internaltip_id_fkey")
	case anyWhere(tx.t.wbTips, func(v model.WhistleblowerTip) bool { return v.InternalTipID == id }):
		return 0, foreignKey("whistleblowertips_internaltip_id_fkey")
	case anyWhere(tx.t.files, func(v model.File) bool { return v.InternalTipID == id }):
		return 0, foreignKey("files_internaltip_id_fkey")
	case anyWhere(tx.t.receiverFiles, func(v model.ReceiverFile) bool { return v.InternalTipID == id }):
		return 0, foreignKey("receiverfiles_internaltip_id_fkey")
	case anyWhere(tx.t.comments, func(v model.Comment) bool { return v.InternalTipID == id }):
		return 0, foreignKey("comments_internaltip_id_fkey")
	case anyWhere(tx.t.messages, func(v model.Message) bool { return v.InternalTipID == id }):
		return 0, foreignKey("messages_internaltip_id_fkey")
	}
	delete(tx.t.internalTips, id)
	return 1, nil
}

func (tx *Tx) CreateReceiverTip(_ context.Context, rt *model.ReceiverTip) error {
	if _, ok := tx.t.internalTips[rt.InternalTipID]; !ok {
		return foreignKey("receivertips_internaltip_id_fkey")
	}
	if _, ok := tx.t.receiverTips[rt.ID]; ok {
		return duplicate("receivertips_pkey")
	}
	if anyWhere(tx.t.receiverTips, func(v model.ReceiverTip) bool {
		return v.InternalTipID == rt.InternalTipID && v.ReceiverID == rt.ReceiverID
	}) {
		return duplicate("receivertips_internaltip_id_receiver_id_key")
	}
	tx.t.receiverTips[rt.ID] = copyReceiverTip(*rt)
	return nil
}

func (tx *Tx) GetReceiverTip(_ context.Context, id string) (*model.ReceiverTip, error) {
	rt, ok := tx.t.receiverTips[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	rt = copyReceiverTip(rt)
	return &rt, nil
}

func (tx *Tx) ReceiverTipParent(_ context.Context, id string) (string, error) {
	rt, ok := tx.t.receiverTips[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	return rt.InternalTipID, nil
}

func (tx *Tx) ListReceiverTips(_ context.Context, f repository.ReceiverTipFilter) ([]model.ReceiverTip, error) {
	keep := func(rt model.ReceiverTip) bool {
		return (f.InternalTipID == "" || rt.InternalTipID == f.InternalTipID) &&
			(f.ReceiverID == "" || rt.ReceiverID == f.ReceiverID) &&
			(f.Mark == "" || rt.NotificationMark == f.Mark)
	}
	key := func(rt model.ReceiverTip) (time.Time, string) { return rt.CreatedAt, rt.ID }
	return collect(tx.t.receiverTips, keep, key, copyReceiverTip), nil
}

func (tx *Tx) UpdateReceiverTip(_ context.Context, rt *model.ReceiverTip) error {
	cur, ok := tx.t.receiverTips[rt.ID]
	if !ok {
		return sql.ErrNoRows
	}
	cur.AccessCounter = rt.AccessCounter
	cur.LastAccess = copyTime(rt.LastAccess)
	cur.NotificationMark = rt.NotificationMark
	cur.NotificationDate = copyTime(rt.NotificationDate)
	cur.ExpressedPertinence = rt.ExpressedPertinence
	cur.AuthOptions = rt.AuthOptions.Clone()
	cur.Label = rt.Label
	cur.EnableNotifications = rt.EnableNotifications
	tx.t.receiverTips[rt.ID] = cur
	return nil
}

func (tx *Tx) receiverTipReferenced(match func(model.ReceiverTip) bool) error {
	ids := map[string]bool{}
	for id, rt := range tx.t.receiverTips {
		if match(rt) {
			ids[id] = true
		}
	}
	if anyWhere(tx.t.receiverFiles, func(v model.ReceiverFile) bool { return ids[v.ReceiverTipID] }) {
		return foreignKey("receiverfiles_receivertip_id_fkey")
	}
	if anyWhere(tx.t.messages, func(v model.Message) bool { return ids[v.ReceiverTipID] }) {
		return foreignKey("messages_receivertip_id_fkey")
	}
	return nil
}

func (tx *Tx) DeleteReceiverTip(_ context.Context, id string) (int64, error) {
	match := func(v model.ReceiverTip) bool { return v.ID == id }
	if err := tx.receiverTipReferenced(match); err != nil {
		return 0, err
	}
	return deleteWhere(tx.t.receiverTips, match), nil
}

func (tx *Tx) DeleteReceiverTips(_ context.Context, internalTipID string) (int64, error) {
	match := func(v model.ReceiverTip) bool { return v.InternalTipID == internalTipID }
	if err := tx.receiverTipReferenced(match); err != nil {
		return 0, err
	}
	return deleteWhere(tx.t.receiverTips, match), nil
}

func (tx *Tx) TallyPertinence(_ context.Context, internalTipID string) (int, int, error) {
	var pos, neg int
	for _, rt := range tx.t.receiverTips {
		if rt.InternalTipID != internalTipID || rt.ExpressedPertinence == model.PertinenceUnexpressed {
			continue
		}
		switch rt.ExpressedPertinence {
		case model.PertinencePositive:
			pos++
		case model.PertinenceNegative:
			neg++
		}
	}
	return pos, neg, nil
}

func (tx *Tx) CreateWhistleblowerTip(_ context.Context, wt *model.WhistleblowerTip) error {
	if _, ok := tx.t.internalTips[wt.InternalTipID]; !ok {
		return foreignKey("whistleblowertips_internaltip_id_fkey")
	}
	if _, ok := tx.t.wbTips[wt.ReceiptHash]; ok {
		return repository.ErrDuplicateKey
	}
	if anyWhere(tx.t.wbTips, func(v model.WhistleblowerTip) bool { return v.InternalTipID == wt.InternalTipID }) {
		return duplicate("whistleblowertips_internaltip_id_key")
	}
	tx.t.wbTips[wt.ReceiptHash] = copyWhistleblowerTip(*wt)
	return nil
}

func (tx *Tx) GetWhistleblowerTip(_ context.Context, receiptHash string) (*model.WhistleblowerTip, error) {
	wt, ok := tx.t.wbTips[receiptHash]
	if !ok {
		return nil, sql.ErrNoRows
	}
	wt = copyWhistleblowerTip(wt)
	return &wt, nil
}

func (tx *Tx) WhistleblowerTipParent(_ context.Context, receiptHash string) (string, error) {
	wt, ok := tx.t.wbTips[receiptHash]
	if !ok {
		return "", sql.ErrNoRows
	}
	return wt.InternalTipID, nil
}

func (tx *Tx) ListWhistleblowerTips(_ context.Context, f repository.WhistleblowerTipFilter) ([]model.WhistleblowerTip, error) {
	keep := func(wt model.WhistleblowerTip) bool {
		if f.InternalTipID != "" && wt.InternalTipID != f.InternalTipID {
			return false
		}
		if f.InactiveBefore != nil {
			it, ok := tx.t.internalTips[wt.InternalTipID]
			if !ok || !it.WBLastAccess.Before(*f.InactiveBefore) {
				return false
			}
		}
		return true
	}
	key := func(wt model.WhistleblowerTip) (time.Time, string) { return wt.CreatedAt, wt.InternalTipID }
	return collect(tx.t.wbTips, keep, key, copyWhistleblowerTip), nil
}

func (tx *Tx) UpdateWhistleblowerTip(_ context.Context, wt *model.WhistleblowerTip) error {
	cur, ok := tx.t.wbTips[wt.ReceiptHash]
	if !ok {
		return sql.ErrNoRows
	}
	cur.LastAccess = copyTime(wt.LastAccess)
	cur.AuthOptions = wt.AuthOptions.Clone()
	tx.t.wbTips[wt.ReceiptHash] = cur
	return nil
}

func (tx *Tx) DeleteWhistleblowerTip(_ context.Context, receiptHash string) (int64, error) {
	return deleteWhere(tx.t.wbTips, func(v model.WhistleblowerTip) bool { return v.ReceiptHash == receiptHash }), nil
}

func (tx *Tx) DeleteWhistleblowerTips(_ context.Context, internalTipID string) (int64, error) {
	return deleteWhere(tx.t.wbTips, func(v model.WhistleblowerTip) bool { return v.InternalTipID == internalTipID }), nil
}

func (tx *Tx) CreateFile(_ context.Context, f *model.File) error {
	if _, ok := tx.t.internalTips[f.InternalTipID]; !ok {
		return foreignKey("files_internaltip_id_fkey")
	}
	if _, ok := tx.t.files[f.ID]; ok {
		return duplicate("files_pkey")
	}
	tx.t.files[f.ID] = *f
	return nil
}

func (tx *Tx) GetFile(_ context.Context, id string) (*model.File, error) {
	f, ok := tx.t.files[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &f, nil
}

func (tx *Tx) ListFiles(_ context.Context, f repository.FileFilter) ([]model.File, error) {
	keep := func(v model.File) bool {
		return (f.InternalTipID == "" || v.InternalTipID == f.InternalTipID) &&
			(f.Mark == "" || v.Mark == f.Mark)
	}
	key := func(v model.File) (time.Time, string) { return v.UploadedAt, v.ID }
	return collect(tx.t.files, keep, key, same[model.File]), nil
}

func (tx *Tx) UpdateFile(_ context.Context, f *model.File) error {
	cur, ok := tx.t.files[f.ID]
	if !ok {
		return sql.ErrNoRows
	}
	cur.Mark = f.Mark
	cur.Completed = f.Completed
	cur.MetadataCleaned = f.MetadataCleaned
	cur.Description = f.Description
	tx.t.files[f.ID] = cur
	return nil
}

func (tx *Tx) DeleteFiles(_ context.Context, internalTipID string) (int64, error) {
	match := func(v model.File) bool { return v.InternalTipID == internalTipID }
	if anyWhere(tx.t.receiverFiles, func(rf model.ReceiverFile) bool {
		f, ok := tx.t.files[rf.FileID]
		return ok && match(f)
	}) {
		return 0, foreignKey("receiverfiles_file_id_fkey")
	}
	return deleteWhere(tx.t.files, match), nil
}

func (tx *Tx) CreateReceiverFile(_ context.Context, rf *model.ReceiverFile) error {
	if _, ok := tx.t.files[rf.FileID]; !ok {
		return foreignKey("receiverfiles_file_id_fkey")
	}
	if _, ok := tx.t.receiverTips[rf.ReceiverTipID]; !ok {
		return foreignKey("receiverfiles_receivertip_id_fkey")
	}
	if _, ok := tx.t.internalTips[rf.InternalTipID]; !ok {
		return foreignKey("receiverfiles_internaltip_id_fkey")
	}
	if _, ok := tx.t.receiverFiles[rf.ID]; ok {
		return duplicate("receiverfiles_pkey")
	}
	if anyWhere(tx.t.receiverFiles, func(v model.ReceiverFile) bool {
		return v.FileID == rf.FileID && v.ReceiverTipID == rf.ReceiverTipID
	}) {
		return duplicate("receiverfiles_file_id_receivertip_id_key")
	}
	tx.t.receiverFiles[rf.ID] = copyReceiverFile(*rf)
	return nil
}

func (tx *Tx) GetReceiverFile(_ context.Context, id string) (*model.ReceiverFile, error) {
	rf, ok := tx.t.receiverFiles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	rf = copyReceiverFile(rf)
	return &rf, nil
}

func matchReceiverFile(f repository.ReceiverFileFilter) func(model.ReceiverFile) bool {
	return func(v model.ReceiverFile) bool {
		return (f.InternalTipID == "" || v.InternalTipID == f.InternalTipID) &&
			(f.ReceiverTipID == "" || v.ReceiverTipID == f.ReceiverTipID) &&
			(f.FileID == "" || v.FileID == f.FileID)
	}
}

func (tx *Tx) ListReceiverFiles(_ context.Context, f repository.ReceiverFileFilter) ([]model.ReceiverFile, error) {
	key := func(v model.ReceiverFile) (time.Time, string) { return v.CreatedAt, v.ID }
	return collect(tx.t.receiverFiles, matchReceiverFile(f), key, copyReceiverFile), nil
}

func (tx *Tx) UpdateReceiverFile(_ context.Context, rf *model.ReceiverFile) error {
	cur, ok := tx.t.receiverFiles[rf.ID]
	if !ok {
		return sql.ErrNoRows
	}
	cur.Status = rf.Status
	cur.Downloads = rf.Downloads
	cur.LastAccess = copyTime(rf.LastAccess)
	tx.t.receiverFiles[rf.ID] = cur
	return nil
}

func (tx *Tx) DeleteReceiverFiles(_ context.Context, f repository.ReceiverFileFilter) (int64, error) {
	if f.Empty() {
		return 0, repository.ErrEmptyFilter
	}
	return deleteWhere(tx.t.receiverFiles, matchReceiverFile(f)), nil
}

func (tx *Tx) CreateComment(_ context.Context, c *model.Comment) error {
	if _, ok := tx.t.internalTips[c.InternalTipID]; !ok {
		return foreignKey("comments_internaltip_id_fkey")
	}
	if _, ok := tx.t.comments[c.ID]; ok {
		return duplicate("comments_pkey")
	}
	tx.t.comments[c.ID] = *c
	return nil
}

func (tx *Tx) GetComment(_ context.Context, id string) (*model.Comment, error) {
	c, ok := tx.t.comments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (tx *Tx) ListComments(_ context.Context, f repository.CommentFilter) ([]model.Comment, error) {
	keep := func(v model.Comment) bool {
		return (f.InternalTipID == "" || v.InternalTipID == f.InternalTipID) &&
			(f.Mark == "" || v.NotificationMark == f.Mark)
	}
	key := func(v model.Comment) (time.Time, string) { return v.CreatedAt, v.ID }
	return collect(tx.t.comments, keep, key, same[model.Comment]), nil
}

func (tx *Tx) UpdateCommentMark(_ context.Context, id string, mark model.NotificationMark) (int64, error) {
	c, ok := tx.t.comments[id]
	if !ok {
		return 0, nil
	}
	c.NotificationMark = mark
	tx.t.comments[id] = c
	return 1, nil
}

func (tx *Tx) DeleteComments(_ context.Context, internalTipID string) (int64, error) {
	return deleteWhere(tx.t.comments, func(v model.Comment) bool { return v.InternalTipID == internalTipID }), nil
}

func (tx *Tx) CreateMessage(_ context.Context, m *model.Message) error {
	if _, ok := tx.t.receiverTips[m.ReceiverTipID]; !ok {
		return foreignKey("messages_receivertip_id_fkey")
	}
	if _, ok := tx.t.internalTips[m.InternalTipID]; !ok {
		return foreignKey("messages_internaltip_id_fkey")
	}
	if _, ok := tx.t.messages[m.ID]; ok {
		return duplicate("messages_pkey")
	}
	tx.t.messages[m.ID] = *m
	return nil
}

func (tx *Tx) GetMessage(_ context.Context, id string) (*model.Message, error) {
	m, ok := tx.t.messages[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &m, nil
}

func matchMessage(f repository.MessageFilter, withMark bool) func(model.Message) bool {
	return func(v model.Message) bool {
		return (f.InternalTipID == "" || v.InternalTipID == f.InternalTipID) &&
			(f.ReceiverTipID == "" || v.ReceiverTipID == f.ReceiverTipID) &&
			(!withMark || f.Mark == "" || v.NotificationMark == f.Mark)
	}
}

func (tx *Tx) ListMessages(_ context.Context, f repository.MessageFilter) ([]model.Message, error) {
	key := func(v model.Message) (time.Time, string) { return v.CreatedAt, v.ID }
	return collect(tx.t.messages, matchMessage(f, true), key, same[model.Message]), nil
}

func (tx *Tx) UpdateMessageMark(_ context.Context, id string, mark model.NotificationMark) (int64, error) {
	m, ok := tx.t.messages[id]
	if !ok {
		return 0, nil
	}
	m.NotificationMark = mark
	tx.t.messages[id] = m
	return 1, nil
}

func (tx *Tx) DeleteMessages(_ context.Context, f repository.MessageFilter) (int64, error) {
	if f.InternalTipID == "" && f.ReceiverTipID == "" {
		return 0, repository.ErrEmptyFilter
	}
	return deleteWhere(tx.t.messages, matchMessage(f, false)), nil
}

func (tx *Tx) CreateSecureFileDelete(_ context.Context, d *model.SecureFileDelete) error {
	if _, ok := tx.t.secureDeletes[d.ID]; ok {
		return duplicate("securefiledeletes_pkey")
	}
	tx.t.secureDeletes[d.ID] = *d
	return nil
}

func (tx *Tx) ListSecureFileDeletes(_ context.Context, limit int) ([]model.SecureFileDelete, error) {
	keep := func(model.SecureFileDelete) bool { return true }
	key := func(v model.SecureFileDelete) (time.Time, string) { return v.CreatedAt, v.ID }
	out := collect(tx.t.secureDeletes, keep, key, same[model.SecureFileDelete])
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (tx *Tx) DeleteSecureFileDelete(_ context.Context, id string) (int64, error) {
	return deleteWhere(tx.t.secureDeletes, func(v model.SecureFileDelete) bool { return v.ID == id }), nil
}

func (tx *Tx) Counts(_ context.Context) (model.Counts, error) {
	return model.Counts{
		InternalTips:      len(tx.t.internalTips),
		ReceiverTips:      len(tx.t.receiverTips),
		WhistleblowerTips: len(tx.t.wbTips),
		Files:             len(tx.t.files),
		ReceiverFiles:     len(tx.t.receiverFiles),
		Comments:          len(tx.t.comments),
		Messages:          len(tx.t.messages),
		SecureFileDeletes: len(tx.t.secureDeletes),
	}, nil
}
