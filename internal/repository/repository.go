package repository

import (
	"context"
	"errors"
	"time"

	"whistlebox/internal/model"
)

// Package repository defines the entity store used by the tip lifecycle.
// Implementations live in subpackages (postgres, memory). Lookups of absent
// rows return sql.ErrNoRows; no business logic lives here.

var (
	// ErrMultipleRows is returned when a lookup by a supposedly unique key
	// matches more than one row. It is a data-integrity fault, not a miss.
	ErrMultipleRows = errors.New("repository: more than one row for unique key")
	// ErrDuplicateKey is returned when an insert collides with an existing key.
	ErrDuplicateKey = errors.New("repository: duplicate key")
	// ErrForeignKey is returned when a write would orphan or reference a
	// missing parent row.
	ErrForeignKey = errors.New("repository: foreign key violation")
	// ErrEmptyFilter guards bulk deletes that would otherwise match every row.
	ErrEmptyFilter = errors.New("repository: filter selects every row")
)

// Store opens transactions. Every public manager operation runs inside exactly
// one WithTx call: fn's error (or a panic) rolls everything back.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of row operations available inside one transaction. Get*
// methods on mutable rows lock the row until the transaction ends.
type Tx interface {
	DirectoryRepository
	InternalTipRepository
	ReceiverTipRepository
	WhistleblowerTipRepository
	FileRepository
	CommentRepository
	MessageRepository
	SecureFileDeleteRepository

	// Counts returns the number of rows per entity kind.
	Counts(ctx context.Context) (model.Counts, error)
}

// DirectoryRepository reads and writes the weakly referenced contexts and
// receivers.
type DirectoryRepository interface {
	GetContext(ctx context.Context, id string) (*model.Context, error)
	SaveContext(ctx context.Context, c *model.Context) error
	GetReceiver(ctx context.Context, id string) (*model.Receiver, error)
	SaveReceiver(ctx context.Context, r *model.Receiver) error
}

// InternalTipFilter narrows ListInternalTips. Zero fields are ignored.
type InternalTipFilter struct {
	ContextID     string
	ExpiredBefore *time.Time
}

type InternalTipRepository interface {
	CreateInternalTip(ctx context.Context, it *model.InternalTip) error
	GetInternalTip(ctx context.Context, id string) (*model.InternalTip, error)
	ListInternalTips(ctx context.Context, f InternalTipFilter) ([]model.InternalTip, error)
	UpdateInternalTip(ctx context.Context, it *model.InternalTip) error
	DeleteInternalTip(ctx context.Context, id string) (int64, error)
}

// ReceiverTipFilter narrows ListReceiverTips. Zero fields are ignored.
type ReceiverTipFilter struct {
	InternalTipID string
	ReceiverID    string
	Mark          model.NotificationMark
}

type ReceiverTipRepository interface {
	CreateReceiverTip(ctx context.Context, rt *model.ReceiverTip) error
	GetReceiverTip(ctx context.Context, id string) (*model.ReceiverTip, error)
	// ReceiverTipParent returns the InternalTip id of a receiver tip without
	// locking the row.
	ReceiverTipParent(ctx context.Context, id string) (string, error)
	ListReceiverTips(ctx context.Context, f ReceiverTipFilter) ([]model.ReceiverTip, error)
	UpdateReceiverTip(ctx context.Context, rt *model.ReceiverTip) error
	DeleteReceiverTip(ctx context.Context, id string) (int64, error)
	DeleteReceiverTips(ctx context.Context, internalTipID string) (int64, error)
	// TallyPertinence counts expressed votes among the receiver tips of one
	// InternalTip.
	TallyPertinence(ctx context.Context, internalTipID string) (positive, negative int, err error)
}

// WhistleblowerTipFilter narrows ListWhistleblowerTips. InactiveBefore selects
// tips whose InternalTip was last accessed by the whistleblower before it.
type WhistleblowerTipFilter struct {
	InternalTipID  string
	InactiveBefore *time.Time
}

type WhistleblowerTipRepository interface {
	// CreateWhistleblowerTip returns ErrDuplicateKey when the receipt hash is
	// already taken, leaving the transaction usable.
	CreateWhistleblowerTip(ctx context.Context, wt *model.WhistleblowerTip) error
	GetWhistleblowerTip(ctx context.Context, receiptHash string) (*model.WhistleblowerTip, error)
	// WhistleblowerTipParent returns the InternalTip id behind a receipt hash
	// without locking the row.
	WhistleblowerTipParent(ctx context.Context, receiptHash string) (string, error)
	ListWhistleblowerTips(ctx context.Context, f WhistleblowerTipFilter) ([]model.WhistleblowerTip, error)
	UpdateWhistleblowerTip(ctx context.Context, wt *model.WhistleblowerTip) error
	DeleteWhistleblowerTip(ctx context.Context, receiptHash string) (int64, error)
	DeleteWhistleblowerTips(ctx context.Context, internalTipID string) (int64, error)
}

// FileFilter narrows ListFiles. Zero fields are ignored.
type FileFilter struct {
	InternalTipID string
	Mark          model.FileMark
}

// ReceiverFileFilter narrows receiver file queries. Zero fields are ignored.
type ReceiverFileFilter struct {
	InternalTipID string
	ReceiverTipID string
	FileID        string
}

func (f ReceiverFileFilter) Empty() bool {
	return f.InternalTipID == "" && f.ReceiverTipID == "" && f.FileID == ""
}

type FileRepository interface {
	CreateFile(ctx context.Context, f *model.File) error
	GetFile(ctx context.Context, id string) (*model.File, error)
	ListFiles(ctx context.Context, f FileFilter) ([]model.File, error)
	UpdateFile(ctx context.Context, f *model.File) error
	DeleteFiles(ctx context.Context, internalTipID string) (int64, error)

	CreateReceiverFile(ctx context.Context, rf *model.ReceiverFile) error
	GetReceiverFile(ctx context.Context, id string) (*model.ReceiverFile, error)
	ListReceiverFiles(ctx context.Context, f ReceiverFileFilter) ([]model.ReceiverFile, error)
	UpdateReceiverFile(ctx context.Context, rf *model.ReceiverFile) error
	// DeleteReceiverFiles returns ErrEmptyFilter for an empty filter.
	DeleteReceiverFiles(ctx context.Context, f ReceiverFileFilter) (int64, error)
}

// CommentFilter narrows ListComments. Zero fields are ignored.
type CommentFilter struct {
	InternalTipID string
	Mark          model.NotificationMark
}

type CommentRepository interface {
	CreateComment(ctx context.Context, c *model.Comment) error
	GetComment(ctx context.Context, id string) (*model.Comment, error)
	// ListComments orders by creation time, then id.
	ListComments(ctx context.Context, f CommentFilter) ([]model.Comment, error)
	UpdateCommentMark(ctx context.Context, id string, mark model.NotificationMark) (int64, error)
	DeleteComments(ctx context.Context, internalTipID string) (int64, error)
}

// MessageFilter narrows message queries. Zero fields are ignored.
type MessageFilter struct {
	InternalTipID string
	ReceiverTipID string
	Mark          model.NotificationMark
}

type MessageRepository interface {
	CreateMessage(ctx context.Context, m *model.Message) error
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	// ListMessages orders by creation time, then id.
	ListMessages(ctx context.Context, f MessageFilter) ([]model.Message, error)
	UpdateMessageMark(ctx context.Context, id string, mark model.NotificationMark) (int64, error)
	// DeleteMessages ignores Mark and returns ErrEmptyFilter when neither tip
	// id is set.
	DeleteMessages(ctx context.Context, f MessageFilter) (int64, error)
}

type SecureFileDeleteRepository interface {
	CreateSecureFileDelete(ctx context.Context, d *model.SecureFileDelete) error
	ListSecureFileDeletes(ctx context.Context, limit int) ([]model.SecureFileDelete, error)
	DeleteSecureFileDelete(ctx context.Context, id string) (int64, error)
}
