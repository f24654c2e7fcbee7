package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"whistlebox/internal/applog"
	"whistlebox/internal/ids"
	"whistlebox/internal/metrics"
	"whistlebox/internal/repository"
	"whistlebox/internal/storage"
)

var tracer = otel.Tracer("whistlebox/internal/service")

// ReceiptGenerator produces fresh whistleblower receipts.
type ReceiptGenerator interface {
	NewReceipt() (string, error)
}

// Options wires the services. Store is required; every other field has a
// production default.
type Options struct {
	Store   repository.Store
	Storage storage.Storage
	Clock   ids.Clock
	// IDs names ledger rows (files, comments, messages, deletes).
	IDs ids.Generator
	// TipIDs names internal and receiver tips.
	TipIDs      ids.Generator
	Receipts    ReceiptGenerator
	HashReceipt func(salt, receipt string) (string, error)
	ReceiptSalt string
	// DefaultTipTTL applies when a context carries no lifetime.
	DefaultTipTTL    time.Duration
	WhistleblowerTTL time.Duration
	// Tiers are the receiver levels served at finalization, in order.
	Tiers   []int
	Logger  *applog.Logger
	Metrics *metrics.Lifecycle
}

// Services groups every manager sharing one core.
type Services struct {
	ReceiverTips      ReceiverTipService
	WhistleblowerTips WhistleblowerTipService
	Files             FileService
	Comments          CommentService
	Messages          MessageService
	Lifecycle         LifecycleService
	SecureDeletes     SecureDeleteService
	Directory         DirectoryService
}

// New builds the services on top of opts.Store.
func New(opts Options) *Services {
	if opts.Storage == nil {
		opts.Storage = storage.Noop{}
	}
	if opts.Clock == nil {
		opts.Clock = ids.RealClock{}
	}
	if opts.IDs == nil {
		opts.IDs = ids.ULIDGenerator{}
	}
	if opts.TipIDs == nil {
		opts.TipIDs = ids.UUIDGenerator{}
	}
	if opts.Receipts == nil {
		opts.Receipts = ids.NumericReceipts{Digits: ids.DefaultReceiptDigits}
	}
	if opts.HashReceipt == nil {
		opts.HashReceipt = ids.HashReceipt
	}
	if opts.DefaultTipTTL <= 0 {
		opts.DefaultTipTTL = 20 * 24 * time.Hour
	}
	if opts.WhistleblowerTTL <= 0 {
		opts.WhistleblowerTTL = 90 * 24 * time.Hour
	}
	if len(opts.Tiers) == 0 {
		opts.Tiers = []int{1}
	}
	if opts.Logger == nil {
		opts.Logger = applog.Nop()
	}

	c := &core{Options: opts}
	return &Services{
		ReceiverTips:      &receiverTipService{c},
		WhistleblowerTips: &whistleblowerTipService{c},
		Files:             &fileService{c},
		Comments:          &commentService{c},
		Messages:          &messageService{c},
		Lifecycle:         &lifecycleService{c},
		SecureDeletes:     &secureDeleteService{c},
		Directory:         &directoryService{c},
	}
}

// core holds the shared dependencies and the transaction-level helpers used
// by more than one manager.
type core struct {
	Options
}

func (c *core) now() time.Time {
	return c.Clock.Now().UTC()
}

// run executes fn in one transaction under a span named op.
func (c *core) run(ctx context.Context, op string, fn func(ctx context.Context, tx repository.Tx) error) error {
	ctx, span := tracer.Start(ctx, op, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	err := c.Store.WithTx(ctx, func(tx repository.Tx) error {
		return fn(ctx, tx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
