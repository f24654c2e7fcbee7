package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

// MockStore runs WithTx callbacks against Tx, so expectations are set on the
// embedded MockTx.
type MockStore struct {
	mock.Mock
	Tx *MockTx
}

func NewMockStore() *MockStore {
	return &MockStore{Tx: &MockTx{}}
}

func (m *MockStore) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.Tx)
}

type MockTx struct {
	mock.Mock
}

var _ repository.Tx = (*MockTx)(nil)

func (m *MockTx) Counts(ctx context.Context) (model.Counts, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Counts), args.Error(1)
}

func (m *MockTx) GetContext(ctx context.Context, id string) (*model.Context, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Context), args.Error(1)
}

func (m *MockTx) SaveContext(ctx context.Context, c *model.Context) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockTx) GetReceiver(ctx context.Context, id string) (*model.Receiver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Receiver), args.Error(1)
}

func (m *MockTx) SaveReceiver(ctx context.Context, r *model.Receiver) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockTx) CreateInternalTip(ctx context.Context, it *model.InternalTip) error {
	args := m.Called(ctx, it)
	return args.Error(0)
}

func (m *MockTx) GetInternalTip(ctx context.Context, id string) (*model.InternalTip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InternalTip), args.Error(1)
}

func (m *MockTx) ListInternalTips(ctx context.Context, f repository.InternalTipFilter) ([]model.InternalTip, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InternalTip), args.Error(1)
}

func (m *MockTx) UpdateInternalTip(ctx context.Context, it *model.InternalTip) error {
	args := m.Called(ctx, it)
	return args.Error(0)
}

func (m *MockTx) DeleteInternalTip(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTx) CreateReceiverTip(ctx context.Context, rt *model.ReceiverTip) error {
	args := m.Called(ctx, rt)
	return args.Error(0)
}

func (m *MockTx) GetReceiverTip(ctx context.Context, id string) (*model.ReceiverTip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceiverTip), args.Error(1)
}

func (m *MockTx) ReceiverTipParent(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockTx) ListReceiverTips(ctx context.Context, f repository.ReceiverTipFilter) ([]model.ReceiverTip, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReceiverTip), args.Error(1)
}

func (m *MockTx) UpdateReceiverTip(ctx context.Context, rt *model.ReceiverTip) error {
	args := m.Called(ctx, rt)
	return args.Error(0)
}

func (m *MockTx) DeleteReceiverTip(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTx) DeleteReceiverTips(ctx context.Context, internalTipID string) (int64, error) {
	args := m.Called(ctx, internalTipID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTx) TallyPertinence(ctx context.Context, internalTipID string) (int, int, error) {
	args := m.Called(ctx, internalTipID)
	return args.Get(0).(int), args.Get(1).(int), args.Error(2)
}

func (m *MockTx) CreateWhistleblowerTip(ctx context.Context, wt *model.WhistleblowerTip) error {
	args := m.Called(ctx, wt)
	return args.Error(0)
}

func (m *MockTx) GetWhistleblowerTip(ctx context.Context, receiptHash string) (*model.WhistleblowerTip, error) {
	args := m.Called(ctx, receiptHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WhistleblowerTip), args.Error(1)
}

func (m *MockTx) WhistleblowerTipParent(ctx context.Context, receiptHash string) (string, error) {
	args := m.Called(ctx, receiptHash)
	return args.String(0), args.Error(1)
}

func (m *MockTx) ListWhistleblowerTips(ctx context.Context, f repository.WhistleblowerTipFilter) ([]model.WhistleblowerTip, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WhistleblowerTip), args.Error(1)
}

func (m *MockTx) UpdateWhistleblowerTip(ctx context.Context, wt *model.WhistleblowerTip) error {
	args := m.Called(ctx, wt)
	return args.Error(0)
}

func (m *MockTx) DeleteWhistleblowerTip(ctx context.Context, receiptHash string) (int64, error) {
	args := m.Called(ctx, receiptHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTx) DeleteWhistleblowerTips(ctx context.Context, internalTipID string) (int64, error) {
	args := m.Called(ctx, internalTipID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTx) CreateFile(ctx context.Context, f *model.File) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockTx) GetFile(ctx context.Context, id string) (*model.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockTx) ListFiles(ctx context.Context, f repository.FileFilter) ([]model.File, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockTx) UpdateFile(ctx context.Context, f *model.File) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockTx) DeleteFiles(ctx context.Context, internalTipID string) (int64, error) {
	args := m.Called(ctx, internalTipID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTx) CreateReceiverFile(ctx context.Context, rf *model.ReceiverFile) error {
	args := m.Called(ctx, rf)
	return args.Error(0)
}

func (m *MockTx) GetReceiverFile(ctx context.Context, id string) (*model.ReceiverFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceiverFile), args.Error(1)
}

func (m *MockTx) ListReceiverFiles(ctx context.Context, f repository.ReceiverFileFilter) ([]model.ReceiverFile, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReceiverFile), args.Error(1)
}

func (m *MockTx) UpdateReceiverFile(ctx context.Context, rf *model.ReceiverFile) error {
	args := m.Called(ctx, rf)
	return args.Error(0)
}

func (m *MockTx) DeleteReceiverFiles(ctx context.Context, f repository.ReceiverFileFilter) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTx) CreateComment(ctx context.Context, c *model.Comment) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockTx) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockTx) ListComments(ctx context.Context, f repository.CommentFilter) ([]model.Comment, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Comment), args.Error(1)
}

func (m *MockTx) UpdateCommentMark(ctx context.Context, id string, mark model.NotificationMark) (int64, error) {
	args := m.Called(ctx, id, mark)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTx) DeleteComments(ctx context.Context, internalTipID string) (int64, error) {
	args := m.Called(ctx, internalTipID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTx) CreateMessage(ctx context.Context, msg *model.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockTx) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockTx) ListMessages(ctx context.Context, f repository.MessageFilter) ([]model.Message, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockTx) UpdateMessageMark(ctx context.Context, id string, mark model.NotificationMark) (int64, error) {
	args := m.Called(ctx, id, mark)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTx) DeleteMessages(ctx context.Context, f repository.MessageFilter) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTx) CreateSecureFileDelete(ctx context.Context, d *model.SecureFileDelete) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockTx) ListSecureFileDeletes(ctx context.Context, limit int) ([]model.SecureFileDelete, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SecureFileDelete), args.Error(1)
}

func (m *MockTx) DeleteSecureFileDelete(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}
