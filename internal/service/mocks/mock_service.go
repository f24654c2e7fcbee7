package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"whistlebox/internal/model"
	"whistlebox/internal/service"
)

type MockReceiverTipService struct {
	mock.Mock
}

var _ service.ReceiverTipService = (*MockReceiverTipService)(nil)

func (m *MockReceiverTipService) CreateForSubmission(ctx context.Context, internalTipID string, tier int) (int, error) {
	args := m.Called(ctx, internalTipID, tier)
	return args.Int(0), args.Error(1)
}

func (m *MockReceiverTipService) Read(ctx context.Context, tipID string) (*model.ReceiverTipDetail, error) {
	args := m.Called(ctx, tipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceiverTipDetail), args.Error(1)
}

func (m *MockReceiverTipService) CastPertinenceVote(ctx context.Context, tipID string, positive bool) (string, int, error) {
	args := m.Called(ctx, tipID, positive)
	return args.String(0), args.Int(1), args.Error(2)
}

func (m *MockReceiverTipService) SetNotificationMark(ctx context.Context, tipID string, mark model.NotificationMark) error {
	args := m.Called(ctx, tipID, mark)
	return args.Error(0)
}

func (m *MockReceiverTipService) Delete(ctx context.Context, tipID string) error {
	args := m.Called(ctx, tipID)
	return args.Error(0)
}

func (m *MockReceiverTipService) DeleteAllForInternalTip(ctx context.Context, internalTipID string) (int64, error) {
	args := m.Called(ctx, internalTipID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReceiverTipService) ListAll(ctx context.Context) ([]model.ReceiverTip, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReceiverTip), args.Error(1)
}

func (m *MockReceiverTipService) ListByReceiver(ctx context.Context, receiverID string) ([]model.ReceiverTip, error) {
	args := m.Called(ctx, receiverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReceiverTip), args.Error(1)
}

func (m *MockReceiverTipService) ListSiblings(ctx context.Context, tipID string) (*model.Siblings, error) {
	args := m.Called(ctx, tipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Siblings), args.Error(1)
}

func (m *MockReceiverTipService) ListByMark(ctx context.Context, mark model.NotificationMark) ([]model.ReceiverTip, error) {
	args := m.Called(ctx, mark)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReceiverTip), args.Error(1)
}

func (m *MockReceiverTipService) ListByContext(ctx context.Context, contextID string) ([]model.ReceiverTip, error) {
	args := m.Called(ctx, contextID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReceiverTip), args.Error(1)
}

func (m *MockReceiverTipService) ListReceiversByTip(ctx context.Context, tipID string) (*model.ReceiversByTip, error) {
	args := m.Called(ctx, tipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceiversByTip), args.Error(1)
}

func (m *MockReceiverTipService) ListTipsByTip(ctx context.Context, tipID string) (*model.TipsByTip, error) {
	args := m.Called(ctx, tipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TipsByTip), args.Error(1)
}

func (m *MockReceiverTipService) Get(ctx context.Context, tipID string) (*model.ReceiverTip, error) {
	args := m.Called(ctx, tipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReceiverTip), args.Error(1)
}

func (m *MockReceiverTipService) Owner(ctx context.Context, tipID string) (string, error) {
	args := m.Called(ctx, tipID)
	return args.String(0), args.Error(1)
}

func (m *MockReceiverTipService) SetPreference(ctx context.Context, tipID string, key string, value any) error {
	args := m.Called(ctx, tipID, key, value)
	return args.Error(0)
}

func (m *MockReceiverTipService) SetAuthOptions(ctx context.Context, tipID string, opts model.AuthOptions) error {
	args := m.Called(ctx, tipID, opts)
	return args.Error(0)
}

type MockWhistleblowerTipService struct {
	mock.Mock
}

var _ service.WhistleblowerTipService = (*MockWhistleblowerTipService)(nil)

func (m *MockWhistleblowerTipService) CreateForSubmission(ctx context.Context, internalTipID string) (string, error) {
	args := m.Called(ctx, internalTipID)
	return args.String(0), args.Error(1)
}

func (m *MockWhistleblowerTipService) Read(ctx context.Context, receipt string) (*model.WhistleblowerTipDetail, error) {
	args := m.Called(ctx, receipt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WhistleblowerTipDetail), args.Error(1)
}

func (m *MockWhistleblowerTipService) DeleteSelf(ctx context.Context, receipt string) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockWhistleblowerTipService) DeleteForInternalTip(ctx context.Context, internalTipID string) (int64, error) {
	args := m.Called(ctx, internalTipID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWhistleblowerTipService) ListAll(ctx context.Context) ([]model.WhistleblowerTip, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WhistleblowerTip), args.Error(1)
}

func (m *MockWhistleblowerTipService) InternalTipID(ctx context.Context, receipt string) (string, error) {
	args := m.Called(ctx, receipt)
	return args.String(0), args.Error(1)
}

type MockFileService struct {
	mock.Mock
}

var _ service.FileService = (*MockFileService)(nil)

func (m *MockFileService) Register(ctx context.Context, internalTipID string, in service.FileInput) (*model.File, error) {
	args := m.Called(ctx, internalTipID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) Get(ctx context.Context, fileID string) (*model.File, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) ListAll(ctx context.Context) ([]model.File, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockFileService) ListByMark(ctx context.Context, mark string) ([]model.File, error) {
	args := m.Called(ctx, mark)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockFileService) ListByInternalTip(ctx context.Context, internalTipID string) ([]model.File, error) {
	args := m.Called(ctx, internalTipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockFileService) SetMark(ctx context.Context, fileID string, mark string) error {
	args := m.Called(ctx, fileID, mark)
	return args.Error(0)
}

func (m *MockFileService) DeleteByInternalTip(ctx context.Context, internalTipID string) (int64, error) {
	args := m.Called(ctx, internalTipID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFileService) Deliver(ctx context.Context, internalTipID string) (int, error) {
	args := m.Called(ctx, internalTipID)
	return args.Int(0), args.Error(1)
}

func (m *MockFileService) ListReceiverFiles(ctx context.Context, receiverTipID string) ([]model.ReceiverFile, error) {
	args := m.Called(ctx, receiverTipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReceiverFile), args.Error(1)
}

func (m *MockFileService) Download(ctx context.Context, receiverTipID string, receiverFileID string) (*service.DownloadLink, error) {
	args := m.Called(ctx, receiverTipID, receiverFileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadLink), args.Error(1)
}

type MockCommentService struct {
	mock.Mock
}

var _ service.CommentService = (*MockCommentService)(nil)

func (m *MockCommentService) Add(ctx context.Context, internalTipID string, source model.Source, authorID string, content string) (*model.Comment, error) {
	args := m.Called(ctx, internalTipID, source, authorID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockCommentService) Get(ctx context.Context, commentID string) (*model.Comment, error) {
	args := m.Called(ctx, commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockCommentService) ListAll(ctx context.Context) ([]model.Comment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Comment), args.Error(1)
}

func (m *MockCommentService) ListByInternalTip(ctx context.Context, internalTipID string) ([]model.Comment, error) {
	args := m.Called(ctx, internalTipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Comment), args.Error(1)
}

func (m *MockCommentService) ListByMark(ctx context.Context, mark model.NotificationMark) ([]model.Comment, error) {
	args := m.Called(ctx, mark)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Comment), args.Error(1)
}

func (m *MockCommentService) SetNotificationMark(ctx context.Context, commentID string, mark model.NotificationMark) error {
	args := m.Called(ctx, commentID, mark)
	return args.Error(0)
}

func (m *MockCommentService) DeleteByInternalTip(ctx context.Context, internalTipID string) (int64, error) {
	args := m.Called(ctx, internalTipID)
	return args.Get(0).(int64), args.Error(1)
}

type MockMessageService struct {
	mock.Mock
}

var _ service.MessageService = (*MockMessageService)(nil)

func (m *MockMessageService) Add(ctx context.Context, receiverTipID string, source model.Source, content string) (*model.Message, error) {
	args := m.Called(ctx, receiverTipID, source, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessageService) AddFromWhistleblower(ctx context.Context, receipt string, receiverID string, content string) (*model.Message, error) {
	args := m.Called(ctx, receipt, receiverID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MockMessageService) ListByReceiverTip(ctx context.Context, receiverTipID string) ([]model.Message, error) {
	args := m.Called(ctx, receiverTipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockMessageService) ListForWhistleblower(ctx context.Context, receipt string, receiverID string) ([]model.Message, error) {
	args := m.Called(ctx, receipt, receiverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockMessageService) ListByMark(ctx context.Context, mark model.NotificationMark) ([]model.Message, error) {
	args := m.Called(ctx, mark)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MockMessageService) SetNotificationMark(ctx context.Context, messageID string, mark model.NotificationMark) error {
	args := m.Called(ctx, messageID, mark)
	return args.Error(0)
}

type MockLifecycleService struct {
	mock.Mock
}

var _ service.LifecycleService = (*MockLifecycleService)(nil)

func (m *MockLifecycleService) Finalize(ctx context.Context, sub service.Submission) (*service.FinalizeResult, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FinalizeResult), args.Error(1)
}

func (m *MockLifecycleService) Delete(ctx context.Context, internalTipID string) (*model.PurgeReport, error) {
	args := m.Called(ctx, internalTipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PurgeReport), args.Error(1)
}

func (m *MockLifecycleService) DeleteByReceiver(ctx context.Context, receiverID string, tipID string) (*model.PurgeReport, error) {
	args := m.Called(ctx, receiverID, tipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PurgeReport), args.Error(1)
}

func (m *MockLifecycleService) RemoveReceiverTip(ctx context.Context, tipID string) (*model.PurgeReport, error) {
	args := m.Called(ctx, tipID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PurgeReport), args.Error(1)
}

func (m *MockLifecycleService) Postpone(ctx context.Context, receiverID string, tipID string) (time.Time, error) {
	args := m.Called(ctx, receiverID, tipID)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockLifecycleService) Sweep(ctx context.Context, now time.Time) (*service.SweepReport, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SweepReport), args.Error(1)
}

func (m *MockLifecycleService) Counts(ctx context.Context) (model.Counts, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.Counts), args.Error(1)
}

func (m *MockLifecycleService) ListInternalTips(ctx context.Context) ([]model.InternalTip, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InternalTip), args.Error(1)
}

func (m *MockLifecycleService) ListByContext(ctx context.Context, contextID string) ([]model.ContextBundle, error) {
	args := m.Called(ctx, contextID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ContextBundle), args.Error(1)
}

type MockSecureDeleteService struct {
	mock.Mock
}

var _ service.SecureDeleteService = (*MockSecureDeleteService)(nil)

func (m *MockSecureDeleteService) Drain(ctx context.Context, batch int) (*service.DrainReport, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DrainReport), args.Error(1)
}

type MockDirectoryService struct {
	mock.Mock
}

var _ service.DirectoryService = (*MockDirectoryService)(nil)

func (m *MockDirectoryService) GetContext(ctx context.Context, id string) (*model.Context, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Context), args.Error(1)
}

func (m *MockDirectoryService) SaveContext(ctx context.Context, c model.Context) (*model.Context, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Context), args.Error(1)
}

func (m *MockDirectoryService) GetReceiver(ctx context.Context, id string) (*model.Receiver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Receiver), args.Error(1)
}

func (m *MockDirectoryService) SaveReceiver(ctx context.Context, r model.Receiver) (*model.Receiver, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Receiver), args.Error(1)
}
