package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"whistlebox/internal/model"
	"whistlebox/internal/storage"
	storeMocks "whistlebox/internal/storage/mocks"
)

func TestFile_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		in         FileInput
		setupMocks func(m *storeMocks.MockStorage)
		wantErr    error
		wantErrMsg string
		wantSize   int64
	}{
		{
			name: "fills size from storage",
			in:   FileInput{Name: "a.pdf", StorageKey: "k1"},
			setupMocks: func(m *storeMocks.MockStorage) {
				m.On("Stat", mock.Anything, "k1").Return(storage.ObjectInfo{Key: "k1", Size: 99, ContentType: "application/pdf"}, nil)
			},
			wantSize: 99,
		},
		{
			name: "missing object",
			in:   FileInput{Name: "a.pdf", StorageKey: "k2"},
			setupMocks: func(m *storeMocks.MockStorage) {
				m.On("Stat", mock.Anything, "k2").Return(storage.ObjectInfo{}, storage.ErrObjectNotFound)
			},
			wantErr: ErrInvalidArgument,
		},
		{
			name: "storage error",
			in:   FileInput{Name: "a.pdf", StorageKey: "k3"},
			setupMocks: func(m *storeMocks.MockStorage) {
				m.On("Stat", mock.Anything, "k3").Return(storage.ObjectInfo{}, errors.New("timeout"))
			},
			wantErrMsg: "stat k3: timeout",
		},
		{
			name:       "no name",
			in:         FileInput{StorageKey: "k4"},
			setupMocks: func(m *storeMocks.MockStorage) {},
			wantErr:    ErrInvalidArgument,
		},
		{
			name:       "no key",
			in:         FileInput{Name: "a.pdf"},
			setupMocks: func(m *storeMocks.MockStorage) {},
			wantErr:    ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(storeMocks.MockStorage)
			tt.setupMocks(st)
			f := newFixture(t, func(o *Options) { o.Storage = st })
			res := f.finalize(t, "ctx-1", "r1")

			file, err := f.svc.Files.Register(ctx, res.InternalTip.ID, tt.in)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrMsg != "":
				assert.EqualError(t, err, tt.wantErrMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantSize, file.Size)
				assert.Equal(t, model.FileMarkNew, file.Mark)
				assert.Equal(t, t0, file.UploadedAt)
			}
			st.AssertExpectations(t)
		})
	}
}

func TestFile_RegisterUnknownTip(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Files.Register(context.Background(), "missing", FileInput{Name: "a", StorageKey: "k"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFile_Marks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.finalize(t, "ctx-1", "r1")
	files := f.registerFiles(t, res.InternalTip.ID, "k1", "k2")

	fresh, err := f.svc.Files.ListByMark(ctx, "not processed")
	require.NoError(t, err)
	assert.Len(t, fresh, 2)

	_, err = f.svc.Files.ListByMark(ctx, "done")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, f.svc.Files.SetMark(ctx, files[0].ID, "blocked"))
	assert.ErrorIs(t, f.svc.Files.SetMark(ctx, files[0].ID, "ready"), ErrUnimplemented)
	assert.ErrorIs(t, f.svc.Files.SetMark(ctx, files[0].ID, "done"), ErrInvalidArgument)
	assert.ErrorIs(t, f.svc.Files.SetMark(ctx, "missing", "ready"), ErrNotFound)

	n, err := f.svc.Files.Deliver(ctx, res.InternalTip.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ready, err := f.svc.Files.ListByMark(ctx, "ready")
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, files[1].ID, ready[0].ID)

	got, err := f.svc.Files.Get(ctx, files[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.FileMarkBlocked, got.Mark)

	_, err = f.svc.Files.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFile_DeliverIsIncremental(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.finalize(t, "ctx-1", "r1", "r2")
	f.registerFiles(t, res.InternalTip.ID, "k1")

	n, err := f.svc.Files.Deliver(ctx, res.InternalTip.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.svc.Files.Deliver(ctx, res.InternalTip.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.registerFiles(t, res.InternalTip.ID, "k2")
	n, err = f.svc.Files.Deliver(ctx, res.InternalTip.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rfiles, err := f.svc.Files.ListReceiverFiles(ctx, f.tipFor(t, res, "r1").ID)
	require.NoError(t, err)
	require.Len(t, rfiles, 2)
	for _, rf := range rfiles {
		assert.Equal(t, model.ReceiverFileDelivered, rf.Status)
	}

	_, err = f.svc.Files.Deliver(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFile_Download(t *testing.T) {
	st := new(storeMocks.MockStorage)
	st.On("Stat", mock.Anything, "k1").Return(storage.ObjectInfo{Size: 5}, nil)
	f := newFixture(t, func(o *Options) { o.Storage = st })
	ctx := context.Background()
	res := f.finalize(t, "ctx-1", "r1", "r2")
	f.registerFiles(t, res.InternalTip.ID, "k1")
	_, err := f.svc.Files.Deliver(ctx, res.InternalTip.ID)
	require.NoError(t, err)

	mine := f.tipFor(t, res, "r1")
	rfiles, err := f.svc.Files.ListReceiverFiles(ctx, mine.ID)
	require.NoError(t, err)
	require.Len(t, rfiles, 1)
	rf := rfiles[0]

	st.On("PresignGet", mock.Anything, "k1/"+mine.ID, downloadLinkTTL).Return("https://s3.local/k1", nil)

	link, err := f.svc.Files.Download(ctx, mine.ID, rf.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.local/k1", link.URL)
	assert.Equal(t, "k1.pdf", link.Name)
	assert.Equal(t, 1, link.File.Downloads)

	_, err = f.svc.Files.Download(ctx, f.tipFor(t, res, "r2").ID, rf.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Files.Download(ctx, mine.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	st.AssertExpectations(t)
}

func TestFile_DownloadFailureLeavesCounter(t *testing.T) {
	st := new(storeMocks.MockStorage)
	st.On("Stat", mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, storage.ErrNotConfigured)
	st.On("PresignGet", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("signer down")).Once()
	st.On("PresignGet", mock.Anything, mock.Anything, mock.Anything).Return("", storage.ErrNotConfigured)
	f := newFixture(t, func(o *Options) { o.Storage = st })
	ctx := context.Background()
	res := f.finalize(t, "ctx-1", "r1")
	f.registerFiles(t, res.InternalTip.ID, "k1")
	_, err := f.svc.Files.Deliver(ctx, res.InternalTip.ID)
	require.NoError(t, err)
	rt := f.tipFor(t, res, "r1")
	rfiles, err := f.svc.Files.ListReceiverFiles(ctx, rt.ID)
	require.NoError(t, err)

	_, err = f.svc.Files.Download(ctx, rt.ID, rfiles[0].ID)
	require.Error(t, err)

	link, err := f.svc.Files.Download(ctx, rt.ID, rfiles[0].ID)
	require.NoError(t, err)
	assert.Empty(t, link.URL)
	assert.Equal(t, 1, link.File.Downloads)
}

func TestFile_DeleteByInternalTip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.finalize(t, "ctx-1", "r1", "r2")
	f.registerFiles(t, res.InternalTip.ID, "k1", "k2")
	_, err := f.svc.Files.Deliver(ctx, res.InternalTip.ID)
	require.NoError(t, err)

	n, err := f.svc.Files.DeleteByInternalTip(ctx, res.InternalTip.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = f.svc.Files.DeleteByInternalTip(ctx, res.InternalTip.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	c := f.counts(t)
	assert.Zero(t, c.Files)
	assert.Zero(t, c.ReceiverFiles)
	assert.Equal(t, 6, c.SecureFileDeletes)

	list, err := f.svc.Files.ListByInternalTip(ctx, res.InternalTip.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
