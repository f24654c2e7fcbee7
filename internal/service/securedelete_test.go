package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"whistlebox/internal/storage"
	storeMocks "whistlebox/internal/storage/mocks"
)

func TestSecureDelete_Drain(t *testing.T) {
	st := new(storeMocks.MockStorage)
	st.On("Stat", mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, storage.ErrNotConfigured)
	st.On("Delete", mock.Anything, "k1").Return(nil)
	st.On("Delete", mock.Anything, "k2").Return(storage.ErrObjectNotFound)
	st.On("Delete", mock.Anything, "k3").Return(errors.New("access denied")).Once()
	st.On("Delete", mock.Anything, "k3").Return(nil)

	f := newFixture(t, func(o *Options) { o.Storage = st })
	ctx := context.Background()
	res := f.finalize(t, "ctx-1", "r1")
	f.registerFiles(t, res.InternalTip.ID, "k1", "k2", "k3")
	_, err := f.svc.Lifecycle.Delete(ctx, res.InternalTip.ID)
	require.NoError(t, err)
	require.Equal(t, 3, f.counts(t).SecureFileDeletes)

	rep, err := f.svc.SecureDeletes.Drain(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, &DrainReport{Deleted: 2, Failed: 1}, rep)
	assert.Equal(t, 1, f.counts(t).SecureFileDeletes)

	rep, err = f.svc.SecureDeletes.Drain(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, &DrainReport{Deleted: 1}, rep)
	assert.Zero(t, f.counts(t).SecureFileDeletes)

	st.AssertExpectations(t)
}

func TestSecureDelete_DrainWithoutStorage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.finalize(t, "ctx-1", "r1")
	f.registerFiles(t, res.InternalTip.ID, "k1")
	_, err := f.svc.Lifecycle.Delete(ctx, res.InternalTip.ID)
	require.NoError(t, err)

	rep, err := f.svc.SecureDeletes.Drain(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, &DrainReport{Failed: 1}, rep)
	assert.Equal(t, 1, f.counts(t).SecureFileDeletes)
}

func TestSecureDelete_DrainBatch(t *testing.T) {
	st := new(storeMocks.MockStorage)
	st.On("Stat", mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, storage.ErrNotConfigured)
	st.On("Delete", mock.Anything, mock.Anything).Return(nil)

	f := newFixture(t, func(o *Options) { o.Storage = st })
	ctx := context.Background()
	res := f.finalize(t, "ctx-1", "r1")
	f.registerFiles(t, res.InternalTip.ID, "k1", "k2", "k3")
	_, err := f.svc.Lifecycle.Delete(ctx, res.InternalTip.ID)
	require.NoError(t, err)

	rep, err := f.svc.SecureDeletes.Drain(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Deleted)
	assert.Equal(t, 1, f.counts(t).SecureFileDeletes)
}
