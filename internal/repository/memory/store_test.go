package memory

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

func seedTip(t *testing.T, s *Store, id string, created time.Time) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx repository.Tx) error {
		return tx.CreateInternalTip(context.Background(), &model.InternalTip{
			ID:             id,
			ContextID:      "ctx1",
			CreatedAt:      created,
			ExpirationDate: created.Add(24 * time.Hour),
			WBLastAccess:   created,
			Receivers:      model.StringList{"r1", "r2"},
		})
	})
	require.NoError(t, err)
}

func TestStore_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Now().UTC()
	seedTip(t, s, "it1", now)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx repository.Tx) error {
		require.NoError(t, tx.CreateReceiverTip(ctx, &model.ReceiverTip{ID: "rt1", InternalTipID: "it1", ReceiverID: "r1"}))
		require.NoError(t, tx.CreateComment(ctx, &model.Comment{ID: "c1", InternalTipID: "it1"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = s.WithTx(ctx, func(tx repository.Tx) error {
		c, err := tx.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, model.Counts{InternalTips: 1}, c)
		return nil
	})
	assert.NoError(t, err)
}

func TestStore_WithTxCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewStore().WithTx(ctx, func(tx repository.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTx_ForeignKeys(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Now().UTC()
	seedTip(t, s, "it1", now)

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		err := tx.CreateReceiverTip(ctx, &model.ReceiverTip{ID: "rt1", InternalTipID: "missing", ReceiverID: "r1"})
		assert.ErrorIs(t, err, repository.ErrForeignKey)

		require.NoError(t, tx.CreateReceiverTip(ctx, &model.ReceiverTip{ID: "rt1", InternalTipID: "it1", ReceiverID: "r1"}))
		_, err = tx.DeleteInternalTip(ctx, "it1")
		assert.ErrorIs(t, err, repository.ErrForeignKey)

		require.NoError(t, tx.CreateFile(ctx, &model.File{ID: "f1", InternalTipID: "it1"}))
		require.NoError(t, tx.CreateReceiverFile(ctx, &model.ReceiverFile{ID: "rf1", FileID: "f1", ReceiverTipID: "rt1", InternalTipID: "it1"}))
		_, err = tx.DeleteReceiverTip(ctx, "rt1")
		assert.ErrorIs(t, err, repository.ErrForeignKey)
		_, err = tx.DeleteFiles(ctx, "it1")
		assert.ErrorIs(t, err, repository.ErrForeignKey)
		return nil
	})
	assert.NoError(t, err)
}

func TestTx_UniqueKeys(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedTip(t, s, "it1", time.Now().UTC())
	seedTip(t, s, "it2", time.Now().UTC())

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		require.NoError(t, tx.CreateReceiverTip(ctx, &model.ReceiverTip{ID: "rt1", InternalTipID: "it1", ReceiverID: "r1"}))
		err := tx.CreateReceiverTip(ctx, &model.ReceiverTip{ID: "rt2", InternalTipID: "it1", ReceiverID: "r1"})
		assert.ErrorIs(t, err, repository.ErrDuplicateKey)

		require.NoError(t, tx.CreateWhistleblowerTip(ctx, &model.WhistleblowerTip{ReceiptHash: "h1", InternalTipID: "it1"}))
		err = tx.CreateWhistleblowerTip(ctx, &model.WhistleblowerTip{ReceiptHash: "h1", InternalTipID: "it2"})
		assert.ErrorIs(t, err, repository.ErrDuplicateKey)
		err = tx.CreateWhistleblowerTip(ctx, &model.WhistleblowerTip{ReceiptHash: "h2", InternalTipID: "it1"})
		assert.ErrorIs(t, err, repository.ErrDuplicateKey)
		return nil
	})
	assert.NoError(t, err)
}

func TestTx_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedTip(t, s, "it1", time.Now().UTC())

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		require.NoError(t, tx.CreateReceiverTip(ctx, &model.ReceiverTip{
			ID: "rt1", InternalTipID: "it1", ReceiverID: "r1", AuthOptions: model.AuthOptions{"a": "b"},
		}))
		rt, err := tx.GetReceiverTip(ctx, "rt1")
		require.NoError(t, err)
		rt.AuthOptions["a"] = "changed"
		rt.AccessCounter = 99

		again, err := tx.GetReceiverTip(ctx, "rt1")
		require.NoError(t, err)
		assert.Equal(t, "b", again.AuthOptions["a"])
		assert.Equal(t, 0, again.AccessCounter)

		parent, err := tx.ReceiverTipParent(ctx, "rt1")
		require.NoError(t, err)
		assert.Equal(t, "it1", parent)
		return nil
	})
	assert.NoError(t, err)
}

func TestTx_ListOrderingAndFilters(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedTip(t, s, "it1", base)

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		for i, id := range []string{"c3", "c1", "c2"} {
			require.NoError(t, tx.CreateComment(ctx, &model.Comment{
				ID:               id,
				InternalTipID:    "it1",
				CreatedAt:        base.Add(time.Duration(3-i) * time.Minute),
				NotificationMark: model.MarkNotNotified,
			}))
		}
		n, err := tx.UpdateCommentMark(ctx, "c2", model.MarkNotified)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		all, err := tx.ListComments(ctx, repository.CommentFilter{InternalTipID: "it1"})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"c2", "c1", "c3"}, []string{all[0].ID, all[1].ID, all[2].ID})

		pending, err := tx.ListComments(ctx, repository.CommentFilter{Mark: model.MarkNotNotified})
		require.NoError(t, err)
		assert.Len(t, pending, 2)
		return nil
	})
	assert.NoError(t, err)
}

func TestTx_TallyPertinence(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedTip(t, s, "it1", time.Now().UTC())
	seedTip(t, s, "it2", time.Now().UTC())

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		votes := []struct {
			id, itip string
			p        model.Pertinence
		}{
			{"a", "it1", model.PertinencePositive},
			{"b", "it1", model.PertinencePositive},
			{"c", "it1", model.PertinenceNegative},
			{"d", "it1", model.PertinenceUnexpressed},
			{"e", "it2", model.PertinencePositive},
		}
		for _, v := range votes {
			require.NoError(t, tx.CreateReceiverTip(ctx, &model.ReceiverTip{
				ID: v.id, InternalTipID: v.itip, ReceiverID: v.id, ExpressedPertinence: v.p,
			}))
		}
		pos, neg, err := tx.TallyPertinence(ctx, "it1")
		require.NoError(t, err)
		assert.Equal(t, 2, pos)
		assert.Equal(t, 1, neg)
		return nil
	})
	assert.NoError(t, err)
}

func TestTx_WhistleblowerInactivityFilter(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.Add(100 * 24 * time.Hour)
	seedTip(t, s, "old", old)
	seedTip(t, s, "recent", recent)

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		require.NoError(t, tx.CreateWhistleblowerTip(ctx, &model.WhistleblowerTip{ReceiptHash: "h-old", InternalTipID: "old"}))
		require.NoError(t, tx.CreateWhistleblowerTip(ctx, &model.WhistleblowerTip{ReceiptHash: "h-recent", InternalTipID: "recent"}))

		cutoff := old.Add(90 * 24 * time.Hour)
		got, err := tx.ListWhistleblowerTips(ctx, repository.WhistleblowerTipFilter{InactiveBefore: &cutoff})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "old", got[0].InternalTipID)
		return nil
	})
	assert.NoError(t, err)
}

func TestTx_MissingRows(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		_, err := tx.GetInternalTip(ctx, "x")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		_, err = tx.GetWhistleblowerTip(ctx, "x")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		_, err = tx.ReceiverTipParent(ctx, "x")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		_, err = tx.WhistleblowerTipParent(ctx, "x")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.ErrorIs(t, tx.UpdateReceiverTip(ctx, &model.ReceiverTip{ID: "x"}), sql.ErrNoRows)

		n, err := tx.DeleteReceiverTips(ctx, "x")
		assert.NoError(t, err)
		assert.Zero(t, n)
		n, err = tx.DeleteInternalTip(ctx, "x")
		assert.NoError(t, err)
		assert.Zero(t, n)
		return nil
	})
	assert.NoError(t, err)
}

func TestTx_SecureFileDeletesOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Now().UTC()

	err := s.WithTx(ctx, func(tx repository.Tx) error {
		for i, id := range []string{"d2", "d1", "d3"} {
			require.NoError(t, tx.CreateSecureFileDelete(ctx, &model.SecureFileDelete{
				ID: id, StorageKey: "k/" + id, CreatedAt: base.Add(time.Duration(i) * time.Second),
			}))
		}
		got, err := tx.ListSecureFileDeletes(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "d2", got[0].ID)
		assert.Equal(t, "d1", got[1].ID)
		return nil
	})
	assert.NoError(t, err)
}
