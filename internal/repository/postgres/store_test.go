package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistlebox/internal/model"
	"whistlebox/internal/repository"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

var receiverTipRowColumns = []string{
	"id", "internaltip_id", "receiver_id", "access_counter", "last_access", "notification_mark",
	"notification_date", "expressed_pertinence", "auth_options", "label", "enable_notifications", "created_at",
}

func TestStore_WithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		store, mock := newMockStore(t)
		now := time.Now().UTC()
		c := &model.Comment{
			ID:               "c1",
			InternalTipID:    "it1",
			CreatedAt:        now,
			Source:           model.SourceWhistleblower,
			Content:          "hello",
			NotificationMark: model.MarkNotNotified,
		}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO comments").
			WithArgs(c.ID, c.InternalTipID, c.CreatedAt, c.Source, sql.NullString{}, c.Content, c.NotificationMark).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithTx(ctx, func(tx repository.Tx) error {
			return tx.CreateComment(ctx, c)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		store, mock := newMockStore(t)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := store.WithTx(ctx, func(tx repository.Tx) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on panic", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = store.WithTx(ctx, func(tx repository.Tx) error { panic("boom") })
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTx_GetReceiverTip(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	row := func(rows *sqlmock.Rows, id string) *sqlmock.Rows {
		return rows.AddRow(id, "it1", "r1", 3, now, "notified", nil, 2, []byte(`{"otp":true}`), "urgent", true, now)
	}

	t.Run("found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM receivertips WHERE id = \\$1 FOR UPDATE").
			WithArgs("rt1").
			WillReturnRows(row(sqlmock.NewRows(receiverTipRowColumns), "rt1"))
		mock.ExpectCommit()

		var got *model.ReceiverTip
		err := store.WithTx(ctx, func(tx repository.Tx) error {
			var err error
			got, err = tx.GetReceiverTip(ctx, "rt1")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, "rt1", got.ID)
		assert.Equal(t, 3, got.AccessCounter)
		assert.Equal(t, model.MarkNotified, got.NotificationMark)
		assert.Equal(t, model.PertinencePositive, got.ExpressedPertinence)
		assert.Nil(t, got.NotificationDate)
		assert.Equal(t, true, got.AuthOptions["otp"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM receivertips").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(receiverTipRowColumns))
		mock.ExpectRollback()

		err := store.WithTx(ctx, func(tx repository.Tx) error {
			_, err := tx.GetReceiverTip(ctx, "missing")
			return err
		})
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ambiguous", func(t *testing.T) {
		store, mock := newMockStore(t)
		rows := row(row(sqlmock.NewRows(receiverTipRowColumns), "rt1"), "rt1")
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM receivertips").
			WithArgs("rt1").
			WillReturnRows(rows)
		mock.ExpectRollback()

		err := store.WithTx(ctx, func(tx repository.Tx) error {
			_, err := tx.GetReceiverTip(ctx, "rt1")
			return err
		})
		assert.ErrorIs(t, err, repository.ErrMultipleRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTx_CreateWhistleblowerTip(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	wt := &model.WhistleblowerTip{ReceiptHash: "h1", InternalTipID: "it1", AuthOptions: model.AuthOptions{}, CreatedAt: now}

	t.Run("inserted", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO whistleblowertips (.+) ON CONFLICT \\(receipt_hash\\) DO NOTHING").
			WithArgs("h1", "it1", nil, []byte("{}"), now).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithTx(ctx, func(tx repository.Tx) error {
			return tx.CreateWhistleblowerTip(ctx, wt)
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("receipt collision", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO whistleblowertips").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := store.WithTx(ctx, func(tx repository.Tx) error {
			return tx.CreateWhistleblowerTip(ctx, wt)
		})
		assert.ErrorIs(t, err, repository.ErrDuplicateKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTx_UniqueViolationMapsToDuplicateKey(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO receivertips").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "receivertips_pkey"})
	mock.ExpectRollback()

	err := store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.CreateReceiverTip(ctx, &model.ReceiverTip{ID: "rt1", InternalTipID: "it1", ReceiverID: "r1"})
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
	assert.Contains(t, err.Error(), "receivertips_pkey")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_UpdateReceiverTip_NoRow(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE receivertips").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.WithTx(ctx, func(tx repository.Tx) error {
		return tx.UpdateReceiverTip(ctx, &model.ReceiverTip{ID: "gone"})
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_TallyPertinence(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM receivertips\\s+WHERE internaltip_id = \\$1 AND expressed_pertinence <> \\$4").
		WithArgs("it1", model.PertinencePositive, model.PertinenceNegative, model.PertinenceUnexpressed).
		WillReturnRows(sqlmock.NewRows([]string{"pos", "neg"}).AddRow(3, 1))
	mock.ExpectCommit()

	var pos, neg int
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		pos, neg, err = tx.TallyPertinence(ctx, "it1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, pos)
	assert.Equal(t, 1, neg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_ListInternalTips_Filter(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	cols := []string{"id", "context_id", "created_at", "expiration_date", "wb_last_access", "receivers",
		"answers", "total_score", "pertinence", "new"}
	rows := sqlmock.NewRows(cols).
		AddRow("it1", "ctx1", now, now, now, []byte(`["r1","r2"]`), []byte(`{"q":"a"}`), 0, 1, true)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM internaltips WHERE context_id = \\$1 AND expiration_date < \\$2 ORDER BY created_at, id").
		WithArgs("ctx1", now).
		WillReturnRows(rows)
	mock.ExpectCommit()

	var got []model.InternalTip
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		got, err = tx.ListInternalTips(ctx, repository.InternalTipFilter{ContextID: "ctx1", ExpiredBefore: &now})
		return err
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.StringList{"r1", "r2"}, got[0].Receivers)
	assert.JSONEq(t, `{"q":"a"}`, string(got[0].Answers))
	assert.Equal(t, 1, got[0].PertinenceScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_ListWhistleblowerTips_Inactive(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	cutoff := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("JOIN internaltips i ON i.id = w.internaltip_id WHERE i.wb_last_access < \\$1").
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"receipt_hash", "internaltip_id", "last_access", "auth_options", "created_at"}).
			AddRow("h1", "it1", nil, nil, cutoff))
	mock.ExpectCommit()

	var got []model.WhistleblowerTip
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		got, err = tx.ListWhistleblowerTips(ctx, repository.WhistleblowerTipFilter{InactiveBefore: &cutoff})
		return err
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "h1", got[0].ReceiptHash)
	assert.Nil(t, got[0].LastAccess)
	assert.NotNil(t, got[0].AuthOptions)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_BulkDeletesRejectEmptyFilter(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := store.WithTx(ctx, func(tx repository.Tx) error {
		_, err := tx.DeleteReceiverFiles(ctx, repository.ReceiverFileFilter{})
		assert.ErrorIs(t, err, repository.ErrEmptyFilter)
		_, err = tx.DeleteMessages(ctx, repository.MessageFilter{Mark: model.MarkNotified})
		assert.ErrorIs(t, err, repository.ErrEmptyFilter)
		return nil
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_DeleteReceiverTips_Idempotent(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM receivertips WHERE internaltip_id = \\$1").
		WithArgs("it1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM receivertips WHERE internaltip_id = \\$1").
		WithArgs("it1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var first, second int64
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		if first, err = tx.DeleteReceiverTips(ctx, "it1"); err != nil {
			return err
		}
		second, err = tx.DeleteReceiverTips(ctx, "it1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), first)
	assert.Equal(t, int64(0), second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_Counts(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM internaltips").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e", "f", "g", "h"}).
			AddRow(1, 2, 1, 3, 6, 3, 0, 0))
	mock.ExpectCommit()

	var got model.Counts
	err := store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		got, err = tx.Counts(ctx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, model.Counts{InternalTips: 1, ReceiverTips: 2, WhistleblowerTips: 1, Files: 3, ReceiverFiles: 6, Comments: 3}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
