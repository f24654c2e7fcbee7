package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistlebox/internal/ids"
	"whistlebox/internal/repository/postgres"
)

// Every path that locks rows of one submission locks the internal tip first.
// These tests pin the statement order against the Postgres store.

var internalTipRowColumns = []string{
	"id", "context_id", "created_at", "expiration_date", "wb_last_access", "receivers", "answers", "total_score", "pertinence", "new",
}

func newSQLServices(t *testing.T) (*Services, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	svc := New(Options{
		Store:       postgres.NewStore(db),
		Clock:       ids.NewStubClock(t0),
		HashReceipt: plainHash,
		ReceiptSalt: "salt",
	})
	return svc, mock
}

func internalTipRow() *sqlmock.Rows {
	return sqlmock.NewRows(internalTipRowColumns).
		AddRow("it1", "ctx-1", t0, t0.Add(20*24*time.Hour), t0, []byte(`["r1"]`), []byte(`{"q1":"a1"}`), 0, 0, false)
}

func TestLockOrder_ReceiverTipRead(t *testing.T) {
	svc, mock := newSQLServices(t)
	seen := t0.Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT internaltip_id FROM receivertips WHERE id = \\$1").
		WithArgs("rt1").
		WillReturnRows(sqlmock.NewRows([]string{"internaltip_id"}).AddRow("it1"))
	mock.ExpectQuery("FROM internaltips WHERE id = \\$1 FOR UPDATE").
		WithArgs("it1").
		WillReturnRows(internalTipRow())
	mock.ExpectQuery("FROM receivertips WHERE id = \\$1 FOR UPDATE").
		WithArgs("rt1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "internaltip_id", "receiver_id", "access_counter", "last_access", "notification_mark",
			"notification_date", "expressed_pertinence", "auth_options", "label", "enable_notifications", "created_at",
		}).AddRow("rt1", "it1", "r1", 3, seen, "notified", nil, 0, []byte(`{}`), "", true, t0))
	mock.ExpectExec("UPDATE receivertips").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM receivers").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "level", "can_delete_submission", "can_postpone_expiration", "created_at"}).
			AddRow("r1", "Alice", 1, false, false, t0))
	mock.ExpectCommit()

	detail, err := svc.ReceiverTips.Read(context.Background(), "rt1")
	require.NoError(t, err)
	assert.Equal(t, 4, detail.AccessCounter)
	require.NotNil(t, detail.LastAccess)
	assert.Equal(t, seen, *detail.LastAccess)
	assert.Equal(t, "Alice", detail.ReceiverName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockOrder_WhistleblowerDeleteSelf(t *testing.T) {
	svc, mock := newSQLServices(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT internaltip_id FROM whistleblowertips WHERE receipt_hash = \\$1").
		WithArgs("salt:1234").
		WillReturnRows(sqlmock.NewRows([]string{"internaltip_id"}).AddRow("it1"))
	mock.ExpectQuery("FROM internaltips WHERE id = \\$1 FOR UPDATE").
		WithArgs("it1").
		WillReturnRows(internalTipRow())
	mock.ExpectQuery("FROM whistleblowertips WHERE receipt_hash = \\$1 FOR UPDATE").
		WithArgs("salt:1234").
		WillReturnRows(sqlmock.NewRows([]string{"receipt_hash", "internaltip_id", "last_access", "auth_options", "created_at"}).
			AddRow("salt:1234", "it1", nil, []byte(`{}`), t0))
	mock.ExpectExec("DELETE FROM whistleblowertips WHERE receipt_hash = \\$1").
		WithArgs("salt:1234").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.WhistleblowerTips.DeleteSelf(context.Background(), "1234"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockOrder_DeleteLocksInternalTipBeforeChildren(t *testing.T) {
	svc, mock := newSQLServices(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM internaltips WHERE id = \\$1 FOR UPDATE").
		WithArgs("it1").
		WillReturnRows(sqlmock.NewRows(internalTipRowColumns))
	mock.ExpectRollback()

	_, err := svc.Lifecycle.Delete(context.Background(), "it1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
