package migration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureMigrated(t *testing.T) {
	ctx := context.Background()

	t.Run("skips when schema exists", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT to_regclass\\('public.securefiledeletes'\\) IS NOT NULL").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		assert.NoError(t, EnsureMigrated(ctx, db, time.UTC, "db"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("runs every step in order", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT to_regclass('public.securefiledeletes') IS NOT NULL").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		for _, step := range steps {
			mock.ExpectExec(step.SQL).WillReturnResult(sqlmock.NewResult(0, 0))
		}

		assert.NoError(t, EnsureMigrated(ctx, db, time.UTC, "db"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stops at the failing step", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT to_regclass('public.securefiledeletes') IS NOT NULL").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(steps[0].SQL).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(steps[1].SQL).WillReturnError(errors.New("permission denied"))

		err = EnsureMigrated(ctx, db, time.UTC, "db")
		require.Error(t, err)
		assert.Contains(t, err.Error(), steps[1].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSteps_SentinelCreatedLast(t *testing.T) {
	assert.Equal(t, "create_table_securefiledeletes", steps[len(steps)-1].Name)
}
