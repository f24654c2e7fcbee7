package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whistlebox/internal/config"
	"whistlebox/internal/repository/memory"
	"whistlebox/internal/repository/postgres"
)

func TestOpen(t *testing.T) {
	pg := func(tweak func(*config.DatabaseConfig)) config.DatabaseConfig {
		c := config.DatabaseConfig{Driver: DriverPostgres, Host: "db", Port: "5432", User: "tips", Name: "whistlebox"}
		if tweak != nil {
			tweak(&c)
		}
		return c
	}

	tests := []struct {
		name        string
		conf        config.DatabaseConfig
		openErr     error
		pingErr     error
		migrateErr  error
		connects    bool
		wantDSN     string
		wantMaxOpen int
		wantStore   any
		wantErr     string
	}{
		{
			name:      "memory",
			conf:      config.DatabaseConfig{Driver: DriverMemory},
			wantStore: &memory.Store{},
		},
		{
			name: "postgres with password, sslmode and pool limits",
			conf: pg(func(c *config.DatabaseConfig) {
				c.Password = "s3cret"
				c.SSLMode = "require"
				c.MaxOpenConns = 7
				c.MaxIdleConns = 2
				c.ConnMaxLifetimeSec = 60
			}),
			connects:    true,
			wantDSN:     "postgres://tips:s3cret@db:5432/whistlebox?sslmode=require",
			wantMaxOpen: 7,
			wantStore:   &postgres.Store{},
		},
		{
			name:      "empty driver means postgres",
			conf:      pg(func(c *config.DatabaseConfig) { c.Driver = "" }),
			connects:  true,
			wantDSN:   "postgres://tips@db:5432/whistlebox",
			wantStore: &postgres.Store{},
		},
		{name: "missing host", conf: pg(func(c *config.DatabaseConfig) { c.Host = "" }), wantErr: "host, port, user, and name are required"},
		{name: "missing port", conf: pg(func(c *config.DatabaseConfig) { c.Port = "" }), wantErr: "host, port, user, and name are required"},
		{name: "missing user", conf: pg(func(c *config.DatabaseConfig) { c.User = "" }), wantErr: "host, port, user, and name are required"},
		{name: "missing database name", conf: pg(func(c *config.DatabaseConfig) { c.Name = "" }), wantErr: "host, port, user, and name are required"},
		{
			name:    "driver open failure",
			conf:    pg(nil),
			openErr: errors.New("open error"),
			wantErr: "sql open: open error",
		},
		{
			name:     "unreachable server",
			conf:     pg(nil),
			connects: true,
			pingErr:  errors.New("ping failed"),
			wantErr:  "db ping: ping failed",
		},
		{
			name:       "migration failure closes the pool",
			conf:       pg(nil),
			connects:   true,
			migrateErr: errors.New("no perms"),
			wantErr:    "no perms",
		},
		{
			name:    "unknown driver",
			conf:    config.DatabaseConfig{Driver: "sqlite"},
			wantErr: `unknown database driver "sqlite"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			var (
				db   *sql.DB
				mock sqlmock.Sqlmock
			)
			if tt.connects {
				var err error
				db, mock, err = sqlmock.New(sqlmock.MonitorPingsOption(true))
				require.NoError(t, err)
				t.Cleanup(func() { db.Close() })
				ping := mock.ExpectPing()
				if tt.pingErr != nil {
					ping.WillReturnError(tt.pingErr)
				}
				if tt.migrateErr != nil {
					mock.ExpectClose()
				}
			}

			origSqlOpen, origMigrate := sqlOpen, ensureMigrated
			t.Cleanup(func() { sqlOpen, ensureMigrated = origSqlOpen, origMigrate })
			var gotDSN string
			sqlOpen = func(_, dsn string) (*sql.DB, error) {
				gotDSN = dsn
				if tt.openErr != nil {
					return nil, tt.openErr
				}
				return db, nil
			}
			var migratedHost string
			ensureMigrated = func(_ context.Context, _ *sql.DB, _ *time.Location, host string) error {
				migratedHost = host
				return tt.migrateErr
			}

			b, err := Open(ctx, tt.conf, time.UTC)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.Nil(t, b)
			} else {
				require.NoError(t, err)
				assert.IsType(t, tt.wantStore, b.Store)
			}
			if mock != nil {
				assert.NoError(t, mock.ExpectationsWereMet())
			}
			if err != nil {
				return
			}

			if !tt.connects {
				assert.Nil(t, b.DB)
				assert.NoError(t, b.PingContext(ctx))
				assert.NoError(t, b.Close())
				return
			}
			assert.Equal(t, tt.wantDSN, gotDSN)
			assert.Equal(t, tt.conf.Host, migratedHost)
			assert.Same(t, db, b.DB)
			if tt.wantMaxOpen > 0 {
				assert.Equal(t, tt.wantMaxOpen, b.DB.Stats().MaxOpenConnections)
			}
		})
	}
}
