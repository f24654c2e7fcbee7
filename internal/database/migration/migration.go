package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"whistlebox/internal/applog"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created by the last step. Its presence means the schema
// is complete.
const sentinelTable = "public.securefiledeletes"

// Context and receiver ids are weak references: no foreign keys point at
// contexts or receivers. Every row owned by an internal tip references it
// without ON DELETE CASCADE; the service removes children in a fixed order.
var steps = []migrationStep{
	{
		Name: "create_table_contexts",
		SQL: `CREATE TABLE IF NOT EXISTS contexts (
  id              TEXT        PRIMARY KEY,
  name            TEXT        NOT NULL,
  tip_timetolive  INTEGER     NOT NULL DEFAULT 20 CHECK (tip_timetolive >= 0),
  enable_comments BOOLEAN     NOT NULL DEFAULT TRUE,
  enable_messages BOOLEAN     NOT NULL DEFAULT TRUE,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_receivers",
		SQL: `CREATE TABLE IF NOT EXISTS receivers (
  id                      TEXT        PRIMARY KEY,
  name                    TEXT        NOT NULL,
  level                   INTEGER     NOT NULL DEFAULT 1,
  can_delete_submission   BOOLEAN     NOT NULL DEFAULT FALSE,
  can_postpone_expiration BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_internaltips",
		SQL: `CREATE TABLE IF NOT EXISTS internaltips (
  id              TEXT        PRIMARY KEY,
  context_id      TEXT        NOT NULL,
  created_at      TIMESTAMPTZ NOT NULL,
  expiration_date TIMESTAMPTZ NOT NULL,
  wb_last_access  TIMESTAMPTZ NOT NULL,
  receivers       JSONB       NOT NULL DEFAULT '[]',
  answers         JSONB,
  total_score     INTEGER     NOT NULL DEFAULT 0,
  pertinence      INTEGER     NOT NULL DEFAULT 0,
  new             BOOLEAN     NOT NULL DEFAULT TRUE
);`,
	},
	{
		Name: "create_table_receivertips",
		SQL: `CREATE TABLE IF NOT EXISTS receivertips (
  id                   TEXT        PRIMARY KEY,
  internaltip_id       TEXT        NOT NULL REFERENCES internaltips (id),
  receiver_id          TEXT        NOT NULL,
  access_counter       INTEGER     NOT NULL DEFAULT 0 CHECK (access_counter >= 0),
  last_access          TIMESTAMPTZ,
  notification_mark    TEXT        NOT NULL CHECK (notification_mark IN
                         ('not notified', 'notified', 'unable to notify', 'notification ignored')),
  notification_date    TIMESTAMPTZ,
  expressed_pertinence SMALLINT    NOT NULL DEFAULT 0 CHECK (expressed_pertinence IN (0, 1, 2)),
  auth_options         JSONB       NOT NULL DEFAULT '{}',
  label                TEXT        NOT NULL DEFAULT '',
  enable_notifications BOOLEAN     NOT NULL DEFAULT TRUE,
  created_at           TIMESTAMPTZ NOT NULL,
  UNIQUE (internaltip_id, receiver_id)
);`,
	},
	{
		Name: "create_table_whistleblowertips",
		SQL: `CREATE TABLE IF NOT EXISTS whistleblowertips (
  receipt_hash   TEXT        PRIMARY KEY,
  internaltip_id TEXT        NOT NULL UNIQUE REFERENCES internaltips (id),
  last_access    TIMESTAMPTZ,
  auth_options   JSONB       NOT NULL DEFAULT '{}',
  created_at     TIMESTAMPTZ NOT NULL
);`,
	},
	{
		Name: "create_table_files",
		SQL: `CREATE TABLE IF NOT EXISTS files (
  id               TEXT        PRIMARY KEY,
  internaltip_id   TEXT        NOT NULL REFERENCES internaltips (id),
  name             TEXT        NOT NULL,
  checksum         TEXT        NOT NULL DEFAULT '',
  size             BIGINT      NOT NULL CHECK (size >= 0),
  content_type     TEXT        NOT NULL,
  description      TEXT        NOT NULL DEFAULT '',
  mark             TEXT        NOT NULL CHECK (mark IN ('new', 'ready', 'blocked')),
  completed        BOOLEAN     NOT NULL DEFAULT FALSE,
  metadata_cleaned BOOLEAN     NOT NULL DEFAULT FALSE,
  uploaded_at      TIMESTAMPTZ NOT NULL,
  storage_key      TEXT        NOT NULL
);`,
	},
	{
		Name: "create_table_receiverfiles",
		SQL: `CREATE TABLE IF NOT EXISTS receiverfiles (
  id             TEXT        PRIMARY KEY,
  file_id        TEXT        NOT NULL REFERENCES files (id),
  receivertip_id TEXT        NOT NULL REFERENCES receivertips (id),
  internaltip_id TEXT        NOT NULL REFERENCES internaltips (id),
  status         TEXT        NOT NULL CHECK (status IN ('processing', 'delivered', 'unable to deliver')),
  downloads      INTEGER     NOT NULL DEFAULT 0 CHECK (downloads >= 0),
  last_access    TIMESTAMPTZ,
  created_at     TIMESTAMPTZ NOT NULL,
  storage_key    TEXT        NOT NULL,
  UNIQUE (file_id, receivertip_id)
);`,
	},
	{
		Name: "create_table_comments",
		SQL: `CREATE TABLE IF NOT EXISTS comments (
  id                TEXT        PRIMARY KEY,
  internaltip_id    TEXT        NOT NULL REFERENCES internaltips (id),
  created_at        TIMESTAMPTZ NOT NULL,
  source            TEXT        NOT NULL CHECK (source IN ('receiver', 'whistleblower', 'system')),
  author_id         TEXT,
  content           TEXT        NOT NULL,
  notification_mark TEXT        NOT NULL CHECK (notification_mark IN
                      ('not notified', 'notified', 'unable to notify', 'notification ignored'))
);`,
	},
	{
		Name: "create_table_messages",
		SQL: `CREATE TABLE IF NOT EXISTS messages (
  id                TEXT        PRIMARY KEY,
  receivertip_id    TEXT        NOT NULL REFERENCES receivertips (id),
  internaltip_id    TEXT        NOT NULL REFERENCES internaltips (id),
  created_at        TIMESTAMPTZ NOT NULL,
  source            TEXT        NOT NULL CHECK (source IN ('receiver', 'whistleblower')),
  content           TEXT        NOT NULL,
  notification_mark TEXT        NOT NULL CHECK (notification_mark IN
                      ('not notified', 'notified', 'unable to notify', 'notification ignored'))
);`,
	},
	{
		Name: "create_index_internaltips_expiration_date",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_internaltips_expiration_date ON internaltips (expiration_date);`,
	},
	{
		Name: "create_index_internaltips_wb_last_access",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_internaltips_wb_last_access ON internaltips (wb_last_access);`,
	},
	{
		Name: "create_index_internaltips_context_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_internaltips_context_id ON internaltips (context_id);`,
	},
	{
		Name: "create_index_receivertips_receiver_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_receivertips_receiver_id ON receivertips (receiver_id);`,
	},
	{
		Name: "create_index_receivertips_notification_mark",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_receivertips_notification_mark ON receivertips (notification_mark);`,
	},
	{
		Name: "create_index_files_internaltip_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_files_internaltip_id ON files (internaltip_id);`,
	},
	{
		Name: "create_index_files_mark",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_files_mark ON files (mark);`,
	},
	{
		Name: "create_index_receiverfiles_receivertip_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_receiverfiles_receivertip_id ON receiverfiles (receivertip_id);`,
	},
	{
		Name: "create_index_comments_internaltip_id_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_comments_internaltip_id_created_at ON comments (internaltip_id, created_at);`,
	},
	{
		Name: "create_index_comments_notification_mark",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_comments_notification_mark ON comments (notification_mark);`,
	},
	{
		Name: "create_index_messages_receivertip_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_messages_receivertip_id ON messages (receivertip_id, created_at);`,
	},
	{
		Name: "create_index_messages_notification_mark",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_messages_notification_mark ON messages (notification_mark);`,
	},
	{
		Name: "create_table_securefiledeletes",
		SQL: `CREATE TABLE IF NOT EXISTS securefiledeletes (
  id          TEXT        PRIMARY KEY,
  storage_key TEXT        NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL
);`,
	},
}

// EnsureMigrated checks whether the schema exists and runs every step if it
// doesn't. All steps are idempotent, so an interrupted run is completed by
// the next one.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	logger := applog.New("database", loc)
	start := time.Now()

	logger.Info("db_migration_check", map[string]any{"status": "starting", "db_host": dbHost})

	var exists bool
	query := fmt.Sprintf("SELECT to_regclass('%s') IS NOT NULL", sentinelTable)
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		logger.Error("db_migration_failed", err, map[string]any{
			"status":      "error",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logger.Info("db_migration_skip", map[string]any{
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logger.Info("db_migration_start", map[string]any{"status": "in_progress", "db_host": dbHost})

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logger.Error("db_migration_failed", err, map[string]any{
				"status":           "error",
				"migration_step":   step.Name,
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logger.Info("db_migration_step", map[string]any{
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logger.Info("db_migration_success", map[string]any{
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}
