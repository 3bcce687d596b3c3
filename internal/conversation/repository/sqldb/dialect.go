package sqldb

import (
	"fmt"

	"github.com/linusssssai/feishu-bot-vercel/internal/conversation/repository"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// dialect holds the statements that differ between drivers.
type dialect struct {
	name   string
	schema string
	upsert string
	// placeholder renders the n-th (1-based) bind parameter.
	placeholder func(n int) string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverPostgres:
		return dialect{
			name: DriverPostgres,
			schema: `CREATE TABLE IF NOT EXISTS conversation_sessions (
				session_id           VARCHAR(255) PRIMARY KEY,
				conversation_context TEXT         NOT NULL,
				last_interaction_id  VARCHAR(255) NOT NULL DEFAULT '',
				expires_at           BIGINT       NOT NULL,
				updated_at           BIGINT       NOT NULL
			)`,
			upsert: `INSERT INTO conversation_sessions
				(session_id, conversation_context, last_interaction_id, expires_at, updated_at)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (session_id) DO UPDATE SET
					conversation_context = excluded.conversation_context,
					last_interaction_id  = excluded.last_interaction_id,
					expires_at           = excluded.expires_at,
					updated_at           = excluded.updated_at
				WHERE conversation_sessions.updated_at <= excluded.updated_at`,
			placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		}, nil

	case DriverSQLite:
		return dialect{
			name: DriverSQLite,
			schema: `CREATE TABLE IF NOT EXISTS conversation_sessions (
				session_id           TEXT    PRIMARY KEY,
				conversation_context TEXT    NOT NULL,
				last_interaction_id  TEXT    NOT NULL DEFAULT '',
				expires_at           INTEGER NOT NULL,
				updated_at           INTEGER NOT NULL
			)`,
			upsert: `INSERT INTO conversation_sessions
				(session_id, conversation_context, last_interaction_id, expires_at, updated_at)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (session_id) DO UPDATE SET
					conversation_context = excluded.conversation_context,
					last_interaction_id  = excluded.last_interaction_id,
					expires_at           = excluded.expires_at,
					updated_at           = excluded.updated_at
				WHERE conversation_sessions.updated_at <= excluded.updated_at`,
			placeholder: func(int) string { return "?" },
		}, nil

	case DriverMySQL:
		// updated_at is assigned last so the IF guards compare against the old value.
		return dialect{
			name: DriverMySQL,
			schema: `CREATE TABLE IF NOT EXISTS conversation_sessions (
				session_id           VARCHAR(191) NOT NULL PRIMARY KEY,
				conversation_context MEDIUMTEXT   NOT NULL,
				last_interaction_id  VARCHAR(255) NOT NULL DEFAULT '',
				expires_at           BIGINT       NOT NULL,
				updated_at           BIGINT       NOT NULL
			)`,
			upsert: `INSERT INTO conversation_sessions
				(session_id, conversation_context, last_interaction_id, expires_at, updated_at)
				VALUES (?, ?, ?, ?, ?)
				ON DUPLICATE KEY UPDATE
					conversation_context = IF(updated_at <= VALUES(updated_at), VALUES(conversation_context), conversation_context),
					last_interaction_id  = IF(updated_at <= VALUES(updated_at), VALUES(last_interaction_id), last_interaction_id),
					expires_at           = IF(updated_at <= VALUES(updated_at), VALUES(expires_at), expires_at),
					updated_at           = GREATEST(updated_at, VALUES(updated_at))`,
			placeholder: func(int) string { return "?" },
		}, nil

	default:
		return dialect{}, fmt.Errorf("%w: %s", repository.ErrUnsupportedKind, driver)
	}
}
