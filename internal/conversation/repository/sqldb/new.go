package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/linusssssai/feishu-bot-vercel/internal/conversation/repository"
	"github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

type implRepository struct {
	db  *sql.DB
	d   dialect
	l   log.Logger
	now func() time.Time
}

// Open connects to dsn with the given driver and creates the sessions table.
func Open(ctx context.Context, driver, dsn string, l log.Logger) (*implRepository, error) {
	if _, err := dialectFor(driver); err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqldb: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer avoids SQLITE_BUSY from the detached save goroutines.
		db.SetMaxOpenConns(1)
	}

	r, err := New(db, driver, l)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// New wraps an existing handle. The schema must already exist.
func New(db *sql.DB, driver string, l log.Logger) (*implRepository, error) {
	if db == nil {
		panic("conversation/repository/sqldb: db is required")
	}
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &implRepository{db: db, d: d, l: l, now: time.Now}, nil
}

func (r *implRepository) migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.d.schema); err != nil {
		return fmt.Errorf("sqldb: migrate: %w", err)
	}
	return nil
}

func (r *implRepository) Close() error {
	return r.db.Close()
}

// dsn is a helper to return a method-scoped context string for logging.
func (r *implRepository) dsn(method string) string {
	return fmt.Sprintf("conversation/repository/sqldb(%s).%s", r.d.name, method)
}

var _ repository.Repository = (*implRepository)(nil)
