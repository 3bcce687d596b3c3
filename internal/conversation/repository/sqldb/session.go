package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/linusssssai/feishu-bot-vercel/internal/conversation/repository"
	"github.com/linusssssai/feishu-bot-vercel/internal/model"
)

// Get returns the stored context, or ErrNotFound when missing or past its expiry.
func (r *implRepository) Get(ctx context.Context, id string) (model.ConversationContext, error) {
	query := fmt.Sprintf(
		`SELECT conversation_context, expires_at FROM conversation_sessions WHERE session_id = %s`,
		r.d.placeholder(1),
	)

	var (
		raw       string
		expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&raw, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ConversationContext{}, repository.ErrNotFound
	}
	if err != nil {
		r.l.Errorf(ctx, "%s: %v", r.dsn("Get"), err)
		return model.ConversationContext{}, fmt.Errorf("%w: %v", repository.ErrFailedToGet, err)
	}

	if r.now().UnixMilli() > expiresAt {
		return model.ConversationContext{}, repository.ErrNotFound
	}

	var cc model.ConversationContext
	if err := json.Unmarshal([]byte(raw), &cc); err != nil {
		r.l.Warnf(ctx, "%s: corrupt row %s: %v", r.dsn("Get"), id, err)
		return model.ConversationContext{}, fmt.Errorf("%w: %v", repository.ErrFailedToGet, err)
	}
	return cc, nil
}

// Save upserts the row. An older write never replaces a newer one.
func (r *implRepository) Save(ctx context.Context, opt repository.SaveOptions) error {
	raw, err := json.Marshal(opt.Context)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrFailedToSave, err)
	}

	expiresAt := opt.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = r.now().Add(repository.DefaultRowTTL)
	}
	updatedAt := opt.Context.LastUpdateTime
	if updatedAt.IsZero() {
		updatedAt = r.now()
	}

	_, err = r.db.ExecContext(ctx, r.d.upsert,
		opt.ID, string(raw), opt.Context.LastContinuationToken,
		expiresAt.UnixMilli(), updatedAt.UnixMilli(),
	)
	if err != nil {
		r.l.Errorf(ctx, "%s: %v", r.dsn("Save"), err)
		return fmt.Errorf("%w: %v", repository.ErrFailedToSave, err)
	}
	return nil
}

func (r *implRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM conversation_sessions WHERE session_id = %s`, r.d.placeholder(1))
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		r.l.Errorf(ctx, "%s: %v", r.dsn("Delete"), err)
		return fmt.Errorf("%w: %v", repository.ErrFailedToDelete, err)
	}
	return nil
}

func (r *implRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM conversation_sessions WHERE expires_at < %s`, r.d.placeholder(1))
	res, err := r.db.ExecContext(ctx, query, now.UnixMilli())
	if err != nil {
		r.l.Errorf(ctx, "%s: %v", r.dsn("DeleteExpired"), err)
		return 0, fmt.Errorf("%w: %v", repository.ErrFailedToDelete, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
