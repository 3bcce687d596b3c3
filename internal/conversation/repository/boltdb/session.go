package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/linusssssai/feishu-bot-vercel/internal/conversation/repository"
	"github.com/linusssssai/feishu-bot-vercel/internal/model"
)

// record is the JSON value stored per session key.
type record struct {
	Context   model.ConversationContext `json:"conversation_context"`
	ExpiresAt int64                     `json:"expires_at"`
	UpdatedAt int64                     `json:"updated_at"`
}

func (r *implRepository) Get(ctx context.Context, id string) (model.ConversationContext, error) {
	var rec record
	found := false

	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSessions).Get([]byte(id))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		r.l.Warnf(ctx, "conversation/repository/boltdb.Get: %s: %v", id, err)
		return model.ConversationContext{}, fmt.Errorf("%w: %v", repository.ErrFailedToGet, err)
	}
	if !found || r.now().UnixMilli() > rec.ExpiresAt {
		return model.ConversationContext{}, repository.ErrNotFound
	}
	return rec.Context, nil
}

// Save stores the row unless a newer one is already present.
func (r *implRepository) Save(ctx context.Context, opt repository.SaveOptions) error {
	expiresAt := opt.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = r.now().Add(repository.DefaultRowTTL)
	}
	updatedAt := opt.Context.LastUpdateTime
	if updatedAt.IsZero() {
		updatedAt = r.now()
	}

	rec := record{Context: opt.Context, ExpiresAt: expiresAt.UnixMilli(), UpdatedAt: updatedAt.UnixMilli()}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrFailedToSave, err)
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		if prev := b.Get([]byte(opt.ID)); prev != nil {
			var old record
			if json.Unmarshal(prev, &old) == nil && old.UpdatedAt > rec.UpdatedAt {
				return nil
			}
		}
		return b.Put([]byte(opt.ID), raw)
	})
	if err != nil {
		r.l.Errorf(ctx, "conversation/repository/boltdb.Save: %v", err)
		return fmt.Errorf("%w: %v", repository.ErrFailedToSave, err)
	}
	return nil
}

func (r *implRepository) Delete(ctx context.Context, id string) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", repository.ErrFailedToDelete, err)
	}
	return nil
}

func (r *implRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	cutoff := now.UnixMilli()

	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var rec record
			if json.Unmarshal(v, &rec) != nil || rec.ExpiresAt < cutoff {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		r.l.Errorf(ctx, "conversation/repository/boltdb.DeleteExpired: %v", err)
		return 0, fmt.Errorf("%w: %v", repository.ErrFailedToDelete, err)
	}
	return removed, nil
}
