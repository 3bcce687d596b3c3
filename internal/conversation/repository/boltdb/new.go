package boltdb

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/linusssssai/feishu-bot-vercel/internal/conversation/repository"
	"github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

var bucketSessions = []byte("conversation_sessions")

type implRepository struct {
	db  *bolt.DB
	l   log.Logger
	now func() time.Time
}

// Open opens (or creates) the bolt file at path.
func Open(path string, l log.Logger) (*implRepository, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltdb: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, errCreate := tx.CreateBucketIfNotExists(bucketSessions)
		return errCreate
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltdb: create bucket: %w", err)
	}

	return &implRepository{db: db, l: l, now: time.Now}, nil
}

func (r *implRepository) Close() error {
	return r.db.Close()
}

var _ repository.Repository = (*implRepository)(nil)
