package conversation

import "time"

// Config tunes the in-process tier and the background writes.
type Config struct {
	TTL          time.Duration
	MaxSessions  int
	RowTTL       time.Duration
	WriteTimeout time.Duration
}

// Stats is a snapshot of the in-process tier.
type Stats struct {
	Total       int
	MaxSessions int
	TTL         time.Duration
	Oldest      time.Time
	Newest      time.Time
}
