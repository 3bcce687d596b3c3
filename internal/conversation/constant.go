package conversation

import "time"

// Log prefixes
const (
	LogPrefixGet      = "internal.conversation.Get"
	LogPrefixCleanup  = "internal.conversation.Cleanup"
	LogPrefixDetached = "internal.conversation.detached"
	LogPrefixRun      = "internal.conversation.Run"
)

// Defaults
const (
	DefaultTTL          = 24 * time.Hour
	DefaultMaxSessions  = 10000
	DefaultWriteTimeout = 10 * time.Second
)
