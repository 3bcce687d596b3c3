package gemini

import "time"

const (
	// DefaultBaseURL is the Generative Language API root used by the Interactions client.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	DefaultChatModel  = "gemini-3-flash-preview"
	DefaultImageModel = "gemini-2.5-flash-image"
	DefaultVideoModel = "veo-3.1-generate-preview"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 60 * time.Second

	// Veo jobs are polled at this interval for at most this many attempts.
	DefaultVideoPollInterval = 10 * time.Second
	DefaultVideoPollAttempts = 36
)

// Response modalities
const (
	ModalityText  = "TEXT"
	ModalityImage = "IMAGE"
)

// Interaction output and input item types
const (
	ItemText  = "text"
	ItemImage = "image"
)

const headerAPIKey = "x-goog-api-key"
