package router

// Log prefixes
const (
	LogPrefixClassify = "internal.router.ClassifyMedia"
)

// Router configuration
const (
	RouterFallbackIntent = IntentCasual
)

// Error messages
const (
	ErrMsgLLMCallFailed   = "AI call failed, falling back to casual"
	ErrMsgJSONParseFailed = "Failed to parse JSON, falling back to casual"
)
