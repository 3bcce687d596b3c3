package llmprovider

import "context"

// Capability names the kind of work a request asks for.
type Capability string

const (
	CapabilityChat               Capability = "chat"
	CapabilityImageGeneration    Capability = "image_generation"
	CapabilityImageUnderstanding Capability = "image_understanding"
	CapabilityIntent             Capability = "intent_classification"
	CapabilityTableOperation     Capability = "table_operation"
)

// Provider defines the interface for one AI call path
type Provider interface {
	// Generate runs the request. Stateful providers return a continuation token.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Name returns the provider name (e.g., "interactions", "genai")
	Name() string

	// Model returns the default model being used
	Model() string
}

// Image is inline image data sent to or received from a provider.
type Image struct {
	Data     []byte
	MIMEType string
}

// Request is one logical AI call. The same request is replayed on the fallback.
type Request struct {
	Capability        Capability
	SystemInstruction string
	Text              string
	Images            []Image
	// ResponseSchema asks for typed JSON output.
	ResponseSchema map[string]any
	// PreviousToken resumes the provider-side context. Stateless providers ignore it.
	PreviousToken string
	// Validate rejects output the caller cannot use. A rejected primary answer
	// is treated as a primary failure.
	Validate func(*Response) error
}

// Response is the normalized answer.
type Response struct {
	Text   string
	Images []Image
	// Token is the new continuation token. Always set on primary success and
	// always empty on fallback success.
	Token    string
	Provider string
	Model    string
}

// Fallback reports whether the answer came from the stateless path.
func (r *Response) Fallback() bool {
	return r.Token == ""
}
