package gemini

import "context"

// IInteractions is the stateful Interactions API. Every answer carries an id
// that can be passed back as PreviousInteractionID to continue the exchange.
// Implementations are safe for concurrent use.
type IInteractions interface {
	Create(ctx context.Context, req InteractionRequest) (*Interaction, error)
	Model() string
}

// IGenAI is the stateless generateContent surface plus Veo video jobs.
type IGenAI interface {
	GenerateContent(ctx context.Context, req ContentRequest) (*ContentResponse, error)
	GenerateVideo(ctx context.Context, req VideoRequest) (*Video, error)
	Model() string
}

// NewInteractions creates an Interactions API client.
func NewInteractions(cfg Config) (IInteractions, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newInteractionsImpl(cfg), nil
}
