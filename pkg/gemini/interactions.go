package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type interactionsImpl struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func newInteractionsImpl(cfg Config) *interactionsImpl {
	return &interactionsImpl{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.ChatModel,
		httpClient: cfg.HTTPClient,
	}
}

// Create posts one interaction. An empty req.Model uses the client's chat model.
func (c *interactionsImpl) Create(ctx context.Context, req InteractionRequest) (*Interaction, error) {
	if req.Model == "" {
		req.Model = c.model
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to marshal interaction: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/interactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(headerAPIKey, c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to call interactions API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var result Interaction
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("gemini: failed to decode interaction: %w", err)
	}
	if len(result.Outputs) == 0 {
		return nil, ErrEmptyOutput
	}

	return &result, nil
}

// Model returns the default chat model
func (c *interactionsImpl) Model() string {
	return c.model
}
