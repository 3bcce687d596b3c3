package llmprovider

import (
	"context"
	"errors"
	"time"

	"github.com/linusssssai/feishu-bot-vercel/pkg/log"
)

// Manager runs every request on the primary path and, on any primary failure,
// exactly once on the fallback path.
type Manager struct {
	primary  Provider
	fallback Provider
	config   *Config
	logger   log.Logger
}

// Config defines configuration for the Provider Manager
type Config struct {
	FallbackEnabled bool
	// PrimaryTimeout bounds the primary attempt alone so the fallback still has time.
	PrimaryTimeout time.Duration
	// MaxTotalTimeout bounds the whole chain.
	MaxTotalTimeout time.Duration
}

// NewManager takes providers in priority order. The first is the primary, the
// second (when fallback is enabled) the fallback. Further entries are ignored.
func NewManager(providers []Provider, config *Config, logger log.Logger) *Manager {
	if config == nil {
		config = &Config{FallbackEnabled: true}
	}
	m := &Manager{config: config, logger: logger}
	if len(providers) > 0 {
		m.primary = providers[0]
	}
	if config.FallbackEnabled && len(providers) > 1 {
		m.fallback = providers[1]
	}
	return m
}

// Invoke runs the chain. On primary success the response carries the new
// continuation token; on fallback success it carries none.
func (m *Manager) Invoke(ctx context.Context, req *Request) (*Response, error) {
	if m.primary == nil {
		return nil, ErrNoProvidersConfigured
	}
	if req == nil || (req.Text == "" && len(req.Images) == 0) {
		return nil, ErrInvalidRequest
	}

	if m.config.MaxTotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.MaxTotalTimeout)
		defer cancel()
	}

	resp, err := m.tryPrimary(ctx, req)
	if err == nil {
		m.logSuccess(ctx, m.primary, req, resp)
		return resp, nil
	}
	m.logFailure(ctx, m.primary, req, err)
	primaryErr := &ProviderError{Provider: m.primary.Name(), Err: err}

	if m.fallback == nil {
		return nil, &ChainError{Primary: primaryErr}
	}

	resp, err = m.tryFallback(ctx, req)
	if err != nil {
		m.logFailure(ctx, m.fallback, req, err)
		return nil, &ChainError{
			Primary:  primaryErr,
			Fallback: &ProviderError{Provider: m.fallback.Name(), Err: err},
		}
	}
	m.logSuccess(ctx, m.fallback, req, resp)
	return resp, nil
}

func (m *Manager) tryPrimary(ctx context.Context, req *Request) (*Response, error) {
	if m.config.PrimaryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.PrimaryTimeout)
		defer cancel()
	}

	resp, err := m.primary.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp, req); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrMissingToken
	}
	return resp, nil
}

func (m *Manager) tryFallback(ctx context.Context, req *Request) (*Response, error) {
	resp, err := m.fallback.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp, req); err != nil {
		return nil, err
	}
	resp.Token = ""
	return resp, nil
}

func checkResponse(resp *Response, req *Request) error {
	if resp == nil || (resp.Text == "" && len(resp.Images) == 0) {
		return ErrEmptyResponse
	}
	if req.Validate != nil {
		if err := req.Validate(resp); err != nil {
			return errors.Join(ErrInvalidOutput, err)
		}
	}
	return nil
}

// logSuccess logs successful generation
func (m *Manager) logSuccess(ctx context.Context, provider Provider, req *Request, resp *Response) {
	m.logger.Info(ctx, "AI call successful",
		"provider", provider.Name(),
		"model", resp.Model,
		"capability", string(req.Capability),
		"has_token", resp.Token != "",
		"images", len(resp.Images),
	)
}

// logFailure logs failed generation attempts
func (m *Manager) logFailure(ctx context.Context, provider Provider, req *Request, err error) {
	m.logger.Warn(ctx, "AI call failed",
		"provider", provider.Name(),
		"model", provider.Model(),
		"capability", string(req.Capability),
		"error", err.Error(),
	)
}
