package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// tenantTokenSource fetches app-level tenant access tokens. It is wrapped in
// oauth2.ReuseTokenSourceWithExpiry so a token is fetched once and reused
// until shortly before it expires.
type tenantTokenSource struct {
	appID      string
	appSecret  string
	baseURL    string
	httpClient *http.Client
}

type tenantTokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int64  `json:"expire"`
}

func (s *tenantTokenSource) Token() (*oauth2.Token, error) {
	body, _ := json.Marshal(map[string]string{
		"app_id":     s.appID,
		"app_secret": s.appSecret,
	})

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/v3/tenant_access_token/internal", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("feishu: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feishu: failed to fetch tenant token: %w", err)
	}
	defer resp.Body.Close()

	var out tenantTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("feishu: failed to decode tenant token: %w", err)
	}
	if out.Code != 0 || out.TenantAccessToken == "" {
		return nil, &APIError{Code: out.Code, Msg: out.Msg}
	}

	return &oauth2.Token{
		AccessToken: out.TenantAccessToken,
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Duration(out.Expire) * time.Second),
	}, nil
}
