package marketingcloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sfmc-extract/internal/logger"
)

// tokenRequest is the client-credentials grant body.
type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// tokenResponse is the token endpoint response.
type tokenResponse struct {
	AccessToken     string `json:"access_token"`
	TokenType       string `json:"token_type"`
	ExpiresIn       int    `json:"expires_in"`
	SOAPInstanceURL string `json:"soap_instance_url"`
	RESTInstanceURL string `json:"rest_instance_url"`
}

// OAuthClient exchanges client credentials for access tokens.
// It holds no token state; every Acquire is a fresh exchange.
type OAuthClient struct {
	config     *Config
	httpClient *http.Client
}

// NewOAuthClient creates a token client.
func NewOAuthClient(cfg *Config) *OAuthClient {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &OAuthClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.CallTimeout},
	}
}

// Acquire performs a client-credentials exchange.
// Any transport error, non-2xx status or malformed body is reported as domain.ErrAuthFailure.
func (c *OAuthClient) Acquire(ctx context.Context, creds Credentials) (*oauth2.Token, error) {
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthFailure, err)
	}

	body, err := json.Marshal(tokenRequest{
		GrantType:    "client_credentials",
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode token request: %w", domain.ErrAuthFailure, err)
	}

	tokenURL := c.config.TokenURL(creds.Subdomain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrAuthFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger.Debug("marketingcloud: requesting access token from %s", tokenURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token request: %w", domain.ErrAuthFailure, err)
	}
	defer resp.Body.Close()

	if !IsSuccess(resp.StatusCode) {
		//nolint:errcheck // body is only used for diagnostics
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Debug("marketingcloud: token request failed with body: %s", string(snippet))
		if wrapped := WrapError(resp.StatusCode); wrapped != nil {
			return nil, fmt.Errorf("%w: status %d: %w", domain.ErrAuthFailure, resp.StatusCode, wrapped)
		}
		return nil, fmt.Errorf("%w: status %d", domain.ErrAuthFailure, resp.StatusCode)
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("%w: decode token response: %w", domain.ErrAuthFailure, err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthFailure, ErrMissingAccessToken)
	}

	token := &oauth2.Token{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
	}
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}
	if tokenResp.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}
	token = token.WithExtra(map[string]any{
		"soap_instance_url": tokenResp.SOAPInstanceURL,
		"rest_instance_url": tokenResp.RESTInstanceURL,
	})

	logger.Debug("marketingcloud: acquired access token (expires in %ds)", tokenResp.ExpiresIn)
	return token, nil
}

// TokenSource binds credentials to the client as a driven.TokenProvider.
func (c *OAuthClient) TokenSource(creds Credentials) driven.TokenProvider {
	return &credentialTokenSource{client: c, creds: creds}
}

// credentialTokenSource implements driven.TokenProvider for fixed credentials.
type credentialTokenSource struct {
	client *OAuthClient
	creds  Credentials
}

func (s *credentialTokenSource) Token(ctx context.Context) (*oauth2.Token, error) {
	return s.client.Acquire(ctx, s.creds)
}
