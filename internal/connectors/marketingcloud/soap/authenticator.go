package soap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sfmc-extract/internal/logger"
)

// maxAttempts bounds each logical call to the original attempt plus one
// retry after a token refresh.
const maxAttempts = 2

// RequestFunc performs one SOAP operation signed with token.
type RequestFunc func(ctx context.Context, token string) Result

// Authenticator holds the access token used to sign SOAP envelopes and
// refreshes it when the service reports expiry.
//
// Refresh replaces the held token; concurrent Execute calls read it under
// a lock. Object types extracted in parallel should use separate instances.
type Authenticator struct {
	tokens driven.TokenProvider

	mu        sync.RWMutex
	token     *oauth2.Token
	refreshes int
}

// NewAuthenticator acquires an initial token from tokens.
// A failure is returned as-is so callers can tell bad credentials apart
// from per-request faults.
func NewAuthenticator(ctx context.Context, tokens driven.TokenProvider) (*Authenticator, error) {
	token, err := tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", domain.ErrAuthFailure)
	}
	return &Authenticator{tokens: tokens, token: token}, nil
}

// Execute runs fn with the current token. If fn reports an expired token,
// the token is refreshed and fn is retried once. Every other failure, and a
// second expiry or a failed refresh, is returned wrapping
// domain.ErrSoapOperation.
func (a *Authenticator) Execute(ctx context.Context, fn RequestFunc) (*RetrieveResponse, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		res := fn(ctx, a.AccessToken())

		switch res.Kind {
		case ResultOK:
			if res.Response == nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrSoapOperation, ErrMissingResponse)
			}
			return res.Response, nil

		case ResultExpired:
			if attempt == maxAttempts {
				return nil, fmt.Errorf("%w: token still rejected after refresh: %w",
					domain.ErrSoapOperation, expiredCause(res.Err))
			}
			logger.Info("soap: token expired, refreshing (attempt %d/%d)", attempt, maxAttempts)
			if err := a.refresh(ctx); err != nil {
				// the cause is not wrapped: a failed refresh is an operation failure
				return nil, fmt.Errorf("%w: refresh token: %v", domain.ErrSoapOperation, err)
			}

		default:
			return nil, fmt.Errorf("%w: %w", domain.ErrSoapOperation, res.Err)
		}
	}

	// unreachable: the loop returns on every path of the final attempt
	return nil, domain.ErrSoapOperation
}

// AccessToken returns the bearer string currently injected into envelopes.
func (a *Authenticator) AccessToken() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token.AccessToken
}

// Refreshes returns how many times the token has been refreshed.
func (a *Authenticator) Refreshes() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.refreshes
}

func (a *Authenticator) refresh(ctx context.Context) error {
	token, err := a.tokens.Token(ctx)
	if err != nil {
		return err
	}
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", domain.ErrAuthFailure)
	}

	a.mu.Lock()
	a.token = token
	a.refreshes++
	a.mu.Unlock()
	return nil
}

// expiredCause guarantees the returned error matches domain.ErrTokenExpired.
func expiredCause(err error) error {
	if err == nil {
		return domain.ErrTokenExpired
	}
	if errors.Is(err, domain.ErrTokenExpired) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrTokenExpired, err)
}
