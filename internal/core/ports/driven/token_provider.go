package driven

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenProvider acquires OAuth2 access tokens.
// Each call performs a fresh exchange; callers decide when to call it.
type TokenProvider interface {
	// Token returns a newly issued access token.
	Token(ctx context.Context) (*oauth2.Token, error)
}
