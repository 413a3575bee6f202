package soap

import (
	"context"

	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.ObjectSource = (*Source)(nil)

// Source opens retrieval sessions, each with its own Authenticator.
type Source struct {
	client *Client
	tokens driven.TokenProvider
}

// NewSource creates a source for the client, authenticating with tokens.
func NewSource(client *Client, tokens driven.TokenProvider) *Source {
	return &Source{client: client, tokens: tokens}
}

// Open acquires a token and returns a lazy iterator for spec.
func (s *Source) Open(ctx context.Context, spec domain.ObjectTypeSpec) (driven.ObjectIterator, error) {
	auth, err := NewAuthenticator(ctx, s.tokens)
	if err != nil {
		return nil, err
	}
	return NewRetriever(s.client, auth).Retrieve(spec), nil
}
