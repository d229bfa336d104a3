package auth

import (
	"context"

	"github.com/udehnih/review-rating/token"
)

// Authenticator runs the decode, validate and resolve steps for a raw
// credential. It is safe for concurrent use.
type Authenticator struct {
	codec     *token.Codec
	validator *token.Validator
	resolver  *Resolver
}

// NewAuthenticator creates a new Authenticator
func NewAuthenticator(codec *token.Codec, validator *token.Validator, resolver *Resolver) *Authenticator {
	return &Authenticator{
		codec:     codec,
		validator: validator,
		resolver:  resolver,
	}
}

// Authenticate returns the principal for raw. Errors wrap ErrMissingCredential,
// one of the token error kinds, ErrAuthorityLookup, or the context error.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*Principal, error) {
	if raw == "" {
		return nil, ErrMissingCredential
	}

	tok, err := a.codec.Decode(raw)
	if err != nil {
		return nil, err
	}

	verified, err := a.validator.Validate(ctx, tok)
	if err != nil {
		return nil, err
	}

	return a.resolver.Resolve(ctx, verified)
}
