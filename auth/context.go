package auth

import "context"

type contextKey string

const (
	principalKey  contextKey = "principal"
	credentialKey contextKey = "credential"
)

// WithPrincipal attaches an authenticated principal to ctx
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the request's principal, or nil for an
// anonymous request
func PrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey).(*Principal); ok {
		return p
	}
	return nil
}

// WithCredential attaches the raw bearer token the principal was built from
func WithCredential(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, credentialKey, raw)
}

// CredentialFromContext returns the raw bearer token of the current request
func CredentialFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(credentialKey).(string)
	return raw, ok && raw != ""
}
