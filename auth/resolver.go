package auth

import (
	"context"
	"fmt"

	"github.com/udehnih/review-rating/token"
	"go.uber.org/zap"
)

// RoleSource selects where a principal's authorities come from
type RoleSource string

const (
	// RoleSourceEmbedded trusts the roles claim of the verified token
	RoleSourceEmbedded RoleSource = "embedded"

	// RoleSourceLookup replaces the roles claim with the authority store's
	// current answer for the subject
	RoleSourceLookup RoleSource = "lookup"
)

// AuthorityLookup loads the stored roles of a subject
type AuthorityLookup interface {
	FindAuthorities(ctx context.Context, subject string) ([]string, error)
}

// Resolver turns verified tokens into principals
type Resolver struct {
	source RoleSource
	lookup AuthorityLookup
	logger *zap.Logger
}

// NewResolver creates a new Resolver. lookup may be nil for RoleSourceEmbedded.
func NewResolver(source RoleSource, lookup AuthorityLookup, logger *zap.Logger) (*Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch source {
	case "", RoleSourceEmbedded:
		source = RoleSourceEmbedded
	case RoleSourceLookup:
		if lookup == nil {
			return nil, fmt.Errorf("role source %q requires an authority lookup", source)
		}
	default:
		return nil, fmt.Errorf("unknown role source %q", source)
	}
	return &Resolver{source: source, lookup: lookup, logger: logger}, nil
}

// Source returns the configured role source
func (r *Resolver) Source() RoleSource {
	return r.source
}

// Resolve builds the Principal for a verified token. Unknown role names are
// dropped with a warning; duplicates collapse to their first occurrence.
func (r *Resolver) Resolve(ctx context.Context, verified *token.Verified) (*Principal, error) {
	tok := verified.Token()
	if tok == nil {
		return nil, ErrUnverified
	}

	roles := tok.Authorities()
	if r.source == RoleSourceLookup {
		stored, err := r.lookup.FindAuthorities(ctx, tok.Subject())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuthorityLookup, err)
		}
		roles = stored
	}

	return newPrincipal(
		tok.Subject(),
		tok.Email(),
		tok.ID(),
		r.mapAuthorities(tok.Subject(), roles),
		tok.ExpiresAt(),
	), nil
}

func (r *Resolver) mapAuthorities(subject string, roles []string) []Authority {
	out := make([]Authority, 0, len(roles))
	seen := make(map[Authority]struct{}, len(roles))
	for _, role := range roles {
		a, ok := ParseAuthority(role)
		if !ok {
			r.logger.Warn("dropping unknown role",
				zap.String("sub", subject),
				zap.String("role", role))
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
