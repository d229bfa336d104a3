package auth

import "time"

// Principal is the authenticated identity attached to a request.
// It is built only from a verified token and never changes afterwards.
type Principal struct {
	subject     string
	email       string
	tokenID     string
	authorities []Authority
	expiresAt   time.Time
}

func newPrincipal(subject, email, tokenID string, authorities []Authority, expiresAt time.Time) *Principal {
	return &Principal{
		subject:     subject,
		email:       email,
		tokenID:     tokenID,
		authorities: authorities,
		expiresAt:   expiresAt,
	}
}

// Subject returns the token subject
func (p *Principal) Subject() string {
	return p.subject
}

// Email returns the email claim, if any
func (p *Principal) Email() string {
	return p.email
}

// TokenID returns the jti of the token the principal was built from
func (p *Principal) TokenID() string {
	return p.tokenID
}

// ExpiresAt returns when the underlying token expires
func (p *Principal) ExpiresAt() time.Time {
	return p.expiresAt
}

// Authorities returns a copy of the principal's authorities in claim order
func (p *Principal) Authorities() []Authority {
	out := make([]Authority, len(p.authorities))
	copy(out, p.authorities)
	return out
}

// AuthorityNames returns the authorities as plain strings
func (p *Principal) AuthorityNames() []string {
	out := make([]string, len(p.authorities))
	for i, a := range p.authorities {
		out[i] = string(a)
	}
	return out
}

// HasAuthority reports whether the principal holds a
func (p *Principal) HasAuthority(a Authority) bool {
	for _, have := range p.authorities {
		if have == a {
			return true
		}
	}
	return false
}

// HasAnyAuthority reports whether the principal holds at least one of want
func (p *Principal) HasAnyAuthority(want ...Authority) bool {
	for _, a := range want {
		if p.HasAuthority(a) {
			return true
		}
	}
	return false
}
