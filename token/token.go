package token

import "time"

// Token is a decoded compact JWT. It is immutable; accessors return copies.
// A Token is not trusted until a Validator turns it into a Verified.
type Token struct {
	raw       string
	algorithm string
	claims    Claims
	signature []byte
}

// Raw returns the compact serialized form
func (t *Token) Raw() string {
	return t.raw
}

// Algorithm returns the algorithm declared in the header
func (t *Token) Algorithm() string {
	return t.algorithm
}

// Subject returns the subject identifier
func (t *Token) Subject() string {
	return t.claims.Subject
}

// Authorities returns the authority strings as declared in the payload
func (t *Token) Authorities() []string {
	out := make([]string, len(t.claims.Authorities))
	copy(out, t.claims.Authorities)
	return out
}

// Email returns the optional email claim
func (t *Token) Email() string {
	return t.claims.Email
}

// ID returns the token id (jti)
func (t *Token) ID() string {
	return t.claims.ID
}

// Issuer returns the issuer claim
func (t *Token) Issuer() string {
	return t.claims.Issuer
}

// IssuedAt returns the issued-at instant, zero if absent
func (t *Token) IssuedAt() time.Time {
	if t.claims.IssuedAt == nil {
		return time.Time{}
	}
	return t.claims.IssuedAt.Time
}

// ExpiresAt returns the expiry instant, zero if absent
func (t *Token) ExpiresAt() time.Time {
	if t.claims.ExpiresAt == nil {
		return time.Time{}
	}
	return t.claims.ExpiresAt.Time
}

// Extension returns an optional extension claim
func (t *Token) Extension(key string) (interface{}, bool) {
	v, ok := t.claims.Extensions[key]
	return v, ok
}

// Signature returns a copy of the decoded signature bytes
func (t *Token) Signature() []byte {
	out := make([]byte, len(t.signature))
	copy(out, t.signature)
	return out
}

// Verified wraps a Token whose signature and expiry were checked by a Validator.
// Only this package can construct a usable Verified.
type Verified struct {
	token *Token
}

// Token returns the verified token, nil for a zero Verified
func (v *Verified) Token() *Token {
	if v == nil {
		return nil
	}
	return v.token
}
