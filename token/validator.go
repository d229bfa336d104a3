package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/clock"
)

// RevocationChecker reports whether a token id has been revoked
type RevocationChecker interface {
	IsRevoked(id string) bool
}

// ValidatorConfig holds configuration for Validator
type ValidatorConfig struct {
	Clock clock.Clock

	// Issuer, when set, must match the iss claim
	Issuer string

	// ExtraAlgorithms widens the allow-list beyond the material's own
	// algorithm. Each must belong to the same key family.
	ExtraAlgorithms []string

	Revocations RevocationChecker
}

// Validator verifies token signatures and expiry against process signing material
type Validator struct {
	material    *SigningMaterial
	clock       clock.Clock
	issuer      string
	allowed     []string
	revocations RevocationChecker
}

// NewValidator creates a new Validator
func NewValidator(material *SigningMaterial, config ValidatorConfig) (*Validator, error) {
	if material == nil || material.verifyKey == nil {
		return nil, fmt.Errorf("%w: no verification key", ErrInvalidSigningMaterial)
	}
	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	allowed := []string{material.Algorithm()}
	for _, alg := range config.ExtraAlgorithms {
		if alg == material.Algorithm() {
			continue
		}
		if familyOf(alg) != material.family {
			return nil, fmt.Errorf("%w: algorithm %q cannot be verified with %s keys",
				ErrInvalidSigningMaterial, alg, material.family)
		}
		allowed = append(allowed, alg)
	}

	return &Validator{
		material:    material,
		clock:       config.Clock,
		issuer:      config.Issuer,
		allowed:     allowed,
		revocations: config.Revocations,
	}, nil
}

// AllowedAlgorithms returns the header algorithms this validator accepts
func (v *Validator) AllowedAlgorithms() []string {
	out := make([]string, len(v.allowed))
	copy(out, v.allowed)
	return out
}

// Validate checks the token's algorithm, signature and expiry, in that order.
// Errors wrap exactly one of ErrMalformed, ErrInvalidSignature, ErrExpired or
// ErrRevoked, or the context error when ctx is done.
func (v *Validator) Validate(ctx context.Context, tok *Token) (*Verified, error) {
	if tok == nil {
		return nil, fmt.Errorf("%w: nil token", ErrMalformed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Never trust the header algorithm outright
	if !v.isAllowed(tok.algorithm) {
		return nil, fmt.Errorf("%w: algorithm %q is not allowed", ErrInvalidSignature, tok.algorithm)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.allowed),
		jwt.WithTimeFunc(v.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	_, err := jwt.NewParser(opts...).ParseWithClaims(tok.raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.material.verifyKey, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	if v.revocations != nil && v.revocations.IsRevoked(claims.ID) {
		return nil, fmt.Errorf("%w: jti %s", ErrRevoked, claims.ID)
	}

	return &Verified{token: tok}, nil
}

func (v *Validator) isAllowed(alg string) bool {
	for _, a := range v.allowed {
		if a == alg {
			return true
		}
	}
	return false
}

// classify maps golang-jwt errors onto this package's error kinds.
// The parser verifies the signature before any claim, so a forged
// expired token reports ErrInvalidSignature.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
