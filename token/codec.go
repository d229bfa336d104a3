package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/juju/clock"
)

// CodecConfig holds configuration for Codec
type CodecConfig struct {
	Issuer        string
	Clock         clock.Clock
	ExtensionKeys []string
}

// EncodeOptions carries the optional claims for EncodeWithOptions
type EncodeOptions struct {
	Email      string
	Extensions map[string]interface{}
}

// Codec encodes and structurally decodes tokens. It never verifies signatures.
type Codec struct {
	material   *SigningMaterial
	clock      clock.Clock
	issuer     string
	extensions extensionSet
	parser     *jwt.Parser
}

// NewCodec creates a new Codec bound to the given signing material
func NewCodec(material *SigningMaterial, config CodecConfig) (*Codec, error) {
	if material == nil {
		return nil, fmt.Errorf("%w: material is nil", ErrInvalidSigningMaterial)
	}
	if config.Clock == nil {
		config.Clock = clock.WallClock
	}
	if config.ExtensionKeys == nil {
		config.ExtensionKeys = DefaultExtensionKeys
	}

	return &Codec{
		material:   material,
		clock:      config.Clock,
		issuer:     config.Issuer,
		extensions: newExtensionSet(config.ExtensionKeys),
		parser:     jwt.NewParser(),
	}, nil
}

// Encode issues a token for subject valid from now until now+ttl
func (c *Codec) Encode(subject string, authorities []string, ttl time.Duration) (*Token, error) {
	return c.EncodeWithOptions(subject, authorities, ttl, EncodeOptions{})
}

// EncodeWithOptions is Encode with optional email and extension claims
func (c *Codec) EncodeWithOptions(subject string, authorities []string, ttl time.Duration, opts EncodeOptions) (*Token, error) {
	if !c.material.CanSign() {
		return nil, ErrSigningUnavailable
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive, got %s", ErrInvalidInput, ttl)
	}
	if err := c.extensions.check(opts.Extensions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := c.clock.Now()
	roles := make([]string, len(authorities))
	copy(roles, authorities)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Authorities: roles,
		Email:       opts.Email,
		Extensions:  opts.Extensions,
	}

	raw, err := jwt.NewWithClaims(c.material.method, claims).SignedString(c.material.signKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return c.Decode(raw)
}

// Decode parses the compact form into a Token without verifying the signature
func (c *Codec) Decode(raw string) (*Token, error) {
	if strings.Count(raw, ".") != 2 {
		return nil, fmt.Errorf("%w: expected three segments", ErrMalformed)
	}

	claims := &Claims{}
	parsed, parts, err := c.parser.ParseUnverified(raw, claims)
	// An unknown or missing algorithm is still structurally decodable;
	// the Validator rejects it against its allow-list.
	if err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	alg, _ := parsed.Header["alg"].(string)
	if alg == "" {
		return nil, fmt.Errorf("%w: header has no alg", ErrMalformed)
	}

	signature, err := c.parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature segment: %v", ErrMalformed, err)
	}

	if err := c.extensions.check(claims.Extensions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &Token{
		raw:       raw,
		algorithm: alg,
		claims:    *claims,
		signature: signature,
	}, nil
}
