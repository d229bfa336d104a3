package token

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// minHMACKeyBytes maps each HMAC algorithm to the smallest accepted secret size
var minHMACKeyBytes = map[string]int{
	"HS256": 32,
	"HS384": 48,
	"HS512": 64,
}

// keyFamily groups algorithms that verify with the same kind of key
type keyFamily string

const (
	familyHMAC    keyFamily = "hmac"
	familyRSA     keyFamily = "rsa"
	familyEd25519 keyFamily = "ed25519"
)

// SigningMaterial holds the process-wide key material used to sign and verify tokens.
// It is built once at startup and never mutated afterwards.
type SigningMaterial struct {
	method    jwt.SigningMethod
	family    keyFamily
	signKey   interface{}
	verifyKey interface{}
}

// NewHMACMaterial creates signing material for HS256, HS384 or HS512
func NewHMACMaterial(algorithm string, secret []byte) (*SigningMaterial, error) {
	minLen, ok := minHMACKeyBytes[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an HMAC algorithm", ErrInvalidSigningMaterial, algorithm)
	}
	if len(secret) < minLen {
		return nil, fmt.Errorf("%w: %s requires a secret of at least %d bytes, got %d",
			ErrInvalidSigningMaterial, algorithm, minLen, len(secret))
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	return &SigningMaterial{
		method:    jwt.GetSigningMethod(algorithm),
		family:    familyHMAC,
		signKey:   key,
		verifyKey: key,
	}, nil
}

// NewAsymmetricMaterial creates signing material for RS256/RS384/RS512 or EdDSA from PEM.
// privatePEM may be empty for verification-only services, in which case publicPEM is required.
// When both are given the public key is taken from publicPEM.
func NewAsymmetricMaterial(algorithm string, privatePEM, publicPEM []byte) (*SigningMaterial, error) {
	if len(privatePEM) == 0 && len(publicPEM) == 0 {
		return nil, fmt.Errorf("%w: %s requires a private or public key", ErrInvalidSigningMaterial, algorithm)
	}

	switch algorithm {
	case "RS256", "RS384", "RS512":
		return newRSAMaterial(algorithm, privatePEM, publicPEM)
	case "EdDSA":
		return newEd25519Material(privatePEM, publicPEM)
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidSigningMaterial, algorithm)
	}
}

func newRSAMaterial(algorithm string, privatePEM, publicPEM []byte) (*SigningMaterial, error) {
	m := &SigningMaterial{
		method: jwt.GetSigningMethod(algorithm),
		family: familyRSA,
	}

	if len(privatePEM) > 0 {
		priv, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
		if err != nil {
			return nil, fmt.Errorf("%w: parse RSA private key: %v", ErrInvalidSigningMaterial, err)
		}
		m.signKey = priv
		m.verifyKey = &priv.PublicKey
	}

	if len(publicPEM) > 0 {
		pub, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
		if err != nil {
			return nil, fmt.Errorf("%w: parse RSA public key: %v", ErrInvalidSigningMaterial, err)
		}
		if priv, ok := m.signKey.(*rsa.PrivateKey); ok && !priv.PublicKey.Equal(pub) {
			return nil, fmt.Errorf("%w: RSA public key does not match private key", ErrInvalidSigningMaterial)
		}
		m.verifyKey = pub
	}

	return m, nil
}

func newEd25519Material(privatePEM, publicPEM []byte) (*SigningMaterial, error) {
	m := &SigningMaterial{
		method: jwt.SigningMethodEdDSA,
		family: familyEd25519,
	}

	if len(privatePEM) > 0 {
		priv, err := jwt.ParseEdPrivateKeyFromPEM(privatePEM)
		if err != nil {
			return nil, fmt.Errorf("%w: parse Ed25519 private key: %v", ErrInvalidSigningMaterial, err)
		}
		signer, ok := priv.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("%w: Ed25519 private key cannot sign", ErrInvalidSigningMaterial)
		}
		m.signKey = signer
		m.verifyKey = signer.Public()
	}

	if len(publicPEM) > 0 {
		pub, err := jwt.ParseEdPublicKeyFromPEM(publicPEM)
		if err != nil {
			return nil, fmt.Errorf("%w: parse Ed25519 public key: %v", ErrInvalidSigningMaterial, err)
		}
		edPub, ok := pub.(ed25519.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an Ed25519 public key", ErrInvalidSigningMaterial)
		}
		if derived, ok := m.verifyKey.(ed25519.PublicKey); ok && !derived.Equal(edPub) {
			return nil, fmt.Errorf("%w: Ed25519 public key does not match private key", ErrInvalidSigningMaterial)
		}
		m.verifyKey = edPub
	}

	return m, nil
}

// Algorithm returns the JWS algorithm name used for signing
func (m *SigningMaterial) Algorithm() string {
	return m.method.Alg()
}

// CanSign reports whether the material holds a private or secret key
func (m *SigningMaterial) CanSign() bool {
	return m.signKey != nil
}

// String keeps key bytes out of logs
func (m *SigningMaterial) String() string {
	return fmt.Sprintf("SigningMaterial{alg=%s, sign=%t, key=[REDACTED]}", m.Algorithm(), m.CanSign())
}

// GoString keeps key bytes out of %#v output
func (m *SigningMaterial) GoString() string {
	return m.String()
}

// familyOf returns the key family an algorithm belongs to, or "" if unknown
func familyOf(algorithm string) keyFamily {
	switch jwt.GetSigningMethod(algorithm).(type) {
	case *jwt.SigningMethodHMAC:
		return familyHMAC
	case *jwt.SigningMethodRSA:
		return familyRSA
	case *jwt.SigningMethodEd25519:
		return familyEd25519
	default:
		return ""
	}
}
