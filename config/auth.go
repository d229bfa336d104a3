package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/udehnih/review-rating/token"
)

// Role sources accepted by AUTH_ROLE_SOURCE
const (
	RoleSourceEmbedded = "embedded"
	RoleSourceLookup   = "lookup"
)

// AuthConfig holds token signing and verification settings
type AuthConfig struct {
	Algorithm            string
	SecretBase64         string // HMAC secret, standard base64
	PrivateKeyFile       string // PEM, RS*/EdDSA
	PublicKeyFile        string // PEM, RS*/EdDSA
	Issuer               string
	TokenTTL             time.Duration
	RoleSource           string
	RevocationGCInterval time.Duration

	// LookupCacheTTL enables caching of stored authorities in lookup mode.
	// Zero disables the cache.
	LookupCacheTTL  time.Duration
	LookupCacheSize int
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		Algorithm:            getEnv("JWT_ALGORITHM", "HS256"),
		SecretBase64:         getEnv("JWT_SECRET", ""),
		PrivateKeyFile:       getEnv("JWT_PRIVATE_KEY_FILE", ""),
		PublicKeyFile:        getEnv("JWT_PUBLIC_KEY_FILE", ""),
		Issuer:               getEnv("JWT_ISSUER", ""),
		TokenTTL:             getEnvAsDuration("JWT_TTL", time.Hour),
		RoleSource:           strings.ToLower(getEnv("AUTH_ROLE_SOURCE", RoleSourceEmbedded)),
		RevocationGCInterval: getEnvAsDuration("AUTH_REVOCATION_GC_INTERVAL", time.Minute),
		LookupCacheTTL:       getEnvAsDuration("AUTH_LOOKUP_CACHE_TTL", 0),
		LookupCacheSize:      getEnvAsInt("AUTH_LOOKUP_CACHE_SIZE", 1024),
	}
}

// IsHMAC reports whether the configured algorithm uses a shared secret
func (c *AuthConfig) IsHMAC() bool {
	return strings.HasPrefix(c.Algorithm, "HS")
}

// Validate checks that signing material can be built from the settings.
// Key lengths and key parsing are checked when the material is loaded.
func (c *AuthConfig) Validate() error {
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
		if c.SecretBase64 == "" {
			return fmt.Errorf("JWT_SECRET is required for %s", c.Algorithm)
		}
		if _, err := c.secret(); err != nil {
			return err
		}
	case "RS256", "RS384", "RS512", "EdDSA":
		if c.PrivateKeyFile == "" && c.PublicKeyFile == "" {
			return fmt.Errorf("JWT_PRIVATE_KEY_FILE or JWT_PUBLIC_KEY_FILE is required for %s", c.Algorithm)
		}
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.Algorithm)
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	switch c.RoleSource {
	case RoleSourceEmbedded, RoleSourceLookup:
	default:
		return fmt.Errorf("AUTH_ROLE_SOURCE must be %q or %q", RoleSourceEmbedded, RoleSourceLookup)
	}
	if c.LookupCacheTTL < 0 {
		return fmt.Errorf("AUTH_LOOKUP_CACHE_TTL must not be negative")
	}
	if c.LookupCacheTTL > 0 && c.LookupCacheSize <= 0 {
		return fmt.Errorf("AUTH_LOOKUP_CACHE_SIZE must be positive")
	}
	return nil
}

// SigningMaterial loads the process-wide signing material. Call it once at
// startup and share the result.
func (c *AuthConfig) SigningMaterial() (*token.SigningMaterial, error) {
	if c.IsHMAC() {
		secret, err := c.secret()
		if err != nil {
			return nil, err
		}
		return token.NewHMACMaterial(c.Algorithm, secret)
	}

	var privPEM, pubPEM []byte
	var err error
	if c.PrivateKeyFile != "" {
		if privPEM, err = os.ReadFile(c.PrivateKeyFile); err != nil {
			return nil, fmt.Errorf("failed to read JWT_PRIVATE_KEY_FILE: %w", err)
		}
	}
	if c.PublicKeyFile != "" {
		if pubPEM, err = os.ReadFile(c.PublicKeyFile); err != nil {
			return nil, fmt.Errorf("failed to read JWT_PUBLIC_KEY_FILE: %w", err)
		}
	}
	return token.NewAsymmetricMaterial(c.Algorithm, privPEM, pubPEM)
}

func (c *AuthConfig) secret() ([]byte, error) {
	secret, err := base64.StdEncoding.DecodeString(strings.TrimSpace(c.SecretBase64))
	if err != nil {
		return nil, fmt.Errorf("JWT_SECRET must be base64 encoded: %w", err)
	}
	return secret, nil
}
