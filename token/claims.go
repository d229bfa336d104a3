package token

import (
	"fmt"
	"sort"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MaxExtensions bounds the number of optional extension claims per token
	MaxExtensions = 16

	// MaxExtensionValueLen bounds the length of string extension values
	MaxExtensionValueLen = 256
)

// DefaultExtensionKeys are the optional claims accepted when no allow-list is configured
var DefaultExtensionKeys = []string{"name", "locale"}

// Claims is the fixed payload carried by every token.
// Optional forward-compatible claims live under "ext" and are checked
// against an allow-list on both encode and decode.
type Claims struct {
	jwt.RegisteredClaims
	Authorities []string               `json:"roles,omitempty"`
	Email       string                 `json:"email,omitempty"`
	Extensions  map[string]interface{} `json:"ext,omitempty"`
}

// extensionSet is an allow-list of extension claim keys
type extensionSet map[string]struct{}

func newExtensionSet(keys []string) extensionSet {
	set := make(extensionSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// check validates extension claims against the allow-list and size bounds
func (s extensionSet) check(ext map[string]interface{}) error {
	if len(ext) > MaxExtensions {
		return fmt.Errorf("too many extension claims: %d > %d", len(ext), MaxExtensions)
	}

	keys := make([]string, 0, len(ext))
	for k := range ext {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := s[k]; !ok {
			return fmt.Errorf("extension claim %q is not allowed", k)
		}
		switch v := ext[k].(type) {
		case string:
			if len(v) > MaxExtensionValueLen {
				return fmt.Errorf("extension claim %q exceeds %d bytes", k, MaxExtensionValueLen)
			}
		case bool, float64, int, int64:
		default:
			return fmt.Errorf("extension claim %q has unsupported type %T", k, v)
		}
	}
	return nil
}
