package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/require"
	"github.com/udehnih/review-rating/auth"
	"github.com/udehnih/review-rating/token"
	"go.uber.org/zap"
)

var testEpoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

const testSecret = "thisisaverylongsecretkeyfortestingjwttokens9876543210"

// principalFor runs a freshly minted token through the real pipeline
func principalFor(t *testing.T, subject, email string, roles ...string) *auth.Principal {
	t.Helper()
	clk := testclock.NewClock(testEpoch)
	material, err := token.NewHMACMaterial("HS256", []byte(testSecret))
	require.NoError(t, err)
	codec, err := token.NewCodec(material, token.CodecConfig{Clock: clk})
	require.NoError(t, err)
	validator, err := token.NewValidator(material, token.ValidatorConfig{Clock: clk})
	require.NoError(t, err)
	resolver, err := auth.NewResolver(auth.RoleSourceEmbedded, nil, zap.NewNop())
	require.NoError(t, err)

	tok, err := codec.EncodeWithOptions(subject, roles, time.Hour, token.EncodeOptions{Email: email})
	require.NoError(t, err)
	p, err := auth.NewAuthenticator(codec, validator, resolver).Authenticate(context.Background(), tok.Raw())
	require.NoError(t, err)
	return p
}

func withPrincipal(r *http.Request, p *auth.Principal) *http.Request {
	return r.WithContext(auth.WithPrincipal(r.Context(), p))
}
