package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/udehnih/review-rating/token"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testEpoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

const testSecret = "thisisaverylongsecretkeyfortestingjwttokens9876543210"

type testKit struct {
	clock     *testclock.Clock
	codec     *token.Codec
	validator *token.Validator
	revoked   *token.RevocationList
}

func newTestKit(t *testing.T) *testKit {
	t.Helper()
	clk := testclock.NewClock(testEpoch)
	material, err := token.NewHMACMaterial("HS256", []byte(testSecret))
	require.NoError(t, err)

	codec, err := token.NewCodec(material, token.CodecConfig{Clock: clk})
	require.NoError(t, err)

	revoked := token.NewRevocationList(clk)
	validator, err := token.NewValidator(material, token.ValidatorConfig{Clock: clk, Revocations: revoked})
	require.NoError(t, err)

	return &testKit{clock: clk, codec: codec, validator: validator, revoked: revoked}
}

func (k *testKit) verified(t *testing.T, subject string, roles []string) *token.Verified {
	t.Helper()
	tok, err := k.codec.Encode(subject, roles, time.Hour)
	require.NoError(t, err)
	v, err := k.validator.Validate(context.Background(), tok)
	require.NoError(t, err)
	return v
}

// MockAuthorityLookup mocks the authority store
type MockAuthorityLookup struct {
	mock.Mock
}

func (m *MockAuthorityLookup) FindAuthorities(ctx context.Context, subject string) ([]string, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func TestParseAuthority(t *testing.T) {
	tests := []struct {
		role string
		want Authority
		ok   bool
	}{
		{role: "STUDENT", want: AuthorityStudent, ok: true},
		{role: "ROLE_STUDENT", want: AuthorityStudent, ok: true},
		{role: "USER", want: AuthorityUser, ok: true},
		{role: "ROLE_ADMIN", want: AuthorityAdmin, ok: true},
		{role: " INSTRUCTOR ", want: AuthorityInstructor, ok: true},
		{role: "student"},
		{role: "SUPERUSER"},
		{role: "ROLE_"},
		{role: ""},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			got, ok := ParseAuthority(tt.role)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_Embedded(t *testing.T) {
	kit := newTestKit(t)
	resolver, err := NewResolver(RoleSourceEmbedded, nil, zap.NewNop())
	require.NoError(t, err)

	t.Run("maps roles in claim order", func(t *testing.T) {
		p, err := resolver.Resolve(context.Background(), kit.verified(t, "alice", []string{"ROLE_USER"}))
		require.NoError(t, err)

		assert.Equal(t, "alice", p.Subject())
		assert.Equal(t, []Authority{AuthorityUser}, p.Authorities())
		assert.True(t, p.ExpiresAt().Equal(testEpoch.Add(time.Hour)))
		assert.NotEmpty(t, p.TokenID())
	})

	t.Run("bare role names gain the prefix", func(t *testing.T) {
		p, err := resolver.Resolve(context.Background(), kit.verified(t, "456", []string{"STUDENT", "USER"}))
		require.NoError(t, err)
		assert.Equal(t, []string{"ROLE_STUDENT", "ROLE_USER"}, p.AuthorityNames())
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		p, err := resolver.Resolve(context.Background(), kit.verified(t, "456", []string{"STUDENT", "ROLE_STUDENT", "USER"}))
		require.NoError(t, err)
		assert.Equal(t, []Authority{AuthorityStudent, AuthorityUser}, p.Authorities())
	})

	t.Run("no roles yields empty authorities", func(t *testing.T) {
		p, err := resolver.Resolve(context.Background(), kit.verified(t, "bob", nil))
		require.NoError(t, err)
		assert.Empty(t, p.Authorities())
		assert.False(t, p.HasAuthority(AuthorityUser))
	})
}

func TestResolver_DropsUnknownRoles(t *testing.T) {
	kit := newTestKit(t)
	core, logs := observer.New(zapcore.WarnLevel)
	resolver, err := NewResolver(RoleSourceEmbedded, nil, zap.New(core))
	require.NoError(t, err)

	p, err := resolver.Resolve(context.Background(), kit.verified(t, "carol", []string{"ROLE_ADMIN", "SUPERUSER"}))
	require.NoError(t, err)

	assert.Equal(t, []Authority{AuthorityAdmin}, p.Authorities())
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "dropping unknown role", entry.Message)
	assert.Equal(t, "SUPERUSER", entry.ContextMap()["role"])
	assert.Equal(t, "carol", entry.ContextMap()["sub"])
}

func TestResolver_Unverified(t *testing.T) {
	resolver, err := NewResolver(RoleSourceEmbedded, nil, nil)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnverified)

	_, err = resolver.Resolve(context.Background(), &token.Verified{})
	assert.ErrorIs(t, err, ErrUnverified)
}

func TestResolver_Lookup(t *testing.T) {
	kit := newTestKit(t)

	t.Run("store replaces token roles", func(t *testing.T) {
		lookup := new(MockAuthorityLookup)
		lookup.On("FindAuthorities", mock.Anything, "456").Return([]string{"ROLE_STUDENT"}, nil)

		resolver, err := NewResolver(RoleSourceLookup, lookup, zap.NewNop())
		require.NoError(t, err)

		p, err := resolver.Resolve(context.Background(), kit.verified(t, "456", []string{"ADMIN"}))
		require.NoError(t, err)
		assert.Equal(t, []Authority{AuthorityStudent}, p.Authorities())
		lookup.AssertExpectations(t)
	})

	t.Run("store failure", func(t *testing.T) {
		lookup := new(MockAuthorityLookup)
		lookup.On("FindAuthorities", mock.Anything, "456").Return(nil, errors.New("connection refused"))

		resolver, err := NewResolver(RoleSourceLookup, lookup, zap.NewNop())
		require.NoError(t, err)

		p, err := resolver.Resolve(context.Background(), kit.verified(t, "456", []string{"STUDENT"}))
		assert.Nil(t, p)
		assert.ErrorIs(t, err, ErrAuthorityLookup)
	})

	t.Run("lookup mode without store", func(t *testing.T) {
		_, err := NewResolver(RoleSourceLookup, nil, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := NewResolver("ldap", nil, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestPrincipal(t *testing.T) {
	p := newPrincipal("456", "student@ui.ac.id", "jti-1", []Authority{AuthorityStudent, AuthorityUser}, testEpoch)

	assert.True(t, p.HasAuthority(AuthorityStudent))
	assert.False(t, p.HasAuthority(AuthorityAdmin))
	assert.True(t, p.HasAnyAuthority(AuthorityAdmin, AuthorityUser))
	assert.False(t, p.HasAnyAuthority(AuthorityAdmin, AuthorityInstructor))
	assert.False(t, p.HasAnyAuthority())

	roles := p.Authorities()
	roles[0] = AuthorityAdmin
	assert.False(t, p.HasAuthority(AuthorityAdmin))
}

func TestAuthenticator(t *testing.T) {
	kit := newTestKit(t)
	resolver, err := NewResolver(RoleSourceEmbedded, nil, zap.NewNop())
	require.NoError(t, err)
	authn := NewAuthenticator(kit.codec, kit.validator, resolver)

	t.Run("valid token", func(t *testing.T) {
		tok, err := kit.codec.Encode("alice", []string{"ROLE_USER"}, time.Hour)
		require.NoError(t, err)

		p, err := authn.Authenticate(context.Background(), tok.Raw())
		require.NoError(t, err)
		assert.Equal(t, "alice", p.Subject())
		assert.True(t, p.HasAuthority(AuthorityUser))
	})

	t.Run("missing credential", func(t *testing.T) {
		_, err := authn.Authenticate(context.Background(), "")
		assert.ErrorIs(t, err, ErrMissingCredential)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := authn.Authenticate(context.Background(), "invalidtoken")
		assert.ErrorIs(t, err, token.ErrMalformed)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := kit.codec.Encode("alice", []string{"ROLE_USER"}, time.Minute)
		require.NoError(t, err)
		kit.clock.Advance(2 * time.Minute)

		_, err = authn.Authenticate(context.Background(), tok.Raw())
		assert.ErrorIs(t, err, token.ErrExpired)
	})

	t.Run("revoked", func(t *testing.T) {
		tok, err := kit.codec.Encode("alice", []string{"ROLE_USER"}, time.Hour)
		require.NoError(t, err)
		kit.revoked.Revoke(tok.ID(), tok.ExpiresAt())

		_, err = authn.Authenticate(context.Background(), tok.Raw())
		assert.ErrorIs(t, err, token.ErrRevoked)
	})
}
