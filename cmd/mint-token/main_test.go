package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udehnih/review-rating/config"
	"github.com/udehnih/review-rating/token"
)

const testSecretB64 = "dGhpc2lzYXZlcnlsb25nc2VjcmV0a2V5Zm9ydGVzdGluZ2p3dHRva2Vuczk4NzY1NDMyMTA="

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr string
	}{
		{
			name: "defaults",
			args: []string{"--subject", "456"},
			want: options{subject: "456", roles: []string{"STUDENT"}},
		},
		{
			name: "all flags",
			args: []string{"--subject=456", "--email=budi@ui.ac.id", "--roles=STUDENT,ADMIN", "--ttl=15m"},
			want: options{subject: "456", email: "budi@ui.ac.id", roles: []string{"STUDENT", "ADMIN"}, ttl: 15 * time.Minute},
		},
		{name: "missing subject", args: []string{"--roles=ADMIN"}, wantErr: "--subject is required"},
		{name: "negative ttl", args: []string{"--subject=1", "--ttl=-1m"}, wantErr: "--ttl must be positive"},
		{name: "unknown flag", args: []string{"--subject=1", "--admin"}, wantErr: "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args, io.Discard)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	var stderr bytes.Buffer
	_, err := parseFlags([]string{"--help"}, &stderr)
	assert.ErrorIs(t, err, pflag.ErrHelp)
	assert.Contains(t, stderr.String(), "--subject")
}

func TestRun_PrintsVerifiableToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecretB64)
	t.Setenv("JWT_ISSUER", "auth-service")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{"--subject=456", "--roles=STUDENT", "--email=budi@ui.ac.id"}, &stdout, io.Discard)
	require.NoError(t, err)

	raw := strings.TrimSpace(stdout.String())
	require.NotEmpty(t, raw)

	cfg := config.AuthConfig{Algorithm: "HS256", SecretBase64: testSecretB64}
	material, err := cfg.SigningMaterial()
	require.NoError(t, err)

	codec, err := token.NewCodec(material, token.CodecConfig{Issuer: "auth-service"})
	require.NoError(t, err)
	tok, err := codec.Decode(raw)
	require.NoError(t, err)

	validator, err := token.NewValidator(material, token.ValidatorConfig{
		Issuer: "auth-service",
		Clock:  testclock.NewClock(time.Now()),
	})
	require.NoError(t, err)
	verified, err := validator.Validate(context.Background(), tok)
	require.NoError(t, err)

	assert.Equal(t, "456", verified.Token().Subject())
	assert.Equal(t, []string{"STUDENT"}, verified.Token().Authorities())
	assert.Equal(t, "budi@ui.ac.id", verified.Token().Email())
	assert.Equal(t, "auth-service", verified.Token().Issuer())
}

func TestRun_ConfigError(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	err := run(context.Background(), []string{"--subject=456"}, io.Discard, io.Discard)
	assert.ErrorContains(t, err, "JWT_SECRET is required")
}
