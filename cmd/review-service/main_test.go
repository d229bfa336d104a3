package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udehnih/review-rating/config"
	"go.uber.org/zap/zaptest"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ObservabilityConfig
		wantErr string
	}{
		{name: "default json logger", cfg: config.ObservabilityConfig{LogLevel: "info", LogFormat: "json"}},
		{name: "development console logger", cfg: config.ObservabilityConfig{LogLevel: "debug", LogFormat: "console"}},
		{name: "defaults when not set", cfg: config.ObservabilityConfig{}},
		{name: "invalid log level", cfg: config.ObservabilityConfig{LogLevel: "invalid"}, wantErr: "invalid log level"},
		{name: "invalid log format", cfg: config.ObservabilityConfig{LogFormat: "xml"}, wantErr: "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initLogger(tt.cfg)
			if tt.wantErr != "" {
				assert.Nil(t, logger)
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, logger)
			_ = logger.Sync()
		})
	}
}

func TestNewServer(t *testing.T) {
	cfg := config.ServerConfig{
		Host:         "127.0.0.1",
		Port:         8080,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 4 * time.Second,
	}

	srv := newServer(cfg, http.NotFoundHandler())
	assert.Equal(t, "127.0.0.1:8080", srv.Addr)
	assert.Equal(t, 3*time.Second, srv.ReadTimeout)
	assert.Equal(t, 3*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 4*time.Second, srv.WriteTimeout)
}

func TestServe_GracefulShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := config.ServerConfig{ShutdownTimeout: 2 * time.Second}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, newServer(cfg, handler), ln, cfg, zaptest.NewLogger(t))
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServe_TLSMisconfigured(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := config.ServerConfig{ShutdownTimeout: time.Second}
	cfg.TLS.Enabled = true
	cfg.TLS.CertFile = "does-not-exist.pem"
	cfg.TLS.KeyFile = "does-not-exist.key"

	err = serve(context.Background(), newServer(cfg, http.NotFoundHandler()), ln, cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "server error")
}
