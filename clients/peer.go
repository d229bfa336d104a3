package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"
	"github.com/udehnih/review-rating/internal/observability"
	"go.uber.org/zap"
)

// Config holds settings shared by the peer-service clients
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Clock      clock.Clock
}

const (
	defaultTimeout    = 5 * time.Second
	defaultRetryDelay = 100 * time.Millisecond
	maxRetryDelay     = 2 * time.Second
	maxErrorBody      = 512
)

// peer performs JSON GETs against one service with retries
type peer struct {
	name     string
	baseURL  string
	client   *http.Client
	attempts int
	delay    time.Duration
	clock    clock.Clock
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func newPeer(name string, cfg Config, transport http.RoundTripper, metrics *observability.Metrics, logger *zap.Logger) (*peer, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s service URL is required", name)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &peer{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		attempts: cfg.MaxRetries + 1,
		delay:    cfg.RetryDelay,
		clock:    cfg.Clock,
		metrics:  metrics,
		logger:   logger.With(zap.String("peer", name)),
	}, nil
}

// getJSON fetches path and decodes the body into out. Only ErrUnavailable
// failures are retried.
func (p *peer) getJSON(ctx context.Context, path string, out interface{}) error {
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			return p.getOnce(ctx, path, out)
		},
		IsFatalError: func(err error) bool {
			return !errors.Is(err, ErrUnavailable)
		},
		NotifyFunc: func(err error, attempt int) {
			p.logger.Debug("peer request failed",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Error(err))
		},
		Attempts:    p.attempts,
		Delay:       p.delay,
		MaxDelay:    maxRetryDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       p.clock,
		Stop:        ctx.Done(),
	})

	switch {
	case err == nil:
		p.metrics.RecordPeerRequest(p.name, "ok")
		return nil
	case retry.IsRetryStopped(err):
		p.metrics.RecordPeerRequest(p.name, "cancelled")
		return ctx.Err()
	case retry.IsAttemptsExceeded(err):
		err = retry.LastError(err)
	}

	p.metrics.RecordPeerRequest(p.name, resultLabel(err))
	return err
}

func (p *peer) getOnce(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, p.name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s%s", ErrNotFound, p.name, path)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s returned %d", ErrUnauthorized, p.name, resp.StatusCode)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnavailable, p.name, resp.StatusCode, readSnippet(resp.Body))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s returned %d: %s", ErrUnexpectedResponse, p.name, resp.StatusCode, readSnippet(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: failed to decode body: %v", ErrUnexpectedResponse, p.name, err)
	}
	return nil
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
