package clients

import (
	"net/http"

	"github.com/udehnih/review-rating/auth"
	"go.uber.org/zap"
)

// PropagatingTransport forwards the inbound request's bearer token on
// outgoing peer-service calls. It never mints a token of its own.
type PropagatingTransport struct {
	base   http.RoundTripper
	logger *zap.Logger
}

var _ http.RoundTripper = (*PropagatingTransport)(nil)

// NewPropagatingTransport wraps base. A nil base means http.DefaultTransport.
func NewPropagatingTransport(base http.RoundTripper, logger *zap.Logger) *PropagatingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropagatingTransport{base: base, logger: logger}
}

// RoundTrip implements http.RoundTripper. The caller's request is never
// modified; a clone carries the Authorization header.
func (t *PropagatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	raw, ok := auth.CredentialFromContext(req.Context())
	if !ok {
		t.logger.Warn("no authentication token found to forward",
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()))
		return t.base.RoundTrip(req)
	}

	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+raw)
	return t.base.RoundTrip(out)
}
