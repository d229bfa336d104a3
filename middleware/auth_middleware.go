package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/udehnih/review-rating/auth"
	"github.com/udehnih/review-rating/internal/observability"
	"github.com/udehnih/review-rating/token"
	"github.com/udehnih/review-rating/utils"
	"go.uber.org/zap"
)

// Authenticator turns a raw bearer token into a principal
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*auth.Principal, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	authenticator Authenticator
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. metrics may be nil.
func NewAuthMiddleware(authenticator Authenticator, metrics *observability.Metrics, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		metrics:       metrics,
		logger:        logger,
	}
}

// unauthorizedMessage is the only failure detail a client ever sees
const unauthorizedMessage = "Unauthorized"

// Authenticate runs once per request. A request without an Authorization
// header continues anonymously. A credential that fails any check ends the
// request with 401. A valid one attaches the principal and the raw token to
// the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		raw, present := extractBearerToken(r)
		if !present {
			m.metrics.RecordAuthOutcome(observability.OutcomeAnonymous)
			next.ServeHTTP(w, r)
			return
		}

		principal, err := m.authenticator.Authenticate(ctx, raw)
		if err != nil {
			kind := failureKind(err)
			m.metrics.RecordAuthOutcome(observability.OutcomeRejected)
			m.metrics.RecordAuthFailure(kind)
			m.logger.Warn("credential rejected",
				zap.String("request_id", requestID),
				zap.String("kind", kind),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, unauthorizedMessage)
			return
		}

		ctx = auth.WithPrincipal(ctx, principal)
		ctx = auth.WithCredential(ctx, raw)
		m.metrics.RecordAuthOutcome(observability.OutcomeAuthenticated)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("sub", principal.Subject()),
			zap.Strings("authorities", principal.AuthorityNames()))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects anonymous requests. It must run after Authenticate.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.PrincipalFromContext(r.Context()) == nil {
			m.logger.Debug("anonymous request to protected route",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, unauthorizedMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthority allows the request when the principal holds at least one
// of the given authorities. Only the context principal is consulted.
func (m *AuthMiddleware) RequireAuthority(authorities ...auth.Authority) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			principal := auth.PrincipalFromContext(ctx)
			if principal == nil {
				_ = utils.WriteUnauthorized(w, unauthorizedMessage)
				return
			}

			if !principal.HasAnyAuthority(authorities...) {
				m.logger.Warn("insufficient permissions",
					zap.String("request_id", requestID),
					zap.String("sub", principal.Subject()),
					zap.Any("required", authorities),
					zap.Strings("authorities", principal.AuthorityNames()))
				_ = utils.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractBearerToken returns the token from the Authorization header.
// present is true whenever the header is set, even if it does not hold a
// usable bearer token; the caller then rejects it with an empty raw value.
func extractBearerToken(r *http.Request) (raw string, present bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", true
	}

	return strings.TrimSpace(parts[1]), true
}

// failureKind names an authentication error for logs and metrics
func failureKind(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return "missing"
	case errors.Is(err, token.ErrMalformed):
		return "malformed"
	case errors.Is(err, token.ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrRevoked):
		return "revoked"
	case errors.Is(err, auth.ErrAuthorityLookup):
		return "authority_lookup"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "unknown"
	}
}
