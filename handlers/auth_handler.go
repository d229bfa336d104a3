package handlers

import (
	"net/http"
	"time"

	"github.com/udehnih/review-rating/auth"
	"github.com/udehnih/review-rating/middleware"
	"github.com/udehnih/review-rating/utils"
	"go.uber.org/zap"
)

// Revoker blocks a token id until the token would have expired
type Revoker interface {
	Revoke(id string, expiresAt time.Time)
}

// AuthHandler serves session endpoints for authenticated callers
type AuthHandler struct {
	revocations Revoker
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(revocations Revoker, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		revocations: revocations,
		logger:      logger,
	}
}

// HandleLogout handles POST /api/auth/logout. The caller's token is refused
// from now until it expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "Unauthorized")
		return
	}
	if principal.TokenID() == "" {
		_ = utils.WriteBadRequest(w, "token carries no id and cannot be revoked", nil)
		return
	}

	h.revocations.Revoke(principal.TokenID(), principal.ExpiresAt())
	h.logger.Info("token revoked",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("sub", principal.Subject()),
		zap.String("jti", principal.TokenID()),
		zap.Time("until", principal.ExpiresAt()))

	utils.WriteNoContent(w)
}
