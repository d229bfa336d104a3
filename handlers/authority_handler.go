package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/juju/clock"
	"github.com/udehnih/review-rating/auth"
	"github.com/udehnih/review-rating/middleware"
	"github.com/udehnih/review-rating/models"
	"github.com/udehnih/review-rating/repositories"
	"github.com/udehnih/review-rating/utils"
	"go.uber.org/zap"
)

// AuthorityHandler manages stored role grants used by lookup role resolution
type AuthorityHandler struct {
	repo   repositories.AuthorityRepository
	clock  clock.Clock
	logger *zap.Logger
}

// NewAuthorityHandler creates a new AuthorityHandler
func NewAuthorityHandler(repo repositories.AuthorityRepository, clk clock.Clock, logger *zap.Logger) *AuthorityHandler {
	if clk == nil {
		clk = clock.WallClock
	}
	return &AuthorityHandler{
		repo:   repo,
		clock:  clk,
		logger: logger,
	}
}

// AuthoritiesResponse lists the grants of one subject
type AuthoritiesResponse struct {
	Subject     string   `json:"subject"`
	Authorities []string `json:"authorities"`
}

// HandleList handles GET /api/admin/authorities/{subject}
func (h *AuthorityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	subject := chi.URLParam(r, "subject")
	roles, err := h.repo.FindAuthorities(r.Context(), subject)
	if err != nil {
		h.logger.Error("failed to list authorities",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("subject", subject),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to retrieve authorities")
		return
	}
	_ = utils.WriteOK(w, AuthoritiesResponse{Subject: subject, Authorities: roles})
}

// HandleGrant handles PUT /api/admin/authorities/{subject}/{authority}
func (h *AuthorityHandler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	subject, authority, ok := h.params(w, r)
	if !ok {
		return
	}

	grant := &models.UserAuthority{
		Subject:   subject,
		Authority: authority.String(),
		GrantedAt: h.clock.Now().UTC(),
	}
	if err := h.repo.Grant(r.Context(), grant); err != nil {
		h.logger.Error("failed to grant authority",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("subject", subject),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to grant authority")
		return
	}

	h.logger.Info("authority granted",
		zap.String("subject", subject),
		zap.String("authority", authority.String()),
		zap.String("by", h.actor(r)))
	_ = utils.WriteOK(w, grant)
}

// HandleRevoke handles DELETE /api/admin/authorities/{subject}/{authority}
func (h *AuthorityHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	subject, authority, ok := h.params(w, r)
	if !ok {
		return
	}

	if err := h.repo.Revoke(r.Context(), subject, authority.String()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = utils.WriteNotFound(w, "authority grant not found")
			return
		}
		h.logger.Error("failed to revoke authority",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.String("subject", subject),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to revoke authority")
		return
	}

	h.logger.Info("authority revoked",
		zap.String("subject", subject),
		zap.String("authority", authority.String()),
		zap.String("by", h.actor(r)))
	utils.WriteNoContent(w)
}

func (h *AuthorityHandler) params(w http.ResponseWriter, r *http.Request) (string, auth.Authority, bool) {
	subject := chi.URLParam(r, "subject")
	if subject == "" {
		_ = utils.WriteBadRequest(w, "subject is required", nil)
		return "", "", false
	}
	authority, ok := auth.ParseAuthority(chi.URLParam(r, "authority"))
	if !ok {
		_ = utils.WriteBadRequest(w, "unknown authority", map[string]interface{}{
			"authority": chi.URLParam(r, "authority"),
		})
		return "", "", false
	}
	return subject, authority, true
}

func (h *AuthorityHandler) actor(r *http.Request) string {
	if p := auth.PrincipalFromContext(r.Context()); p != nil {
		return p.Subject()
	}
	return ""
}
