package handlers

import (
	"net/http"
	"time"

	"github.com/udehnih/review-rating/auth"
	"github.com/udehnih/review-rating/utils"
)

// MessageResponse carries a single human-readable message
type MessageResponse struct {
	Message string `json:"message"`
}

// HandleWelcome handles GET /
func HandleWelcome(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, MessageResponse{Message: "Welcome"})
}

// HandleSecure handles GET /api/secure. It only answers authenticated callers.
func HandleSecure(w http.ResponseWriter, r *http.Request) {
	if auth.PrincipalFromContext(r.Context()) == nil {
		_ = utils.WriteUnauthorized(w, "Unauthorized")
		return
	}
	_ = utils.WriteOK(w, MessageResponse{Message: "Secret"})
}

// CurrentUserResponse is the response body for GET /api/auth/me
type CurrentUserResponse struct {
	Subject     string    `json:"sub"`
	Email       string    `json:"email,omitempty"`
	Authorities []string  `json:"authorities"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// HandleCurrentUser returns the authenticated principal
func HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFromContext(r.Context())
	if p == nil {
		_ = utils.WriteUnauthorized(w, "Unauthorized")
		return
	}
	_ = utils.WriteOK(w, CurrentUserResponse{
		Subject:     p.Subject(),
		Email:       p.Email(),
		Authorities: p.AuthorityNames(),
		ExpiresAt:   p.ExpiresAt(),
	})
}
