package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/udehnih/review-rating/auth"
	"github.com/udehnih/review-rating/middleware"
	"github.com/udehnih/review-rating/services/review"
	"github.com/udehnih/review-rating/utils"
	"go.uber.org/zap"
)

// ReviewService defines the review operations the handler needs
type ReviewService interface {
	Create(ctx context.Context, studentID string, req review.CreateRequest) (*review.Response, error)
	GetByID(ctx context.Context, id uuid.UUID) (*review.Response, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*review.Response, error)
	ListByStudent(ctx context.Context, studentID, caller string) ([]*review.Response, error)
	Update(ctx context.Context, id uuid.UUID, subject string, req review.UpdateRequest) (*review.Response, error)
	Delete(ctx context.Context, id uuid.UUID, subject string) error
	AverageRating(ctx context.Context, courseID int64) (*review.RatingSummary, error)
}

// ReviewHandler handles review-related HTTP requests
type ReviewHandler struct {
	service ReviewService
	logger  *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(service ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger,
	}
}

// HandleCreate handles POST /api/reviews
func (h *ReviewHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := auth.PrincipalFromContext(ctx)
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req review.CreateRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Create(ctx, principal.Subject(), req)
	if err != nil {
		HandleServiceError(w, err, h.requestLogger(ctx))
		return
	}
	_ = utils.WriteCreated(w, resp)
}

// HandleGet handles GET /api/reviews/{reviewId}
func (h *ReviewHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.reviewID(w, r)
	if !ok {
		return
	}
	resp, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.requestLogger(r.Context()))
		return
	}
	_ = utils.WriteOK(w, resp)
}

// HandleListByCourse handles GET /api/reviews/course/{courseId}
func (h *ReviewHandler) HandleListByCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := utils.ParsePositiveID(chi.URLParam(r, "courseId"), "courseId")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	resp, err := h.service.ListByCourse(r.Context(), courseID)
	if err != nil {
		HandleServiceError(w, err, h.requestLogger(r.Context()))
		return
	}
	_ = utils.WriteOK(w, resp)
}

// HandleListByStudent handles GET /api/reviews/student/{studentId}
func (h *ReviewHandler) HandleListByStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")
	if studentID == "" {
		_ = utils.WriteBadRequest(w, "studentId is required", nil)
		return
	}
	var caller string
	if p := auth.PrincipalFromContext(r.Context()); p != nil {
		caller = p.Subject()
	}
	resp, err := h.service.ListByStudent(r.Context(), studentID, caller)
	if err != nil {
		HandleServiceError(w, err, h.requestLogger(r.Context()))
		return
	}
	_ = utils.WriteOK(w, resp)
}

// HandleAverageRating handles GET /api/reviews/course/{courseId}/average-rating
func (h *ReviewHandler) HandleAverageRating(w http.ResponseWriter, r *http.Request) {
	courseID, err := utils.ParsePositiveID(chi.URLParam(r, "courseId"), "courseId")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}
	resp, err := h.service.AverageRating(r.Context(), courseID)
	if err != nil {
		HandleServiceError(w, err, h.requestLogger(r.Context()))
		return
	}
	_ = utils.WriteOK(w, resp)
}

// HandleUpdate handles PUT /api/reviews/{reviewId}
func (h *ReviewHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := auth.PrincipalFromContext(ctx)
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "Unauthorized")
		return
	}
	id, ok := h.reviewID(w, r)
	if !ok {
		return
	}

	var req review.UpdateRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.service.Update(ctx, id, principal.Subject(), req)
	if err != nil {
		HandleServiceError(w, err, h.requestLogger(ctx))
		return
	}
	_ = utils.WriteOK(w, resp)
}

// HandleDelete handles DELETE /api/reviews/{reviewId}
func (h *ReviewHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := auth.PrincipalFromContext(ctx)
	if principal == nil {
		_ = utils.WriteUnauthorized(w, "Unauthorized")
		return
	}
	id, ok := h.reviewID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, id, principal.Subject()); err != nil {
		HandleServiceError(w, err, h.requestLogger(ctx))
		return
	}
	_ = utils.WriteOK(w, map[string]bool{"deleted": true})
}

func (h *ReviewHandler) reviewID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(chi.URLParam(r, "reviewId"), "reviewId")
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *ReviewHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	logger := h.requestLogger(r.Context())
	if err := utils.DecodeJSON(w, r, dst); err != nil {
		logger.Warn("failed to parse request body", zap.Error(err))
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return false
	}
	if err := utils.ValidateStruct(dst); err != nil {
		logger.Warn("request validation failed", zap.Error(err))
		HandleValidationError(w, err, logger)
		return false
	}
	return true
}

func (h *ReviewHandler) requestLogger(ctx context.Context) *zap.Logger {
	return h.logger.With(zap.String("request_id", middleware.GetRequestIDFromContext(ctx)))
}
