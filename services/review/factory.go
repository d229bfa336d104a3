package review

import (
	"strings"

	"github.com/juju/clock"
	"github.com/udehnih/review-rating/models"
	"github.com/udehnih/review-rating/services"
)

// Factory builds new reviews stamped with its clock
type Factory struct {
	clock clock.Clock
}

// NewFactory creates a Factory. A nil clock means the wall clock.
func NewFactory(clk clock.Clock) *Factory {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Factory{clock: clk}
}

// Basic builds a review with text
func (f *Factory) Basic(courseID int64, studentID, text string, rating int) (*models.Review, error) {
	if !models.ValidRating(rating) {
		return nil, services.ErrInvalidRating
	}
	return models.NewReview(courseID, studentID, strings.TrimSpace(text), rating, f.clock.Now().UTC()), nil
}

// RatingOnly builds a review with no text
func (f *Factory) RatingOnly(courseID int64, studentID string, rating int) (*models.Review, error) {
	return f.Basic(courseID, studentID, "", rating)
}

// Detailed builds a review that may hide its author. The author's subject is
// still stored so that only they can change it later.
func (f *Factory) Detailed(courseID int64, studentID, text string, rating int, anonymous bool) (*models.Review, error) {
	r, err := f.Basic(courseID, studentID, text, rating)
	if err != nil {
		return nil, err
	}
	r.Anonymous = anonymous
	return r, nil
}

// FromRequest picks the builder that matches req
func (f *Factory) FromRequest(studentID string, req CreateRequest) (*models.Review, error) {
	switch {
	case req.Anonymous:
		return f.Detailed(req.CourseID, studentID, req.ReviewText, req.Rating, true)
	case strings.TrimSpace(req.ReviewText) == "":
		return f.RatingOnly(req.CourseID, studentID, req.Rating)
	default:
		return f.Basic(req.CourseID, studentID, req.ReviewText, req.Rating)
	}
}
