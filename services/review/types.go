package review

import (
	"time"

	"github.com/google/uuid"
)

// AnonymousName is shown in place of the author of an anonymous review
const AnonymousName = "Anonymous"

// CreateRequest is the body of a new review
type CreateRequest struct {
	CourseID   int64  `json:"courseId" validate:"required,gt=0"`
	ReviewText string `json:"reviewText" validate:"max=2000"`
	Rating     int    `json:"rating" validate:"rating"`
	Anonymous  bool   `json:"anonymous"`
}

// UpdateRequest replaces the text and rating of a review
type UpdateRequest struct {
	ReviewText string `json:"reviewText" validate:"max=2000"`
	Rating     int    `json:"rating" validate:"rating"`
}

// Response is a review enriched with course and author names
type Response struct {
	ID          uuid.UUID `json:"id"`
	CourseID    string    `json:"courseId"`
	CourseName  string    `json:"courseName"`
	StudentID   string    `json:"studentId,omitempty"`
	StudentName string    `json:"studentName"`
	ReviewText  string    `json:"reviewText"`
	Rating      int       `json:"rating"`
	Anonymous   bool      `json:"isAnonymous"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RatingSummary is the average rating of a course
type RatingSummary struct {
	CourseID      int64   `json:"courseId"`
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}
