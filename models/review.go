package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a student's rating of a course, optionally with text
type Review struct {
	ID         uuid.UUID `json:"id" db:"id"`
	CourseID   int64     `json:"course_id" db:"course_id"`
	StudentID  string    `json:"student_id" db:"student_id"` // token subject of the author
	ReviewText string    `json:"review_text" db:"review_text"`
	Rating     int       `json:"rating" db:"rating"`
	Anonymous  bool      `json:"anonymous" db:"anonymous"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}

// NewReview creates a new Review stamped with now
func NewReview(courseID int64, studentID, reviewText string, rating int, now time.Time) *Review {
	return &Review{
		ID:         uuid.New(),
		CourseID:   courseID,
		StudentID:  studentID,
		ReviewText: reviewText,
		Rating:     rating,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsOwnedBy reports whether subject wrote the review
func (r *Review) IsOwnedBy(subject string) bool {
	return subject != "" && r.StudentID == subject
}

// HasText reports whether the review carries text beyond its rating
func (r *Review) HasText() bool {
	return r.ReviewText != ""
}

// ValidRating reports whether rating is within MinRating..MaxRating
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// UserAuthority is one stored role grant for a token subject
type UserAuthority struct {
	Subject   string    `json:"subject" db:"subject"`
	Authority string    `json:"authority" db:"authority"`
	GrantedAt time.Time `json:"granted_at" db:"granted_at"`
}

// TableName returns the table name for the UserAuthority model
func (UserAuthority) TableName() string {
	return "user_authorities"
}
