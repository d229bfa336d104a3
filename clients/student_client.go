package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/udehnih/review-rating/internal/observability"
	"go.uber.org/zap"
)

// Student is the user view served by the auth service
type Student struct {
	StudentID int64  `json:"studentId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
}

// StudentClient reads students from the auth service
type StudentClient struct {
	peer *peer
}

// NewStudentClient creates a new StudentClient
func NewStudentClient(cfg Config, transport http.RoundTripper, metrics *observability.Metrics, logger *zap.Logger) (*StudentClient, error) {
	p, err := newPeer("student", cfg, transport, metrics, logger)
	if err != nil {
		return nil, err
	}
	return &StudentClient{peer: p}, nil
}

// GetStudent fetches a student by id
func (c *StudentClient) GetStudent(ctx context.Context, studentID string) (*Student, error) {
	var student Student
	if err := c.peer.getJSON(ctx, "/api/users/"+url.PathEscape(studentID), &student); err != nil {
		return nil, err
	}
	return &student, nil
}
