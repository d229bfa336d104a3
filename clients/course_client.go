package clients

import (
	"context"
	"net/http"
	"strconv"

	"github.com/udehnih/review-rating/internal/observability"
	"go.uber.org/zap"
)

// Course is the public course view served by the course service
type Course struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CourseClient reads courses from the course service
type CourseClient struct {
	peer *peer
}

// NewCourseClient creates a new CourseClient. transport should normally be a
// PropagatingTransport.
func NewCourseClient(cfg Config, transport http.RoundTripper, metrics *observability.Metrics, logger *zap.Logger) (*CourseClient, error) {
	p, err := newPeer("course", cfg, transport, metrics, logger)
	if err != nil {
		return nil, err
	}
	return &CourseClient{peer: p}, nil
}

// GetCourse fetches a course by id
func (c *CourseClient) GetCourse(ctx context.Context, courseID int64) (*Course, error) {
	var course Course
	if err := c.peer.getJSON(ctx, "/api/courses/public/"+strconv.FormatInt(courseID, 10), &course); err != nil {
		return nil, err
	}
	return &course, nil
}
