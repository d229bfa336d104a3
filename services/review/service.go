package review

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/udehnih/review-rating/clients"
	"github.com/udehnih/review-rating/models"
	"github.com/udehnih/review-rating/repositories"
	"github.com/udehnih/review-rating/services"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// enrichConcurrency bounds peer calls made while enriching one listing
const enrichConcurrency = 8

// CourseLookup reads courses from the course service
type CourseLookup interface {
	GetCourse(ctx context.Context, courseID int64) (*clients.Course, error)
}

// StudentLookup reads students from the auth service
type StudentLookup interface {
	GetStudent(ctx context.Context, studentID string) (*clients.Student, error)
}

// Service manages course reviews
type Service struct {
	reviews  repositories.ReviewRepository
	txMgr    repositories.TransactionManager
	factory  *Factory
	courses  CourseLookup
	students StudentLookup
	clock    clock.Clock
	logger   *zap.Logger
}

// NewService creates a new review Service
func NewService(
	reviews repositories.ReviewRepository,
	txMgr repositories.TransactionManager,
	courses CourseLookup,
	students StudentLookup,
	clk clock.Clock,
	logger *zap.Logger,
) *Service {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Service{
		reviews:  reviews,
		txMgr:    txMgr,
		factory:  NewFactory(clk),
		courses:  courses,
		students: students,
		clock:    clk,
		logger:   logger,
	}
}

// Create stores a new review written by studentID after checking that both
// the student and the course exist.
func (s *Service) Create(ctx context.Context, studentID string, req CreateRequest) (*Response, error) {
	if studentID == "" {
		return nil, services.ErrUnauthorized
	}
	if req.CourseID <= 0 {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "courseId must be positive", nil).
			WithDetail("course_id", req.CourseID)
	}
	if !models.ValidRating(req.Rating) {
		return nil, services.ErrInvalidRating
	}

	var (
		course  *clients.Course
		student *clients.Student
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		student, err = s.students.GetStudent(gctx, studentID)
		if err != nil {
			return s.peerError(err, services.ErrStudentNotFound, "student", studentID)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		course, err = s.courses.GetCourse(gctx, req.CourseID)
		if err != nil {
			return s.peerError(err, services.ErrCourseNotFound, "course", req.CourseID)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("review validation failed",
			zap.String("student_id", studentID),
			zap.Int64("course_id", req.CourseID),
			zap.Error(err))
		return nil, err
	}

	r, err := s.factory.FromRequest(studentID, req)
	if err != nil {
		return nil, err
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		return nil, services.WrapInternal("failed to create review", err)
	}

	s.logger.Info("review created",
		zap.String("review_id", r.ID.String()),
		zap.Int64("course_id", r.CourseID),
		zap.Bool("anonymous", r.Anonymous))

	return build(r, courseTitle(r.CourseID, course), displayName(studentID, student)), nil
}

// GetByID returns one review
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Response, error) {
	r, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, reviewError(err, id, "get review")
	}
	out, err := s.enrich(ctx, []*models.Review{r})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// ListByCourse returns every review of a course, newest first
func (s *Service) ListByCourse(ctx context.Context, courseID int64) ([]*Response, error) {
	rs, err := s.reviews.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, services.WrapInternal("failed to list course reviews", err)
	}
	return s.enrich(ctx, rs)
}

// ListByStudent returns the reviews written by studentID. Anonymous reviews
// are only listed when the caller is their author.
func (s *Service) ListByStudent(ctx context.Context, studentID, caller string) ([]*Response, error) {
	rs, err := s.reviews.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, services.WrapInternal("failed to list student reviews", err)
	}
	if caller != studentID {
		visible := rs[:0]
		for _, r := range rs {
			if !r.Anonymous {
				visible = append(visible, r)
			}
		}
		rs = visible
	}
	return s.enrich(ctx, rs)
}

// Update replaces the text and rating of a review. Only its author may do so.
func (s *Service) Update(ctx context.Context, id uuid.UUID, subject string, req UpdateRequest) (*Response, error) {
	if !models.ValidRating(req.Rating) {
		return nil, services.ErrInvalidRating
	}

	current, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, reviewError(err, id, "get review")
	}
	if !current.IsOwnedBy(subject) {
		return nil, services.ErrNotReviewOwner
	}
	course, err := s.courses.GetCourse(ctx, current.CourseID)
	if err != nil {
		return nil, s.peerError(err, services.ErrCourseNotFound, "course", current.CourseID)
	}

	updated, err := services.WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) (*models.Review, error) {
		r, err := s.reviews.GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, reviewError(err, id, "lock review")
		}
		if !r.IsOwnedBy(subject) {
			return nil, services.ErrNotReviewOwner
		}
		r.ReviewText = strings.TrimSpace(req.ReviewText)
		r.Rating = req.Rating
		r.UpdatedAt = s.clock.Now().UTC()
		if err := s.reviews.Update(ctx, r); err != nil {
			return nil, reviewError(err, id, "update review")
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	name := AnonymousName
	if !updated.Anonymous {
		if name, err = s.studentName(ctx, updated.StudentID); err != nil {
			return nil, err
		}
	}
	return build(updated, courseTitle(updated.CourseID, course), name), nil
}

// Delete removes a review. Only its author may do so.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, subject string) error {
	err := services.WithTransaction(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) error {
		r, err := s.reviews.GetByIDForUpdate(ctx, id)
		if err != nil {
			return reviewError(err, id, "lock review")
		}
		if !r.IsOwnedBy(subject) {
			return services.ErrNotReviewOwner
		}
		if err := s.reviews.Delete(ctx, id); err != nil {
			return reviewError(err, id, "delete review")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("review deleted", zap.String("review_id", id.String()))
	return nil
}

// AverageRating returns the mean rating of a course, 0 when it has no reviews
func (s *Service) AverageRating(ctx context.Context, courseID int64) (*RatingSummary, error) {
	avg, count, err := s.reviews.AverageRating(ctx, courseID)
	if err != nil {
		return nil, services.WrapInternal("failed to compute average rating", err)
	}
	if count == 0 {
		avg = 0
	}
	return &RatingSummary{CourseID: courseID, AverageRating: avg, ReviewCount: count}, nil
}

// enrich resolves course titles and author names for rs, fetching each
// distinct course and author once and concurrently.
func (s *Service) enrich(ctx context.Context, rs []*models.Review) ([]*Response, error) {
	var (
		mu       sync.Mutex
		titles   = make(map[int64]string)
		names    = make(map[string]string)
		courses  = make(map[int64]struct{})
		students = make(map[string]struct{})
	)
	for _, r := range rs {
		courses[r.CourseID] = struct{}{}
		if !r.Anonymous {
			students[r.StudentID] = struct{}{}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for id := range courses {
		g.Go(func() error {
			title, err := s.courseTitle(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			titles[id] = title
			mu.Unlock()
			return nil
		})
	}
	for id := range students {
		g.Go(func() error {
			name, err := s.studentName(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			names[id] = name
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*Response, 0, len(rs))
	for _, r := range rs {
		name := AnonymousName
		if !r.Anonymous {
			name = names[r.StudentID]
		}
		out = append(out, build(r, titles[r.CourseID], name))
	}
	return out, nil
}

func (s *Service) courseTitle(ctx context.Context, courseID int64) (string, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if errors.Is(err, clients.ErrNotFound) {
		s.logger.Warn("course missing while enriching review", zap.Int64("course_id", courseID))
		return courseTitle(courseID, nil), nil
	}
	if err != nil {
		return "", s.peerError(err, services.ErrCourseNotFound, "course", courseID)
	}
	return courseTitle(courseID, course), nil
}

func (s *Service) studentName(ctx context.Context, studentID string) (string, error) {
	student, err := s.students.GetStudent(ctx, studentID)
	if errors.Is(err, clients.ErrNotFound) {
		s.logger.Warn("student missing while enriching review", zap.String("student_id", studentID))
		return studentID, nil
	}
	if err != nil {
		return "", s.peerError(err, services.ErrStudentNotFound, "student", studentID)
	}
	return displayName(studentID, student), nil
}

func courseTitle(courseID int64, course *clients.Course) string {
	if course == nil || strings.TrimSpace(course.Title) == "" {
		return "Course " + strconv.FormatInt(courseID, 10)
	}
	return course.Title
}

func displayName(studentID string, student *clients.Student) string {
	switch {
	case student == nil:
		return studentID
	case strings.TrimSpace(student.Name) != "":
		return student.Name
	case student.Email != "":
		return student.Email
	default:
		return studentID
	}
}

func build(r *models.Review, title, name string) *Response {
	resp := &Response{
		ID:          r.ID,
		CourseID:    strconv.FormatInt(r.CourseID, 10),
		CourseName:  title,
		StudentName: name,
		ReviewText:  r.ReviewText,
		Rating:      r.Rating,
		Anonymous:   r.Anonymous,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Anonymous {
		resp.StudentName = AnonymousName
	} else {
		resp.StudentID = r.StudentID
	}
	return resp
}

func reviewError(err error, id uuid.UUID, action string) error {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return services.NewDomainError(services.ErrorTypeNotFound, services.ErrReviewNotFound.Message, err).
			WithDetail("review_id", id.String())
	}
	return services.WrapInternal("failed to "+action, err)
}

// peerError maps a peer client failure to a domain error. A rejected
// credential surfaces as the generic unauthorized message; which peer
// refused it is logged only.
func (s *Service) peerError(err error, notFound *services.DomainError, peer string, id interface{}) error {
	switch {
	case errors.Is(err, clients.ErrNotFound):
		return services.NewDomainError(notFound.Type, notFound.Message, err).WithDetail(peer+"_id", id)
	case errors.Is(err, clients.ErrUnauthorized):
		s.logger.Warn("peer service rejected the forwarded credential",
			zap.String("peer", peer),
			zap.Any("id", id))
		return services.NewDomainError(services.ErrorTypeUnauthorized, services.ErrUnauthorized.Message, err)
	default:
		return services.NewDomainError(services.ErrorTypeExternal, peer+" service request failed", err).
			WithDetail(peer+"_id", id)
	}
}
