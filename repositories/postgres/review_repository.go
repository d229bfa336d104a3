package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/udehnih/review-rating/models"
	"github.com/udehnih/review-rating/repositories"
	"go.uber.org/zap"
)

const reviewColumns = `id, course_id, student_id, review_text, rating, anonymous, created_at, updated_at`

// ReviewRepository implements the repositories.ReviewRepository interface
type ReviewRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *DB, logger *zap.Logger) repositories.ReviewRepository {
	return &ReviewRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new review
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		review.ID,
		review.CourseID,
		review.StudentID,
		review.ReviewText,
		review.Rating,
		review.Anonymous,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	r.logger.Debug("review created",
		zap.String("id", review.ID.String()),
		zap.Int64("course_id", review.CourseID))
	return nil
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByIDForUpdate retrieves a review by ID and locks its row
func (r *ReviewRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *ReviewRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*models.Review, error) {
	executor := GetExecutor(ctx, r.db)
	review, err := scanReview(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("review %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// ListByCourse retrieves all reviews of a course
func (r *ReviewRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE course_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, courseID)
}

// ListByStudent retrieves all reviews written by a student
func (r *ReviewRepository) ListByStudent(ctx context.Context, studentID string) ([]*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE student_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, studentID)
}

func (r *ReviewRepository) list(ctx context.Context, query string, arg interface{}) ([]*models.Review, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*models.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}
	return reviews, nil
}

// Update stores a review's text, rating and updated_at
func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	query := `
		UPDATE reviews
		SET review_text = $2, rating = $3, updated_at = $4
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		review.ID,
		review.ReviewText,
		review.Rating,
		review.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	return requireOneRow(result, "review", review.ID)
}

// Delete removes a review
func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if err := requireOneRow(result, "review", id); err != nil {
		return err
	}

	r.logger.Debug("review deleted", zap.String("id", id.String()))
	return nil
}

// AverageRating returns the mean rating of a course, 0 when it has no reviews
func (r *ReviewRepository) AverageRating(ctx context.Context, courseID int64) (float64, int, error) {
	query := `SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE course_id = $1`

	var (
		avg   float64
		count int
	)
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query, courseID).Scan(&avg, &count); err != nil {
		return 0, 0, fmt.Errorf("failed to compute average rating: %w", err)
	}
	return avg, count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReview(row rowScanner) (*models.Review, error) {
	review := &models.Review{}
	err := row.Scan(
		&review.ID,
		&review.CourseID,
		&review.StudentID,
		&review.ReviewText,
		&review.Rating,
		&review.Anonymous,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return review, nil
}

func requireOneRow(result sql.Result, kind string, id uuid.UUID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, repositories.ErrNotFound)
	}
	return nil
}
