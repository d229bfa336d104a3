package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/udehnih/review-rating/models"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("record not found")

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error

	// Context returns a context that routes repository calls through the transaction
	Context() context.Context
}

// ReviewRepository handles review data operations
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error

	// GetByID returns ErrNotFound when no review has the id
	GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error)

	// GetByIDForUpdate locks the row; use inside a transaction
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Review, error)

	// ListByCourse returns a course's reviews, newest first
	ListByCourse(ctx context.Context, courseID int64) ([]*models.Review, error)

	// ListByStudent returns a student's reviews, newest first
	ListByStudent(ctx context.Context, studentID string) ([]*models.Review, error)

	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id uuid.UUID) error

	// AverageRating returns the mean rating of a course and how many reviews it has
	AverageRating(ctx context.Context, courseID int64) (float64, int, error)
}

// AuthorityRepository reads stored role grants. It satisfies auth.AuthorityLookup.
type AuthorityRepository interface {
	FindAuthorities(ctx context.Context, subject string) ([]string, error)
	Grant(ctx context.Context, grant *models.UserAuthority) error
	Revoke(ctx context.Context, subject, authority string) error
}

// Repositories groups all repositories
type Repositories struct {
	Reviews     ReviewRepository
	Authorities AuthorityRepository
}
