package postgres

import (
	"context"
	"fmt"

	"github.com/udehnih/review-rating/models"
	"github.com/udehnih/review-rating/repositories"
	"go.uber.org/zap"
)

// AuthorityRepository implements the repositories.AuthorityRepository interface
type AuthorityRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuthorityRepository creates a new authority repository
func NewAuthorityRepository(db *DB, logger *zap.Logger) repositories.AuthorityRepository {
	return &AuthorityRepository{
		db:     db,
		logger: logger,
	}
}

// FindAuthorities returns the roles granted to subject in grant order.
// A subject with no grants yields an empty slice.
func (r *AuthorityRepository) FindAuthorities(ctx context.Context, subject string) ([]string, error) {
	query := `
		SELECT authority
		FROM user_authorities
		WHERE subject = $1
		ORDER BY granted_at, authority
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to query authorities: %w", err)
	}
	defer rows.Close()

	authorities := make([]string, 0)
	for rows.Next() {
		var authority string
		if err := rows.Scan(&authority); err != nil {
			return nil, fmt.Errorf("failed to scan authority: %w", err)
		}
		authorities = append(authorities, authority)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating authorities: %w", err)
	}
	return authorities, nil
}

// Grant stores a role grant. Granting an existing role is a no-op.
func (r *AuthorityRepository) Grant(ctx context.Context, grant *models.UserAuthority) error {
	query := `
		INSERT INTO user_authorities (subject, authority, granted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (subject, authority) DO NOTHING
	`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, grant.Subject, grant.Authority, grant.GrantedAt); err != nil {
		return fmt.Errorf("failed to grant authority: %w", err)
	}

	r.logger.Info("authority granted",
		zap.String("sub", grant.Subject),
		zap.String("authority", grant.Authority))
	return nil
}

// Revoke removes a role grant
func (r *AuthorityRepository) Revoke(ctx context.Context, subject, authority string) error {
	query := `DELETE FROM user_authorities WHERE subject = $1 AND authority = $2`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, subject, authority)
	if err != nil {
		return fmt.Errorf("failed to revoke authority: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("authority %s for %s: %w", authority, subject, repositories.ErrNotFound)
	}

	r.logger.Info("authority revoked",
		zap.String("sub", subject),
		zap.String("authority", authority))
	return nil
}
