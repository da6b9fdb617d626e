package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/travel-blog/internal/models"
)

// CreateComment inserts a comment on comment.PostID by comment.Author
func (r *Repository) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (post_id, author_id, content, created_date)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id, created_date`
	err := r.db.QueryRowContext(ctx, query, comment.PostID, comment.Author.ID, comment.Content).
		Scan(&comment.ID, &comment.CreatedDate)
	if pqCode(err) == foreignKeyViolation {
		// The post was deleted between lookup and insert.
		return fmt.Errorf("post %d: %w", comment.PostID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}
