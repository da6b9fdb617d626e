package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dan9191/travel-blog/internal/models"
	"github.com/lib/pq"
)

const postColumns = `
		p.id, p.title, p.content, p.image, p.created_date, p.updated_date, p.location, p.tags,
		u.id, u.username, u.email, u.first_name, u.last_name`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (models.Post, error) {
	var post models.Post
	var image sql.NullString
	err := row.Scan(
		&post.ID, &post.Title, &post.Content, &image, &post.CreatedDate, &post.UpdatedDate,
		&post.Location, &post.Tags,
		&post.Author.ID, &post.Author.Username, &post.Author.Email,
		&post.Author.FirstName, &post.Author.LastName)
	if image.Valid {
		post.Image = &image.String
	}
	return post, err
}

// CountPosts returns the total number of posts
func (r *Repository) CountPosts(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// ListPosts returns posts newest first with authors and comments.
// A non-positive limit returns every post.
func (r *Repository) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	query := `
		SELECT` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.author_id
		ORDER BY p.created_date DESC, p.id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, lim, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	if err := r.loadComments(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// FindPostByID retrieves a post with its author and comments
func (r *Repository) FindPostByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `
		SELECT` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}

	posts := []models.Post{post}
	if err := r.loadComments(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// CreatePost inserts a post owned by post.Author
func (r *Repository) CreatePost(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (title, content, image, author_id, location, tags, created_date, updated_date)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_date, updated_date`
	err := r.db.QueryRowContext(ctx, query,
		post.Title, post.Content, post.Image, post.Author.ID, post.Location, post.Tags).
		Scan(&post.ID, &post.CreatedDate, &post.UpdatedDate)
	if pqCode(err) == foreignKeyViolation {
		return fmt.Errorf("author %d: %w", post.Author.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	return nil
}

// UpdatePost writes the editable fields of a post and refreshes updated_date.
// The author is never changed.
func (r *Repository) UpdatePost(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET title = $1, content = $2, image = $3, location = $4, tags = $5, updated_date = CURRENT_TIMESTAMP
		WHERE id = $6
		RETURNING updated_date`
	err := r.db.QueryRowContext(ctx, query,
		post.Title, post.Content, post.Image, post.Location, post.Tags, post.ID).
		Scan(&post.UpdatedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

// DeletePost removes a post; its comments go with it through ON DELETE CASCADE
func (r *Repository) DeletePost(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// loadComments fills Comments of every post, oldest first
func (r *Repository) loadComments(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]int64, len(posts))
	index := make(map[int64]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		index[posts[i].ID] = i
		posts[i].Comments = []models.Comment{}
	}

	query := `
		SELECT c.id, c.post_id, c.content, c.created_date,
			u.id, u.username, u.email, u.first_name, u.last_name
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ANY($1)
		ORDER BY c.created_date ASC, c.id ASC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Content, &c.CreatedDate,
			&c.Author.ID, &c.Author.Username, &c.Author.Email, &c.Author.FirstName, &c.Author.LastName); err != nil {
			return fmt.Errorf("failed to scan comment: %w", err)
		}
		if i, ok := index[c.PostID]; ok {
			posts[i].Comments = append(posts[i].Comments, c)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating comments: %w", err)
	}
	return nil
}
