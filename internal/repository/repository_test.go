package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/travel-blog/internal/models"
)

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

var postCols = []string{
	"id", "title", "content", "image", "created_date", "updated_date", "location", "tags",
	"u.id", "username", "email", "first_name", "last_name",
}

var commentCols = []string{
	"id", "post_id", "content", "created_date",
	"u.id", "username", "email", "first_name", "last_name",
}

func TestCreateUser(t *testing.T) {
	repo, mock := newMock(t)
	joined := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("alice", "a@x.com", "hash", "Alice", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "date_joined"}).AddRow(7, joined))

	user := &models.User{Username: "alice", Email: "a@x.com", PasswordHash: "hash", FirstName: "Alice"}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, joined, user.DateJoined)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicate(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.CreateUser(context.Background(), &models.User{Username: "alice"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestFindUserByUsernameNotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPostsLoadsComments(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.created_date DESC, p.id DESC")).
		WithArgs(sqlmock.AnyArg(), 0).
		WillReturnRows(sqlmock.NewRows(postCols).
			AddRow(2, "Lisbon", "Trams", "blog_images/a.jpg", now, now, "Portugal", "city", 1, "alice", "a@x.com", "", "").
			AddRow(1, "Trip", "Nice", nil, now, now, "", "", 1, "alice", "a@x.com", "", ""))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.post_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(commentCols).
			AddRow(10, 1, "first", now, 2, "bob", "b@x.com", "", "").
			AddRow(11, 1, "second", now.Add(time.Minute), 1, "alice", "a@x.com", "", ""))

	posts, err := repo.ListPosts(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "Lisbon", posts[0].Title)
	require.NotNil(t, posts[0].Image)
	assert.Equal(t, "blog_images/a.jpg", *posts[0].Image)
	assert.Empty(t, posts[0].Comments)

	assert.Nil(t, posts[1].Image)
	require.Len(t, posts[1].Comments, 2)
	assert.Equal(t, "first", posts[1].Comments[0].Content)
	assert.Equal(t, "bob", posts[1].Comments[0].Author.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPostsEmpty(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM posts p")).
		WillReturnRows(sqlmock.NewRows(postCols))

	posts, err := repo.ListPosts(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindPostByIDNotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(postCols))

	_, err := repo.FindPostByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePostNotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE posts")).
		WillReturnRows(sqlmock.NewRows([]string{"updated_date"}))

	err := repo.UpdatePost(context.Background(), &models.Post{ID: 3, Title: "t", Content: "c"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePost(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM posts WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM posts WHERE id = $1")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeletePost(context.Background(), 3))
	assert.ErrorIs(t, repo.DeletePost(context.Background(), 4), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCommentMissingPost(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO comments")).
		WithArgs(int64(9), int64(1), "hi").
		WillReturnError(&pq.Error{Code: foreignKeyViolation})

	err := repo.CreateComment(context.Background(), &models.Comment{
		PostID: 9, Content: "hi", Author: models.User{ID: 1},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.Contains(t, schema, "ON DELETE CASCADE")
}
