// Package servicetest provides an in-memory service.Store for tests.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dan9191/travel-blog/internal/models"
	"github.com/Dan9191/travel-blog/internal/repository"
)

// MemStore mirrors the PostgreSQL schema rules: unique usernames, cascading
// deletes, newest-first posts and oldest-first comments.
type MemStore struct {
	mu       sync.Mutex
	seq      int64
	clock    time.Time
	users    map[int64]models.User
	posts    map[int64]models.Post
	comments map[int64]models.Comment
}

// NewMemStore returns an empty store
func NewMemStore() *MemStore {
	return &MemStore{
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    map[int64]models.User{},
		posts:    map[int64]models.Post{},
		comments: map[int64]models.Comment{},
	}
}

// tick returns a fresh id and a strictly increasing timestamp
func (m *MemStore) tick() (int64, time.Time) {
	m.seq++
	m.clock = m.clock.Add(time.Second)
	return m.seq, m.clock
}

func (m *MemStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return fmt.Errorf("user %q: %w", user.Username, repository.ErrDuplicate)
		}
	}
	user.ID, user.DateJoined = m.tick()
	m.users[user.ID] = *user
	return nil
}

func (m *MemStore) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MemStore) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// DeleteUser removes a user with their posts and comments
func (m *MemStore) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	for pid, p := range m.posts {
		if p.Author.ID == id {
			m.deletePostLocked(pid)
		}
	}
	for cid, c := range m.comments {
		if c.Author.ID == id {
			delete(m.comments, cid)
		}
	}
	return nil
}

func (m *MemStore) CountPosts(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts), nil
}

func (m *MemStore) ListPosts(_ context.Context, limit, offset int) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	posts := make([]models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		posts = append(posts, m.hydrateLocked(p))
	}
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedDate.Equal(posts[j].CreatedDate) {
			return posts[i].CreatedDate.After(posts[j].CreatedDate)
		}
		return posts[i].ID > posts[j].ID
	})

	if offset >= len(posts) {
		return []models.Post{}, nil
	}
	posts = posts[offset:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts, nil
}

func (m *MemStore) FindPostByID(_ context.Context, id int64) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	post := m.hydrateLocked(p)
	return &post, nil
}

func (m *MemStore) CreatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	author, ok := m.users[post.Author.ID]
	if !ok {
		return fmt.Errorf("author %d: %w", post.Author.ID, repository.ErrNotFound)
	}
	post.ID, post.CreatedDate = m.tick()
	post.UpdatedDate = post.CreatedDate
	post.Author = author
	post.Comments = []models.Comment{}
	m.posts[post.ID] = copyPost(*post)
	return nil
}

func (m *MemStore) UpdatePost(_ context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.posts[post.ID]
	if !ok {
		return repository.ErrNotFound
	}
	_, now := m.tick()
	stored.Title = post.Title
	stored.Content = post.Content
	stored.Image = post.Image
	stored.Location = post.Location
	stored.Tags = post.Tags
	stored.UpdatedDate = now
	m.posts[post.ID] = copyPost(stored)
	post.UpdatedDate = now
	return nil
}

func (m *MemStore) DeletePost(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return repository.ErrNotFound
	}
	m.deletePostLocked(id)
	return nil
}

func (m *MemStore) CreateComment(_ context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[comment.PostID]; !ok {
		return fmt.Errorf("post %d: %w", comment.PostID, repository.ErrNotFound)
	}
	author, ok := m.users[comment.Author.ID]
	if !ok {
		return fmt.Errorf("author %d: %w", comment.Author.ID, repository.ErrNotFound)
	}
	comment.ID, comment.CreatedDate = m.tick()
	comment.Author = author
	m.comments[comment.ID] = *comment
	return nil
}

// CommentCount returns the number of stored comments, orphaned or not
func (m *MemStore) CommentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.comments)
}

func (m *MemStore) deletePostLocked(id int64) {
	delete(m.posts, id)
	for cid, c := range m.comments {
		if c.PostID == id {
			delete(m.comments, cid)
		}
	}
}

// hydrateLocked attaches the current author and comments to a copy of p
func (m *MemStore) hydrateLocked(p models.Post) models.Post {
	post := copyPost(p)
	if u, ok := m.users[p.Author.ID]; ok {
		post.Author = u
	}
	post.Comments = []models.Comment{}
	for _, c := range m.comments {
		if c.PostID == p.ID {
			post.Comments = append(post.Comments, c)
		}
	}
	sort.Slice(post.Comments, func(i, j int) bool {
		ci, cj := post.Comments[i], post.Comments[j]
		if !ci.CreatedDate.Equal(cj.CreatedDate) {
			return ci.CreatedDate.Before(cj.CreatedDate)
		}
		return ci.ID < cj.ID
	})
	return post
}

func copyPost(p models.Post) models.Post {
	if p.Image != nil {
		img := *p.Image
		p.Image = &img
	}
	p.Comments = append([]models.Comment(nil), p.Comments...)
	return p
}
