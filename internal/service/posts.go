package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/travel-blog/internal/models"
	"github.com/Dan9191/travel-blog/internal/repository"
)

// Upload is an image file received with a post
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// PostInput carries the writable post fields. Nil means the field was not sent.
// Any author sent by the client never reaches this struct.
type PostInput struct {
	Title    *string
	Content  *string
	Location *string
	Tags     *string
	Image    *Upload
}

// ListPosts returns posts newest first. When paging is enabled, page is 1-based.
func (s *Service) ListPosts(ctx context.Context, page int) (*models.PostPage, error) {
	size := s.opts.PageSize
	if size <= 0 {
		page = 0
	} else if page < 1 {
		page = 1
	}

	// The generation is read before the store so a snapshot that races a
	// write is stored under a retired key.
	gen, cacheOK := s.cacheGeneration(ctx)
	if cacheOK {
		if cached := s.cachedPage(ctx, gen, page); cached != nil {
			return cached, nil
		}
	}

	result := &models.PostPage{Page: page, PageSize: size}
	if size > 0 {
		count, err := s.store.CountPosts(ctx)
		if err != nil {
			return nil, err
		}
		if page > 1 && (page-1)*size >= count {
			return nil, newError(ErrNotFound, "Invalid page.")
		}
		posts, err := s.store.ListPosts(ctx, size, (page-1)*size)
		if err != nil {
			return nil, err
		}
		result.Count, result.Posts = count, posts
	} else {
		posts, err := s.store.ListPosts(ctx, 0, 0)
		if err != nil {
			return nil, err
		}
		result.Count, result.Posts = len(posts), posts
	}

	if cacheOK {
		if err := s.opts.Cache.SetPage(ctx, gen, page, result); err != nil {
			s.log.WithError(err).Warn("Failed to cache post listing")
		}
	}
	return result, nil
}

// RecentPosts returns at most n of the newest posts
func (s *Service) RecentPosts(ctx context.Context, n int) ([]models.Post, error) {
	return s.store.ListPosts(ctx, n, 0)
}

// GetPost retrieves a single post with its comments
func (s *Service) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.store.FindPostByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Not found.")
	}
	return post, err
}

// CreatePost creates a post authored by the authenticated caller
func (s *Service) CreatePost(ctx context.Context, in PostInput) (*models.Post, error) {
	author, err := UserFromContext(ctx)
	if err != nil {
		return nil, err
	}

	post := &models.Post{Author: *author}
	if err := applyPostInput(post, in, false); err != nil {
		return nil, err
	}
	if err := s.saveImage(ctx, post, in.Image); err != nil {
		return nil, err
	}

	if err := s.store.CreatePost(ctx, post); err != nil {
		s.discardImage(ctx, post.Image)
		return nil, err
	}

	s.invalidate(ctx)
	s.log.WithFields(logrus.Fields{"post_id": post.ID, "user_id": author.ID}).Infof("Post created: %s", post.Title)
	return post, nil
}

// UpdatePost changes a post owned by the caller. With partial false every
// required field must be present.
func (s *Service) UpdatePost(ctx context.Context, id int64, in PostInput, partial bool) (*models.Post, error) {
	post, err := s.ownedPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyPostInput(post, in, partial); err != nil {
		return nil, err
	}
	oldImage := post.Image
	if err := s.saveImage(ctx, post, in.Image); err != nil {
		return nil, err
	}

	if err := s.store.UpdatePost(ctx, post); err != nil {
		if in.Image != nil {
			s.discardImage(ctx, post.Image)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Not found.")
		}
		return nil, err
	}
	if in.Image != nil {
		s.discardImage(ctx, oldImage)
	}

	s.invalidate(ctx)
	s.log.WithField("post_id", post.ID).Infof("Post updated: %s", post.Title)
	return post, nil
}

// DeletePost removes a post owned by the caller together with its comments
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	post, err := s.ownedPost(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeletePost(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(ErrNotFound, "Not found.")
		}
		return err
	}
	s.discardImage(ctx, post.Image)

	s.invalidate(ctx)
	s.log.WithField("post_id", id).Info("Post deleted")
	return nil
}

// CreateComment adds a comment by the caller to an existing post
func (s *Service) CreateComment(ctx context.Context, postID int64, content *string) (*models.Comment, error) {
	author, err := UserFromContext(ctx)
	if err != nil {
		return nil, err
	}

	content = trimmed(content)
	v := &validator{}
	v.required("content", content)
	v.noNull("content", content)
	if err := v.err(); err != nil {
		return nil, err
	}

	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: postID, Author: *author, Content: *content}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "Not found.")
		}
		return nil, err
	}

	s.invalidate(ctx)
	s.log.WithFields(logrus.Fields{"post_id": postID, "comment_id": comment.ID}).Info("Comment created")
	return comment, nil
}

// ownedPost loads a post and checks the caller is its author
func (s *Service) ownedPost(ctx context.Context, id int64) (*models.Post, error) {
	caller, err := UserFromContext(ctx)
	if err != nil {
		return nil, err
	}
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Author.ID != caller.ID {
		return nil, newError(ErrForbidden, "You do not have permission to perform this action.")
	}
	return post, nil
}

func applyPostInput(post *models.Post, in PostInput, partial bool) error {
	title, content := trimmed(in.Title), trimmed(in.Content)
	location, tags := trimmed(in.Location), trimmed(in.Tags)

	v := &validator{}
	if !partial || title != nil {
		v.required("title", title)
	}
	if !partial || content != nil {
		v.required("content", content)
	}
	v.noNull("title", title)
	v.noNull("content", content)
	v.noNull("location", location)
	v.noNull("tags", tags)
	v.maxLen("title", deref(title), 200)
	v.maxLen("location", deref(location), 200)
	v.maxLen("tags", deref(tags), 500)
	if err := v.err(); err != nil {
		return err
	}

	if title != nil {
		post.Title = *title
	}
	if content != nil {
		post.Content = *content
	}
	if location != nil {
		post.Location = *location
	}
	if tags != nil {
		post.Tags = *tags
	}
	return nil
}

func (s *Service) saveImage(ctx context.Context, post *models.Post, img *Upload) error {
	if img == nil {
		return nil
	}
	if s.opts.Media == nil {
		return &ValidationError{
			Message: "image: uploads are not enabled",
			Fields:  map[string]string{"image": "Uploads are not enabled."},
		}
	}
	if !strings.HasPrefix(img.ContentType, "image/") {
		return &ValidationError{
			Message: "image: file is not an image",
			Fields:  map[string]string{"image": "Upload a valid image. The file you uploaded was either not an image or a corrupted image."},
		}
	}
	key, err := s.opts.Media.Save(ctx, img.Filename, img.ContentType, img.Body, img.Size)
	if err != nil {
		return fmt.Errorf("failed to store image: %w", err)
	}
	post.Image = &key
	return nil
}

func (s *Service) discardImage(ctx context.Context, key *string) {
	if key == nil || s.opts.Media == nil {
		return
	}
	if err := s.opts.Media.Delete(ctx, *key); err != nil {
		s.log.WithError(err).Warnf("Failed to remove image %s", *key)
	}
}

func (s *Service) cacheGeneration(ctx context.Context) (int64, bool) {
	if s.opts.Cache == nil {
		return 0, false
	}
	gen, err := s.opts.Cache.Generation(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Post listing cache unavailable")
		return 0, false
	}
	return gen, true
}

func (s *Service) cachedPage(ctx context.Context, gen int64, page int) *models.PostPage {
	cached, err := s.opts.Cache.GetPage(ctx, gen, page)
	if err != nil {
		s.log.WithError(err).Warn("Post listing cache read failed")
		return nil
	}
	return cached
}

func (s *Service) invalidate(ctx context.Context) {
	if s.opts.Cache == nil {
		return
	}
	if err := s.opts.Cache.Invalidate(ctx); err != nil {
		s.log.WithError(err).Warn("Failed to invalidate post listing cache")
	}
}
