package service

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dan9191/travel-blog/internal/auth"
	"github.com/Dan9191/travel-blog/internal/models"
)

// Store is the persistence the service needs. *repository.Repository implements it.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)

	CountPosts(ctx context.Context) (int, error)
	ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error)
	FindPostByID(ctx context.Context, id int64) (*models.Post, error)
	CreatePost(ctx context.Context, post *models.Post) error
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id int64) error

	CreateComment(ctx context.Context, comment *models.Comment) error
}

// MediaStore keeps uploaded post images
type MediaStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// PostCache caches listing pages keyed by a generation that every write
// advances. GetPage returns nil, nil on a miss.
type PostCache interface {
	Generation(ctx context.Context) (int64, error)
	GetPage(ctx context.Context, gen int64, page int) (*models.PostPage, error)
	SetPage(ctx context.Context, gen int64, page int, p *models.PostPage) error
	Invalidate(ctx context.Context) error
}

// Mailer sends the welcome email after registration
type Mailer interface {
	SendWelcome(to, username string) error
}

// Options holds the optional collaborators and tunables
type Options struct {
	Media      MediaStore
	Cache      PostCache
	Mailer     Mailer
	PageSize   int
	BcryptCost int
}

// Service handles business logic
type Service struct {
	store  Store
	tokens *auth.Manager
	log    *logrus.Logger
	opts   Options
}

// NewService initializes a new service
func NewService(store Store, tokens *auth.Manager, log *logrus.Logger, opts Options) *Service {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{store: store, tokens: tokens, log: log, opts: opts}
}

// PageSize is the configured listing page size, zero when listings are not paginated
func (s *Service) PageSize() int {
	return s.opts.PageSize
}

type ctxKey string

const userKey ctxKey = "user"

// WithUser returns a context carrying the authenticated caller
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated caller or ErrUnauthorized
func UserFromContext(ctx context.Context) (*models.User, error) {
	user, ok := ctx.Value(userKey).(*models.User)
	if !ok || user == nil {
		return nil, newError(ErrUnauthorized, "Authentication credentials were not provided.")
	}
	return user, nil
}
