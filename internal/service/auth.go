package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Dan9191/travel-blog/internal/auth"
	"github.com/Dan9191/travel-blog/internal/models"
	"github.com/Dan9191/travel-blog/internal/repository"
)

const msgDuplicateUsername = "A user with that username already exists."

// RegisterInput is the registration payload. Nil means the field was absent.
type RegisterInput struct {
	Username        *string
	Email           *string
	Password        *string
	PasswordConfirm *string
	FirstName       *string
	LastName        *string
}

// AuthResult is a user together with freshly issued tokens
type AuthResult struct {
	User   *models.User
	Tokens auth.Pair
}

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username := trimmed(in.Username)
	email := trimmed(in.Email)
	firstName := trimmed(in.FirstName)
	lastName := trimmed(in.LastName)

	v := &validator{}
	v.required("username", username)
	v.required("password", in.Password)
	v.required("password_confirm", in.PasswordConfirm)
	v.noNull("username", username)
	v.noNull("email", email)
	v.noNull("password", in.Password)
	v.noNull("password_confirm", in.PasswordConfirm)
	v.noNull("first_name", firstName)
	v.noNull("last_name", lastName)
	if username != nil && *username != "" {
		v.maxLen("username", *username, 150)
		if !usernamePattern.MatchString(*username) {
			v.add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
		}
	}
	if email != nil && *email != "" {
		v.maxLen("email", *email, 254)
		if !validEmail(*email) {
			v.add("email", "Enter a valid email address.")
		}
	}
	v.maxLen("first_name", deref(firstName), 150)
	v.maxLen("last_name", deref(lastName), 150)
	if err := v.err(); err != nil {
		return nil, err
	}

	if *in.Password != *in.PasswordConfirm {
		return nil, &ValidationError{
			Message: "Passwords don't match",
			Fields:  map[string]string{"non_field_errors": "Passwords don't match"},
		}
	}

	// Checked up front for a clean error; the unique index still decides races.
	if _, err := s.store.FindUserByUsername(ctx, *username); err == nil {
		return nil, duplicateUsername()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     *username,
		Email:        deref(email),
		FirstName:    deref(firstName),
		LastName:     deref(lastName),
		PasswordHash: string(hashedPassword),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateUsername()
		}
		return nil, err
	}

	tokens, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Infof("User registered: %s", user.Username)
	s.sendWelcome(user)
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Login authenticates a user and returns a token pair
func (s *Service) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	invalid := newError(ErrUnauthorized, "No active account found with the given credentials")

	v := &validator{}
	v.noNull("username", &username)
	v.noNull("password", &password)
	if err := v.err(); err != nil {
		return nil, err
	}

	user, err := s.store.FindUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, invalid
	}

	tokens, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Infof("User logged in: %s", user.Username)
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// RefreshAccess exchanges a refresh token for a new access token
func (s *Service) RefreshAccess(ctx context.Context, refresh string) (string, error) {
	if strings.TrimSpace(refresh) == "" {
		return "", &ValidationError{
			Message: "refresh: " + msgRequired,
			Fields:  map[string]string{"refresh": msgRequired},
		}
	}
	user, err := s.userFromToken(ctx, refresh, auth.Refresh)
	if err != nil {
		return "", err
	}
	return s.tokens.IssueAccess(user.ID)
}

// Authenticate resolves an access token to its user
func (s *Service) Authenticate(ctx context.Context, access string) (*models.User, error) {
	return s.userFromToken(ctx, access, auth.Access)
}

func (s *Service) userFromToken(ctx context.Context, token string, typ auth.TokenType) (*models.User, error) {
	claims, err := s.tokens.Parse(token, typ)
	if err != nil {
		return nil, newError(ErrUnauthorized, "Token is invalid or expired")
	}
	user, err := s.store.FindUserByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrUnauthorized, "User not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Profile returns the authenticated caller
func (s *Service) Profile(ctx context.Context) (*models.User, error) {
	return UserFromContext(ctx)
}

func (s *Service) sendWelcome(user *models.User) {
	if s.opts.Mailer == nil || user.Email == "" {
		return
	}
	if err := s.opts.Mailer.SendWelcome(user.Email, user.Username); err != nil {
		s.log.WithError(err).Warnf("Welcome email to %s failed", user.Email)
	}
}

func duplicateUsername() error {
	return &ValidationError{
		Message: msgDuplicateUsername,
		Fields:  map[string]string{"username": msgDuplicateUsername},
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
