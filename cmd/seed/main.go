// Command seed fills the database with fake authors, posts and comments for demos.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/travel-blog/internal/auth"
	"github.com/Dan9191/travel-blog/internal/config"
	"github.com/Dan9191/travel-blog/internal/models"
	"github.com/Dan9191/travel-blog/internal/repository"
	"github.com/Dan9191/travel-blog/internal/service"
)

const seedPassword = "travel-demo-123"

func main() {
	users := flag.Int("users", 5, "number of users to register")
	posts := flag.Int("posts", 20, "number of posts to create")
	comments := flag.Int("comments", 3, "maximum comments per post")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("Failed to load .env: %v", err)
	}
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, err := repository.Open(ctx, cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := repository.NewRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatalf("Failed to apply schema: %v", err)
	}

	tokens := auth.NewManager(cfg.SecretKey, cfg.AccessTokenLifetime, cfg.RefreshTokenLifetime)
	svc := service.NewService(repo, tokens, logger, service.Options{})

	faker := gofakeit.New(*seed)
	authors := registerUsers(ctx, svc, faker, logger, *users)
	if len(authors) == 0 {
		logger.Fatal("No users registered, aborting seeding process")
	}

	created := 0
	for i := 0; i < *posts; i++ {
		author := authors[faker.Number(0, len(authors)-1)]
		post, err := svc.CreatePost(service.WithUser(ctx, author), fakePost(faker))
		if err != nil {
			logger.WithError(err).Warn("Failed to create post")
			continue
		}
		created++

		for j := faker.Number(0, *comments); j > 0; j-- {
			commenter := authors[faker.Number(0, len(authors)-1)]
			content := faker.Sentence(faker.Number(4, 16))
			if _, err := svc.CreateComment(service.WithUser(ctx, commenter), post.ID, &content); err != nil {
				logger.WithError(err).Warn("Failed to create comment")
			}
		}
	}

	logger.WithFields(logrus.Fields{
		"users": len(authors),
		"posts": created,
	}).Infof("Seeding finished; every user's password is %q", seedPassword)
}

func registerUsers(ctx context.Context, svc *service.Service, faker *gofakeit.Faker, logger *logrus.Logger, n int) []*models.User {
	var users []*models.User
	for i := 0; i < n; i++ {
		first, last := faker.FirstName(), faker.LastName()
		username := usernameFrom(first, last, faker.DigitN(3))
		userEmail := faker.Email()
		password := seedPassword

		res, err := svc.Register(ctx, service.RegisterInput{
			Username:        &username,
			Email:           &userEmail,
			Password:        &password,
			PasswordConfirm: &password,
			FirstName:       &first,
			LastName:        &last,
		})
		if err != nil {
			logger.WithError(err).Warnf("Failed to register %s", username)
			continue
		}
		users = append(users, res.User)
	}
	return users
}

func fakePost(faker *gofakeit.Faker) service.PostInput {
	city, country := faker.City(), faker.Country()
	title := "A week in " + city
	content := strings.Join([]string{
		faker.Paragraph(1, 4, 12, " "),
		faker.Paragraph(1, 3, 10, " "),
	}, "\n\n")
	location := city + ", " + country
	tags := strings.Join([]string{
		strings.ToLower(faker.Adjective()),
		strings.ToLower(faker.NounCommon()),
		"travel",
	}, ", ")

	return service.PostInput{
		Title:    &title,
		Content:  &content,
		Location: &location,
		Tags:     &tags,
	}
}

// usernameFrom keeps only characters valid in a username
func usernameFrom(parts ...string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, strings.Join(parts, "."))
}
