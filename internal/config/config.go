package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Media backends
const (
	MediaLocal = "local"
	MediaS3    = "s3"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBConn   string
	LogLevel string
	Debug    bool

	SecretKey            string
	AccessTokenLifetime  time.Duration
	RefreshTokenLifetime time.Duration

	AllowedHosts       []string
	CORSAllowedOrigins []string

	StaticRoot  string
	FrontendDir string
	MediaRoot   string
	MediaURL    string
	SiteURL     string

	MediaBackend string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	S3Bucket     string
	S3UseSSL     bool

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	PageSize      int
	FeedSize      int
	DBAutoMigrate bool

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	var errs []string
	p := &parser{errs: &errs}

	cfg := &Config{
		Port:     getEnv("PORT", "8000"),
		DBConn:   getEnv("DATABASE_URL", ""),
		LogLevel: getEnv("LOG_LEVEL", ""),
		Debug:    p.bool("DEBUG", false),

		SecretKey:            getEnv("SECRET_KEY", ""),
		AccessTokenLifetime:  p.duration("ACCESS_TOKEN_LIFETIME", 60*time.Minute),
		RefreshTokenLifetime: p.duration("REFRESH_TOKEN_LIFETIME", 24*time.Hour),

		AllowedHosts:       splitList(getEnv("ALLOWED_HOSTS", "")),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),

		StaticRoot:  getEnv("STATIC_ROOT", "staticfiles"),
		FrontendDir: getEnv("FRONTEND_DIR", "frontend/build"),
		MediaRoot:   getEnv("MEDIA_ROOT", "media"),
		MediaURL:    getEnv("MEDIA_URL", "/media/"),
		SiteURL:     strings.TrimRight(getEnv("SITE_URL", "http://localhost:8000"), "/"),

		MediaBackend: getEnv("MEDIA_BACKEND", MediaLocal),
		S3Endpoint:   getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:  getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:  getEnv("S3_SECRET_KEY", ""),
		S3Bucket:     getEnv("S3_BUCKET", "travel-blog-media"),
		S3UseSSL:     p.bool("S3_USE_SSL", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      p.duration("CACHE_TTL", 5*time.Minute),

		PageSize:      p.int("PAGE_SIZE", 0),
		FeedSize:      p.int("FEED_SIZE", 20),
		DBAutoMigrate: p.bool("DB_AUTO_MIGRATE", true),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "noreply@travel-blog.local"),
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		if cfg.Debug {
			cfg.LogLevel = "debug"
		}
	}
	if len(cfg.AllowedHosts) == 0 && cfg.Debug {
		cfg.AllowedHosts = []string{"localhost", "127.0.0.1", "[::1]"}
	}
	if !strings.HasSuffix(cfg.MediaURL, "/") {
		cfg.MediaURL += "/"
	}

	if cfg.DBConn == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if cfg.SecretKey == "" {
		if !cfg.Debug {
			errs = append(errs, "SECRET_KEY is required")
		} else {
			cfg.SecretKey = "insecure-development-key"
		}
	}
	if cfg.MediaBackend != MediaLocal && cfg.MediaBackend != MediaS3 {
		errs = append(errs, fmt.Sprintf("MEDIA_BACKEND must be %q or %q", MediaLocal, MediaS3))
	}
	if cfg.PageSize < 0 {
		errs = append(errs, "PAGE_SIZE must not be negative")
	}
	if cfg.FeedSize <= 0 {
		errs = append(errs, "FEED_SIZE must be positive")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// SMTPEnabled reports whether outgoing email is configured
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// CacheEnabled reports whether the Redis listing cache is configured
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parser collects conversion errors for typed variables
type parser struct {
	errs *[]string
}

func (p *parser) bool(key string, defaultVal bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Sprintf("%s: invalid boolean %q", key, v))
		return defaultVal
	}
	return b
}

func (p *parser) int(key string, defaultVal int) int {
	v := getEnv(key, "")
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Sprintf("%s: invalid integer %q", key, v))
		return defaultVal
	}
	return n
}

func (p *parser) duration(key string, defaultVal time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*p.errs = append(*p.errs, fmt.Sprintf("%s: invalid duration %q", key, v))
		return defaultVal
	}
	return d
}
