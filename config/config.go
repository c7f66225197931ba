package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"devevents/internal/domain"
)

const defaultBaseURL = "http://localhost:3000"

// Config holds all configuration for the application
type Config struct {
	Environment    string
	Port           string
	LogLevel       string
	BaseURL        string
	ContextTimeout time.Duration
	AllowedOrigins []string

	DB    DBConfig
	Redis RedisConfig
	MinIO MinIOConfig
	Email EmailConfig
}

// DBConfig holds the Postgres connection settings.
type DBConfig struct {
	URL                    string
	MaxPoolSize            int
	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
}

// RedisConfig holds the event cache settings. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// MinIOConfig holds the image bucket settings.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// EmailConfig holds the booking confirmation mailer settings.
type EmailConfig struct {
	Provider           string
	FromAddress        string
	FromName           string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	SESEndpoint        string
	InsecureSkipVerify bool
}

// Load loads configuration from environment variables.
// Outside production it first loads a .env file if one exists.
// DATABASE_URL has no default; a missing URL surfaces when the database is first used.
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}

	p := &parser{}
	cfg := &Config{
		Environment:    env,
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		BaseURL:        baseURL(os.Getenv("BASE_URL")),
		ContextTimeout: p.duration("CONTEXT_TIMEOUT", 10*time.Second),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", defaultBaseURL)),
		DB: DBConfig{
			URL:                    os.Getenv("DATABASE_URL"),
			MaxPoolSize:            p.int("DB_MAX_POOL_SIZE", 10),
			ServerSelectionTimeout: p.duration("DB_SERVER_SELECTION_TIMEOUT", 5*time.Second),
			SocketTimeout:          p.duration("DB_SOCKET_TIMEOUT", 45*time.Second),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       p.int("REDIS_DB", 0),
			TTL:      p.duration("CACHE_TTL", time.Hour),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "events"),
			UseSSL:    p.bool("MINIO_USE_SSL", false),
			PublicURL: os.Getenv("MINIO_PUBLIC_URL"),
		},
		Email: EmailConfig{
			Provider:           getEnv("EMAIL_PROVIDER", "noop"),
			FromAddress:        os.Getenv("EMAIL_FROM_ADDRESS"),
			FromName:           getEnv("EMAIL_FROM_NAME", "DevEvents"),
			AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
			AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SESEndpoint:        os.Getenv("AWS_SES_ENDPOINT"),
			InsecureSkipVerify: p.bool("AWS_SES_INSECURE_SKIP_VERIFY", false),
		},
	}
	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

// baseURL follows the hosting convention of exposing the deployment host without a scheme.
func baseURL(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return defaultBaseURL
	}
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return strings.TrimRight(host, "/")
	}
	return "https://" + strings.TrimRight(host, "/")
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parser reads typed values and keeps the first malformed one.
type parser struct {
	err error
}

func (p *parser) fail(key, msg string) {
	if p.err == nil {
		p.err = &domain.ConfigurationError{Key: key, Message: msg}
	}
}

func (p *parser) int(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		p.fail(key, fmt.Sprintf("%q is not a non-negative integer", raw))
		return fallback
	}
	return n
}

// duration accepts Go durations ("5s") or a bare number of milliseconds ("5000").
func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(raw); err == nil && ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		p.fail(key, fmt.Sprintf("%q is not a duration", raw))
		return fallback
	}
	return d
}

func (p *parser) bool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, fmt.Sprintf("%q is not a boolean", raw))
		return fallback
	}
	return b
}
