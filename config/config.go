package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server needs. It is built once in main and
// handed to the components that need it.
type Config struct {
	Env  string
	Port string

	DB         DBConfig
	JWT        JWTConfig
	AI         AIConfig
	Upload     UploadConfig
	Booking    BookingConfig
	Pagination PaginationConfig

	LogLevel    string
	LogFormat   string
	CORSOrigins []string
	Timezone    *time.Location

	AdminName     string
	AdminEmail    string
	AdminPassword string
}

type DBConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type AIConfig struct {
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	GroqAPIKey    string
	GroqModel     string
	GroqBaseURL   string
	Timeout       time.Duration
}

type UploadConfig struct {
	Backend string // local or s3
	Dir     string
	BaseURL string
	MaxSize int64

	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
}

// BookingConfig describes the opening window and the availability heuristic.
type BookingConfig struct {
	OpenTime      string
	CloseTime     string
	MaxDaysAhead  int
	MaxGuests     int
	TotalTables   int
	SlotMinutes   int
	StrictLocking bool
}

type PaginationConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads .env (outside production) and the process environment.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),
		DB: DBConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", "mysql")),
			DSN:             getEnv("DB_DSN", "root:@tcp(127.0.0.1:3306)/restaurant?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			Issuer:     getEnv("JWT_ISSUER", "restaurant-booking"),
			AccessTTL:  getEnvDuration("JWT_ACCESS_TTL", time.Hour),
			RefreshTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		},
		AI: AIConfig{
			GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			GroqAPIKey:    os.Getenv("GROQ_API_KEY"),
			GroqModel:     getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
			GroqBaseURL:   getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Timeout:       getEnvDuration("AI_TIMEOUT", 15*time.Second),
		},
		Upload: UploadConfig{
			Backend:         strings.ToLower(getEnv("UPLOAD_BACKEND", "local")),
			Dir:             getEnv("UPLOAD_DIR", "public/uploads/menu_images"),
			BaseURL:         getEnv("UPLOAD_BASE_URL", "http://localhost:8080/uploads/menu_images"),
			MaxSize:         int64(getEnvInt("UPLOAD_MAX_SIZE", 5<<20)),
			S3Endpoint:      os.Getenv("S3_ENDPOINT"),
			S3Region:        getEnv("S3_REGION", "auto"),
			S3Bucket:        os.Getenv("S3_BUCKET"),
			S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
			S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
			S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		},
		Booking: BookingConfig{
			OpenTime:      getEnv("BOOKING_OPEN_TIME", "10:00"),
			CloseTime:     getEnv("BOOKING_CLOSE_TIME", "21:30"),
			MaxDaysAhead:  getEnvInt("BOOKING_MAX_DAYS_AHEAD", 30),
			MaxGuests:     getEnvInt("BOOKING_MAX_GUESTS", 20),
			TotalTables:   getEnvInt("BOOKING_TOTAL_TABLES", 20),
			SlotMinutes:   getEnvInt("BOOKING_SLOT_MINUTES", 90),
			StrictLocking: getEnvBool("BOOKING_STRICT_LOCKING", false),
		},
		Pagination: PaginationConfig{
			DefaultLimit: getEnvInt("PAGINATION_DEFAULT_LIMIT", 10),
			MaxLimit:     getEnvInt("PAGINATION_MAX_LIMIT", 100),
		},
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:5500")),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Asia/Ho_Chi_Minh"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Timezone = loc

	if cfg.JWT.Secret == "" && !cfg.IsProduction() {
		cfg.JWT.Secret = "dev-secret-change-me"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver))
	}
	switch c.Upload.Backend {
	case "local":
	case "s3":
		if c.Upload.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when UPLOAD_BACKEND=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported UPLOAD_BACKEND %q", c.Upload.Backend))
	}

	open, errOpen := ParseClock(c.Booking.OpenTime)
	closing, errClose := ParseClock(c.Booking.CloseTime)
	if errOpen != nil || errClose != nil || open >= closing {
		errs = append(errs, fmt.Errorf("invalid booking window %s-%s", c.Booking.OpenTime, c.Booking.CloseTime))
	}
	if c.Booking.MaxDaysAhead < 0 || c.Booking.MaxGuests < 1 || c.Booking.TotalTables < 1 {
		errs = append(errs, errors.New("booking limits must be positive"))
	}
	if c.Pagination.DefaultLimit < 1 || c.Pagination.MaxLimit < c.Pagination.DefaultLimit {
		errs = append(errs, errors.New("invalid pagination limits"))
	}

	return errors.Join(errs...)
}

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
