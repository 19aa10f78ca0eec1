package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file::memory:")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 10, cfg.DB.MaxOpenConns)
	assert.Equal(t, 15*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "10:00", cfg.Booking.OpenTime)
	assert.Equal(t, "21:30", cfg.Booking.CloseTime)
	assert.Equal(t, 30, cfg.Booking.MaxDaysAhead)
	assert.Equal(t, 100, cfg.Pagination.MaxLimit)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("BOOKING_STRICT_LOCKING", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.True(t, cfg.Booking.StrictLocking)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DB:         DBConfig{Driver: "mysql"},
			JWT:        JWTConfig{Secret: "s"},
			Upload:     UploadConfig{Backend: "local"},
			Booking:    BookingConfig{OpenTime: "10:00", CloseTime: "21:30", MaxGuests: 20, TotalTables: 10},
			Pagination: PaginationConfig{DefaultLimit: 10, MaxLimit: 100},
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.JWT.Secret = ""
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg = valid()
	cfg.DB.Driver = "oracle"
	assert.ErrorContains(t, cfg.Validate(), "oracle")

	cfg = valid()
	cfg.Booking.OpenTime = "22:00"
	assert.ErrorContains(t, cfg.Validate(), "booking window")

	cfg = valid()
	cfg.Upload.Backend = "s3"
	assert.ErrorContains(t, cfg.Validate(), "S3_BUCKET")
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("21:30")
	require.NoError(t, err)
	assert.Equal(t, 21*60+30, m)

	_, err = ParseClock("9pm")
	assert.Error(t, err)
}
