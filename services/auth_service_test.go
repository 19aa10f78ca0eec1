package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
)

func newAuthService(t *testing.T) (*AuthService, *utils.TokenManager) {
	tm := utils.NewTokenManager("test-secret", "test", time.Hour, 24*time.Hour)
	return NewAuthService(newTestDB(t), tm), tm
}

func TestAuthRegisterAndLogin(t *testing.T) {
	svc, tm := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, models.RegisterRequest{Name: "Mai Anh", Email: " Mai@Example.com ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "mai@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "password123", user.Password)

	_, err = svc.Register(ctx, models.RegisterRequest{Name: "Mai Anh", Email: "mai@example.com", Password: "password123"})
	assert.Equal(t, http.StatusConflict, utils.ToAppError(err).Status)

	_, _, err = svc.Login(ctx, models.LoginRequest{Email: "mai@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, utils.ToAppError(err).Status)

	pair, logged, err := svc.Login(ctx, models.LoginRequest{Email: "MAI@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	claims, err := tm.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestAuthRegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), models.RegisterRequest{Name: "X", Email: "bad", Password: "short"})
	app := utils.ToAppError(err)
	assert.Equal(t, http.StatusBadRequest, app.Status)
	assert.Equal(t, []string{
		"name must be between 2 and 100 characters",
		"email must be a valid email address",
		"password must be at least 8 characters",
	}, app.Errors)
}

func TestAuthRefreshIsSingleUse(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, models.RegisterRequest{Name: "Minh", Email: "minh@example.com", Password: "password123"})
	require.NoError(t, err)
	pair, _, err := svc.Login(ctx, models.LoginRequest{Email: "minh@example.com", Password: "password123"})
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, utils.ToAppError(err).Status)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, utils.ToAppError(err).Status)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "Admin", "admin@example.com", "supersecret"))
	require.NoError(t, svc.EnsureAdmin(ctx, "Admin", "admin@example.com", "other"))
	require.NoError(t, svc.EnsureAdmin(ctx, "Admin", "", ""))

	var users []models.User
	require.NoError(t, svc.db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleAdmin, users[0].Role)

	_, _, err := svc.Login(ctx, models.LoginRequest{Email: "admin@example.com", Password: "supersecret"})
	assert.NoError(t, err)
}
