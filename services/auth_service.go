package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var errInvalidCredentials = utils.NewAuthError("Invalid email or password")

// AuthService registers users and issues token pairs.
type AuthService struct {
	db     *gorm.DB
	tokens *utils.TokenManager
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenManager) *AuthService {
	return &AuthService{db: db, tokens: tokens}
}

// Register creates a user with the default role.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if errs := ValidateRegistration(req); len(errs) > 0 {
		return nil, utils.NewValidationError(errs)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, utils.NewDatabaseError(err)
	}
	if count > 0 {
		return nil, utils.NewConflictError("", "Email is already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	user := models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleUser,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	utils.Log.WithFields(map[string]interface{}{"user_id": user.ID, "role": user.Role}).Info("User registered")
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*utils.TokenPair, *models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, nil, utils.NewValidationError([]string{"email and password are required"})
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errInvalidCredentials
		}
		return nil, nil, utils.NewDatabaseError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, nil, errInvalidCredentials
	}

	pair, err := s.tokens.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, nil, utils.NewInternalError(err)
	}
	utils.Log.WithFields(map[string]interface{}{"user_id": user.ID, "role": user.Role}).Info("Login successful")
	return &pair, &user, nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is
// revoked so it can only be used once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, utils.NewAuthError("Invalid or expired refresh token")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewAuthError("User no longer exists")
		}
		return nil, utils.NewDatabaseError(err)
	}

	if claims.ExpiresAt != nil {
		s.tokens.Blacklist(refreshToken, claims.ExpiresAt.Time)
	}
	pair, err := s.tokens.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, utils.NewInternalError(err)
	}
	return &pair, nil
}

// Logout revokes an access token until it would have expired anyway.
func (s *AuthService) Logout(accessToken string, expiresAt time.Time) {
	s.tokens.Blacklist(accessToken, expiresAt)
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("User not found")
		}
		return nil, utils.NewDatabaseError(err)
	}
	return &user, nil
}

// EnsureAdmin creates the admin account if no user has that email yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{Name: name, Email: email, Password: string(hashed), Role: models.RoleAdmin}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return err
	}
	utils.Log.WithField("email", email).Info("Admin account created")
	return nil
}
