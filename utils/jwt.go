package utils

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrWrongTokenType   = errors.New("wrong token type")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

type CustomClaims struct {
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TokenManager issues and verifies HS256 tokens and keeps a blacklist of
// revoked tokens until they expire.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time

	mu        sync.RWMutex
	blacklist map[string]time.Time
}

func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		blacklist:  make(map[string]time.Time),
	}
}

func (tm *TokenManager) GenerateTokenPair(userID uint, role string) (TokenPair, error) {
	now := tm.now()
	access, err := tm.sign(userID, role, TokenTypeAccess, now, tm.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := tm.sign(userID, role, TokenTypeRefresh, now, tm.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    now.Add(tm.accessTTL),
	}, nil
}

func (tm *TokenManager) sign(userID uint, role, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			Issuer:    tm.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

func (tm *TokenManager) ParseAccessToken(token string) (*CustomClaims, error) {
	return tm.parse(token, TokenTypeAccess)
}

func (tm *TokenManager) ParseRefreshToken(token string) (*CustomClaims, error) {
	return tm.parse(token, TokenTypeRefresh)
}

func (tm *TokenManager) parse(tokenString, wantType string) (*CustomClaims, error) {
	if tm.IsBlacklisted(tokenString) {
		return nil, ErrTokenBlacklisted
	}

	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithIssuer(tm.issuer), jwt.WithTimeFunc(tm.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Blacklist revokes a token until its own expiry.
func (tm *TokenManager) Blacklist(token string, until time.Time) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.blacklist[token] = until
	tm.pruneLocked()
}

func (tm *TokenManager) IsBlacklisted(token string) bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	expiry, ok := tm.blacklist[token]
	return ok && tm.now().Before(expiry)
}

func (tm *TokenManager) pruneLocked() {
	now := tm.now()
	for token, expiry := range tm.blacklist {
		if !now.Before(expiry) {
			delete(tm.blacklist, token)
		}
	}
}
