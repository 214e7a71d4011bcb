package utilities

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"lexiq-backend/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid or malformed token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims carried by both token kinds. Subject is the user id.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager signs and validates HS256 access and refresh tokens.
type JWTManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewJWTManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	if refreshSecret == "" {
		refreshSecret = accessSecret
	}
	return &JWTManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessTTL is the lifetime of newly issued access tokens.
func (m *JWTManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// GenerateTokens creates both access and refresh tokens. The two share
// one jti so the pair can be revoked together.
func (m *JWTManager) GenerateTokens(user *model.User) (string, string, error) {
	return m.pair(claimsFor(user))
}

func (m *JWTManager) pair(claims *Claims) (string, string, error) {
	id := uuid.NewString()
	accessToken, err := m.sign(claims, id, m.accessSecret, m.accessTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := m.sign(claims, id, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// ValidateToken verifies the token and extracts claims
func (m *JWTManager) ValidateToken(tokenStr string, isRefresh bool) (*Claims, error) {
	secret := m.accessSecret
	if isRefresh {
		secret = m.refreshSecret
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RefreshTokens issues a new pair from a valid refresh token. The returned
// claims are those of the presented refresh token.
func (m *JWTManager) RefreshTokens(refreshToken string) (string, string, *Claims, error) {
	claims, err := m.ValidateToken(refreshToken, true)
	if err != nil {
		return "", "", nil, err
	}
	accessToken, newRefresh, err := m.pair(claims)
	if err != nil {
		return "", "", nil, err
	}
	return accessToken, newRefresh, claims, nil
}

func claimsFor(user *model.User) *Claims {
	c := &Claims{UserID: user.ID.String()}
	if user.Username != nil {
		c.Username = *user.Username
	}
	if user.Email != nil {
		c.Email = *user.Email
	}
	return c
}

// PairKey is the revocation list entry covering every token of the pair
// claims belongs to.
func PairKey(claims *Claims) string {
	return "jti:" + claims.ID
}

func (m *JWTManager) sign(base *Claims, id string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   base.UserID,
		Username: base.Username,
		Email:    base.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   base.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
