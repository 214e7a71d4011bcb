package utilities

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextUserID = "user_id"
	ContextToken  = "token"
)

// TokenBlacklist answers whether a token or token pair was revoked.
type TokenBlacklist interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// AuthMiddleware ensures each request carries a valid, unrevoked bearer token
func AuthMiddleware(jwtManager *JWTManager, blacklist TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header", "code": "unauthorized"})
			return
		}

		claims, err := jwtManager.ValidateToken(tokenStr, false)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token", "code": "unauthorized"})
			return
		}

		if blacklist != nil {
			revoked, err := IsTokenRevoked(c.Request.Context(), blacklist, tokenStr, claims)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not verify token", "code": "internal"})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has been revoked", "code": "unauthorized"})
				return
			}
		}

		c.Set(ContextUserID, uuid.MustParse(claims.UserID))
		c.Set(ContextToken, tokenStr)
		c.Next()
	}
}

// IsTokenRevoked reports whether token itself or its token pair was revoked.
func IsTokenRevoked(ctx context.Context, blacklist TokenBlacklist, token string, claims *Claims) (bool, error) {
	revoked, err := blacklist.IsRevoked(ctx, token)
	if err != nil || revoked {
		return revoked, err
	}
	return blacklist.IsRevoked(ctx, PairKey(claims))
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// UserID returns the authenticated user set by AuthMiddleware.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
