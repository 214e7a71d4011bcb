package utilities

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexiq-backend/internal/model"
)

func testUser() *model.User {
	name := "alice"
	return &model.User{ID: uuid.New(), Username: &name}
}

func TestGenerateAndValidateTokens(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Minute, time.Hour)
	user := testUser()

	access, refresh, err := m.GenerateTokens(user)
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	claims, err := m.ValidateToken(access, false)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "alice", claims.Username)

	_, err = m.ValidateToken(access, true)
	assert.ErrorIs(t, err, ErrInvalidToken, "access token must not pass as refresh token")

	_, err = m.ValidateToken("not-a-token", false)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	m := NewJWTManager("access", "refresh", -time.Minute, time.Hour)
	access, _, err := m.GenerateTokens(testUser())
	require.NoError(t, err)

	_, err = m.ValidateToken(access, false)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRefreshTokens(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Minute, time.Hour)
	user := testUser()
	_, refresh, err := m.GenerateTokens(user)
	require.NoError(t, err)

	access, newRefresh, claims, err := m.RefreshTokens(refresh)
	require.NoError(t, err)
	assert.NotEqual(t, refresh, newRefresh)
	assert.Equal(t, user.ID.String(), claims.UserID)

	got, err := m.ValidateToken(access, false)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), got.UserID)
	assert.NotEqual(t, claims.ID, got.ID, "refreshing starts a new pair")
}

func TestTokenPairSharesID(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Minute, time.Hour)
	access, refresh, err := m.GenerateTokens(testUser())
	require.NoError(t, err)

	a, err := m.ValidateToken(access, false)
	require.NoError(t, err)
	r, err := m.ValidateToken(refresh, true)
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, PairKey(a), PairKey(r))

	revoked, err := IsTokenRevoked(context.Background(), fakeBlacklist{PairKey(a): true}, refresh, r)
	require.NoError(t, err)
	assert.True(t, revoked)
}

type fakeBlacklist map[string]bool

func (f fakeBlacklist) IsRevoked(_ context.Context, token string) (bool, error) {
	return f[token], nil
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewJWTManager("access", "refresh", time.Minute, time.Hour)
	user := testUser()
	access, _, err := m.GenerateTokens(user)
	require.NoError(t, err)
	revokedToken, _, err := m.GenerateTokens(user)
	require.NoError(t, err)
	loggedOut, _, err := m.GenerateTokens(user)
	require.NoError(t, err)
	loggedOutClaims, err := m.ValidateToken(loggedOut, false)
	require.NoError(t, err)

	r := gin.New()
	r.Use(AuthMiddleware(m, fakeBlacklist{revokedToken: true, PairKey(loggedOutClaims): true}))
	r.GET("/me", func(c *gin.Context) {
		id, ok := UserID(c)
		require.True(t, ok)
		c.String(http.StatusOK, id.String())
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + access, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"revoked", "Bearer " + revokedToken, http.StatusUnauthorized},
		{"revoked pair", "Bearer " + loggedOut, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, user.ID.String(), w.Body.String())
			}
		})
	}
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	var calls int32
	bus.Subscribe(EventLevelChanged, func(data interface{}) {
		if e, ok := data.(LevelChangedEvent); ok && e.To == "B1" {
			atomic.AddInt32(&calls, 1)
		}
	})
	bus.Subscribe(EventLevelChanged, func(interface{}) { atomic.AddInt32(&calls, 1) })

	bus.Publish(EventLevelChanged, LevelChangedEvent{To: "B1"})
	bus.Publish(EventSessionCreated, SessionCreatedEvent{})
	bus.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
