package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/security"
	"event-ticketing/internal/testutil/memory"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTokens() *security.TokenService {
	return security.NewTokenService(security.TokenConfig{
		AuthSecret:  "auth-secret",
		ResetSecret: "reset-secret",
		Issuer:      "test",
		AccessTTL:   time.Hour,
		RefreshTTL:  24 * time.Hour,
		ResetTTL:    10 * time.Minute,
	}, security.Clock(security.SystemClock))
}

func addUser(users *memory.UserStore, role domainUser.Role, status domainUser.Status) *domainUser.User {
	email := uuid.NewString() + "@example.com"
	u := &domainUser.User{ID: uuid.New(), Email: &email, Role: role, Status: status}
	users.Put(u)
	return u
}

func principalEcho(c *gin.Context) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"anonymous": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": p.UserID.String(), "role": p.Role})
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens()
	users := memory.NewUserStore()
	active := addUser(users, domainUser.RoleHost, domainUser.StatusActive)
	blocked := addUser(users, domainUser.RoleAttendee, domainUser.StatusBlocked)

	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens, users), principalEcho)

	access, _, err := tokens.IssueAccessToken(active.ID)
	require.NoError(t, err)
	w := do(r, http.MethodGet, "/me", access)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, active.ID.String(), body["userId"])
	assert.Equal(t, "HOST", body["role"])

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "not-a-jwt").Code)

	refresh, _, err := tokens.IssueRefreshToken(active.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", refresh).Code)

	ghost, _, err := tokens.IssueAccessToken(uuid.New())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", ghost).Code)

	blockedToken, _, err := tokens.IssueAccessToken(blocked.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/me", blockedToken).Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token "+access)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	tokens := newTokens()
	users := memory.NewUserStore()
	u := addUser(users, domainUser.RoleAttendee, domainUser.StatusActive)

	r := gin.New()
	r.GET("/events", OptionalAuthMiddleware(tokens, users), principalEcho)

	w := do(r, http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")

	w = do(r, http.MethodGet, "/events", "garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")

	access, _, err := tokens.IssueAccessToken(u.ID)
	require.NoError(t, err)
	w = do(r, http.MethodGet, "/events", access)
	assert.Contains(t, w.Body.String(), u.ID.String())
}

func TestHostOnly(t *testing.T) {
	tokens := newTokens()
	users := memory.NewUserStore()
	host := addUser(users, domainUser.RoleHost, domainUser.StatusActive)
	attendee := addUser(users, domainUser.RoleAttendee, domainUser.StatusActive)

	r := gin.New()
	r.POST("/events", AuthMiddleware(tokens, users), HostOnly(), principalEcho)

	hostToken, _, _ := tokens.IssueAccessToken(host.ID)
	attendeeToken, _, _ := tokens.IssueAccessToken(attendee.ID)

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/events", hostToken).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/events", attendeeToken).Code)

	bare := gin.New()
	bare.POST("/events", HostOnly(), principalEcho)
	assert.Equal(t, http.StatusUnauthorized, do(bare, http.MethodPost, "/events", "").Code)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"))

	now = now.Add(limiterIdleTTL + time.Second)
	assert.Equal(t, 2, rl.Sweep(limiterIdleTTL))
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.5, 1)

	r := gin.New()
	r.GET("/ping", RateLimitMiddleware(rl, "general"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/auth", RateLimitMiddleware(rl, "auth"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/ping", "").Code)
	w := do(r, http.MethodGet, "/ping", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/auth", "").Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-id-1234")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "client-id-1234", w.Body.String())
	assert.Equal(t, "client-id-1234", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id\n")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
}

func TestRecoveryAndHeaders(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware(), RecoveryMiddleware(), SecurityHeadersMiddleware(true), LoggingMiddleware("/health"))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := do(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/upload", RequestSizeLimitMiddleware(4), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodPost, "/upload", http.NoBody)
	req.ContentLength = 10
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
