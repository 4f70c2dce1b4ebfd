package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"event-ticketing/internal/config"
	"event-ticketing/internal/security"
	"event-ticketing/internal/testutil/memory"
	"event-ticketing/internal/usecase/auth"
	"event-ticketing/internal/usecase/event"
	"event-ticketing/internal/usecase/ticket"
	"event-ticketing/internal/usecase/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type app struct {
	router *gin.Engine
	outbox *memory.CodeOutbox
	status *memory.StatusLog
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := security.Clock(security.SystemClock)
	users := memory.NewUserStore()
	sessions := memory.NewSessionStore()
	tickets := memory.NewTicketStore()
	images := memory.NewImageStore()
	a := &app{outbox: memory.NewCodeOutbox(), status: &memory.StatusLog{}}

	tokens := security.NewTokenService(security.TokenConfig{
		AuthSecret:  "auth-secret",
		ResetSecret: "reset-secret",
		Issuer:      "test",
		AccessTTL:   time.Hour,
		RefreshTTL:  24 * time.Hour,
		ResetTTL:    10 * time.Minute,
	}, clock)
	otp, err := security.NewOTPService(security.OTPConfig{Secret: "otp-secret", Step: time.Minute, Skew: 1, Digits: 6}, clock)
	require.NoError(t, err)

	attachments := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(attachments, "hello.txt"), []byte("hi"), 0o644))

	cfg := &config.Config{
		Server:  config.ServerConfig{Environment: "test"},
		Storage: config.StorageConfig{MaxUploadSize: 1 << 20},
	}

	a.router = SetupRoutes(cfg, Dependencies{
		Tokens: tokens,
		Users:  users,
		Auth: auth.NewService(auth.Dependencies{
			Users:        users,
			Sessions:     auth.NewSessionManager(sessions, clock),
			Tokens:       tokens,
			OTP:          otp,
			Limiter:      memory.NewLimiter(5),
			Sender:       a.outbox,
			PasswordCost: bcrypt.MinCost,
			Clock:        clock,
		}),
		Profiles:      user.NewService(users, sessions, tickets, images, clock),
		Events:        event.NewService(memory.NewEventStore(), images, a.status, clock),
		Tickets:       ticket.NewService(tickets, clock),
		AttachmentDir: attachments,
	})
	return a
}

func (a *app) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func (a *app) signupAndLogin(t *testing.T, email, role string) string {
	t.Helper()

	status, body := a.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email":     email,
		"firstName": "Ada",
		"lastName":  "Obi",
		"password":  "Passw0rd!",
		"role":      role,
	})
	require.Equal(t, http.StatusCreated, status, "%v", body)

	status, body = a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": email, "password": "Passw0rd!"})
	require.Equal(t, http.StatusOK, status, "%v", body)
	token, _ := body["accessToken"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()
	a := newApp(t)

	status, body := a.do(t, http.MethodGet, "/api/auth", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Auth service is running", body["message"])

	status, _ = a.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	token := a.signupAndLogin(t, "ada@example.com", "")

	status, body = a.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	me, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ada@example.com", me["email"])
	assert.Equal(t, "ATTENDEE", me["role"])
	assert.NotContains(t, me, "passwordHash")

	status, _ = a.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"email": "ada@example.com", "firstName": "Ada", "lastName": "Obi", "password": "Passw0rd!",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = a.do(t, http.MethodPost, "/api/auth/signup", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["errors"])

	status, _ = a.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRefreshTokenRotation(t *testing.T) {
	t.Parallel()
	a := newApp(t)

	a.signupAndLogin(t, "ada@example.com", "")
	_, body := a.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com", "password": "Passw0rd!"})
	refresh, _ := body["refreshToken"].(string)
	require.NotEmpty(t, refresh)

	status, body := a.do(t, http.MethodPost, "/api/auth/refresh-token", "", gin.H{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, status, "%v", body)
	assert.NotEmpty(t, body["accessToken"])

	status, _ = a.do(t, http.MethodPost, "/api/auth/refresh-token", "", gin.H{"refreshToken": refresh})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestEventRoutes(t *testing.T) {
	t.Parallel()
	a := newApp(t)

	host := a.signupAndLogin(t, "host@example.com", "HOST")
	attendee := a.signupAndLogin(t, "fan@example.com", "")

	start := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)
	create := gin.H{
		"title":         "Lagos Jazz Night",
		"description":   "An evening of live jazz by the lagoon.",
		"category":      "MUSIC",
		"coverImages":   []string{"https://cdn.example.com/jazz.png"},
		"startDateTime": start,
		"endDateTime":   start.Add(4 * time.Hour),
		"venueName":     "Terra Kulture",
		"venueAddress":  "Victoria Island, Lagos",
		"status":        "PUBLISHED",
		"ticketTiers":   []gin.H{{"name": "Regular", "priceCents": 500000, "quantity": 100}},
	}

	status, _ := a.do(t, http.MethodPost, "/api/events", "", create)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(t, http.MethodPost, "/api/events", attendee, create)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := a.do(t, http.MethodPost, "/api/events", host, create)
	require.Equal(t, http.StatusCreated, status, "%v", body)
	created, ok := body["data"].(map[string]any)
	require.True(t, ok)
	slug, _ := created["slug"].(string)
	require.NotEmpty(t, slug)
	assert.Len(t, a.status.Changes(), 1)

	status, body = a.do(t, http.MethodGet, "/api/events", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = a.do(t, http.MethodGet, "/api/events?status=DRAFT", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = a.do(t, http.MethodGet, "/api/events/"+slug, "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, http.MethodGet, "/api/events/my/events", host, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, http.MethodGet, "/api/events/my/events", attendee, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = a.do(t, http.MethodGet, "/api/events/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUserAndTicketRoutes(t *testing.T) {
	t.Parallel()
	a := newApp(t)

	token := a.signupAndLogin(t, "ada@example.com", "")

	status, body := a.do(t, http.MethodGet, "/api/users/profile", token, nil)
	require.Equal(t, http.StatusOK, status, "%v", body)

	status, _ = a.do(t, http.MethodGet, "/api/users/sessions", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, http.MethodGet, "/api/tickets/my-tickets", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, http.MethodGet, "/api/tickets/stats", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = a.do(t, http.MethodGet, "/api/tickets/my-tickets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestInfrastructureRoutes(t *testing.T) {
	t.Parallel()
	a := newApp(t)

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attachment/hello.txt", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hi", w.Body.String())
}
