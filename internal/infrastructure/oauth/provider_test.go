package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"event-ticketing/internal/config"
	domainUser "event-ticketing/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProviderServer(t *testing.T, profileJSON string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"provider-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer provider-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(profileJSON))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

var testCredentials = config.OAuthProviderConfig{
	ClientID:     "client",
	ClientSecret: "secret",
	CallbackURL:  "http://localhost:8080/api/auth/google/callback",
}

func TestGoogle_Exchange(t *testing.T) {
	srv := newProviderServer(t, `{"sub":"g-42","email":"ada@example.com","email_verified":true,"given_name":"Ada","family_name":"Obi","picture":"https://img/ada.png"}`)
	provider := NewGoogle(testCredentials).WithEndpoints(srv.URL+"/auth", srv.URL+"/token", srv.URL+"/me")

	profile, err := provider.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "g-42", profile.ID)
	require.NotNil(t, profile.Email)
	assert.Equal(t, "ada@example.com", *profile.Email)
	assert.Equal(t, "Ada", profile.FirstName)
	require.NotNil(t, profile.AvatarURL)

	_, err = provider.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)

	_, err = provider.Exchange(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingCode)
}

func TestGoogle_UnverifiedEmailDropped(t *testing.T) {
	srv := newProviderServer(t, `{"sub":"g-43","email":"ada@example.com","email_verified":false}`)
	provider := NewGoogle(testCredentials).WithEndpoints(srv.URL+"/auth", srv.URL+"/token", srv.URL+"/me")

	profile, err := provider.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Nil(t, profile.Email)
}

func TestFacebook_Exchange(t *testing.T) {
	srv := newProviderServer(t, `{"id":"fb-7","first_name":"Bola","last_name":"Ade","picture":{"data":{"url":"https://img/b.png"}}}`)
	provider := NewFacebook(testCredentials).WithEndpoints(srv.URL+"/auth", srv.URL+"/token", srv.URL+"/me")

	assert.Equal(t, domainUser.ProviderFacebook, provider.Name())

	profile, err := provider.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "fb-7", profile.ID)
	assert.Nil(t, profile.Email)
	require.NotNil(t, profile.AvatarURL)
	assert.Equal(t, "https://img/b.png", *profile.AvatarURL)
}

func TestAuthCodeURL(t *testing.T) {
	provider := NewGoogle(testCredentials)

	raw := provider.AuthCodeURL("state-1", "select_account")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "state-1", u.Query().Get("state"))
	assert.Equal(t, "select_account", u.Query().Get("prompt"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Equal(t, testCredentials.CallbackURL, u.Query().Get("redirect_uri"))

	u, err = url.Parse(provider.AuthCodeURL("s", ""))
	require.NoError(t, err)
	assert.Empty(t, u.Query().Get("prompt"))
}
