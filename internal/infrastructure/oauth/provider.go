// Package oauth wraps the Google and Facebook authorization code flows.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"event-ticketing/internal/config"
	domainUser "event-ticketing/internal/domain/user"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	googleUserInfoURL   = "https://openidconnect.googleapis.com/v1/userinfo"
	facebookUserInfoURL = "https://graph.facebook.com/me?fields=id,first_name,last_name,email,picture"
)

var ErrMissingCode = errors.New("authorization code is required")

// Profile is the identity a provider reports for the signed-in account.
type Profile struct {
	ID        string
	Email     *string
	FirstName string
	LastName  string
	AvatarURL *string
}

type Provider struct {
	name        domainUser.Provider
	config      *oauth2.Config
	userInfoURL string
	decode      func([]byte) (Profile, error)
}

func NewGoogle(cfg config.OAuthProviderConfig) *Provider {
	return &Provider{
		name: domainUser.ProviderGoogle,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "profile", "email"},
		},
		userInfoURL: googleUserInfoURL,
		decode:      decodeGoogle,
	}
}

func NewFacebook(cfg config.OAuthProviderConfig) *Provider {
	return &Provider{
		name: domainUser.ProviderFacebook,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Endpoint:     endpoints.Facebook,
			Scopes:       []string{"email", "public_profile"},
		},
		userInfoURL: facebookUserInfoURL,
		decode:      decodeFacebook,
	}
}

// WithEndpoints points the provider at different token and profile URLs.
func (p *Provider) WithEndpoints(authURL, tokenURL, userInfoURL string) *Provider {
	clone := *p
	cfg := *p.config
	cfg.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL, AuthStyle: oauth2.AuthStyleInParams}
	clone.config = &cfg
	clone.userInfoURL = userInfoURL
	return &clone
}

func (p *Provider) Name() domainUser.Provider {
	return p.name
}

// AuthCodeURL builds the consent URL. prompt is passed through when set.
func (p *Provider) AuthCodeURL(state, prompt string) string {
	var opts []oauth2.AuthCodeOption
	if prompt != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", prompt))
	}
	return p.config.AuthCodeURL(state, opts...)
}

// Exchange trades the authorization code for a token and loads the profile.
func (p *Provider) Exchange(ctx context.Context, code string) (Profile, error) {
	if code == "" {
		return Profile{}, ErrMissingCode
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("%s token exchange: %w", p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return Profile{}, err
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("%s profile request: %w", p.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Profile{}, fmt.Errorf("%s profile read: %w", p.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("%s profile request: status %d", p.name, resp.StatusCode)
	}

	return p.decode(body)
}

func decodeGoogle(body []byte) (Profile, error) {
	var payload struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
		Picture       string `json:"picture"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Profile{}, fmt.Errorf("google profile decode: %w", err)
	}

	profile := Profile{
		ID:        payload.Sub,
		FirstName: payload.GivenName,
		LastName:  payload.FamilyName,
		AvatarURL: optional(payload.Picture),
	}
	// Unverified Google addresses are not trusted for account linking.
	if payload.EmailVerified {
		profile.Email = optional(payload.Email)
	}
	return profile, nil
}

func decodeFacebook(body []byte) (Profile, error) {
	var payload struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Picture   struct {
			Data struct {
				URL string `json:"url"`
			} `json:"data"`
		} `json:"picture"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Profile{}, fmt.Errorf("facebook profile decode: %w", err)
	}

	return Profile{
		ID:        payload.ID,
		Email:     optional(payload.Email),
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		AvatarURL: optional(payload.Picture.Data.URL),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
