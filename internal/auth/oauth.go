package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

var ErrUnknownProvider = errors.New("unknown oauth provider")

// Profile is the provider-agnostic identity returned from an OAuth exchange.
type Profile struct {
	Provider          string
	ProviderAccountID string
	Email             string
	Name              string
	Image             string
	AccessToken       string
	RefreshToken      string
}

// OAuth exchanges authorization codes against GitHub and Google and fetches
// the user profile. Session issuance stays with TokenManager.
type OAuth struct {
	configs map[string]*oauth2.Config
	client  *http.Client
}

type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
}

func NewOAuth(baseURL string, githubCreds, googleCreds ProviderCredentials) *OAuth {
	return &OAuth{
		configs: map[string]*oauth2.Config{
			"github": {
				ClientID:     githubCreds.ClientID,
				ClientSecret: githubCreds.ClientSecret,
				Endpoint:     github.Endpoint,
				RedirectURL:  baseURL + "/api/auth/callback/github",
				Scopes:       []string{"read:user", "user:email"},
			},
			"google": {
				ClientID:     googleCreds.ClientID,
				ClientSecret: googleCreds.ClientSecret,
				Endpoint:     google.Endpoint,
				RedirectURL:  baseURL + "/api/auth/callback/google",
				Scopes:       []string{"openid", "email", "profile"},
			},
		},
		client: http.DefaultClient,
	}
}

// AuthURL returns the provider consent URL for the given CSRF state.
func (o *OAuth) AuthURL(provider, state string) (string, error) {
	cfg, ok := o.configs[provider]
	if !ok {
		return "", ErrUnknownProvider
	}
	return cfg.AuthCodeURL(state), nil
}

// Exchange trades the authorization code for tokens and fetches the profile.
func (o *OAuth) Exchange(ctx context.Context, provider, code string) (*Profile, error) {
	cfg, ok := o.configs[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}
	p, err := o.fetchProfile(ctx, provider, cfg, token)
	if err != nil {
		return nil, err
	}
	p.Provider = provider
	p.AccessToken = token.AccessToken
	p.RefreshToken = token.RefreshToken
	return p, nil
}

func (o *OAuth) fetchProfile(ctx context.Context, provider string, cfg *oauth2.Config, token *oauth2.Token) (*Profile, error) {
	client := cfg.Client(ctx, token)
	switch provider {
	case "github":
		return fetchGitHubProfile(ctx, client)
	case "google":
		return fetchGoogleProfile(ctx, client)
	}
	return nil, ErrUnknownProvider
}

func fetchGitHubProfile(ctx context.Context, client *http.Client) (*Profile, error) {
	var u struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := getJSON(ctx, client, "https://api.github.com/user", &u); err != nil {
		return nil, err
	}
	if u.Email == "" {
		// primary email is a separate endpoint when the profile email is private
		var emails []struct {
			Email   string `json:"email"`
			Primary bool   `json:"primary"`
		}
		if err := getJSON(ctx, client, "https://api.github.com/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary {
					u.Email = e.Email
					break
				}
			}
		}
	}
	name := u.Name
	if name == "" {
		name = u.Login
	}
	return &Profile{
		ProviderAccountID: fmt.Sprintf("%d", u.ID),
		Email:             u.Email,
		Name:              name,
		Image:             u.AvatarURL,
	}, nil
}

func fetchGoogleProfile(ctx context.Context, client *http.Client) (*Profile, error) {
	var u struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := getJSON(ctx, client, "https://openidconnect.googleapis.com/v1/userinfo", &u); err != nil {
		return nil, err
	}
	return &Profile{
		ProviderAccountID: u.Sub,
		Email:             u.Email,
		Name:              u.Name,
		Image:             u.Picture,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("profile fetch: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
