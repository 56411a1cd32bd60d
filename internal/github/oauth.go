package github

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// Scopes requested during sign-in: repository write access for pull
// requests and profile read access.
var Scopes = []string{"repo", "read:user"}

// OAuthConfig holds the GitHub OAuth app credentials. AuthURL and
// TokenURL override the github.com endpoints for GitHub Enterprise.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
}

// OAuth drives the GitHub web application flow.
type OAuth struct {
	config *oauth2.Config
}

// NewOAuth returns an OAuth for the given app credentials.
func NewOAuth(cfg OAuthConfig) *OAuth {
	endpoint := githuboauth.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	return &OAuth{config: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       Scopes,
		Endpoint:     endpoint,
	}}
}

// Configured reports whether client credentials are present.
func (o *OAuth) Configured() bool {
	return o != nil && o.config.ClientID != "" && o.config.ClientSecret != ""
}

// AuthCodeURL returns the GitHub authorize URL carrying state.
func (o *OAuth) AuthCodeURL(state string) string {
	return o.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (o *OAuth) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := o.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code: %w", err)
	}
	return tok.AccessToken, nil
}
