package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestOAuth_AuthCodeURL(t *testing.T) {
	o := NewOAuth(OAuthConfig{ClientID: "cid", ClientSecret: "secret", RedirectURL: "http://localhost:5000/api/github/callback"})

	u, err := url.Parse(o.AuthCodeURL("state-123"))
	require.NoError(t, err)

	assert.Equal(t, "github.com", u.Host)
	q := u.Query()
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "repo read:user", q.Get("scope"))
	assert.Equal(t, "http://localhost:5000/api/github/callback", q.Get("redirect_uri"))
}

func TestOAuth_Configured(t *testing.T) {
	assert.True(t, NewOAuth(OAuthConfig{ClientID: "a", ClientSecret: "b"}).Configured())
	assert.False(t, NewOAuth(OAuthConfig{ClientID: "a"}).Configured())
	var nilOAuth *OAuth
	assert.False(t, nilOAuth.Configured())
}

func TestOAuth_Exchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gho_abc","token_type":"bearer","scope":"repo,read:user"}`))
	}))
	defer srv.Close()

	o := NewOAuth(OAuthConfig{ClientID: "cid", ClientSecret: "secret", TokenURL: srv.URL + "/token"})

	tok, err := o.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "gho_abc", tok)
}

func TestOAuth_ExchangeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad_verification_code"}`))
	}))
	defer srv.Close()

	o := NewOAuth(OAuthConfig{ClientID: "cid", ClientSecret: "secret"})
	o.config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token"}

	_, err := o.Exchange(context.Background(), "bad")
	assert.ErrorContains(t, err, "failed to exchange code")
}
