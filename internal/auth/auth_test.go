package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	i := NewIssuer("s3cret", time.Hour)

	tok, err := i.Issue(1001, "octocat")
	require.NoError(t, err)

	claims, err := i.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), claims.GitHubID)
	assert.Equal(t, "octocat", claims.Login)
	assert.Equal(t, "1001", claims.UserID())
	assert.Equal(t, "1001", claims.Subject)
}

func TestParse_WrongSecret(t *testing.T) {
	tok, err := NewIssuer("one", time.Hour).Issue(1, "a")
	require.NoError(t, err)

	_, err = NewIssuer("two", time.Hour).Parse(tok)
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	i := NewIssuer("s3cret", time.Minute)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	i.now = func() time.Time { return start }

	tok, err := i.Issue(1, "a")
	require.NoError(t, err)

	i.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = i.Parse(tok)
	assert.Error(t, err)
}

func TestParse_Garbage(t *testing.T) {
	_, err := NewIssuer("s3cret", 0).Parse("not.a.token")
	assert.Error(t, err)
}

func TestNoSecret(t *testing.T) {
	i := NewIssuer("", 0)

	_, err := i.Issue(1, "a")
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = i.Parse("x")
	assert.ErrorIs(t, err, ErrNoSecret)

	var nilIssuer *Issuer
	_, err = nilIssuer.Issue(1, "a")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestNewIssuer_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewIssuer("x", 0).ttl)
	assert.Equal(t, time.Hour, NewIssuer("x", time.Hour).ttl)
}

func TestMiddleware(t *testing.T) {
	i := NewIssuer("s3cret", time.Hour)
	tok, err := i.Issue(42, "mona")
	require.NoError(t, err)

	var got *Claims
	var authed bool
	h := i.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, authed = UserFrom(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		authed bool
	}{
		{"valid bearer", "Bearer " + tok, true},
		{"lowercase scheme", "bearer " + tok, true},
		{"no header", "", false},
		{"wrong scheme", "Basic " + tok, false},
		{"invalid token", "Bearer nope", false},
		{"empty token", "Bearer ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, authed = nil, false
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.authed, authed)
			if tt.authed {
				assert.Equal(t, "42", got.UserID())
				assert.Equal(t, "mona", got.Login)
			}
		})
	}
}

func TestUserFrom_Empty(t *testing.T) {
	_, ok := UserFrom(context.Background())
	assert.False(t, ok)

	_, ok = UserFrom(WithUser(context.Background(), nil))
	assert.False(t, ok)
}

func TestNewState(t *testing.T) {
	a, b := NewState(), NewState()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
