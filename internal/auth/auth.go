// Package auth issues and verifies the session tokens handed to the
// frontend after GitHub sign-in.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the lifetime of an issued token when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

// ErrNoSecret is returned when tokens are issued without a signing key.
var ErrNoSecret = errors.New("auth: jwt secret not configured")

// Claims identifies the signed-in GitHub user.
type Claims struct {
	GitHubID int64  `json:"githubId"`
	Login    string `json:"login"`
	jwt.RegisteredClaims
}

// UserID is the owner key reviews are stored under.
func (c *Claims) UserID() string {
	return strconv.FormatInt(c.GitHubID, 10)
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. A ttl <= 0 uses DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for the given user.
func (i *Issuer) Issue(githubID int64, login string) (string, error) {
	if i == nil || len(i.secret) == 0 {
		return "", ErrNoSecret
	}
	now := i.now()
	claims := Claims{
		GitHubID: githubID,
		Login:    login,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(githubID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns its claims.
func (i *Issuer) Parse(token string) (*Claims, error) {
	if i == nil || len(i.secret) == 0 {
		return nil, ErrNoSecret
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// Middleware attaches the claims of a valid "Authorization: Bearer" token
// to the request context. Missing or invalid tokens leave the request
// anonymous; handlers decide whether that is acceptable.
func (i *Issuer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok, ok := bearerToken(r); ok {
			if claims, err := i.Parse(tok); err == nil {
				r = r.WithContext(WithUser(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, tok, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying claims.
func WithUser(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

// UserFrom returns the authenticated user, if any.
func UserFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok && c != nil
}

// NewState returns an unguessable OAuth state value.
func NewState() string {
	return uuid.NewString()
}
