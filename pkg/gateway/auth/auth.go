// Package auth implements the optional shared-password gate and the access
// tokens it mints.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Gate guards the API with a single shared password. A successful login
// mints a signed bearer token. With no password configured the gate is
// disabled and every request passes.
type Gate struct {
	password []byte
	secret   []byte
	ttl      time.Duration
}

// NewGate creates a gate. password empty disables gating. secret empty
// generates a random per-process signing key, which invalidates issued
// tokens on restart.
func NewGate(password, secret string, ttl time.Duration) (*Gate, error) {
	g := &Gate{ttl: ttl}
	if password != "" {
		g.password = []byte(password)
	}
	if secret != "" {
		g.secret = []byte(secret)
	} else {
		g.secret = make([]byte, 32)
		if _, err := rand.Read(g.secret); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
	}
	if g.ttl <= 0 {
		g.ttl = 12 * time.Hour
	}
	return g, nil
}

// Enabled reports whether a password is configured.
func (g *Gate) Enabled() bool {
	return len(g.password) > 0
}

// Authenticate checks a submitted password and mints a token on success.
// Failed attempts return false; there is no lockout, retries are always
// allowed.
func (g *Gate) Authenticate(submitted string) (string, bool) {
	if !g.Enabled() {
		return "", false
	}
	if subtle.ConstantTimeCompare([]byte(submitted), g.password) != 1 {
		return "", false
	}
	token, err := g.mint()
	if err != nil {
		return "", false
	}
	return token, true
}

type claims struct {
	jwt.RegisteredClaims
}

func (g *Gate) mint() (string, error) {
	now := time.Now()
	c := claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "carelingo",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(g.secret)
}

// Verify checks a bearer token issued by Authenticate.
func (g *Gate) Verify(token string) bool {
	t, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	return err == nil && t.Valid
}

// ParseBearer extracts a bearer token from the Authorization header.
func ParseBearer(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authz, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

type ctxKey struct{}

// WithAuthenticated marks the request context as having passed the gate.
func WithAuthenticated(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, true)
}

// Authenticated reports whether the request passed the gate (always true
// when the gate is disabled).
func Authenticated(ctx context.Context) bool {
	ok, _ := ctx.Value(ctxKey{}).(bool)
	return ok
}
