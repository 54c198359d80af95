// Package auth issues and verifies session tokens and hashes passwords.
package auth

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/matheus3301/chatline/internal/apperr"
)

// CookieName is the cookie carrying the session token.
const CookieName = "jwt"

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewTokens builds a signer. An empty secret gets a random per-process key,
// which invalidates every session on restart.
func NewTokens(secret string, ttl time.Duration, secureCookies bool) (*Tokens, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
	}
	return &Tokens{secret: key, ttl: ttl, secure: secureCookies, now: time.Now}, nil
}

// TTL is the token lifetime.
func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue returns a signed token identifying userID.
func (t *Tokens) Issue(userID string) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the user id carried by a valid token.
func (t *Tokens) Verify(raw string) (string, error) {
	if raw == "" {
		return "", apperr.Auth("Unauthorized - No Token Provided")
	}
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", apperr.Auth("Unauthorized - Invalid Token")
	}
	return claims.Subject, nil
}

// SetCookie attaches a fresh token for userID to the response.
func (t *Tokens) SetCookie(w http.ResponseWriter, userID string) error {
	token, err := t.Issue(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(t.ttl / time.Second),
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

// ClearCookie expires the session cookie.
func (t *Tokens) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// FromRequest verifies the session cookie on r.
func (t *Tokens) FromRequest(r *http.Request) (string, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", apperr.Auth("Unauthorized - No Token Provided")
	}
	return t.Verify(c.Value)
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
