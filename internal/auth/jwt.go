// Package auth integrates the external identity provider and turns its
// assertions into per-request principals.
//
// SESSION FLOW:
// 1. User visits /auth/github/login → redirected to GitHub
// 2. GitHub calls back /auth/github/callback with a code
// 3. Server exchanges the code for the GitHub profile
// 4. Server issues a JWT whose claims carry the external subject id AND the
//    profile claims (name, email, avatar), stored in an HttpOnly cookie
// 5. On later requests, middleware validates the cookie and reconstructs an
//    identity.Principal from the claims — no database read on this path
//
// WHY PUT PROFILE CLAIMS IN THE TOKEN?
// Local user records are provisioned lazily: the row might not exist yet
// when a request arrives. The identity reconciler needs the claims at the
// moment it decides to create the row, so the token has to carry them —
// the session IS the identity assertion, the database is just the cache of
// users we've already seen.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/pressroom/internal/identity"
)

// TokenService signs and validates session tokens.
//
// It holds the HMAC secret used for both operations — keep it safe, rotate
// it periodically in production.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims embeds jwt.RegisteredClaims (sub, exp, iat, iss) and adds the
// profile fields the provider asserted. "sub" holds the external subject id.
type claims struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	jwt.RegisteredClaims
}

// sessionDuration is how long a login lasts. Rich-text authoring sessions
// run long, so this is generous compared to an API token.
const sessionDuration = 24 * time.Hour

// Generate creates and signs a session token for the given principal.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, fast, and fine for a
// single-server deployment where one process both signs and verifies.
func (s *TokenService) Generate(p identity.Principal) (string, error) {
	now := time.Now()

	c := claims{
		Name:      p.Claims.Name,
		Email:     p.Claims.Email,
		AvatarURL: p.Claims.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionDuration)),
			Issuer:    "pressroom",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// GenerateWithDuration creates a token with a custom expiry. Used in tests
// to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(p identity.Principal, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Name:      p.Claims.Name,
		Email:     p.Claims.Email,
		AvatarURL: p.Claims.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.SubjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    "pressroom",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string and reconstructs the
// principal it was issued for.
//
// jwt.ParseWithClaims verifies the signature and the registered time claims
// (exp, iat) in one call. The key function pins the algorithm to HMAC —
// without that check, an attacker could present a token signed with "none"
// or an RSA public key and have it accepted.
func (s *TokenService) Validate(tokenString string) (identity.Principal, error) {
	var c claims

	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return identity.Principal{}, fmt.Errorf("auth: parsing token: %w", err)
	}
	if !token.Valid || c.Subject == "" {
		return identity.Principal{}, errors.New("auth: invalid token")
	}

	return identity.Principal{
		SubjectID: c.Subject,
		Claims: identity.Claims{
			Name:      c.Name,
			Email:     c.Email,
			AvatarURL: c.AvatarURL,
		},
	}, nil
}
