// Package identity turns bearer tokens into a domain.Identity.
//
// Tokens are HS256 JWTs carrying userId and email claims. Admin rights are not
// read from the token; they come from the configured allow-list of emails.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"storefront/internal/domain"
)

type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type Resolver struct {
	secret []byte
	admins map[string]bool
	parser *jwt.Parser
}

func NewResolver(secret string, adminEmails []string) *Resolver {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = true
		}
	}
	return &Resolver{
		secret: []byte(secret),
		admins: admins,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}
}

// Resolve validates token and returns the caller. Any failure is ErrUnauthorized.
func (r *Resolver) Resolve(_ context.Context, token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}

	var claims Claims
	if _, err := r.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return domain.Identity{}, fmt.Errorf("%w: token has no user", domain.ErrUnauthorized)
	}
	return domain.Identity{
		UserID: userID,
		Email:  claims.Email,
		Admin:  r.IsAdmin(claims.Email),
	}, nil
}

func (r *Resolver) IsAdmin(email string) bool {
	email = normalizeEmail(email)
	return email != "" && r.admins[email]
}

// Issue signs a token for userID. Used by development tooling and tests.
func (r *Resolver) Issue(userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
