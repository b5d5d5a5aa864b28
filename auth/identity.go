// Package auth resolves bearer credentials to identities, manages guest
// sessions and moves a guest's itineraries to their account on sign-in.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wayfarer/models"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is a verified caller.
type Identity struct {
	Subject string
	Claims  Claims
}

// Profile converts the identity into a user profile.
func (id Identity) Profile() models.User {
	return models.User{
		UserID:        id.Subject,
		DisplayName:   id.Claims.Name,
		Email:         id.Claims.Email,
		Picture:       id.Claims.Picture,
		EmailVerified: id.Claims.EmailVerified,
		Provider:      id.Claims.Provider,
	}
}

// Resolver verifies a bearer credential. It returns ErrUnauthenticated for
// any token it does not accept.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// JWT claims
type Claims struct {
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	Picture       string `json:"picture,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Provider      string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver accepts HS256 tokens signed with a shared secret.
type JWTResolver struct {
	secret []byte
	issuer string
}

func NewJWTResolver(secret, issuer string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret), issuer: issuer}
}

func (j *JWTResolver) Resolve(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return &Identity{Subject: claims.Subject, Claims: *claims}, nil
}

// Issue signs a token for uid. Used by the seed command and tests.
func (j *JWTResolver) Issue(uid string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.Subject = uid
	claims.Issuer = j.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}
