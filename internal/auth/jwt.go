// Package auth provides JWT token generation/validation and password
// hashing for the API.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. User POSTs email+password to /api/auth/login
// 2. Server verifies the bcrypt hash and issues TWO tokens:
//    a short-lived access token and a long-lived refresh token
// 3. The client sends the access token on every API call:
//    Authorization: Bearer <token>
// 4. When the access token expires, the client POSTs the refresh token to
//    /api/auth/refresh and gets a fresh access token — no password needed
//
// WHY TWO TOKENS?
// A single long-lived token is a big target: steal it once, use it for a
// month. Splitting lifetime in two means the credential that travels with
// every request expires in an hour, while the month-long credential is
// only ever sent to one endpoint.
//
// The token type lives in a custom claim, so a refresh token can never be
// replayed as an access token (and vice versa) — Validate checks it.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "doc-generator"

// Token types carried in the "typ" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret key used to sign and verify tokens. The same
// secret must be used for both operations — keep it safe, rotate it
// periodically in production.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetimes. The secret should be at least 32 bytes of random data in
// production. Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims (Issuer,
// Subject, ExpiresAt, IssuedAt) and adds the token type.
//
// "sub" (Subject) stores the internal user ID — the standard claim for
// identifying who the token belongs to.
type claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// GenerateAccess creates and signs a short-lived access token for userID.
func (s *TokenService) GenerateAccess(userID string) (string, error) {
	return s.generate(userID, TokenTypeAccess, s.accessTTL)
}

// GenerateRefresh creates and signs a long-lived refresh token for userID.
func (s *TokenService) GenerateRefresh(userID string) (string, error) {
	return s.generate(userID, TokenTypeRefresh, s.refreshTTL)
}

func (s *TokenService) generate(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	// jwt.NewWithClaims creates an unsigned token with the given algorithm.
	// SignedString(key) signs it and returns the complete JWT string.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing %s token: %w", tokenType, err)
	}

	return signed, nil
}

// ValidateAccess parses tokenStr and returns the userID when it is a valid,
// unexpired access token.
func (s *TokenService) ValidateAccess(tokenStr string) (string, error) {
	return s.validate(tokenStr, TokenTypeAccess)
}

// ValidateRefresh parses tokenStr and returns the userID when it is a
// valid, unexpired refresh token.
func (s *TokenService) ValidateRefresh(tokenStr string) (string, error) {
	return s.validate(tokenStr, TokenTypeRefresh)
}

// validate parses and verifies a JWT string.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches (prevents tokens from other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// Plus our own check: the "typ" claim matches the expected token type.
func (s *TokenService) validate(tokenStr, wantType string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			// Reject tokens that aren't signed with HMAC
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		// Translate jwt library errors into cleaner messages
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	if c.TokenType != wantType {
		return "", fmt.Errorf("auth: token type is %q, want %q", c.TokenType, wantType)
	}

	userID := c.Subject
	if userID == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return userID, nil
}
