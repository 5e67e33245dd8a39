// ABOUTME: Session JWTs for dashboard operators, signed with the configured secret
// ABOUTME: Tokens carry the operator as subject and must name the dashboard audience

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures. Callers should match them with errors.Is.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// sessionAudience keeps gateway-issued tokens sharing a secret from opening a session.
const sessionAudience = "coven-dashboard"

// SessionClaims are the claims of a dashboard session token.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// Operator returns the subject the session was issued to.
func (c *SessionClaims) Operator() string {
	return c.Subject
}

// TokenVerifier resolves a session token to its operator.
type TokenVerifier interface {
	Verify(tokenString string) (operator string, err error)
}

// JWTVerifier issues and checks HS256 session tokens.
type JWTVerifier struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

func NewJWTVerifier(secret []byte) *JWTVerifier {
	v := &JWTVerifier{secret: secret, now: time.Now}
	v.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(sessionAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return v.now() }),
	)
	return v
}

// Verify checks signature, audience and expiry and returns the operator.
func (v *JWTVerifier) Verify(tokenString string) (string, error) {
	var claims SessionClaims
	_, err := v.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrExpiredToken
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	case claims.Operator() == "":
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	return claims.Operator(), nil
}

// Generate signs a session for operator valid for expiresIn.
func (v *JWTVerifier) Generate(operator string, expiresIn time.Duration) (string, error) {
	if operator == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	now := v.now()
	claims := SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   operator,
		Audience:  jwt.ClaimStrings{sessionAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
