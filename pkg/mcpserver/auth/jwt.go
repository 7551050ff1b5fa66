// Package auth authenticates the MCP transport's calling operator from a
// bearer JWT: a token that fails validation or carries no subject is
// refused. The subject is returned to the caller; this package does not
// compare it with any field of a request body.
package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingBearer is returned when the Authorization header is absent or
// not a Bearer token.
var ErrMissingBearer = errors.New("mcpserver/auth: missing bearer token")

// OperatorClaims are the JWT claims an operator token carries. Subject is
// the operator_id the caller is authenticated as.
type OperatorClaims struct {
	jwt.RegisteredClaims
}

// Validator validates operator bearer tokens against a single HMAC
// signing key. A production deployment would source Key from a KMS or
// secret store; that wiring is a deployment concern, not this package's.
type Validator struct {
	Key []byte
}

// NewValidator returns a Validator keyed on the given HMAC secret.
func NewValidator(key []byte) *Validator {
	return &Validator{Key: key}
}

// ExtractOperatorID parses "Bearer <token>" out of an Authorization
// header value, validates it, and returns the token subject — the
// operator_id the caller is authenticated as.
func (v *Validator) ExtractOperatorID(authHeader string) (string, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrMissingBearer
	}

	claims := &OperatorClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		return v.Key, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("mcpserver/auth: token has no subject")
	}
	return claims.Subject, nil
}
