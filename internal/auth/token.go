package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the slice of the caller's identity the booking core needs: enough
// to decide who may cancel a booking. Token issuance and password handling live
// in a separate identity service.
type Identity struct {
	Subject string
	Email   string
}

// ExtractTokenFromRequest extracts a JWT from the Authorization header.
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	// Bearer token format: "Bearer {token}"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}
	return parts[1], nil
}

// IdentityFromToken parses the JWT claims without verifying the signature.
// Signature verification happens in the OIDC middleware when an issuer is
// configured; this fallback only extracts who the caller says they are.
func IdentityFromToken(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, errors.New("empty token")
	}

	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return Identity{}, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errors.New("invalid token claims")
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" && email == "" {
		return Identity{}, errors.New("no subject or email claim in token")
	}
	return Identity{Subject: sub, Email: email}, nil
}
