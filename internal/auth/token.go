package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"ms-booking/internal/models"
)

// ExtractTokenFromRequest extracts a JWT token from an HTTP request's Authorization header
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	// Bearer token format: "Bearer {token}"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}

// Claims carried by access tokens: the actor id and role.
type Claims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// HMACVerifier checks HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(_ context.Context, rawToken string) (models.Actor, error) {
	if rawToken == "" {
		return models.Actor{}, errors.New("empty token")
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(rawToken, &claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Actor{}, fmt.Errorf("failed to parse token: %w", err)
	}

	return actorFromClaims(claims.ID, claims.Subject, claims.Role)
}

// actorFromClaims prefers the explicit id claim and falls back to sub.
func actorFromClaims(id, sub, role string) (models.Actor, error) {
	if id == "" {
		id = sub
	}
	if id == "" {
		return models.Actor{}, errors.New("id claim not found in token")
	}
	parsed, ok := models.ParseRole(role)
	if !ok {
		return models.Actor{}, fmt.Errorf("unknown role claim %q", role)
	}
	return models.Actor{ID: id, Role: parsed}, nil
}
