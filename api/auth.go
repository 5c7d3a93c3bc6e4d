package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyHeader is the request header carrying the API key.
const APIKeyHeader = "X-API-Key"

// keyHashCost is the bcrypt cost for API key hashing. The key is
// verified once per request, so a moderate cost keeps latency low.
const keyHashCost = 10

// ErrEmptyAPIKey is returned when constructing auth with an empty key.
var ErrEmptyAPIKey = errors.New("api: key cannot be empty")

// APIKeyAuth guards mutating endpoints with a single shared API key.
// The configured key is stored only as a bcrypt hash; verification
// uses constant-time comparison.
type APIKeyAuth struct {
	hash []byte
}

// NewAPIKeyAuth hashes the configured key and returns the middleware.
func NewAPIKeyAuth(key string) (*APIKeyAuth, error) {
	if key == "" {
		return nil, ErrEmptyAPIKey
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), keyHashCost)
	if err != nil {
		return nil, err
	}

	return &APIKeyAuth{hash: hash}, nil
}

// Verify reports whether the presented key matches the configured one.
func (a *APIKeyAuth) Verify(key string) bool {
	if key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.hash, []byte(key)) == nil
}

// Middleware wraps a handler with API key verification. The key is
// read from the X-API-Key header, falling back to a bearer token.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				key = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if !a.Verify(key) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(ErrorResponse{Message: "invalid or missing API key"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// MiddlewareFunc wraps an http.HandlerFunc with API key verification.
func (a *APIKeyAuth) MiddlewareFunc(next http.HandlerFunc) http.HandlerFunc {
	return a.Middleware(next).ServeHTTP
}
