package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const studentIDKey contextKey = "studentId"

// MiddlewareProvider verifies student tokens issued by the external auth
// service. The engine only consumes the token's identity; issuing and
// session handling stay outside.
type MiddlewareProvider struct {
	SecretOption string
}

func New() *MiddlewareProvider {
	return &MiddlewareProvider{
		SecretOption: os.Getenv("JWT_SECRET"),
	}
}

// NewWithSecret creates a provider with an explicit secret
func NewWithSecret(secret string) *MiddlewareProvider {
	return &MiddlewareProvider{
		SecretOption: secret,
	}
}

func (m *MiddlewareProvider) secret() []byte {
	return []byte(m.SecretOption)
}

// StudentAuthMiddleware extracts the student id from the bearer token and
// stores it on the request context
func (m *MiddlewareProvider) StudentAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}

		// Extract token from "Bearer <token>"
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return m.secret(), nil
		})

		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		studentID, _ := claims["sub"].(string)
		if studentID == "" {
			http.Error(w, "Token has no subject", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), studentIDKey, studentID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StudentID returns the student id stored by StudentAuthMiddleware
func StudentID(ctx context.Context) string {
	id, _ := ctx.Value(studentIDKey).(string)
	return id
}
