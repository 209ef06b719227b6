// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller identity. With a JWT secret configured, the
// user ID is the "sub" claim of an HS256 bearer token; without one, the
// X-User-ID header is trusted (development and tests). Ids longer than the
// user_id columns hold are rejected with 401. The resolved ID is
// stored under the "userID" Gin context key and added to the request-scoped
// logger.
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tbourn/go-mealplan-backend/internal/domain"
)

const (
	// userIDKey is the Gin context key under which the caller identity is stored.
	userIDKey = "userID"
	// HeaderUserID carries the caller identity when no JWT secret is set.
	HeaderUserID = "X-User-ID"
)

var errNoSubject = errors.New("token has no subject")

// Identity resolves the caller and stores it in the Gin context. An invalid
// bearer token is rejected with 401; a missing one leaves the request
// anonymous so public routes keep working. Pair with RequireUser on routes
// that need an owner.
func Identity(secret string) gin.HandlerFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		var uid string
		if secret == "" {
			uid = strings.TrimSpace(c.GetHeader(HeaderUserID))
		} else if authz := c.GetHeader("Authorization"); authz != "" {
			token, found := strings.CutPrefix(authz, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				unauthorized(c, "invalid authorization header format")
				return
			}
			sub, err := subjectOf(parser, strings.TrimSpace(token), key)
			if err != nil {
				LoggerFrom(c).Debug().Err(err).Msg("rejecting bearer token")
				unauthorized(c, "invalid or expired token")
				return
			}
			uid = sub
		}

		if utf8.RuneCountInString(uid) > domain.MaxUserIDLen {
			unauthorized(c, "user id is too long")
			return
		}
		if uid != "" {
			SetUserID(c, uid)
		}
		c.Next()
	}
}

// RequireUser aborts with 401 unless Identity resolved a user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			unauthorized(c, "authentication required")
			return
		}
		c.Next()
	}
}

// UserID returns the caller identity resolved by Identity, or "".
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// SetUserID stores uid on the context and enriches the request logger.
func SetUserID(c *gin.Context, uid string) {
	c.Set(userIDKey, uid)
	lg := LoggerFrom(c).With().Str("user_id", uid).Logger()
	attachLogger(c, &lg)
}

// subjectOf validates an HS256 token and returns its subject. Tokens minted
// with a "user_id" claim instead of "sub" are accepted too.
func subjectOf(p *jwt.Parser, raw string, key []byte) (string, error) {
	claims := jwt.MapClaims{}
	_, err := p.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return key, nil })
	if err != nil {
		return "", err
	}
	if sub, _ := claims.GetSubject(); sub != "" {
		return sub, nil
	}
	if uid, ok := claims["user_id"].(string); ok && uid != "" {
		return uid, nil
	}
	return "", errNoSubject
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
