// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/Kalfadda/indiecraft/internal/api/errors"
)

// Context keys for auth middleware.
const (
	// UserContextKey is the context key for user claims.
	UserContextKey contextKey = "user"

	// TokenContextKey is the context key for the raw JWT token.
	TokenContextKey contextKey = "token"
)

// HTTP headers for auth.
const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
)

// UserClaims contains the claims extracted from a JWT access token.
type UserClaims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	SessionID string `json:"session_id,omitempty"`
	Type      string `json:"type"`
	jwt.RegisteredClaims
}

// TokenValidatorFunc performs additional token validation, e.g. checking the
// server-side session is still alive.
type TokenValidatorFunc func(ctx context.Context, token string, claims *UserClaims) error

// AuthConfig contains configuration for the auth middleware.
type AuthConfig struct {
	// Secret is the JWT signing secret (required)
	Secret string

	// TokenLookup defines how to extract the token from the request.
	// Format: "<source>:<name>", e.g., "header:Authorization", "cookie:auth"
	// Multiple lookups can be specified, separated by comma.
	// Default: "header:Authorization"
	TokenLookup string

	// AuthScheme is the authorization scheme in the header (default: "Bearer")
	AuthScheme string

	// ContextKey is the key used to store claims in context (default: UserContextKey)
	ContextKey contextKey

	// ErrorHandler is called when authentication fails
	ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

	// TokenValidator is an optional function to perform additional token
	// validation. Receives the request context for store lookups.
	TokenValidator TokenValidatorFunc
}

// DefaultAuthConfig returns a default auth configuration.
// Tokens are only accepted from the Authorization header with Bearer prefix.
// Query parameter tokens are intentionally NOT supported as they appear in
// server logs, browser history, Referer headers, and proxy logs.
func DefaultAuthConfig(secret string) AuthConfig {
	return AuthConfig{
		Secret:       secret,
		TokenLookup:  "header:Authorization",
		AuthScheme:   "Bearer",
		ContextKey:   UserContextKey,
		ErrorHandler: defaultAuthErrorHandler,
	}
}

// Auth returns an authentication middleware that validates JWT access tokens.
func Auth(config AuthConfig) func(http.Handler) http.Handler {
	if config.Secret == "" {
		panic("auth middleware: secret is required")
	}

	if config.TokenLookup == "" {
		config.TokenLookup = "header:Authorization"
	}

	if config.AuthScheme == "" {
		config.AuthScheme = "Bearer"
	}

	if config.ContextKey == "" {
		config.ContextKey = UserContextKey
	}

	if config.ErrorHandler == nil {
		config.ErrorHandler = defaultAuthErrorHandler
	}

	extractors := parseTokenLookup(config.TokenLookup, config.AuthScheme)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Try to extract token from configured sources
			var tokenString string
			for _, extractor := range extractors {
				if token := extractor(r); token != "" {
					tokenString = token
					break
				}
			}

			if tokenString == "" {
				config.ErrorHandler(w, r, apierrors.Unauthorized(""))
				return
			}

			token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(config.Secret), nil
			})

			if err != nil || !token.Valid {
				if err != nil && strings.Contains(err.Error(), "expired") {
					config.ErrorHandler(w, r, apierrors.ExpiredToken())
				} else if err != nil {
					config.ErrorHandler(w, r, apierrors.InvalidToken(err.Error()))
				} else {
					config.ErrorHandler(w, r, apierrors.InvalidToken(""))
				}
				return
			}

			claims, ok := token.Claims.(*UserClaims)
			if !ok {
				config.ErrorHandler(w, r, apierrors.InvalidToken("invalid claims"))
				return
			}

			// Refresh tokens must not be accepted as access tokens.
			if claims.Type != "" && claims.Type != "access" {
				config.ErrorHandler(w, r, apierrors.InvalidToken("wrong token type"))
				return
			}

			// Optional: additional validation (e.g. session liveness)
			if config.TokenValidator != nil {
				if err := config.TokenValidator(r.Context(), tokenString, claims); err != nil {
					config.ErrorHandler(w, r, apierrors.SessionExpired())
					return
				}
			}

			// Add claims to context
			ctx := context.WithValue(r.Context(), config.ContextKey, claims)
			ctx = context.WithValue(ctx, TokenContextKey, tokenString)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthSimple returns a simplified auth middleware using defaults.
func AuthSimple(secret string) func(http.Handler) http.Handler {
	return Auth(DefaultAuthConfig(secret))
}

// RequireAuth rejects requests whose context carries no user claims. Used
// behind Auth or OptionalAuth on routes that need a signed-in user.
var RequireAuth = func(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserFromContext(r.Context())
		if claims == nil {
			apierrors.WriteError(w, apierrors.Unauthorized(""))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects authenticated requests whose role is not in the allowed
// set. Admins pass every check.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims == nil {
				apierrors.WriteError(w, apierrors.Unauthorized(""))
				return
			}
			if claims.Role != "admin" && !allowed[claims.Role] {
				apierrors.WriteError(w, apierrors.Forbidden(""))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is shorthand for RequireRole with no extra roles.
var RequireAdmin = RequireRole()

// ============================================================================
// Token extraction functions
// ============================================================================

type tokenExtractor func(*http.Request) string

func parseTokenLookup(lookup, authScheme string) []tokenExtractor {
	parts := strings.Split(lookup, ",")
	extractors := make([]tokenExtractor, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}

		source := strings.ToLower(kv[0])
		name := kv[1]

		switch source {
		case "header":
			extractors = append(extractors, headerExtractor(name, authScheme))
		case "cookie":
			extractors = append(extractors, cookieExtractor(name))
		}
	}

	return extractors
}

func headerExtractor(name, authScheme string) tokenExtractor {
	return func(r *http.Request) string {
		header := r.Header.Get(name)
		if header == "" {
			return ""
		}

		// Require auth scheme prefix (e.g. "Bearer ") per RFC 6750.
		// Accepting tokens without a scheme prefix can cause token confusion
		// with other auth schemes (Basic, Digest, etc.)
		if authScheme != "" {
			prefix := authScheme + " "
			if strings.HasPrefix(header, prefix) {
				return strings.TrimPrefix(header, prefix)
			}
			// No valid scheme prefix found — reject
			return ""
		}

		return header
	}
}

func cookieExtractor(name string) tokenExtractor {
	return func(r *http.Request) string {
		cookie, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return cookie.Value
	}
}

// ============================================================================
// Error handler
// ============================================================================

func defaultAuthErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	requestID := GetRequestID(r.Context())
	if apiErr, ok := err.(*apierrors.APIError); ok {
		apierrors.WriteErrorWithRequestID(w, apiErr, requestID)
	} else {
		apierrors.WriteErrorWithRequestID(w, apierrors.Unauthorized(err.Error()), requestID)
	}
}

// ============================================================================
// Context helpers
// ============================================================================

// GetUserFromContext retrieves user claims from the context.
// Returns nil if no user is found.
func GetUserFromContext(ctx context.Context) *UserClaims {
	if claims, ok := ctx.Value(UserContextKey).(*UserClaims); ok {
		return claims
	}
	return nil
}

// GetUserFromRequest is a convenience function to get user from http.Request.
func GetUserFromRequest(r *http.Request) *UserClaims {
	return GetUserFromContext(r.Context())
}

// GetTokenFromContext retrieves the raw JWT token from the context.
func GetTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(TokenContextKey).(string); ok {
		return token
	}
	return ""
}

// MustGetUser retrieves user claims from context and panics if not found.
// Use only in handlers where authentication is guaranteed.
func MustGetUser(ctx context.Context) *UserClaims {
	claims := GetUserFromContext(ctx)
	if claims == nil {
		panic("auth: user claims not found in context")
	}
	return claims
}

// ============================================================================
// Optional authentication (for endpoints that work with or without auth)
// ============================================================================

// OptionalAuth is like Auth but doesn't reject unauthenticated requests.
// The user claims will be nil in context if not authenticated.
func OptionalAuth(config AuthConfig) func(http.Handler) http.Handler {
	if config.Secret == "" {
		panic("auth middleware: secret is required")
	}

	if config.TokenLookup == "" {
		config.TokenLookup = "header:Authorization"
	}

	if config.AuthScheme == "" {
		config.AuthScheme = "Bearer"
	}

	if config.ContextKey == "" {
		config.ContextKey = UserContextKey
	}

	extractors := parseTokenLookup(config.TokenLookup, config.AuthScheme)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Try to extract token
			var tokenString string
			for _, extractor := range extractors {
				if token := extractor(r); token != "" {
					tokenString = token
					break
				}
			}

			// If no token, continue without authentication
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Try to parse token
			token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(config.Secret), nil
			})

			if err != nil || !token.Valid {
				// Invalid token, continue without authentication
				next.ServeHTTP(w, r)
				return
			}

			claims, ok := token.Claims.(*UserClaims)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			// Add claims to context
			ctx := context.WithValue(r.Context(), config.ContextKey, claims)
			ctx = context.WithValue(ctx, TokenContextKey, tokenString)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
