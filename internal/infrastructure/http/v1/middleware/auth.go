package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"govdoc/internal/core/apperror"
	appctx "govdoc/internal/core/context"
)

// TokenValidator turns a bearer token into the caller identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (*appctx.Caller, error)
}

// Auth middleware validates bearer tokens and puts the caller into the
// request context.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		caller, err := validator.ValidateToken(token)
		if err != nil || caller == nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		setCaller(c, caller)
		c.Next()
	}
}

// OptionalAuth validates token if present, but doesn't require it.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if caller, err := validator.ValidateToken(token); err == nil && caller != nil {
				setCaller(c, caller)
			}
		}
		c.Next()
	}
}

// RequireRole middleware checks if the caller has any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := appctx.GetCaller(c.Request.Context())
		if caller == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		for _, required := range roles {
			if caller.HasRole(required) {
				c.Next()
				return
			}
		}
		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setCaller(c *gin.Context, caller *appctx.Caller) {
	ctx := appctx.WithCaller(c.Request.Context(), caller)
	c.Request = c.Request.WithContext(ctx)
	c.Set("user_id", caller.UserID)
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
