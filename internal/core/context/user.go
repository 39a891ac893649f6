// Package context provides request-scoped values extraction.
package context

import (
	"context"
	"strings"
)

// Roles recognised by the engine.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleReader = "reader"
)

// Caller identifies who issued the request. Identity is established by an
// external authority; the engine only reads the validated token claims.
type Caller struct {
	UserID string
	Name   string
	// Role is the display role stored with annotations (e.g. "Director General").
	Role  string
	Roles []string
}

type callerKey struct{}

// WithCaller adds Caller to context.
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// GetCaller returns Caller from context.
func GetCaller(ctx context.Context) *Caller {
	if v, ok := ctx.Value(callerKey{}).(*Caller); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if c := GetCaller(ctx); c != nil {
		return c.UserID
	}
	return ""
}

// HasRole checks if caller has specific role.
func (c *Caller) HasRole(role string) bool {
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller carries the administrator role.
func (c *Caller) IsAdmin() bool {
	return c.HasRole(RoleAdmin)
}
