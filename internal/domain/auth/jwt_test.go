package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "idp",
			Subject:   "u1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserID: "u1",
		Name:   "Juan Pérez",
		Role:   "Director General",
		Roles:  []string{"editor"},
	}
}

func TestValidateToken(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(secret))

	caller, err := svc.ValidateToken(sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "u1", caller.UserID)
	assert.Equal(t, "Juan Pérez", caller.Name)
	assert.Equal(t, "Director General", caller.Role)
	assert.True(t, caller.HasRole("EDITOR"))
	assert.False(t, caller.IsAdmin())
}

func TestValidateToken_FallsBackToSubject(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig(secret))
	claims := validClaims()
	claims.UserID = ""

	caller, err := svc.ValidateToken(sign(t, jwt.SigningMethodHS256, []byte(secret), claims))
	require.NoError(t, err)
	assert.Equal(t, "u1", caller.UserID)
}

func TestValidateToken_Rejects(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	anonymous := validClaims()
	anonymous.UserID, anonymous.Subject = "", ""

	tests := []struct {
		name  string
		token func(t *testing.T) string
		cfg   JWTConfig
	}{
		{"wrong secret", func(t *testing.T) string {
			return sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims())
		}, DefaultJWTConfig(secret)},
		{"expired", func(t *testing.T) string {
			return sign(t, jwt.SigningMethodHS256, []byte(secret), expired)
		}, DefaultJWTConfig(secret)},
		{"wrong algorithm", func(t *testing.T) string {
			return sign(t, jwt.SigningMethodHS512, []byte(secret), validClaims())
		}, DefaultJWTConfig(secret)},
		{"wrong issuer", func(t *testing.T) string {
			return sign(t, jwt.SigningMethodHS256, []byte(secret), validClaims())
		}, JWTConfig{Secret: secret, Issuer: "someone-else"}},
		{"no subject", func(t *testing.T) string {
			return sign(t, jwt.SigningMethodHS256, []byte(secret), anonymous)
		}, DefaultJWTConfig(secret)},
		{"garbage", func(*testing.T) string { return "not-a-token" }, DefaultJWTConfig(secret)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJWTService(tt.cfg).ValidateToken(tt.token(t))
			assert.Error(t, err)
		})
	}
}
