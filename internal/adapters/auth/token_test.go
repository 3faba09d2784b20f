package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "0b6f5c1e-8a9d-4f23-9c1b-2d7e4a6f8b90"

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims jwtClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTVerifier_Verify(t *testing.T) {
	const secret = "test-secret"
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	valid := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testUserID,
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	tests := []struct {
		name    string
		token   func() string
		wantID  string
		wantErr bool
	}{
		{
			name:   "valid token",
			token:  func() string { return signToken(t, jwt.SigningMethodHS256, secret, valid) },
			wantID: testUserID,
		},
		{
			name: "expired token",
			token: func() string {
				c := valid
				c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
				return signToken(t, jwt.SigningMethodHS256, secret, c)
			},
			wantErr: true,
		},
		{
			name: "token without expiry",
			token: func() string {
				c := valid
				c.ExpiresAt = nil
				return signToken(t, jwt.SigningMethodHS256, secret, c)
			},
			wantErr: true,
		},
		{
			name:    "wrong secret",
			token:   func() string { return signToken(t, jwt.SigningMethodHS256, "other-secret", valid) },
			wantErr: true,
		},
		{
			name:    "unexpected algorithm",
			token:   func() string { return signToken(t, jwt.SigningMethodHS512, secret, valid) },
			wantErr: true,
		},
		{
			name: "missing subject",
			token: func() string {
				c := valid
				c.Subject = ""
				return signToken(t, jwt.SigningMethodHS256, secret, c)
			},
			wantErr: true,
		},
		{
			name: "subject is not a uuid",
			token: func() string {
				c := valid
				c.Subject = "user-123"
				return signToken(t, jwt.SigningMethodHS256, secret, c)
			},
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   func() string { return "not.a.jwt" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewJWTVerifier(secret, 0).(*jwtVerifier)
			v.now = func() time.Time { return now }

			userID, err := v.Verify(tt.token())
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, userID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, userID)
		})
	}
}

func TestJWTVerifier_Leeway(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	token := signToken(t, jwt.SigningMethodHS256, "s", jwtClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   testUserID,
		ExpiresAt: jwt.NewNumericDate(now.Add(-10 * time.Second)),
	}})

	v := NewJWTVerifier("s", 30*time.Second).(*jwtVerifier)
	v.now = func() time.Time { return now }

	userID, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, testUserID, userID)
}

func TestJWTVerifier_RejectsNonUUIDSubject(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	token := signToken(t, jwt.SigningMethodHS256, "s", jwtClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice@example.com",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}})

	v := NewJWTVerifier("s", 0).(*jwtVerifier)
	v.now = func() time.Time { return now }

	_, err := v.Verify(token)
	require.ErrorIs(t, err, ErrInvalidSubject)
}
