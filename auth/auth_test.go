package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockease/client-go/core"
	"github.com/stockease/client-go/session"
	"github.com/stockease/client-go/transport"
)

// signedToken builds a real HS256 token. The signing key is irrelevant to
// the client, which never verifies signatures.
func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func loginServer(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	pipeline := transport.NewPipeline(srv.URL, 0, session.NewMemoryStore(), nil)
	return NewService(pipeline, nil)
}

func TestService_Login(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "admin", "role": "ROLE_ADMIN"})

	svc := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "admin", creds["username"])
		assert.Equal(t, "secret", creds["password"])

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"message": "ok",
			"data":    token,
		})
	})

	result, err := svc.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, token, result.Token)
	assert.Equal(t, "ROLE_ADMIN", result.Role)
}

func TestService_Login_ArbitraryRoleValues(t *testing.T) {
	// Decoding is format-driven, not restricted to the canonical roles
	roles := []string{"ROLE_ADMIN", "ROLE_USER", "ROLE_AUDITOR", "warehouse-7"}

	for _, role := range roles {
		t.Run(role, func(t *testing.T) {
			token := signedToken(t, jwt.MapClaims{"role": role})

			svc := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"success": true,
					"data":    token,
				})
			})

			result, err := svc.Login(context.Background(), "u", "p")
			require.NoError(t, err)
			assert.Equal(t, role, result.Role)
		})
	}
}

func TestService_Login_WrongCredentials(t *testing.T) {
	svc := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid credentials"})
	})

	_, err := svc.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)

	// A 401 on login means wrong credentials, not an expired session
	assert.ErrorIs(t, err, core.ErrAuthentication)
	assert.NotErrorIs(t, err, core.ErrUnauthorized)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestService_Login_RejectedWithoutMessage(t *testing.T) {
	svc := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := svc.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrAuthentication)
	// Generic fallback message when the backend supplies none
	assert.Contains(t, err.Error(), "invalid username or password")
}

func TestService_Login_EnvelopeRejection(t *testing.T) {
	svc := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "account locked",
		})
	})

	_, err := svc.Login(context.Background(), "admin", "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrAuthentication)
	assert.Contains(t, err.Error(), "account locked")
}

func TestService_Login_ServerErrorKeepsKind(t *testing.T) {
	svc := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := svc.Login(context.Background(), "admin", "secret")
	require.Error(t, err)

	// Backend down is not "wrong password"
	assert.ErrorIs(t, err, core.ErrServer)
	assert.NotErrorIs(t, err, core.ErrAuthentication)
}

func TestService_Login_NetworkErrorKeepsKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	pipeline := transport.NewPipeline(srv.URL, 0, session.NewMemoryStore(), nil)
	svc := NewService(pipeline, nil)

	_, err := svc.Login(context.Background(), "admin", "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNetwork)
}

func TestService_Login_MalformedResponse(t *testing.T) {
	svc := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{truncated`))
	})

	_, err := svc.Login(context.Background(), "admin", "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDecode)
	assert.NotErrorIs(t, err, core.ErrNetwork)
}

func TestService_Login_TokenWithoutRole(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "admin"})

	svc := loginServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    token,
		})
	})

	// A missing role claim is not a login failure; the role is just empty
	result, err := svc.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, token, result.Token)
	assert.Empty(t, result.Role)
}

func TestRoleFromToken(t *testing.T) {
	tests := []struct {
		name    string
		token   func(t *testing.T) string
		want    string
		wantErr bool
	}{
		{
			name:  "admin role",
			token: func(t *testing.T) string { return signedToken(t, jwt.MapClaims{"role": "ROLE_ADMIN"}) },
			want:  "ROLE_ADMIN",
		},
		{
			name:  "arbitrary role string",
			token: func(t *testing.T) string { return signedToken(t, jwt.MapClaims{"role": "ROLE_INTERN"}) },
			want:  "ROLE_INTERN",
		},
		{
			name:    "no role claim",
			token:   func(t *testing.T) string { return signedToken(t, jwt.MapClaims{"sub": "x"}) },
			wantErr: true,
		},
		{
			name:    "non-string role claim",
			token:   func(t *testing.T) string { return signedToken(t, jwt.MapClaims{"role": 42}) },
			wantErr: true,
		},
		{
			name:    "malformed token",
			token:   func(t *testing.T) string { return "not.a.jwt" },
			wantErr: true,
		},
		{
			name:    "empty token",
			token:   func(t *testing.T) string { return "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := RoleFromToken(tt.token(t))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestRoleFromToken_DoesNotVerifySignature(t *testing.T) {
	// Tamper with the signature: role extraction must still succeed,
	// because verification is the backend's responsibility.
	token := signedToken(t, jwt.MapClaims{"role": "ROLE_ADMIN"})
	tampered := fmt.Sprintf("%s%s", token[:len(token)-2], "xx")

	role, err := RoleFromToken(tampered)
	require.NoError(t, err)
	assert.Equal(t, "ROLE_ADMIN", role)
}
