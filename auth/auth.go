// Package auth implements the login service. It exchanges credentials for
// a JWT and extracts the role claim client-side.
//
// The role is read from the token WITHOUT verifying the signature: the
// backend signs and verifies tokens, the client only displays what it was
// given.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stockease/client-go/core"
	"github.com/stockease/client-go/transport"
)

// AuthResult is the decoded outcome of a successful login
type AuthResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// loginEnvelope is the POST /auth/login response shape: the JWT travels in
// the data field.
type loginEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Service performs authentication calls against the backend.
// It does not write the session store; persisting the result is the
// caller's decision, which keeps Login free of side effects for testing.
type Service struct {
	pipeline *transport.Pipeline
	logger   core.Logger
}

// NewService creates an auth service over the given pipeline
func NewService(pipeline *transport.Pipeline, logger core.Logger) *Service {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &Service{
		pipeline: pipeline,
		logger:   logger,
	}
}

// Login posts credentials and returns the token plus the role decoded from
// it. Rejected credentials (any 4xx from the login endpoint) surface as an
// authentication error carrying the backend's message when available.
// Server and network failures keep their own kinds so the UI can
// distinguish "wrong password" from "backend down".
func (s *Service) Login(ctx context.Context, username, password string) (AuthResult, error) {
	const op = "auth.Login"

	body := map[string]string{
		"username": username,
		"password": password,
	}

	respBody, err := s.pipeline.Do(ctx, op, http.MethodPost, "/auth/login", nil, body)
	if err != nil {
		return AuthResult{}, relabelCredentialError(err)
	}

	var envelope loginEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return AuthResult{}, core.NewDecodeError(op, err)
	}

	if !envelope.Success || envelope.Data == "" {
		message := envelope.Message
		if message == "" {
			message = "login rejected"
		}
		return AuthResult{}, core.NewAPIError(op, core.KindAuthentication, http.StatusOK, message)
	}

	role, err := RoleFromToken(envelope.Data)
	if err != nil {
		s.logger.Warn("Login token carries no readable role claim", map[string]interface{}{
			"operation": "login_decode",
			"username":  username,
			"error":     err.Error(),
		})
	}

	s.logger.Info("Login succeeded", map[string]interface{}{
		"operation": "login",
		"username":  username,
		"role":      role,
	})

	return AuthResult{Token: envelope.Data, Role: role}, nil
}

// relabelCredentialError turns a 4xx on the login endpoint itself into an
// authentication error: a 401 here means wrong credentials, not an expired
// session. Other kinds pass through untouched.
func relabelCredentialError(err error) error {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		message := apiErr.Message
		if message == "" {
			message = "invalid username or password"
		}
		return core.NewAPIError(apiErr.Op, core.KindAuthentication, apiErr.Status, message)
	}
	return err
}

// RoleFromToken base64-decodes the claims segment of the JWT and reads the
// "role" claim. Decoding is format-driven: any role string value is
// returned verbatim. The signature is intentionally not verified.
func RoleFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("malformed token: %w", err)
	}

	role, ok := claims["role"].(string)
	if !ok {
		return "", fmt.Errorf("token has no role claim")
	}
	return role, nil
}
