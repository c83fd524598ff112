// Package transport implements the authenticated request pipeline between
// the typed domain services and the StockEase backend.
//
// Every outbound request gets a fresh token read from the session store and
// a Bearer Authorization header when a token exists. Every inbound response
// is interpreted exactly once: 2xx returns the body, 401 clears the session
// store and fails with an unauthorized error, any other status fails with a
// typed error carrying the status and the backend message, and requests
// that never produce a response fail with a network error that leaves the
// session untouched.
//
// There are no retries: a failed request fails its caller immediately, and
// concurrent 401s each clear the store (idempotent) and each fail their own
// caller. There is no cross-request suppression.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stockease/client-go/core"
	"github.com/stockease/client-go/session"
)

// DefaultTimeout bounds each request when no timeout is configured.
const DefaultTimeout = 120 * time.Second

// Pipeline decorates outgoing requests with the stored bearer token and
// interprets responses. It is safe for concurrent use: the only shared
// mutable state it touches is the session store, and the store's Clear is
// idempotent.
type Pipeline struct {
	// HTTPClient executes the requests. Replaceable, e.g. with an
	// otelhttp-instrumented client from the telemetry package.
	HTTPClient *http.Client

	// Logger for debugging
	Logger core.Logger

	// Telemetry for per-request spans
	Telemetry core.Telemetry

	baseURL string
	store   session.Store
}

// NewPipeline creates a request pipeline for the given API base URL and
// session store. A nil logger disables logging, a zero timeout applies
// DefaultTimeout.
func NewPipeline(baseURL string, timeout time.Duration, store session.Store, logger core.Logger) *Pipeline {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Pipeline{
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
		Telemetry:  &core.NoOpTelemetry{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		store:      store,
	}
}

// BaseURL returns the configured API prefix
func (p *Pipeline) BaseURL() string {
	return p.baseURL
}

// Do executes one request against the backend and returns the raw response
// body for 2xx responses. op names the calling operation for errors, spans
// and logs (e.g. "products.Search"). query may be nil; body, when non-nil,
// is JSON-encoded.
func (p *Pipeline) Do(ctx context.Context, op, method, path string, query url.Values, body interface{}) ([]byte, error) {
	ctx, span := p.Telemetry.StartSpan(ctx, op)
	defer span.End()

	span.SetAttribute("http.method", method)
	span.SetAttribute("http.route", path)

	req, err := p.newRequest(ctx, method, path, query, body)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	requestID := uuid.New().String()
	req.Header.Set("X-Request-ID", requestID)
	span.SetAttribute("request.id", requestID)

	start := time.Now()
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		// No response was received. A transient network issue is not
		// evidence of an invalid token, so the session stays intact.
		netErr := core.NewNetworkError(op, err)
		p.Logger.Error("Request failed before a response was received", map[string]interface{}{
			"operation":  "http_request_error",
			"op":         op,
			"method":     method,
			"path":       path,
			"request_id": requestID,
			"error":      err.Error(),
		})
		span.RecordError(netErr)
		return nil, netErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		netErr := core.NewNetworkError(op, fmt.Errorf("reading response: %w", err))
		span.RecordError(netErr)
		return nil, netErr
	}

	span.SetAttribute("http.status_code", resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, p.handleUnauthorized(ctx, op, span, requestID, respBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := core.NewAPIError(op, core.KindForStatus(resp.StatusCode), resp.StatusCode, backendMessage(respBody))
		p.Logger.Error("Request failed with API error", map[string]interface{}{
			"operation":   "http_request_error",
			"op":          op,
			"method":      method,
			"path":        path,
			"request_id":  requestID,
			"status_code": resp.StatusCode,
			"error_kind":  string(apiErr.Kind),
		})
		span.RecordError(apiErr)
		return nil, apiErr
	}

	p.Logger.Debug("Request completed", map[string]interface{}{
		"operation":   "http_request",
		"op":          op,
		"method":      method,
		"path":        path,
		"request_id":  requestID,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return respBody, nil
}

// newRequest builds the decorated *http.Request. Decoration never performs
// I/O of its own and cannot fail for header reasons; the token is read
// fresh from the store on every call, never cached across requests.
func (p *Pipeline) newRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Request, error) {
	fullURL := p.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	current, _ := p.store.Get(ctx)
	if current.Token != "" {
		req.Header.Set("Authorization", "Bearer "+current.Token)
	}

	return req, nil
}

// handleUnauthorized clears the session store and returns the typed error.
// Clearing is idempotent, so several in-flight 401s may each clear without
// coordination; each caller still receives its own error.
func (p *Pipeline) handleUnauthorized(ctx context.Context, op string, span core.Span, requestID string, body []byte) error {
	if err := p.store.Clear(ctx); err != nil {
		p.Logger.Warn("Session clear failed after 401", map[string]interface{}{
			"operation":  "session_invalidate",
			"op":         op,
			"request_id": requestID,
			"error":      err.Error(),
		})
	}

	p.Logger.Warn("Session invalidated by 401 response", map[string]interface{}{
		"operation":  "session_invalidate",
		"op":         op,
		"request_id": requestID,
	})

	apiErr := core.NewAPIError(op, core.KindUnauthorized, http.StatusUnauthorized, backendMessage(body))
	span.RecordError(apiErr)
	return apiErr
}

// backendMessage extracts the human-readable message from an error body.
// The backend uses {"message": ...}; some proxies use {"error": ...}.
// Returns "" when no message is available so callers fall back to the
// kind's generic text.
func backendMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}
