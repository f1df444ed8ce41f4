package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"rental-site/internal/config"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
}

// AuthUser is the subset of the auth user object this service reads.
type AuthUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	Role         string                 `json:"role"`
	AppMetadata  map[string]interface{} `json:"app_metadata,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
}

// BackendClient talks to the hosted auth API (/auth/v1) and the REST table
// API (/rest/v1). Table access uses the service-role key; auth calls made on
// behalf of anonymous visitors use the anon key.
type BackendClient struct {
	baseURL    *url.URL
	anonKey    string
	serviceKey string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewBackendClient(cfg *config.Config, logger *zap.Logger) (*BackendClient, error) {
	backendConfig := cfg.Backend

	base, err := url.Parse(backendConfig.URL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", backendConfig.URL)
	}

	timeout := backendConfig.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	logger.Info("Backend client initialized",
		zap.String("url", base.String()),
		zap.Duration("timeout", timeout))

	return &BackendClient{
		baseURL:    base,
		anonKey:    backendConfig.AnonKey,
		serviceKey: backendConfig.ServiceRoleKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// ===================== AUTH =====================

// RecoverPassword asks the auth service to email a reset link. The auth
// service answers 200 whether or not the address is registered.
func (c *BackendClient) RecoverPassword(ctx context.Context, email, redirectTo string) error {
	query := url.Values{}
	if redirectTo != "" {
		query.Set("redirect_to", redirectTo)
	}
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/auth/v1/recover", query, c.anonKey, c.anonKey, body, nil, nil)
}

// GetUser resolves an access token to its user.
func (c *BackendClient) GetUser(ctx context.Context, accessToken string) (*AuthUser, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, ErrUnauthorized
	}
	var user AuthUser
	err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, c.anonKey, accessToken, nil, &user, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return &user, nil
}

// ===================== REST =====================

// Select reads rows of table filtered by query into out (a slice pointer).
func (c *BackendClient) Select(ctx context.Context, table string, query url.Values, out interface{}) error {
	return c.rest(ctx, http.MethodGet, table, query, nil, out)
}

// Insert creates rows and decodes the created representation into out.
func (c *BackendClient) Insert(ctx context.Context, table string, body, out interface{}) error {
	return c.rest(ctx, http.MethodPost, table, nil, body, out)
}

// Update patches the rows matched by query.
func (c *BackendClient) Update(ctx context.Context, table string, query url.Values, body, out interface{}) error {
	if len(query) == 0 {
		return errors.New("update without filter refused")
	}
	return c.rest(ctx, http.MethodPatch, table, query, body, out)
}

// Delete removes the rows matched by query and decodes the removed rows
// into out. A filter that matched nothing decodes as an empty array.
func (c *BackendClient) Delete(ctx context.Context, table string, query url.Values, out interface{}) error {
	if len(query) == 0 {
		return errors.New("delete without filter refused")
	}
	return c.rest(ctx, http.MethodDelete, table, query, nil, out)
}

// HealthCheck verifies the auth API answers.
func (c *BackendClient) HealthCheck(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/auth/v1/health", nil, c.anonKey, c.anonKey, nil, nil, nil); err != nil {
		return fmt.Errorf("backend health check failed: %w", err)
	}
	return nil
}

func (c *BackendClient) rest(ctx context.Context, method, table string, query url.Values, body, out interface{}) error {
	headers := map[string]string{}
	if method != http.MethodGet {
		headers["Prefer"] = "return=representation"
	}
	return c.do(ctx, method, "/rest/v1/"+url.PathEscape(table), query, c.serviceKey, c.serviceKey, body, out, headers)
}

func (c *BackendClient) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	apiKey, bearer string,
	body, out interface{},
	headers map[string]string,
) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build backend request: %w", err)
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Backend request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) error {
	apiErr := &APIError{Status: status}

	// auth and REST APIs use different error shapes
	var shape struct {
		Code             interface{} `json:"code"`
		ErrorCode        string      `json:"error_code"`
		Message          string      `json:"message"`
		Msg              string      `json:"msg"`
		Error            string      `json:"error"`
		ErrorDescription string      `json:"error_description"`
	}
	if json.Unmarshal(raw, &shape) == nil {
		switch v := shape.Code.(type) {
		case string:
			apiErr.Code = v
		case float64:
			apiErr.Code = fmt.Sprintf("%d", int(v))
		}
		if shape.ErrorCode != "" {
			apiErr.Code = shape.ErrorCode
		}
		for _, m := range []string{shape.Message, shape.Msg, shape.ErrorDescription, shape.Error} {
			if m != "" {
				apiErr.Message = m
				break
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrNotFound, apiErr)
	}
	return apiErr
}
