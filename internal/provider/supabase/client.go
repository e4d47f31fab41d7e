// Package supabase adapts a GoTrue-style identity API to domain.AuthProvider.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pixelforge/imagegen-service/internal/core/domain"
)

// Client calls the hosted identity service over REST. The service key is sent
// on every request; user-scoped calls additionally carry the user's bearer
// token.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a Client for the given project URL and service key.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type sessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// errorResponse covers the shapes the identity API uses across endpoints.
type errorResponse struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Err              string `json:"error"`
}

func (e *errorResponse) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Err} {
		if s != "" {
			return s
		}
	}
	return ""
}

// SignUp registers a new user with email and password.
func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	payload := map[string]string{"email": email, "password": password}

	body, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", payload)
	if err != nil {
		return nil, fmt.Errorf("supabase signup: %w", err)
	}

	var resp userResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("supabase signup decode: %w", err)
	}

	return &domain.User{ID: resp.ID, Email: resp.Email}, nil
}

// SignInWithPassword exchanges credentials for a token pair.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	payload := map[string]string{"email": email, "password": password}

	body, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", payload)
	if err != nil {
		return nil, fmt.Errorf("supabase password grant: %w", err)
	}

	return decodeSession(body)
}

// GetUser resolves the user owning the given access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*domain.User, error) {
	body, err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase get user: %w", err)
	}

	var resp userResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("supabase get user decode: %w", err)
	}

	return &domain.User{ID: resp.ID, Email: resp.Email}, nil
}

// RefreshSession exchanges a refresh token for a fresh token pair.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*domain.Session, error) {
	payload := map[string]string{"refresh_token": refreshToken}

	body, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "", payload)
	if err != nil {
		return nil, fmt.Errorf("supabase refresh grant: %w", err)
	}

	return decodeSession(body)
}

func decodeSession(body []byte) (*domain.Session, error) {
	var resp sessionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("supabase session decode: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, nil
	}

	return &domain.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		User:         domain.User{ID: resp.User.ID, Email: resp.User.Email},
	}, nil
}

// do performs one API call. Non-2xx responses become *domain.ProviderError so
// handlers can surface the provider's own status and message.
func (c *Client) do(ctx context.Context, method, path, bearer string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		_ = json.Unmarshal(body, &apiErr)

		msg := apiErr.text()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &domain.ProviderError{Status: resp.StatusCode, Message: msg}
	}

	return body, nil
}
