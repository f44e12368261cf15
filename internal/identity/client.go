package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/personnel-suite/internal/core/user"
)

var (
	ErrUserNotFound = errors.New("identity: user not found")
	ErrInvalidToken = errors.New("identity: invalid token")
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the identity provider over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type ProvisionRequest struct {
	Email         string   `json:"email"`
	Roles         []string `json:"roles"`
	Password      string   `json:"password,omitempty"`
	FullName      string   `json:"fullName,omitempty"`
	SuppressEmail bool     `json:"suppressEmail,omitempty"`
}

type ProvisionResult struct {
	Email    string  `json:"email"`
	Password *string `json:"password"`
	Created  bool    `json:"created"`
}

type UpdateUserRequest struct {
	Email    string   `json:"email"`
	NewEmail string   `json:"newEmail,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

type validateResponse struct {
	Valid bool     `json:"valid"`
	Email string   `json:"email"`
	Role  string   `json:"role"`
	Roles []string `json:"roles"`
}

// ValidateToken asks the provider who owns token.
func (c *Client) ValidateToken(ctx context.Context, token string) (*user.Principal, error) {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/validate", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create validate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.unexpected(resp)
	}

	var body validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode validate response: %w", err)
	}
	if !body.Valid {
		return nil, ErrInvalidToken
	}

	principal := &user.Principal{Email: body.Email}
	for _, raw := range body.Roles {
		if r, ok := user.ParseRole(raw); ok {
			principal.Roles = append(principal.Roles, r)
		}
	}
	if r, ok := user.ParseRole(body.Role); ok {
		principal.Role = r
	} else {
		principal.Role = user.PrimaryRole(principal.Roles)
	}
	return principal, nil
}

// Provision creates the account when it does not exist yet. The returned
// password is only set for newly created accounts.
func (c *Client) Provision(ctx context.Context, in ProvisionRequest) (*ProvisionResult, error) {
	resp, err := c.postJSON(ctx, "/auth/provision", in)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.unexpected(resp)
	}

	var out ProvisionResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode provision response: %w", err)
	}
	return &out, nil
}

// UpdateUser changes the email and/or roles of an existing account.
func (c *Client) UpdateUser(ctx context.Context, in UpdateUserRequest) error {
	resp, err := c.postJSON(ctx, "/auth/update-user", in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrUserNotFound
	default:
		return c.unexpected(resp)
	}
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request to %s failed: %w", path, err)
	}
	return resp, nil
}

func (c *Client) unexpected(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	c.logger.Warn("identity provider returned unexpected status",
		"url", resp.Request.URL.Path,
		"status_code", resp.StatusCode,
		"body", string(body))
	return fmt.Errorf("identity provider returned status %d", resp.StatusCode)
}
