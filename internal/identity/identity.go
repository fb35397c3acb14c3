// Package identity wraps the hosted credential service used for admin
// logins (Identity Toolkit REST surface). Caregiver logins never touch
// this service; they are a phone+PIN lookup against the record store.
package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const baseURL = "https://identitytoolkit.googleapis.com/v1"

type Client struct {
	httpClient *resty.Client
	apiKey     string
	logger     *zap.Logger
}

func NewClient(apiKey string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Client{httpClient: client, apiKey: apiKey, logger: logger}
}

// Configured reports whether the hosted service can be used; when false,
// admin login falls back to the stored password hash.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type SignInResult struct {
	Success bool
	UserID  string
	Error   string
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SignIn verifies an email/password pair against the identity service.
func (c *Client) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	var body struct {
		LocalID string `json:"localId"`
	}
	var errBody apiError

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(map[string]any{
			"email":             email,
			"password":          password,
			"returnSecureToken": true,
		}).
		SetResult(&body).
		SetError(&errBody).
		Post("/accounts:signInWithPassword")
	if err != nil {
		return nil, fmt.Errorf("identity service unreachable: %w", err)
	}

	if !resp.IsSuccess() {
		c.logger.Info("Identity sign-in rejected",
			zap.String("email", email),
			zap.String("reason", errBody.Error.Message),
		)
		return &SignInResult{Success: false, Error: errBody.Error.Message}, nil
	}
	return &SignInResult{Success: true, UserID: body.LocalID}, nil
}

// SendPasswordResetEmail asks the identity service to email a reset link.
func (c *Client) SendPasswordResetEmail(ctx context.Context, email string) error {
	var errBody apiError

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(map[string]string{
			"requestType": "PASSWORD_RESET",
			"email":       email,
		}).
		SetError(&errBody).
		Post("/accounts:sendOobCode")
	if err != nil {
		return fmt.Errorf("identity service unreachable: %w", err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("password reset refused: %s", errBody.Error.Message)
	}
	return nil
}
