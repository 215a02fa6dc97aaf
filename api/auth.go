// ABOUTME: Session and account endpoints: sign-in, password recovery, profile and user menu
// ABOUTME: Sign-in and password recovery go out unauthenticated; the rest carry the bearer token
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/harperreed/bolha/models"
)

// ErrEmptyToken is returned when sign-in succeeds without issuing a token.
var ErrEmptyToken = errors.New("sign-in response carried no token")

type sessionResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// SignIn exchanges credentials for a bearer token and the user identity.
func (c *Client) SignIn(ctx context.Context, creds models.Credentials) (string, models.User, error) {
	var resp sessionResponse
	if err := c.do(ctx, c.anon, http.MethodPost, "sessions", creds, &resp); err != nil {
		return "", models.User{}, err
	}
	if resp.Token == "" {
		return "", models.User{}, ErrEmptyToken
	}
	return resp.Token, resp.User, nil
}

// ForgotPassword asks the backend to mail a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, c.anon, http.MethodPost, "password/forgot", map[string]string{"email": email}, nil)
}

// ResetPassword completes a reset with the token from the mailed link.
func (c *Client) ResetPassword(ctx context.Context, token, password, confirmation string) error {
	body := map[string]string{
		"token":                 token,
		"password":              password,
		"password_confirmation": confirmation,
	}
	return c.do(ctx, c.anon, http.MethodPost, "password/reset", body, nil)
}

// ProfileUpdate is the body of PATCH /users/profile. Password is omitted
// when left blank.
type ProfileUpdate struct {
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	Password       string `json:"password,omitempty"`
	RepeatPassword string `json:"repeatPassword,omitempty"`
}

// UpdateProfile changes the signed-in user's own name or password and
// returns the updated identity.
func (c *Client) UpdateProfile(ctx context.Context, p ProfileUpdate) (models.User, error) {
	var resp dataEnvelope[models.User]
	if err := c.do(ctx, c.authed, http.MethodPatch, "users/profile", p, &resp); err != nil {
		return models.User{}, err
	}
	return resp.Data, nil
}

// UploadAvatar sends the image at path as the signed-in user's avatar
// and returns the URL the backend serves it from.
func (c *Client) UploadAvatar(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open avatar: %w", err)
	}
	defer func() { _ = f.Close() }()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("avatar", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("failed to build avatar upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to read avatar: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to build avatar upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.endpoint("users/avatar"), &buf)
	if err != nil {
		return "", fmt.Errorf("failed to build PATCH users/avatar: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp dataEnvelope[string]
	if err := c.send(c.authed, req, &resp); err != nil {
		return "", err
	}
	return resp.Data, nil
}

// UserMenu fetches the navigation menu the signed-in user may see.
func (c *Client) UserMenu(ctx context.Context) ([]models.MenuEntry, error) {
	var resp dataEnvelope[[]models.MenuEntry]
	if err := c.do(ctx, c.authed, http.MethodPost, "users-security/get-menu", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
