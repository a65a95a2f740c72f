package api

import (
	"context"
	"net/http"

	"flashmind-student/internal/domain"
)

// Login exchanges credentials for tokens and the user profile.
func (c *Client) Login(ctx context.Context, email, password string) (domain.LoginResponse, error) {
	var out domain.LoginResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

// Signup creates an account; the payload of the created account is not needed.
func (c *Client) Signup(ctx context.Context, req domain.SignupRequest) error {
	return c.do(ctx, "signup", http.MethodPost, "/auth/signup", req, nil)
}

// Refresh trades a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (domain.LoginResponse, error) {
	var out domain.LoginResponse
	err := c.do(ctx, "refresh", http.MethodPost, "/auth/refresh-token", map[string]string{
		"refreshToken": refreshToken,
	}, &out)
	return out, err
}

// Logout tells the backend to drop the refresh token issued for email.
func (c *Client) Logout(ctx context.Context, email string) error {
	return c.do(ctx, "logout", http.MethodPost, "/auth/logout", map[string]string{"email": email}, nil)
}
