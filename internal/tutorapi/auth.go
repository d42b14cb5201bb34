package tutorapi

import (
	"context"
	"net/http"

	"github.com/ashureev/nia-console/internal/domain"
)

// Login exchanges parent credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	var out domain.AuthResult
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/parent/login",
		body:   map[string]string{"email": email, "password": password},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a parent account.
func (c *Client) Register(ctx context.Context, fullName, email, password string) (*domain.AuthResult, error) {
	var out domain.AuthResult
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/parent/register",
		body:   map[string]string{"full_name": fullName, "email": email, "password": password},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
