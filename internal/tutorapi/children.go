package tutorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ashureev/nia-console/internal/domain"
)

// ListChildren returns the children of the authenticated parent. The server
// answers with either a bare array or {"children": [...]}.
func (c *Client) ListChildren(ctx context.Context, token string) ([]domain.ChildProfile, error) {
	var raw json.RawMessage
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/children/",
		token:  token,
		auth:   authBearer,
	}, &raw)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var children []domain.ChildProfile
		if err := json.Unmarshal(trimmed, &children); err != nil {
			return nil, fmt.Errorf("%w: decode children: %w", ErrTransport, err)
		}
		return children, nil
	}

	var wrapped struct {
		Children []domain.ChildProfile `json:"children"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: decode children: %w", ErrTransport, err)
	}
	return wrapped.Children, nil
}

type createChildBody struct {
	FirstName         string  `json:"first_name"`
	Nickname          *string `json:"nickname"`
	DateOfBirth       string  `json:"date_of_birth"`
	GradeLevel        string  `json:"grade_level"`
	PreferredLanguage string  `json:"preferred_language"`
	PIN               string  `json:"pin"`
}

// CreateChild registers a child under the authenticated parent.
func (c *Client) CreateChild(ctx context.Context, token string, in domain.ChildInput) (*domain.ChildProfile, error) {
	body := createChildBody{
		FirstName:         in.FirstName,
		DateOfBirth:       in.DateOfBirth,
		GradeLevel:        in.GradeLevel,
		PreferredLanguage: in.PreferredLanguage,
		PIN:               in.PIN,
	}
	if body.PreferredLanguage == "" {
		body.PreferredLanguage = "en"
	}
	if in.Nickname != "" {
		nickname := in.Nickname
		body.Nickname = &nickname
	}

	var out domain.ChildProfile
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/children/",
		token:  token,
		auth:   authBearer,
		body:   body,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
