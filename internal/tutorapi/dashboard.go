package tutorapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ashureev/nia-console/internal/domain"
)

// DashboardOverview returns the parent-wide totals and recent activity.
func (c *Client) DashboardOverview(ctx context.Context, token string) (*domain.Overview, error) {
	var out domain.Overview
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/parent/dashboard/overview",
		token:  token,
		auth:   authBearer,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ChildDashboard returns the aggregate of one child over the last days.
func (c *Client) ChildDashboard(ctx context.Context, token string, childID int64, days int) (*domain.ChildDashboard, error) {
	var out domain.ChildDashboard
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   fmt.Sprintf("/parent/dashboard/child/%d", childID),
		query:  url.Values{"days": {strconv.Itoa(days)}},
		token:  token,
		auth:   authBearer,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// FullConversation returns the printable transcript of a conversation.
func (c *Client) FullConversation(ctx context.Context, token string, conversationID int64) (*domain.FullConversation, error) {
	var out domain.FullConversation
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   fmt.Sprintf("/parent/dashboard/conversation/%d/full", conversationID),
		token:  token,
		auth:   authBearer,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
