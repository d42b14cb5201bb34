package tutorapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ashureev/nia-console/internal/domain"
)

// ListFolders returns the topic folders of a child.
func (c *Client) ListFolders(ctx context.Context, token string, childID int64) ([]string, error) {
	var out struct {
		Folders []string `json:"folders"`
	}
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   fmt.Sprintf("/conversation/folders/%d", childID),
		token:  token,
		auth:   authConversation,
	}, &out)
	if err != nil {
		return nil, err
	}

	folders := out.Folders[:0]
	for _, folder := range out.Folders {
		if folder != "" {
			folders = append(folders, folder)
		}
	}
	return folders, nil
}

// ListConversations returns the conversations of a child, newest first.
// An empty folder lists every conversation.
func (c *Client) ListConversations(ctx context.Context, token string, childID int64, folder string) ([]domain.ConversationSummary, error) {
	var query url.Values
	if folder != "" {
		query = url.Values{"folder": {folder}}
	}

	var out struct {
		Conversations []domain.ConversationSummary `json:"conversations"`
	}
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   fmt.Sprintf("/conversation/conversations/%d", childID),
		query:  query,
		token:  token,
		auth:   authConversation,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// LoadMessages returns the full message history of a conversation in server order.
func (c *Client) LoadMessages(ctx context.Context, token string, conversationID int64) ([]domain.StoredMessage, error) {
	var out struct {
		Messages []domain.StoredMessage `json:"messages"`
	}
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   fmt.Sprintf("/conversation/conversations/%d/messages", conversationID),
		token:  token,
		auth:   authConversation,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// SendMessage posts a chat message and returns the assistant reply.
func (c *Client) SendMessage(ctx context.Context, token string, req domain.SendRequest) (*domain.SendResult, error) {
	var out domain.SendResult
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/conversation/message",
		token:  token,
		auth:   authConversation,
		body:   req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitFeedback rates an assistant message.
func (c *Client) SubmitFeedback(ctx context.Context, token string, req domain.FeedbackRequest) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/conversation/feedback",
		token:  token,
		auth:   authConversation,
		body:   req,
	}, nil)
}
