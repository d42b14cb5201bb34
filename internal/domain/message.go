package domain

import (
	"fmt"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Depth levels accepted alongside a chat message.
const (
	MinDepth     = 1
	MaxDepth     = 3
	DefaultDepth = 1
)

// Source is a citation attached to an assistant reply.
type Source struct {
	Title string `json:"title"`
}

// Feedback is the tri-state helpfulness rating of an assistant message.
type Feedback int

const (
	FeedbackUnset Feedback = iota
	FeedbackHelpful
	FeedbackUnhelpful
)

var feedbackNames = [...]string{"unset", "helpful", "unhelpful"}

func (f Feedback) String() string {
	if f < 0 || int(f) >= len(feedbackNames) {
		return fmt.Sprintf("Feedback(%d)", int(f))
	}
	return feedbackNames[f]
}

// MarshalText implements encoding.TextMarshaler.
func (f Feedback) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// FeedbackFor maps a helpful flag to its rating.
func FeedbackFor(isHelpful bool) Feedback {
	if isHelpful {
		return FeedbackHelpful
	}
	return FeedbackUnhelpful
}

// Message is one entry in the conversation buffer. ID is zero when the server
// has not assigned one.
type Message struct {
	ID          int64    `json:"id,omitempty"`
	Role        Role     `json:"role"`
	Text        string   `json:"text"`
	SourceLabel string   `json:"source_label,omitempty"`
	Sources     []Source `json:"sources,omitempty"`
	Feedback    Feedback `json:"feedback"`
	Synthetic   bool     `json:"synthetic,omitempty"`
}

// AcceptsFeedback returns true if feedback can be attached to the message.
func (m Message) AcceptsFeedback() bool {
	return m.Role == RoleAssistant && m.ID != 0 && !m.Synthetic
}

// StoredMessage is a message as returned by the conversation history endpoint.
type StoredMessage struct {
	ID      int64  `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SendRequest is the body of the message-send call. A nil ConversationID
// starts a new conversation.
type SendRequest struct {
	ChildID        int64  `json:"child_id"`
	ConversationID *int64 `json:"conversation_id"`
	Text           string `json:"text"`
	Depth          int    `json:"current_depth"`
}

// SendResult is the assistant reply to a sent message.
type SendResult struct {
	ID             int64    `json:"id"`
	ConversationID int64    `json:"conversation_id"`
	Text           string   `json:"text"`
	SourceLabel    string   `json:"source_label,omitempty"`
	Folder         string   `json:"folder,omitempty"`
	Sources        []Source `json:"sources,omitempty"`
}

// FeedbackRequest is the body of the feedback call.
type FeedbackRequest struct {
	MessageID int64 `json:"message_id"`
	ChildID   int64 `json:"child_id"`
	IsHelpful bool  `json:"is_helpful"`
}
