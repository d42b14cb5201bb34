package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is a time that tolerates the zone-less ISO 8601 strings emitted by
// the API.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// ConversationSummary is a conversation as listed in a folder or dashboard.
type ConversationSummary struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Folder       string    `json:"folder,omitempty"`
	MessageCount int       `json:"message_count"`
	CreatedAt    Timestamp `json:"created_at"`
	UpdatedAt    Timestamp `json:"updated_at"`
}

// ChildRef is the abbreviated child record embedded in dashboard payloads.
type ChildRef struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Nickname   string `json:"nickname,omitempty"`
	GradeLevel string `json:"grade_level,omitempty"`
}

// TranscriptMessage is a message of the full (print) conversation view.
// Feedback is nil when the child never rated the message.
type TranscriptMessage struct {
	ID          int64     `json:"id"`
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	SourceLabel string    `json:"source_label,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
	Feedback    *bool     `json:"feedback"`
}

// FullConversation is the parent-facing transcript of one conversation.
type FullConversation struct {
	Conversation ConversationSummary `json:"conversation"`
	Child        ChildRef            `json:"child"`
	Messages     []TranscriptMessage `json:"messages"`
}
