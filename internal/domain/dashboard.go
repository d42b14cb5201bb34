package domain

import "time"

// ActivityPoint is one day of message activity.
type ActivityPoint struct {
	Date     string `json:"date"`
	Messages int    `json:"messages"`
}

// Overview is the parent-wide dashboard aggregate.
type Overview struct {
	TotalChildren      int             `json:"total_children"`
	TotalConversations int             `json:"total_conversations"`
	TotalMessages      int             `json:"total_messages"`
	TopicsCovered      []string        `json:"topics_covered"`
	RecentActivity     []ActivityPoint `json:"recent_activity"`
}

// ChildDashboard is the per-child aggregate over a window of days.
type ChildDashboard struct {
	Child                      ChildRef              `json:"child"`
	TotalConversations         int                   `json:"total_conversations"`
	TopicsBreakdown            map[string]int        `json:"topics_breakdown"`
	DailyActivity              []ActivityPoint       `json:"daily_activity"`
	AvgMessagesPerConversation float64               `json:"avg_messages_per_conversation"`
	RecentConversations        []ConversationSummary `json:"recent_conversations"`
}

// QuickStats is the reduced summary card of one child.
type QuickStats struct {
	ChildID       int64      `json:"child_id"`
	Conversations int        `json:"conversations"`
	Topics        int        `json:"topics"`
	LastActive    string     `json:"last_active"`
	LastActiveAt  *time.Time `json:"last_active_at,omitempty"`
	Degraded      bool       `json:"degraded,omitempty"`
}

// Placeholder labels of QuickStats.LastActive.
const (
	LastActiveNever   = "Never"
	LastActiveUnknown = "Unknown"
)
