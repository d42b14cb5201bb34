// Package dashboard derives the parent analytics views from the dashboard
// endpoints: activity charts, topic breakdowns and per-child quick stats.
package dashboard

import (
	"sort"
	"time"

	"github.com/ashureev/nia-console/internal/domain"
)

// DateLayout is the display format of calendar dates.
const DateLayout = "1/2/2006"

// Bar is one day of an activity chart. Height is a percentage of the busiest
// day in the window.
type Bar struct {
	Date     string  `json:"date"`
	Label    string  `json:"label"`
	Messages int     `json:"messages"`
	Height   float64 `json:"height"`
}

// Chart is an activity bar chart. Empty is set when the window has no
// activity and the chart must render its empty state.
type Chart struct {
	Bars  []Bar `json:"bars"`
	Max   int   `json:"max"`
	Empty bool  `json:"empty"`
}

// ActivityChart builds a chart from an activity series in server order.
func ActivityChart(points []domain.ActivityPoint) Chart {
	maxMessages := 0
	for _, p := range points {
		if p.Messages > maxMessages {
			maxMessages = p.Messages
		}
	}
	if len(points) == 0 || maxMessages == 0 {
		return Chart{Empty: true}
	}

	bars := make([]Bar, 0, len(points))
	for _, p := range points {
		bars = append(bars, Bar{
			Date:     p.Date,
			Label:    weekday(p.Date),
			Messages: p.Messages,
			Height:   float64(p.Messages) / float64(maxMessages) * 100,
		})
	}
	return Chart{Bars: bars, Max: maxMessages}
}

func weekday(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Mon")
}

// Topic is one row of a topic breakdown. Width is a percentage of the most
// frequent topic.
type Topic struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Width float64 `json:"width"`
}

// TopicBreakdown is the topic-frequency view of a child.
type TopicBreakdown struct {
	Topics []Topic `json:"topics"`
	Empty  bool    `json:"empty"`
}

// Topics builds a breakdown ordered by count, most frequent first, ties by
// name.
func Topics(breakdown map[string]int) TopicBreakdown {
	maxCount := 0
	for _, count := range breakdown {
		if count > maxCount {
			maxCount = count
		}
	}
	if len(breakdown) == 0 || maxCount == 0 {
		return TopicBreakdown{Empty: true}
	}

	topics := make([]Topic, 0, len(breakdown))
	for name, count := range breakdown {
		topics = append(topics, Topic{
			Name:  name,
			Count: count,
			Width: float64(count) / float64(maxCount) * 100,
		})
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Count != topics[j].Count {
			return topics[i].Count > topics[j].Count
		}
		return topics[i].Name < topics[j].Name
	})
	return TopicBreakdown{Topics: topics}
}

// NewestFirst returns a copy of convs in reverse chronological order of their
// last update.
func NewestFirst(convs []domain.ConversationSummary) []domain.ConversationSummary {
	out := append([]domain.ConversationSummary(nil), convs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt.Time)
	})
	return out
}

// Detail is the child-detail view.
type Detail struct {
	Child               domain.ChildRef              `json:"child"`
	TotalConversations  int                          `json:"total_conversations"`
	AvgMessages         float64                      `json:"avg_messages_per_conversation"`
	Activity            Chart                        `json:"activity"`
	Topics              TopicBreakdown               `json:"topics"`
	RecentConversations []domain.ConversationSummary `json:"recent_conversations"`
}

// NewDetail derives the child-detail view from a per-child aggregate.
func NewDetail(d *domain.ChildDashboard) Detail {
	return Detail{
		Child:               d.Child,
		TotalConversations:  d.TotalConversations,
		AvgMessages:         d.AvgMessagesPerConversation,
		Activity:            ActivityChart(d.DailyActivity),
		Topics:              Topics(d.TopicsBreakdown),
		RecentConversations: NewestFirst(d.RecentConversations),
	}
}

// QuickStatsFrom reduces a per-child aggregate to its summary card.
func QuickStatsFrom(childID int64, d *domain.ChildDashboard) domain.QuickStats {
	stats := domain.QuickStats{
		ChildID:       childID,
		Conversations: d.TotalConversations,
		Topics:        len(d.TopicsBreakdown),
		LastActive:    domain.LastActiveNever,
	}

	recent := NewestFirst(d.RecentConversations)
	if len(recent) == 0 {
		return stats
	}
	last := recent[0].UpdatedAt
	if last.IsZero() {
		stats.LastActive = domain.LastActiveUnknown
		return stats
	}
	at := last.Time
	stats.LastActive = at.Format(DateLayout)
	stats.LastActiveAt = &at
	return stats
}

// PlaceholderStats is the card shown when a child's stats could not be
// fetched.
func PlaceholderStats(childID int64) domain.QuickStats {
	return domain.QuickStats{
		ChildID:    childID,
		LastActive: domain.LastActiveUnknown,
		Degraded:   true,
	}
}
