package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ashureev/nia-console/internal/controller"
	"github.com/ashureev/nia-console/internal/dashboard"
	"github.com/ashureev/nia-console/internal/domain"
)

func (r *Renderer) dashboard(s controller.State) {
	r.line(r.paint(ansiBold, "Parent Dashboard"))
	if o := s.Dashboard.Overview; o != nil {
		r.line(fmt.Sprintf("Children %d · Conversations %d · Messages %d · Topics %d",
			o.TotalChildren, o.TotalConversations, o.TotalMessages, len(o.TopicsCovered)))
	}

	r.blank()
	r.line(r.paint(ansiBold, "Activity this week"))
	r.Chart(s.Dashboard.Activity, "No activity this week")

	r.blank()
	r.line(r.paint(ansiBold, "Children"))
	if len(s.Dashboard.Cards) == 0 {
		r.line(r.paint(ansiDim, "No children yet"))
	}
	for _, card := range s.Dashboard.Cards {
		r.line(fmt.Sprintf("  [%d] %s · Grade %s", card.Child.ID, childName(card.Child), card.Child.GradeLevel))
		r.line(fmt.Sprintf("      %d conversations · %d topics · Last active: %s",
			card.Stats.Conversations, card.Stats.Topics, card.Stats.LastActive))
	}
}

func (r *Renderer) childDetail(s controller.State) {
	d := s.Dashboard.Detail
	if d == nil {
		return
	}
	r.line(r.paint(ansiBold, d.Child.Name+"'s Analytics"))
	r.line(fmt.Sprintf("Conversations %d · Avg messages %s", d.TotalConversations, formatAvg(d.AvgMessages)))

	r.blank()
	r.line(r.paint(ansiBold, "Daily activity"))
	r.Chart(d.Activity, "No activity in this period")

	r.blank()
	r.line(r.paint(ansiBold, "Topics"))
	r.Topics(d.Topics)

	r.blank()
	r.line(r.paint(ansiBold, "Recent conversations"))
	if len(d.RecentConversations) == 0 {
		r.line(r.paint(ansiDim, "No conversations yet"))
	}
	for _, c := range d.RecentConversations {
		r.line(fmt.Sprintf("  [%d] %s", c.ID, c.Title))
		r.line(fmt.Sprintf("      %s %s • %d messages • %s", FolderIcon(c.Folder), c.Folder, c.MessageCount, formatDate(c.UpdatedAt)))
	}

	if full := s.Dashboard.FullConversation; full != nil {
		r.blank()
		r.Transcript(full)
	}
}

// Chart writes an activity chart as horizontal bars, or empty when the chart
// has no activity.
func (r *Renderer) Chart(c dashboard.Chart, empty string) {
	if c.Empty {
		r.line(r.paint(ansiDim, empty))
		return
	}
	for _, bar := range c.Bars {
		r.line(fmt.Sprintf("  %-3s %-*s %d", bar.Label, r.barWidth, r.bar(bar.Height), bar.Messages))
	}
}

// Topics writes a topic breakdown.
func (r *Renderer) Topics(b dashboard.TopicBreakdown) {
	if b.Empty {
		r.line(r.paint(ansiDim, "No topics explored yet"))
		return
	}
	for _, t := range b.Topics {
		r.line(fmt.Sprintf("  %s %s · %s", FolderIcon(t.Name), t.Name, plural(t.Count, "conversation")))
		r.line("    " + r.paint(ansiAccent, r.bar(t.Width)))
	}
}

// bar returns a bar of pct percent of the bar width. Non-zero values get at
// least one cell.
func (r *Renderer) bar(pct float64) string {
	cells := int(math.Round(pct / 100 * float64(r.barWidth)))
	if cells == 0 && pct > 0 {
		cells = 1
	}
	return strings.Repeat("█", cells)
}

func formatAvg(avg float64) string {
	return strconv.FormatFloat(avg, 'f', -1, 64)
}

// Transcript writes the printable view of a conversation.
func (r *Renderer) Transcript(full *domain.FullConversation) {
	r.line(r.paint(ansiBold, full.Conversation.Title))
	if full.Child.Name != "" {
		r.line(r.paint(ansiDim, full.Child.Name))
	}
	for _, m := range full.Messages {
		r.blank()
		role := "🤖 Nia"
		if m.Role == domain.RoleUser {
			role = "👤 Student"
		}
		stamp := ""
		if !m.CreatedAt.IsZero() {
			stamp = "  " + m.CreatedAt.Format("1/2/2006, 3:04:05 PM")
		}
		r.line(r.paint(ansiBold, role) + r.paint(ansiDim, stamp))
		if m.SourceLabel != "" {
			r.line(r.paint(ansiAccent, m.SourceLabel))
		}
		r.line(m.Content)
		if m.Feedback != nil {
			if *m.Feedback {
				r.line(r.paint(ansiDim, "Feedback: 👍 Helpful"))
			} else {
				r.line(r.paint(ansiDim, "Feedback: 👎 Not Helpful"))
			}
		}
	}
}
