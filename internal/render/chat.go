package render

import (
	"fmt"
	"strings"

	"github.com/ashureev/nia-console/internal/controller"
	"github.com/ashureev/nia-console/internal/dashboard"
	"github.com/ashureev/nia-console/internal/domain"
)

func (r *Renderer) chat(s controller.State) {
	if s.Child != nil {
		r.line(fmt.Sprintf("Chatting with %s · Grade %s", s.Child.FirstName, s.Child.GradeLevel))
	}
	r.Folders(s.Chat.Folders)
	r.blank()

	if len(s.Chat.Messages) == 0 && !s.Chat.Typing {
		r.line(r.paint(ansiDim, "Ask a question to start a new conversation."))
	}
	for _, m := range s.Chat.Messages {
		r.Message(m)
	}
	if s.Chat.Typing {
		r.line(r.paint(ansiDim, "Nia is typing…"))
	}

	if f := s.Chat.OpenFolder; f != nil {
		r.blank()
		r.Folder(f)
	}
	if s.Onboarding.Active {
		r.blank()
		r.Onboarding(s.Onboarding)
	}
}

// Folders writes the folder list of the active child.
func (r *Renderer) Folders(folders []string) {
	if len(folders) == 0 {
		r.line(r.paint(ansiDim, "No conversations yet"))
		return
	}
	parts := make([]string, 0, len(folders))
	for _, f := range folders {
		parts = append(parts, FolderIcon(f)+" "+f)
	}
	r.line("Folders: " + strings.Join(parts, "  "))
}

// Message writes one buffered chat message.
func (r *Renderer) Message(m domain.Message) {
	if m.Role == domain.RoleUser {
		r.line(r.paint(ansiUser, "You: ") + m.Text)
		return
	}

	if m.SourceLabel != "" {
		r.line(r.paint(ansiAccent, "["+m.SourceLabel+"]"))
	}
	prefix := r.paint(ansiAssistant, "Nia: ")
	if m.Synthetic {
		r.line(prefix + r.paint(ansiError, m.Text))
		return
	}
	r.line(prefix + m.Text)

	if len(m.Sources) > 0 {
		r.line("  📚 Sources:")
		for _, src := range m.Sources {
			r.line("   - " + src.Title)
		}
	}
	if !m.AcceptsFeedback() {
		return
	}
	switch m.Feedback {
	case domain.FeedbackHelpful:
		r.line(r.paint(ansiDim, fmt.Sprintf("  #%d rated 👍 Helpful", m.ID)))
	case domain.FeedbackUnhelpful:
		r.line(r.paint(ansiDim, fmt.Sprintf("  #%d rated 👎 Not Helpful", m.ID)))
	default:
		r.line(r.paint(ansiDim, fmt.Sprintf("  #%d  /good %d  /bad %d", m.ID, m.ID, m.ID)))
	}
}

// Folder writes the conversations of an opened folder.
func (r *Renderer) Folder(f *controller.FolderView) {
	r.line(r.paint(ansiBold, fmt.Sprintf("%s %s Conversations", FolderIcon(f.Name), f.Name)))
	if len(f.Conversations) == 0 {
		r.line(r.paint(ansiDim, "No conversations in this folder yet"))
		return
	}
	for _, c := range f.Conversations {
		r.line(fmt.Sprintf("  [%d] %s · %s", c.ID, c.Title, formatDate(c.UpdatedAt)))
	}
}

// Onboarding writes the current onboarding step, if any.
func (r *Renderer) Onboarding(o controller.Onboarding) {
	if !o.Active || o.Step < 0 || o.Step >= len(controller.OnboardingSteps) {
		return
	}
	step := controller.OnboardingSteps[o.Step]
	r.line(r.paint(ansiBold, fmt.Sprintf("(%d/%d) %s", o.Step+1, len(controller.OnboardingSteps), step.Title)))
	r.line(step.Content)
	next := "/next"
	if o.Step == len(controller.OnboardingSteps)-1 {
		next = "/next to get started"
	}
	r.line(r.paint(ansiDim, next+"  /skip"))
}

func formatDate(ts domain.Timestamp) string {
	if ts.IsZero() {
		return domain.LastActiveUnknown
	}
	return ts.Format(dashboard.DateLayout)
}
