package controller

import (
	"maps"

	"github.com/ashureev/nia-console/internal/dashboard"
	"github.com/ashureev/nia-console/internal/domain"
)

// NotificationKind is the severity of a transient notification.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyInfo    NotificationKind = "info"
)

// Notification is a transient message dismissed automatically after a fixed
// delay.
type Notification struct {
	ID      string           `json:"id"`
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
}

// FolderView is the open folder modal of the chat section.
type FolderView struct {
	Name          string                       `json:"name"`
	Conversations []domain.ConversationSummary `json:"conversations"`
}

// ChatState is the conversation buffer and its request state.
type ChatState struct {
	ConversationID *int64            `json:"conversation_id"`
	Status         domain.ChatStatus `json:"status"`
	Typing         bool              `json:"typing"`
	Messages       []domain.Message  `json:"messages"`
	Folders        []string          `json:"folders"`
	OpenFolder     *FolderView       `json:"open_folder,omitempty"`
}

// ChildCard is one child on the dashboard with its quick stats.
type ChildCard struct {
	Child domain.ChildProfile `json:"child"`
	Stats domain.QuickStats   `json:"stats"`
}

// DashboardState holds the analytics views.
type DashboardState struct {
	Overview         *domain.Overview         `json:"overview,omitempty"`
	Activity         dashboard.Chart          `json:"activity"`
	Cards            []ChildCard              `json:"cards"`
	Detail           *dashboard.Detail        `json:"detail,omitempty"`
	FullConversation *domain.FullConversation `json:"full_conversation,omitempty"`
}

// OnboardingStep is one card of the first-chat walkthrough.
type OnboardingStep struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// OnboardingSteps is the walkthrough shown on the first visit to chat.
var OnboardingSteps = []OnboardingStep{
	{Title: "Welcome to Nia! 🌟", Content: "I'm your AI learning assistant! I help K-12 students learn using curated curriculum content."},
	{Title: "Ask Me Anything! 💡", Content: "Try questions like 'How do I add fractions?' or 'What is photosynthesis?' I'll use our curriculum to help you learn!"},
	{Title: "See My Sources 📚", Content: "I always show where my information comes from - either from our curriculum or my general knowledge."},
	{Title: "Choose Your Depth 📊", Content: "Select Level 1 for basics, Level 2 for more details, or Level 3 for comprehensive explanations!"},
}

// Onboarding is the walkthrough overlay state.
type Onboarding struct {
	Active bool `json:"active"`
	Step   int  `json:"step"`
}

// State is an immutable snapshot of the controller. Snapshots handed out by
// the controller are never modified afterwards.
type State struct {
	Section       domain.ViewSection    `json:"section"`
	Parent        *domain.Parent        `json:"parent,omitempty"`
	Children      []domain.ChildProfile `json:"children"`
	Child         *domain.ChildProfile  `json:"child,omitempty"`
	Chat          ChatState             `json:"chat"`
	Dashboard     DashboardState        `json:"dashboard"`
	Onboarding    Onboarding            `json:"onboarding"`
	Theme         domain.Theme          `json:"theme"`
	Notifications []Notification        `json:"notifications"`
	Errors        map[string]string     `json:"errors,omitempty"`
	ViewID        string                `json:"view_id"`
	Version       uint64                `json:"version"`

	token string
}

// Authenticated returns true if the snapshot holds a session.
func (s State) Authenticated() bool {
	return s.token != ""
}

// Message returns the buffered message with id.
func (s State) Message(id int64) (domain.Message, bool) {
	for _, m := range s.Chat.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Message{}, false
}

// ChildByID returns the loaded child with id.
func (s State) ChildByID(id int64) (domain.ChildProfile, bool) {
	for _, c := range s.Children {
		if c.ID == id {
			return c, true
		}
	}
	return domain.ChildProfile{}, false
}

func initialState(viewID string) State {
	return State{
		Section: domain.SectionAuth,
		Theme:   domain.ThemeLight,
		ViewID:  viewID,
	}
}

func (s State) clone() State {
	out := s
	if s.Parent != nil {
		p := *s.Parent
		out.Parent = &p
	}
	if s.Child != nil {
		c := *s.Child
		out.Child = &c
	}
	out.Children = cloneSlice(s.Children)
	out.Notifications = cloneSlice(s.Notifications)
	out.Errors = maps.Clone(s.Errors)
	out.Chat = s.Chat.clone()
	out.Dashboard = s.Dashboard.clone()
	return out
}

func (c ChatState) clone() ChatState {
	out := c
	if c.ConversationID != nil {
		id := *c.ConversationID
		out.ConversationID = &id
	}
	if c.Messages != nil {
		out.Messages = make([]domain.Message, len(c.Messages))
		for i, m := range c.Messages {
			m.Sources = cloneSlice(m.Sources)
			out.Messages[i] = m
		}
	}
	out.Folders = cloneSlice(c.Folders)
	if c.OpenFolder != nil {
		f := FolderView{Name: c.OpenFolder.Name, Conversations: cloneSlice(c.OpenFolder.Conversations)}
		out.OpenFolder = &f
	}
	return out
}

func (d DashboardState) clone() DashboardState {
	out := d
	if d.Overview != nil {
		o := *d.Overview
		o.TopicsCovered = cloneSlice(o.TopicsCovered)
		o.RecentActivity = cloneSlice(o.RecentActivity)
		out.Overview = &o
	}
	out.Activity.Bars = cloneSlice(d.Activity.Bars)
	out.Cards = cloneSlice(d.Cards)
	for i := range out.Cards {
		if at := out.Cards[i].Stats.LastActiveAt; at != nil {
			t := *at
			out.Cards[i].Stats.LastActiveAt = &t
		}
	}
	if d.Detail != nil {
		det := *d.Detail
		det.Activity.Bars = cloneSlice(det.Activity.Bars)
		det.Topics.Topics = cloneSlice(det.Topics.Topics)
		det.RecentConversations = cloneSlice(det.RecentConversations)
		out.Detail = &det
	}
	if d.FullConversation != nil {
		f := *d.FullConversation
		f.Messages = cloneSlice(f.Messages)
		for i := range f.Messages {
			if fb := f.Messages[i].Feedback; fb != nil {
				v := *fb
				f.Messages[i].Feedback = &v
			}
		}
		out.FullConversation = &f
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// resetChat clears the conversation buffer and the active conversation.
func (s *State) resetChat() {
	s.Chat = ChatState{Folders: s.Chat.Folders}
}

func (s *State) setError(form, message string) {
	if s.Errors == nil {
		s.Errors = make(map[string]string)
	}
	s.Errors[form] = message
}

func (s *State) clearError(form string) {
	delete(s.Errors, form)
	if len(s.Errors) == 0 {
		s.Errors = nil
	}
}
