package domain

import "fmt"

// ViewSection is one of the mutually exclusive UI sections.
type ViewSection int

const (
	SectionAuth ViewSection = iota
	SectionChildList
	SectionChat
	SectionDashboard
	SectionChildDetail
)

var sectionNames = [...]string{"auth", "child_list", "chat", "dashboard", "child_detail"}

func (v ViewSection) String() string {
	if v < 0 || int(v) >= len(sectionNames) {
		return fmt.Sprintf("ViewSection(%d)", int(v))
	}
	return sectionNames[v]
}

// MarshalText implements encoding.TextMarshaler.
func (v ViewSection) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// ChatStatus is the state of the active conversation.
type ChatStatus int

const (
	ChatIdle ChatStatus = iota
	ChatAwaitingResponse
)

func (s ChatStatus) String() string {
	if s == ChatAwaitingResponse {
		return "awaiting_response"
	}
	return "idle"
}

// MarshalText implements encoding.TextMarshaler.
func (s ChatStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Theme is the persisted colour scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)
