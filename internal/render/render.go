// Package render projects controller snapshots into terminal text.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/ashureev/nia-console/internal/controller"
	"github.com/ashureev/nia-console/internal/domain"
)

const (
	ansiReset     = "\x1b[0m"
	ansiBold      = "\x1b[1m"
	ansiDim       = "\x1b[38;5;245m"
	ansiUser      = "\x1b[38;5;220m"
	ansiAssistant = "\x1b[38;5;44m"
	ansiError     = "\x1b[38;5;203m"
	ansiSuccess   = "\x1b[38;5;114m"
	ansiAccent    = "\x1b[38;5;141m"
)

// defaultBarWidth is the width in cells of a full chart bar.
const defaultBarWidth = 30

// Options configures a Renderer.
type Options struct {
	Color    bool
	BarWidth int
}

// Renderer writes snapshots as text.
type Renderer struct {
	w        io.Writer
	color    bool
	barWidth int
}

// New creates a renderer writing to w.
func New(w io.Writer, opts Options) *Renderer {
	if opts.BarWidth <= 0 {
		opts.BarWidth = defaultBarWidth
	}
	return &Renderer{w: w, color: opts.Color, barWidth: opts.BarWidth}
}

// ColorEnabled reports whether w is a terminal that should get colour.
// NO_COLOR disables colour unconditionally.
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var folderIcons = map[string]string{
	"Math":      "📐",
	"Science":   "🔬",
	"History":   "📜",
	"English":   "✍️",
	"Geography": "🌍",
	"Travel":    "✈️",
	"General":   "💬",
}

// FolderIcon returns the icon of a topic folder.
func FolderIcon(folder string) string {
	if icon, ok := folderIcons[folder]; ok {
		return icon
	}
	return "📁"
}

// State writes the active section of s and its pending notifications.
func (r *Renderer) State(s controller.State) {
	r.header(s)
	switch s.Section {
	case domain.SectionAuth:
		r.auth(s)
	case domain.SectionChildList:
		r.childList(s)
	case domain.SectionChat:
		r.chat(s)
	case domain.SectionDashboard:
		r.dashboard(s)
	case domain.SectionChildDetail:
		r.childDetail(s)
	}
	r.Notifications(s.Notifications)
}

// Notifications writes transient notifications, one per line.
func (r *Renderer) Notifications(ns []controller.Notification) {
	for _, n := range ns {
		switch n.Kind {
		case controller.NotifySuccess:
			r.line(r.paint(ansiSuccess, "✅ "+n.Message))
		case controller.NotifyError:
			r.line(r.paint(ansiError, "❌ "+n.Message))
		default:
			r.line("ℹ️ " + n.Message)
		}
	}
}

// Error writes err as the user sees it.
func (r *Renderer) Error(err error, fallback string) {
	r.line(r.paint(ansiError, controller.UserMessage(err, fallback)))
}

func (r *Renderer) header(s controller.State) {
	title := "Nia"
	if s.Parent != nil {
		title += " · " + s.Parent.DisplayName()
	}
	r.line(r.paint(ansiBold, title))
	r.line(r.paint(ansiDim, strings.Repeat("─", len([]rune(title)))))
}

func (r *Renderer) auth(s controller.State) {
	r.line("Log in with `nia login` or create an account with `nia register`.")
	for _, form := range []string{controller.FormLogin, controller.FormRegister} {
		if msg, ok := s.Errors[form]; ok {
			r.line(r.paint(ansiError, msg))
		}
	}
}

func (r *Renderer) childList(s controller.State) {
	r.line(r.paint(ansiBold, "Your children"))
	if len(s.Children) == 0 {
		r.line(r.paint(ansiDim, "No children yet. Add your first child!"))
	}
	for _, c := range s.Children {
		r.line(fmt.Sprintf("  [%d] %s · Grade %s · %s", c.ID, childName(c), c.GradeLevel, c.LanguageName()))
	}
	if msg, ok := s.Errors[controller.FormChild]; ok {
		r.line(r.paint(ansiError, msg))
	}
}

func childName(c domain.ChildProfile) string {
	if c.Nickname == "" {
		return c.FirstName
	}
	return fmt.Sprintf("%s %q", c.FirstName, c.Nickname)
}

func (r *Renderer) paint(code, text string) string {
	if !r.color {
		return text
	}
	return code + text + ansiReset
}

func (r *Renderer) line(text string) {
	fmt.Fprintln(r.w, text) //nolint:errcheck
}

func (r *Renderer) blank() {
	fmt.Fprintln(r.w) //nolint:errcheck
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
