package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashureev/nia-console/internal/controller"
	"github.com/ashureev/nia-console/internal/domain"
	"github.com/ashureev/nia-console/internal/tutorapi/fakeapi"
)

const (
	testEmail    = "a@b.com"
	testPassword = "secret123"
)

// setup points the CLI at a fake API and a fresh state file. Tests using it
// cannot run in parallel: they share the environment and readPasswordFunc.
func setup(t *testing.T) *fakeapi.API {
	t.Helper()

	fake := fakeapi.New()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	fake.AddParent("A", testEmail, testPassword)

	t.Setenv("NIA_API_URL", srv.URL+fakeapi.BasePath)
	t.Setenv("NIA_STATE_PATH", filepath.Join(t.TempDir(), "state.db"))
	t.Setenv("NIA_LOG_LEVEL", "error")
	t.Setenv("NO_COLOR", "1")

	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(testPassword), nil }
	t.Cleanup(func() { readPasswordFunc = orig })

	return fake
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := &app{in: strings.NewReader(stdin), out: &out, errOut: &errOut}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	a.close()
	return out.String(), err
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := run(t, stdin, args...)
	if err != nil {
		t.Fatalf("nia %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func login(t *testing.T) {
	t.Helper()
	mustRun(t, "", "login", "--email", testEmail)
}

func TestLoginPersistsSession(t *testing.T) {
	setup(t)

	out := mustRun(t, "", "login", "--email", testEmail)
	if !strings.Contains(out, "Welcome back! 👋") || !strings.Contains(out, "Your children") {
		t.Fatalf("unexpected login output:\n%s", out)
	}

	if out := mustRun(t, "", "whoami"); strings.TrimSpace(out) != "A <a@b.com>" {
		t.Errorf("expected restored session, got %q", out)
	}
}

func TestLoginPromptsForEmail(t *testing.T) {
	setup(t)
	out := mustRun(t, testEmail+"\n", "login")
	if !strings.Contains(out, "Welcome back! 👋") {
		t.Fatalf("unexpected login output:\n%s", out)
	}
}

func TestLoginFailure(t *testing.T) {
	setup(t)
	readPasswordFunc = func(int) ([]byte, error) { return []byte("wrong"), nil }

	_, err := run(t, "", "login", "--email", testEmail)
	if err == nil {
		t.Fatal("expected login failure")
	}
	if got := errorText(err); got != "Incorrect email or password" {
		t.Errorf("unexpected error text %q", got)
	}
}

func TestWhoamiRequiresLogin(t *testing.T) {
	setup(t)
	_, err := run(t, "", "whoami")
	if !errors.Is(err, controller.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if !strings.Contains(errorText(err), "nia login") {
		t.Errorf("expected a login hint, got %q", errorText(err))
	}
}

func TestLogout(t *testing.T) {
	setup(t)
	login(t)

	if out := mustRun(t, "", "logout"); !strings.Contains(out, "Logged out.") {
		t.Errorf("unexpected logout output %q", out)
	}
	if _, err := run(t, "", "whoami"); !errors.Is(err, controller.ErrNotAuthenticated) {
		t.Fatalf("expected session cleared, got %v", err)
	}
}

func TestRegisterWithoutConsent(t *testing.T) {
	fake := setup(t)

	_, err := run(t, "", "register", "--name", "B", "--email", "b@c.com")
	var validationErr *controller.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fake.Count(fakeapi.OpRegister) != 0 {
		t.Error("register must not reach the API without consent")
	}
}

func TestRegisterWithConsent(t *testing.T) {
	setup(t)

	out := mustRun(t, "", "register", "--name", "B", "--email", "b@c.com", "--consent")
	if !strings.Contains(out, "Account created successfully! 🎉") || !strings.Contains(out, "Welcome back! 👋") {
		t.Fatalf("unexpected register output:\n%s", out)
	}
}

func TestChildrenAddAndList(t *testing.T) {
	setup(t)
	login(t)

	out := mustRun(t, "", "children", "add", "--first-name", "Maya", "--dob", "2015-04-02", "--grade", "3", "--pin", "1234")
	if !strings.Contains(out, "Maya's profile created! 🎉") {
		t.Fatalf("unexpected add output:\n%s", out)
	}

	out = mustRun(t, "", "children")
	if !strings.Contains(out, "Maya · Grade 3 · English") {
		t.Errorf("expected child in list:\n%s", out)
	}

	_, err := run(t, "", "children", "add", "--first-name", "Leo", "--pin", "1234")
	if got := errorText(err); got != controller.RequiredFieldsText {
		t.Errorf("expected required fields error, got %q", got)
	}
}

func TestChatSession(t *testing.T) {
	fake := setup(t)
	child := fake.AddChild(testEmail, domain.ChildProfile{FirstName: "Maya", GradeLevel: "3"})
	login(t)

	stdin := "/skip\nWhat is 2+2?\n/depth 9\n/quit\n"
	out := mustRun(t, stdin, "chat", fmt.Sprint(child.ID), "--depth", "2")

	for _, want := range []string{
		"Chatting with Maya · Grade 3",
		"(1/4) Welcome to Nia! 🌟",
		"Nia: Answer to: What is 2+2?",
		"/good",
		"depth must be between 1 and 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	sends := fake.RequestsFor(fakeapi.OpSendMessage)
	if len(sends) != 1 || !strings.Contains(string(sends[0].Body), `"current_depth":2`) {
		t.Fatalf("expected one send at depth 2, got %+v", sends)
	}
}

func TestChatRejectsBadDepth(t *testing.T) {
	setup(t)
	if _, err := run(t, "", "chat", "1", "--depth", "4"); err == nil {
		t.Fatal("expected depth error")
	}
}

func TestPrintTranscript(t *testing.T) {
	fake := setup(t)
	child := fake.AddChild(testEmail, domain.ChildProfile{FirstName: "Maya", GradeLevel: "3"})
	convID := fake.AddConversation(child.ID, "Fractions", "Math",
		fakeapi.SeedMessage{Role: domain.RoleUser, Content: "What is 1/2?"},
		fakeapi.SeedMessage{Role: domain.RoleAssistant, Content: "Half.", SourceLabel: "📚 From Curriculum"},
	)
	login(t)

	out := mustRun(t, "", "print", fmt.Sprint(convID))
	for _, want := range []string{"Fractions", "👤 Student", "🤖 Nia", "Half."} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in transcript:\n%s", want, out)
		}
	}
}

func TestDashboardAndChildDetail(t *testing.T) {
	fake := setup(t)
	child := fake.AddChild(testEmail, domain.ChildProfile{FirstName: "Maya", GradeLevel: "3"})
	login(t)

	if out := mustRun(t, "", "dashboard"); !strings.Contains(out, "Parent Dashboard") || !strings.Contains(out, "Last active: Never") {
		t.Errorf("unexpected dashboard output:\n%s", out)
	}
	if out := mustRun(t, "", "child", fmt.Sprint(child.ID)); !strings.Contains(out, "Maya's Analytics") {
		t.Errorf("unexpected child detail output:\n%s", out)
	}
}

func TestThemeCommand(t *testing.T) {
	setup(t)

	if out := mustRun(t, "", "theme"); strings.TrimSpace(out) != "light" {
		t.Errorf("expected default light theme, got %q", out)
	}
	if out := mustRun(t, "", "theme", "dark"); strings.TrimSpace(out) != "dark" {
		t.Errorf("expected dark, got %q", out)
	}
	if out := mustRun(t, "", "theme", "toggle"); strings.TrimSpace(out) != "light" {
		t.Errorf("expected toggle back to light, got %q", out)
	}
	if _, err := run(t, "", "theme", "blue"); err == nil {
		t.Error("expected unknown theme error")
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := parseID(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseID(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestNewLoggerLevels(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	if newLogger(&buf, &buf, "", false).Enabled(ctx, slog.LevelInfo) {
		t.Error("interactive commands default to warn")
	}
	if !newLogger(&buf, &buf, "", true).Enabled(ctx, slog.LevelInfo) {
		t.Error("serve defaults to info")
	}
	if !newLogger(&buf, &buf, "debug", false).Enabled(ctx, slog.LevelDebug) {
		t.Error("expected explicit debug level")
	}
}
