//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/ashureev/nia-console/internal/controller"
	"github.com/ashureev/nia-console/internal/domain"
	"github.com/ashureev/nia-console/internal/store"
	"github.com/ashureev/nia-console/internal/tutorapi"
	"github.com/ashureev/nia-console/internal/tutorapi/fakeapi"
)

const (
	testEmail    = "a@b.com"
	testPassword = "secret123"
)

type messageView struct {
	ID       int64  `json:"id"`
	Role     string `json:"role"`
	Text     string `json:"text"`
	Feedback string `json:"feedback"`
}

type stateView struct {
	Section  string                `json:"section"`
	Theme    string                `json:"theme"`
	Version  uint64                `json:"version"`
	Parent   *domain.Parent        `json:"parent"`
	Children []domain.ChildProfile `json:"children"`
	Chat     struct {
		Messages []messageView `json:"messages"`
	} `json:"chat"`
	Errors map[string]string `json:"errors"`
}

type testServer struct {
	srv  *httptest.Server
	fake *fakeapi.API
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	fake := fakeapi.New()
	apiSrv := httptest.NewServer(fake)
	t.Cleanup(apiSrv.Close)

	client, err := tutorapi.New(tutorapi.DefaultConfig(apiSrv.URL+fakeapi.BasePath), nil)
	if err != nil {
		t.Fatalf("tutorapi.New failed: %v", err)
	}
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	ctrl, err := controller.New(controller.Options{API: client, Store: repo, NotificationTTL: time.Minute})
	if err != nil {
		t.Fatalf("controller.New failed: %v", err)
	}
	t.Cleanup(ctrl.Close)

	srv := httptest.NewServer(NewRouter(NewHandler(ctrl, []string{"http://localhost:3000"}, nil)))
	t.Cleanup(srv.Close)

	fake.AddParent("A", testEmail, testPassword)
	return &testServer{srv: srv, fake: fake}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, buf.Bytes()
}

func (ts *testServer) state(t *testing.T, method, path string, body interface{}) stateView {
	t.Helper()
	status, data := ts.do(t, method, path, body)
	if status != http.StatusOK {
		t.Fatalf("%s %s: expected 200, got %d: %s", method, path, status, data)
	}
	var s stateView
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return s
}

func (ts *testServer) login(t *testing.T) stateView {
	t.Helper()
	return ts.state(t, http.MethodPost, "/api/session/login", map[string]string{"email": testEmail, "password": testPassword})
}

func errorText(t *testing.T, data []byte) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("decode error body %s: %v", data, err)
	}
	return body["error"]
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&controller.ValidationError{Form: controller.FormChat, Message: "x"}, http.StatusUnprocessableEntity},
		{controller.ErrNotAuthenticated, http.StatusUnauthorized},
		{fmt.Errorf("select: %w", controller.ErrInvalidTransition), http.StatusConflict},
		{controller.ErrSendInFlight, http.StatusConflict},
		{controller.ErrFeedbackLocked, http.StatusConflict},
		{controller.ErrUnknownChild, http.StatusNotFound},
		{controller.ErrFeedbackUnavailable, http.StatusNotFound},
		{&tutorapi.APIError{Status: http.StatusBadRequest, Detail: "Email already registered"}, http.StatusBadRequest},
		{fmt.Errorf("%w: dial", tutorapi.ErrTransport), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	if status, _ := ts.do(t, http.MethodGet, "/health", nil); status != http.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
}

func TestLoginFlow(t *testing.T) {
	ts := newTestServer(t)

	s := ts.state(t, http.MethodGet, "/api/state", nil)
	if s.Section != "auth" || s.Parent != nil {
		t.Fatalf("expected unauthenticated auth state, got %+v", s)
	}

	status, data := ts.do(t, http.MethodPost, "/api/session/login", map[string]string{"email": testEmail, "password": "wrong"})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
	if msg := errorText(t, data); msg != "Incorrect email or password" {
		t.Errorf("expected server detail, got %q", msg)
	}

	s = ts.login(t)
	if s.Section != "child_list" || s.Parent == nil || s.Parent.Email != testEmail {
		t.Fatalf("unexpected state after login %+v", s)
	}

	s = ts.state(t, http.MethodPost, "/api/session/logout", nil)
	if s.Section != "auth" || s.Parent != nil {
		t.Fatalf("expected auth after logout, got %+v", s)
	}
}

func TestRegisterRequiresConsent(t *testing.T) {
	ts := newTestServer(t)
	status, data := ts.do(t, http.MethodPost, "/api/session/register", map[string]interface{}{
		"full_name": "B", "email": "b@c.com", "password": "pw", "consent": false,
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	if msg := errorText(t, data); msg != controller.ConsentRequiredText {
		t.Errorf("unexpected message %q", msg)
	}
	if ts.fake.Count(fakeapi.OpRegister) != 0 {
		t.Error("register must not reach the API without consent")
	}
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)

	if status, _ := ts.do(t, http.MethodPost, "/api/children/abc/select", nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad id, got %d", status)
	}
	if status, _ := ts.do(t, http.MethodPost, "/api/children/99/select", nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown child, got %d", status)
	}
	if status, _ := ts.do(t, http.MethodPost, "/api/chat/messages", map[string]interface{}{"text": "hi"}); status != http.StatusConflict {
		t.Errorf("expected 409 outside chat, got %d", status)
	}

	req, _ := http.NewRequest(http.MethodPost, ts.srv.URL+"/api/session/login", strings.NewReader("{"))
	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", resp.StatusCode)
	}
}

func TestChatFlow(t *testing.T) {
	ts := newTestServer(t)
	child := ts.fake.AddChild(testEmail, domain.ChildProfile{FirstName: "Maya", GradeLevel: "3"})
	ts.login(t)

	s := ts.state(t, http.MethodPost, fmt.Sprintf("/api/children/%d/select", child.ID), nil)
	if s.Section != "chat" {
		t.Fatalf("expected chat, got %s", s.Section)
	}

	status, data := ts.do(t, http.MethodPost, "/api/chat/messages", map[string]interface{}{"text": "   "})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty text, got %d: %s", status, data)
	}

	s = ts.state(t, http.MethodPost, "/api/chat/messages", map[string]interface{}{"text": "What is 2+2?", "depth": 2})
	if len(s.Chat.Messages) != 2 {
		t.Fatalf("expected user and assistant messages, got %+v", s.Chat.Messages)
	}
	reply := s.Chat.Messages[1]
	if reply.Role != "assistant" || reply.Text != "Answer to: What is 2+2?" || reply.ID == 0 {
		t.Fatalf("unexpected reply %+v", reply)
	}

	path := fmt.Sprintf("/api/chat/messages/%d/feedback", reply.ID)
	if status, _ := ts.do(t, http.MethodPost, path, map[string]interface{}{}); status != http.StatusBadRequest {
		t.Errorf("expected 400 without is_helpful, got %d", status)
	}
	s = ts.state(t, http.MethodPost, path, map[string]interface{}{"is_helpful": true})
	if s.Chat.Messages[1].Feedback != "helpful" {
		t.Errorf("expected helpful rating, got %q", s.Chat.Messages[1].Feedback)
	}
	if status, _ := ts.do(t, http.MethodPost, path, map[string]interface{}{"is_helpful": false}); status != http.StatusConflict {
		t.Errorf("expected 409 for a second rating, got %d", status)
	}

	s = ts.state(t, http.MethodPost, "/api/chat/new", nil)
	if len(s.Chat.Messages) != 0 {
		t.Errorf("expected empty buffer, got %d messages", len(s.Chat.Messages))
	}
}

func TestUpstreamFailureStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.login(t)
	ts.fake.Drop(fakeapi.OpOverview)

	status, data := ts.do(t, http.MethodPost, "/api/dashboard/open", nil)
	if status != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", status)
	}
	if msg := errorText(t, data); msg != controller.ConnectionErrorText {
		t.Errorf("unexpected message %q", msg)
	}

	ts.fake.Restore(fakeapi.OpOverview)
	s := ts.state(t, http.MethodPost, "/api/dashboard/open", nil)
	if s.Section != "dashboard" {
		t.Fatalf("expected dashboard, got %s", s.Section)
	}
	s = ts.state(t, http.MethodPost, "/api/dashboard/close", nil)
	if s.Section != "child_list" {
		t.Fatalf("expected child_list, got %s", s.Section)
	}
}

func TestStreamState(t *testing.T) {
	ts := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.srv.URL, "http")+"/ws/state", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer ws.Close(websocket.StatusNormalClosure, "")

	read := func() stateView {
		t.Helper()
		_, data, err := ws.Read(ctx)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		var s stateView
		if err := json.Unmarshal(data, &s); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		return s
	}

	initial := read()
	if initial.Section != "auth" {
		t.Fatalf("expected initial auth snapshot, got %+v", initial)
	}

	s := ts.state(t, http.MethodPost, "/api/theme/toggle", nil)
	if s.Theme != "dark" {
		t.Fatalf("expected dark theme, got %q", s.Theme)
	}
	for {
		next := read()
		if next.Version <= initial.Version {
			t.Fatalf("expected newer snapshot, got version %d", next.Version)
		}
		if next.Theme == "dark" {
			break
		}
	}
}

func TestOpenFolderNames(t *testing.T) {
	ts := newTestServer(t)
	child := ts.fake.AddChild(testEmail, domain.ChildProfile{FirstName: "Maya", GradeLevel: "3"})
	ts.fake.AddConversation(child.ID, "Percentages", "50%")
	ts.fake.AddConversation(child.ID, "Halves", "a/b")
	ts.login(t)
	ts.state(t, http.MethodPost, fmt.Sprintf("/api/children/%d/select", child.ID), nil)

	tests := []struct {
		path  string
		name  string
		count int
	}{
		{"/api/chat/folders/50%25", "50%", 1},
		{"/api/chat/folders/a%2Fb", "a/b", 1},
		{"/api/chat/folders/Social%20Studies", "Social Studies", 0},
	}
	for _, tt := range tests {
		status, data := ts.do(t, http.MethodPost, tt.path, nil)
		if status != http.StatusOK {
			t.Fatalf("POST %s: expected 200, got %d: %s", tt.path, status, data)
		}
		var s struct {
			Chat struct {
				OpenFolder *struct {
					Name          string `json:"name"`
					Conversations []struct {
						Title string `json:"title"`
					} `json:"conversations"`
				} `json:"open_folder"`
			} `json:"chat"`
		}
		if err := json.Unmarshal(data, &s); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		if s.Chat.OpenFolder == nil || s.Chat.OpenFolder.Name != tt.name {
			t.Fatalf("POST %s: expected open folder %q, got %+v", tt.path, tt.name, s.Chat.OpenFolder)
		}
		if len(s.Chat.OpenFolder.Conversations) != tt.count {
			t.Errorf("POST %s: expected %d conversations, got %d", tt.path, tt.count, len(s.Chat.OpenFolder.Conversations))
		}
	}
}
