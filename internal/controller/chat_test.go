package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/ashureev/nia-console/internal/domain"
	"github.com/ashureev/nia-console/internal/store"
	"github.com/ashureev/nia-console/internal/tutorapi"
	"github.com/ashureev/nia-console/internal/tutorapi/fakeapi"
)

// scriptedAPI answers with fixed payloads. Calls to methods that are not
// overridden panic.
type scriptedAPI struct {
	API
	children []domain.ChildProfile
	send     func(domain.SendRequest) (*domain.SendResult, error)
	sent     []domain.SendRequest
}

func (s *scriptedAPI) Login(context.Context, string, string) (*domain.AuthResult, error) {
	return &domain.AuthResult{AccessToken: "T1", FullName: "A"}, nil
}

func (s *scriptedAPI) ListChildren(context.Context, string) ([]domain.ChildProfile, error) {
	return s.children, nil
}

func (s *scriptedAPI) ListFolders(context.Context, string, int64) ([]string, error) {
	return []string{"Math"}, nil
}

func (s *scriptedAPI) SendMessage(_ context.Context, _ string, req domain.SendRequest) (*domain.SendResult, error) {
	s.sent = append(s.sent, req)
	return s.send(req)
}

func TestSendScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	api := &scriptedAPI{
		children: []domain.ChildProfile{{ID: 9, FirstName: "Maya"}},
		send: func(domain.SendRequest) (*domain.SendResult, error) {
			return &domain.SendResult{ConversationID: 77, ID: 5, Text: "4", SourceLabel: "Curriculum"}, nil
		},
	}
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer repo.Close()
	c, err := New(Options{API: api, Store: repo})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := c.Login(ctx, "a@b.com", "secret123"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := c.SelectChild(ctx, 9); err != nil {
		t.Fatalf("SelectChild failed: %v", err)
	}

	if err := c.Send(ctx, "What is 2+2?", 1); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	s := c.Snapshot()
	if s.Chat.ConversationID == nil || *s.Chat.ConversationID != 77 {
		t.Fatalf("expected conversation 77, got %v", s.Chat.ConversationID)
	}
	want := []domain.Message{
		{Role: domain.RoleUser, Text: "What is 2+2?"},
		{ID: 5, Role: domain.RoleAssistant, Text: "4", SourceLabel: "Curriculum"},
	}
	if len(s.Chat.Messages) != len(want) {
		t.Fatalf("expected %d messages, got %+v", len(want), s.Chat.Messages)
	}
	for i, m := range want {
		got := s.Chat.Messages[i]
		if got.ID != m.ID || got.Role != m.Role || got.Text != m.Text || got.SourceLabel != m.SourceLabel {
			t.Errorf("message %d: expected %+v, got %+v", i, m, got)
		}
	}
	if s.Chat.Status != domain.ChatIdle || s.Chat.Typing {
		t.Error("expected Idle without typing placeholder")
	}

	if api.sent[0].ConversationID != nil || api.sent[0].Depth != 1 || api.sent[0].ChildID != 9 {
		t.Errorf("unexpected first request %+v", api.sent[0])
	}

	if err := c.Send(ctx, "And 3+3?", 2); err != nil {
		t.Fatalf("second Send failed: %v", err)
	}
	if id := api.sent[1].ConversationID; id == nil || *id != 77 {
		t.Errorf("expected follow-up to carry conversation 77, got %v", id)
	}
}

func TestSendValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.inChat(t)

	for _, tc := range []struct {
		text  string
		depth int
	}{{"   ", 1}, {"", 1}, {"hi", 0}, {"hi", 4}} {
		var verr *ValidationError
		if err := h.c.Send(ctx, tc.text, tc.depth); !errors.As(err, &verr) {
			t.Errorf("Send(%q, %d): expected ValidationError, got %v", tc.text, tc.depth, err)
		}
	}
	if len(h.c.Snapshot().Chat.Messages) != 0 {
		t.Fatal("rejected sends must not touch the buffer")
	}
	if h.fake.Count(fakeapi.OpSendMessage) != 0 {
		t.Fatal("rejected sends must not issue requests")
	}
}

func TestSendOutsideChat(t *testing.T) {
	t.Parallel()
	h := newHarness(t).loggedIn(t)
	if err := h.c.Send(context.Background(), "hi", 1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestSendFailureAppendsOneSyntheticMessage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name   string
		inject func(*fakeapi.API)
		want   string
	}{
		{"server rejection", func(f *fakeapi.API) { f.Fail(fakeapi.OpSendMessage, http.StatusInternalServerError, "Model unavailable") }, "Sorry, error: Model unavailable"},
		{"transport failure", func(f *fakeapi.API) { f.Drop(fakeapi.OpSendMessage) }, ConnectionErrorText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.inChat(t)
			tt.inject(h.fake)

			if err := h.c.Send(ctx, "What is 2+2?", 1); err == nil {
				t.Fatal("expected send error")
			}
			s := h.c.Snapshot()
			if len(s.Chat.Messages) != 2 {
				t.Fatalf("expected user message and one error reply, got %+v", s.Chat.Messages)
			}
			user, reply := s.Chat.Messages[0], s.Chat.Messages[1]
			if user.Role != domain.RoleUser || user.Text != "What is 2+2?" {
				t.Errorf("user message must stay, got %+v", user)
			}
			if reply.Role != domain.RoleAssistant || !reply.Synthetic || reply.Text != tt.want {
				t.Errorf("unexpected error reply %+v", reply)
			}
			if reply.AcceptsFeedback() {
				t.Error("synthetic reply must not accept feedback")
			}
			if s.Chat.Status != domain.ChatIdle || s.Chat.Typing {
				t.Error("expected Idle after failure")
			}
			if s.Chat.ConversationID != nil {
				t.Error("failed send must not set a conversation id")
			}
		})
	}
}

func TestUserMessageCountMatchesValidSends(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.inChat(t)

	inputs := []string{"one", "  ", "two", "", "three", "four"}
	valid := 0
	for i, text := range inputs {
		if i%2 == 1 {
			h.fake.Fail(fakeapi.OpSendMessage, http.StatusBadGateway, "upstream")
		} else {
			h.fake.Restore(fakeapi.OpSendMessage)
		}
		err := h.c.Send(ctx, text, 1)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			valid++
		}
	}

	if got := countRole(h.c.Snapshot().Chat.Messages, domain.RoleUser); got != valid {
		t.Fatalf("expected %d user messages, got %d", valid, got)
	}
}

func TestSendWhileAwaitingIsRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.inChat(t)

	release := h.fake.Hold(fakeapi.OpSendMessage)
	done := make(chan error, 1)
	go func() { done <- h.c.Send(ctx, "first", 1) }()

	waitFor(t, h.c, "awaiting response", func(s State) bool {
		return s.Chat.Status == domain.ChatAwaitingResponse
	})
	if !h.c.Snapshot().Chat.Typing {
		t.Error("expected typing placeholder while awaiting")
	}

	if err := h.c.Send(ctx, "second", 1); !errors.Is(err, ErrSendInFlight) {
		t.Fatalf("expected ErrSendInFlight, got %v", err)
	}
	if got := countRole(h.c.Snapshot().Chat.Messages, domain.RoleUser); got != 1 {
		t.Fatalf("rejected send must not append, got %d user messages", got)
	}

	release()
	if err := <-done; err != nil {
		t.Fatalf("first Send failed: %v", err)
	}
	if n := h.fake.Count(fakeapi.OpSendMessage); n != 1 {
		t.Fatalf("expected exactly one send request, got %d", n)
	}
}

func TestStaleSendReplyIsDiscarded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.inChat(t)

	release := h.fake.Hold(fakeapi.OpSendMessage)
	done := make(chan error, 1)
	go func() { done <- h.c.Send(ctx, "first", 1) }()
	waitFor(t, h.c, "awaiting response", func(s State) bool {
		return s.Chat.Status == domain.ChatAwaitingResponse
	})

	if err := h.c.NewConversation(); err != nil {
		t.Fatalf("NewConversation failed: %v", err)
	}
	release()

	if err := <-done; !errors.Is(err, ErrStaleView) {
		t.Fatalf("expected ErrStaleView, got %v", err)
	}
	s := h.c.Snapshot()
	if len(s.Chat.Messages) != 0 || s.Chat.ConversationID != nil {
		t.Fatalf("stale reply must not be written into the new buffer: %+v", s.Chat)
	}
}

func TestLoadExistingReplacesBuffer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	child := h.inChat(t)

	convID := h.fake.AddConversation(child.ID, "Plants", "Science",
		fakeapi.SeedMessage{Role: domain.RoleUser, Content: "What is photosynthesis?"},
		fakeapi.SeedMessage{Role: domain.RoleAssistant, Content: "It is how plants make food."},
		fakeapi.SeedMessage{Role: domain.RoleUser, Content: "Thanks"},
	)

	if err := h.c.Send(ctx, "unrelated", 1); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	before := h.c.Snapshot()

	if err := h.c.OpenFolder(ctx, "Science"); err != nil {
		t.Fatalf("OpenFolder failed: %v", err)
	}
	if f := h.c.Snapshot().Chat.OpenFolder; f == nil || len(f.Conversations) != 1 || f.Conversations[0].ID != convID {
		t.Fatalf("unexpected folder view %+v", f)
	}

	if err := h.c.LoadExisting(ctx, convID); err != nil {
		t.Fatalf("LoadExisting failed: %v", err)
	}
	s := h.c.Snapshot()
	wantTexts := []string{"What is photosynthesis?", "It is how plants make food.", "Thanks"}
	if len(s.Chat.Messages) != len(wantTexts) {
		t.Fatalf("expected %d messages, got %d", len(wantTexts), len(s.Chat.Messages))
	}
	for i, text := range wantTexts {
		if s.Chat.Messages[i].Text != text {
			t.Errorf("message %d: expected %q, got %q", i, text, s.Chat.Messages[i].Text)
		}
	}
	if s.Chat.ConversationID == nil || *s.Chat.ConversationID != convID {
		t.Errorf("expected active conversation %d, got %v", convID, s.Chat.ConversationID)
	}
	if s.Chat.OpenFolder != nil {
		t.Error("expected folder modal to close on load")
	}
	if s.ViewID == before.ViewID {
		t.Error("expected a new view id after replacing the buffer")
	}
}

func TestNewConversationClearsBuffer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.inChat(t)

	if err := h.c.Send(ctx, "hello", 1); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := h.c.NewConversation(); err != nil {
		t.Fatalf("NewConversation failed: %v", err)
	}
	s := h.c.Snapshot()
	if len(s.Chat.Messages) != 0 || s.Chat.ConversationID != nil {
		t.Fatalf("expected empty buffer, got %+v", s.Chat)
	}

	if err := h.c.Send(ctx, "fresh", 1); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	reqs := h.fake.RequestsFor(fakeapi.OpSendMessage)
	var body map[string]any
	if err := json.Unmarshal(reqs[len(reqs)-1].Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["conversation_id"] != nil {
		t.Errorf("expected a new conversation to start, got %v", body["conversation_id"])
	}
}

func TestFeedbackLocksAfterFirstSubmission(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.inChat(t)

	if err := h.c.Send(ctx, "What is 2+2?", 1); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	reply := h.c.Snapshot().Chat.Messages[1]

	if err := h.c.SubmitFeedback(ctx, reply.ID, true); err != nil {
		t.Fatalf("SubmitFeedback failed: %v", err)
	}
	if err := h.c.SubmitFeedback(ctx, reply.ID, false); !errors.Is(err, ErrFeedbackLocked) {
		t.Fatalf("expected ErrFeedbackLocked, got %v", err)
	}
	if n := h.fake.Count(fakeapi.OpSubmitFeedback); n != 1 {
		t.Fatalf("expected exactly one feedback request, got %d", n)
	}
	if m, _ := h.c.Snapshot().Message(reply.ID); m.Feedback != domain.FeedbackHelpful {
		t.Errorf("expected helpful rating, got %s", m.Feedback)
	}

	user := h.c.Snapshot().Chat.Messages[0]
	if err := h.c.SubmitFeedback(ctx, user.ID, true); !errors.Is(err, ErrFeedbackUnavailable) {
		t.Errorf("expected ErrFeedbackUnavailable for user message, got %v", err)
	}
}

func TestFeedbackStaysLockedAfterFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.inChat(t)

	if err := h.c.Send(ctx, "What is 2+2?", 1); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	reply := h.c.Snapshot().Chat.Messages[1]
	h.fake.Fail(fakeapi.OpSubmitFeedback, http.StatusInternalServerError, "boom")

	var apiErr *tutorapi.APIError
	if err := h.c.SubmitFeedback(ctx, reply.ID, false); !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	s := h.c.Snapshot()
	if m, _ := s.Message(reply.ID); m.Feedback != domain.FeedbackUnhelpful {
		t.Errorf("expected optimistic lock to stay, got %s", m.Feedback)
	}
	hasError := false
	for _, n := range s.Notifications {
		if n.Kind == NotifyError && n.Message == "Could not submit feedback" {
			hasError = true
		}
	}
	if !hasError {
		t.Error("expected failure notification")
	}

	h.fake.Restore(fakeapi.OpSubmitFeedback)
	if err := h.c.SubmitFeedback(ctx, reply.ID, true); !errors.Is(err, ErrFeedbackLocked) {
		t.Fatalf("expected ErrFeedbackLocked, got %v", err)
	}
	if n := h.fake.Count(fakeapi.OpSubmitFeedback); n != 1 {
		t.Fatalf("expected one feedback request, got %d", n)
	}

	// The lock survives reloading the conversation.
	if err := h.c.LoadExisting(ctx, *s.Chat.ConversationID); err != nil {
		t.Fatalf("LoadExisting failed: %v", err)
	}
	if err := h.c.SubmitFeedback(ctx, reply.ID, true); !errors.Is(err, ErrFeedbackLocked) {
		t.Fatalf("expected lock after reload, got %v", err)
	}
}

func TestSendRejectedWhileEarlierSendOutstanding(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name    string
		replace func(t *testing.T, h *harness, child domain.ChildProfile, convID int64)
	}{
		{"new conversation", func(t *testing.T, h *harness, _ domain.ChildProfile, _ int64) {
			if err := h.c.NewConversation(); err != nil {
				t.Fatalf("NewConversation failed: %v", err)
			}
		}},
		{"load conversation", func(t *testing.T, h *harness, _ domain.ChildProfile, convID int64) {
			if err := h.c.LoadExisting(ctx, convID); err != nil {
				t.Fatalf("LoadExisting failed: %v", err)
			}
		}},
		{"switch child", func(t *testing.T, h *harness, child domain.ChildProfile, _ int64) {
			if err := h.c.SwitchChild(ctx); err != nil {
				t.Fatalf("SwitchChild failed: %v", err)
			}
			if err := h.c.SelectChild(ctx, child.ID); err != nil {
				t.Fatalf("SelectChild failed: %v", err)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			child := h.inChat(t)
			convID := h.fake.AddConversation(child.ID, "Plants", "Science",
				fakeapi.SeedMessage{Role: domain.RoleUser, Content: "What is photosynthesis?"},
			)

			release := h.fake.Hold(fakeapi.OpSendMessage)
			defer release()
			done := make(chan error, 1)
			go func() { done <- h.c.Send(ctx, "first", 1) }()
			waitFor(t, h.c, "awaiting response", func(s State) bool {
				return s.Chat.Status == domain.ChatAwaitingResponse
			})

			tt.replace(t, h, child, convID)

			if err := h.c.Send(ctx, "second", 1); !errors.Is(err, ErrSendInFlight) {
				t.Fatalf("expected ErrSendInFlight while the first send is outstanding, got %v", err)
			}

			release()
			if err := <-done; !errors.Is(err, ErrStaleView) {
				t.Fatalf("expected ErrStaleView for the first send, got %v", err)
			}
			if n := h.fake.Count(fakeapi.OpSendMessage); n != 1 {
				t.Fatalf("expected one send request, got %d", n)
			}

			if err := h.c.Send(ctx, "third", 1); err != nil {
				t.Fatalf("expected sends to resume after the first returned, got %v", err)
			}
		})
	}
}
