package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashureev/nia-console/internal/domain"
)

// chatScope is the part of the snapshot a chat request is issued under.
type chatScope struct {
	token   string
	viewID  string
	childID int64
}

func (c *Controller) chatScope() (chatScope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return scopeOf(&c.state)
}

func scopeOf(s *State) (chatScope, error) {
	if !s.Authenticated() {
		return chatScope{}, ErrNotAuthenticated
	}
	if s.Section != domain.SectionChat {
		return chatScope{}, fmt.Errorf("%w: chat action from %s", ErrInvalidTransition, s.Section)
	}
	if s.Child == nil {
		return chatScope{}, ErrNoChildSelected
	}
	return chatScope{token: s.token, viewID: s.ViewID, childID: s.Child.ID}, nil
}

// Send appends the user message, issues it with the active conversation id
// and depth, and appends the assistant reply or a synthetic error reply. The
// user message is never rolled back.
func (c *Controller) Send(ctx context.Context, text string, depth int) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &ValidationError{Form: FormChat, Message: "Please enter a message"}
	}
	if depth < domain.MinDepth || depth > domain.MaxDepth {
		return &ValidationError{Form: FormChat, Message: fmt.Sprintf("Depth must be between %d and %d", domain.MinDepth, domain.MaxDepth)}
	}

	var (
		scope chatScope
		req   domain.SendRequest
	)
	err := c.mutate(func(s *State) error {
		var err error
		if scope, err = scopeOf(s); err != nil {
			return err
		}
		if c.sending || s.Chat.Status == domain.ChatAwaitingResponse {
			return ErrSendInFlight
		}
		req = domain.SendRequest{ChildID: scope.childID, Text: text, Depth: depth}
		if s.Chat.ConversationID != nil {
			id := *s.Chat.ConversationID
			req.ConversationID = &id
		}
		s.Chat.Messages = append(s.Chat.Messages, domain.Message{Role: domain.RoleUser, Text: text})
		s.Chat.Status = domain.ChatAwaitingResponse
		s.Chat.Typing = true
		c.sending = true
		return nil
	})
	if err != nil {
		return err
	}

	res, sendErr := c.api.SendMessage(ctx, scope.token, req)

	err = c.mutate(func(s *State) error {
		c.sending = false
		if err := current(s, scope.viewID); err != nil {
			return err
		}
		s.Chat.Typing = false
		s.Chat.Status = domain.ChatIdle
		if sendErr != nil {
			s.Chat.Messages = append(s.Chat.Messages, domain.Message{
				Role:      domain.RoleAssistant,
				Text:      sendFailureText(sendErr),
				Synthetic: true,
			})
			if isTransport(sendErr) {
				c.notifyLocked(s, NotifyError, "Connection error")
			}
			return nil
		}
		id := res.ConversationID
		s.Chat.ConversationID = &id
		s.Chat.Messages = append(s.Chat.Messages, domain.Message{
			ID:          res.ID,
			Role:        domain.RoleAssistant,
			Text:        res.Text,
			SourceLabel: res.SourceLabel,
			Sources:     res.Sources,
		})
		return nil
	})
	if err != nil {
		return c.stale("send", err)
	}

	if sendErr != nil {
		c.logger.Warn("send failed", "child_id", scope.childID, "error", sendErr)
		return sendErr
	}

	c.logger.Debug("message answered", "child_id", scope.childID, "conversation_id", res.ConversationID, "message_id", res.ID)
	if err := c.refreshFolders(ctx); err != nil {
		c.logger.Debug("folder refresh after send failed", "error", err)
	}
	return nil
}

// LoadExisting replaces the buffer with the history of a conversation and
// makes it the active one.
func (c *Controller) LoadExisting(ctx context.Context, conversationID int64) error {
	scope, err := c.chatScope()
	if err != nil {
		return err
	}

	stored, err := c.api.LoadMessages(ctx, scope.token, conversationID)
	if err != nil {
		c.logger.Warn("failed to load conversation", "conversation_id", conversationID, "error", err)
		c.notify(NotifyError, "Error loading conversation")
		return err
	}

	err = c.mutate(func(s *State) error {
		if err := current(s, scope.viewID); err != nil {
			return err
		}
		messages := make([]domain.Message, 0, len(stored))
		for _, m := range stored {
			msg := domain.Message{ID: m.ID, Role: m.Role, Text: m.Content}
			if m.Role != domain.RoleUser {
				msg.Role = domain.RoleAssistant
				msg.Feedback = c.locked[m.ID]
			}
			messages = append(messages, msg)
		}
		id := conversationID
		s.Chat.Messages = messages
		s.Chat.ConversationID = &id
		s.Chat.Status = domain.ChatIdle
		s.Chat.Typing = false
		s.Chat.OpenFolder = nil
		s.ViewID = newViewID()
		c.notifyLocked(s, NotifySuccess, "Conversation loaded! 📖")
		return nil
	})
	return c.stale("load", err)
}

// NewConversation clears the buffer and the active conversation id.
func (c *Controller) NewConversation() error {
	return c.mutate(func(s *State) error {
		if _, err := scopeOf(s); err != nil {
			return err
		}
		s.resetChat()
		s.ViewID = newViewID()
		return nil
	})
}

// OpenFolder lists the conversations of a folder into the folder modal.
func (c *Controller) OpenFolder(ctx context.Context, folder string) error {
	scope, err := c.chatScope()
	if err != nil {
		return err
	}

	convs, err := c.api.ListConversations(ctx, scope.token, scope.childID, folder)
	if err != nil {
		c.logger.Warn("failed to load conversations", "child_id", scope.childID, "error", err)
		c.notify(NotifyError, "Error loading conversations")
		return err
	}

	err = c.mutate(func(s *State) error {
		if err := current(s, scope.viewID); err != nil {
			return err
		}
		s.Chat.OpenFolder = &FolderView{Name: folder, Conversations: convs}
		return nil
	})
	return c.stale("folder", err)
}

// CloseFolder dismisses the folder modal.
func (c *Controller) CloseFolder() {
	c.update(func(s *State) { s.Chat.OpenFolder = nil })
}

// SubmitFeedback rates an assistant message. The rating locks on the first
// call and stays locked even if the request fails.
func (c *Controller) SubmitFeedback(ctx context.Context, messageID int64, helpful bool) error {
	var scope chatScope
	err := c.mutate(func(s *State) error {
		var err error
		if scope, err = scopeOf(s); err != nil {
			return err
		}
		if _, locked := c.locked[messageID]; locked {
			return ErrFeedbackLocked
		}
		idx := -1
		for i, m := range s.Chat.Messages {
			if m.ID == messageID && m.AcceptsFeedback() {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %d", ErrFeedbackUnavailable, messageID)
		}
		rating := domain.FeedbackFor(helpful)
		c.locked[messageID] = rating
		s.Chat.Messages[idx].Feedback = rating
		return nil
	})
	if err != nil {
		return err
	}

	err = c.api.SubmitFeedback(ctx, scope.token, domain.FeedbackRequest{
		MessageID: messageID,
		ChildID:   scope.childID,
		IsHelpful: helpful,
	})
	if err != nil {
		c.logger.Warn("feedback failed", "message_id", messageID, "error", err)
		c.notify(NotifyError, "Could not submit feedback")
		return err
	}

	if helpful {
		c.notify(NotifySuccess, "Thanks for your feedback! 👍")
	} else {
		c.notify(NotifySuccess, "Thanks! We'll improve. 👍")
	}
	return nil
}
