package controller

import (
	"context"
	"fmt"

	"github.com/ashureev/nia-console/internal/domain"
	"github.com/ashureev/nia-console/internal/store"
)

// ShowChildList enters ChildList from any authenticated section and fetches
// the children.
func (c *Controller) ShowChildList(ctx context.Context) error {
	return c.enterChildList(ctx, "show children")
}

// enterChildList enters ChildList from one of sections, or from any
// authenticated section when none are given.
func (c *Controller) enterChildList(ctx context.Context, action string, sections ...domain.ViewSection) error {
	err := c.mutate(func(s *State) error {
		if !s.Authenticated() {
			return ErrNotAuthenticated
		}
		if err := checkSection(s, action, sections...); err != nil {
			return err
		}
		s.leaveChat()
		s.Dashboard = DashboardState{}
		s.enter(domain.SectionChildList)
		return nil
	})
	if err != nil {
		return err
	}
	return c.refreshChildren(ctx)
}

// SelectChild enters Chat for a child of the loaded list and fetches its
// folders. The onboarding walkthrough opens on the first visit.
func (c *Controller) SelectChild(ctx context.Context, childID int64) error {
	seen, err := c.seenOnboarding(ctx)
	if err != nil {
		return err
	}

	err = c.mutate(func(s *State) error {
		if !s.Authenticated() {
			return ErrNotAuthenticated
		}
		if s.Section != domain.SectionChildList {
			return fmt.Errorf("%w: select child from %s", ErrInvalidTransition, s.Section)
		}
		child, ok := s.ChildByID(childID)
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownChild, childID)
		}
		s.Child = &child
		s.Chat = ChatState{}
		if !seen {
			s.Onboarding = Onboarding{Active: true}
		}
		s.enter(domain.SectionChat)
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Debug("entered chat", "child_id", childID)
	return c.refreshFolders(ctx)
}

// SwitchChild leaves Chat, clears the selection and fetches the children.
func (c *Controller) SwitchChild(ctx context.Context) error {
	err := c.mutate(func(s *State) error {
		if !s.Authenticated() {
			return ErrNotAuthenticated
		}
		if s.Section != domain.SectionChat {
			return fmt.Errorf("%w: switch child from %s", ErrInvalidTransition, s.Section)
		}
		s.leaveChat()
		s.enter(domain.SectionChildList)
		return nil
	})
	if err != nil {
		return err
	}
	return c.refreshChildren(ctx)
}

// CreateChild registers a child from the ChildList section and refreshes the
// list.
func (c *Controller) CreateChild(ctx context.Context, in domain.ChildInput) error {
	token, _, err := c.sessionIn("create child", domain.SectionChildList)
	if err != nil {
		return err
	}

	if err := validateChild(in); err != nil {
		c.update(func(s *State) { s.setError(FormChild, err.Message) })
		return err
	}

	child, err := c.api.CreateChild(ctx, token, in)
	if err != nil {
		c.failForm(FormChild, err, createChildFailedText)
		return err
	}

	name := child.FirstName
	if name == "" {
		name = in.FirstName
	}
	c.update(func(s *State) {
		s.clearError(FormChild)
		c.notifyLocked(s, NotifySuccess, name+"'s profile created! 🎉")
	})
	c.logger.Info("child created", "child_id", child.ID)

	return c.refreshChildren(ctx)
}

// refreshChildren fetches the children of the authenticated parent.
func (c *Controller) refreshChildren(ctx context.Context) error {
	token, _, err := c.session()
	if err != nil {
		return err
	}

	children, err := c.api.ListChildren(ctx, token)
	if err != nil {
		c.logger.Warn("failed to load children", "error", err)
		c.notify(NotifyError, "Error loading children")
		return err
	}

	return c.mutate(func(s *State) error {
		// A logout or new login in the meantime invalidates the list.
		if s.token != token {
			return ErrStaleView
		}
		s.Children = children
		return nil
	})
}

// refreshFolders fetches the folders of the selected child.
func (c *Controller) refreshFolders(ctx context.Context) error {
	c.mu.Lock()
	token, child := c.state.token, c.state.Child
	c.mu.Unlock()
	if child == nil {
		return ErrNoChildSelected
	}

	folders, err := c.api.ListFolders(ctx, token, child.ID)
	if err != nil {
		c.logger.Warn("failed to load folders", "child_id", child.ID, "error", err)
		return err
	}

	err = c.mutate(func(s *State) error {
		if s.Section != domain.SectionChat || s.Child == nil || s.Child.ID != child.ID {
			return ErrStaleView
		}
		s.Chat.Folders = folders
		return nil
	})
	return c.stale("folders", err)
}

func (c *Controller) seenOnboarding(ctx context.Context) (bool, error) {
	v, ok, err := c.store.Get(ctx, store.KeySeenOnboarding)
	if err != nil {
		return false, fmt.Errorf("load onboarding flag: %w", err)
	}
	return ok && v == "true", nil
}

// leaveChat drops the child selection and everything scoped to it.
func (s *State) leaveChat() {
	s.Child = nil
	s.Chat = ChatState{}
	s.Onboarding = Onboarding{}
}
