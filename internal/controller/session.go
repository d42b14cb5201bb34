package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/ashureev/nia-console/internal/domain"
	"github.com/ashureev/nia-console/internal/identity"
	"github.com/ashureev/nia-console/internal/store"
)

var errNoAccessToken = errors.New("auth response carried no access token")

// RegisterInput is the registration form.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Consent  bool
}

// Restore loads the persisted theme and session. With a session the
// controller enters ChildList and fetches the children; a missing, malformed
// or expired session leaves it in Auth and clears the stored keys.
func (c *Controller) Restore(ctx context.Context) error {
	theme := domain.ThemeLight
	if v, ok, err := c.store.Get(ctx, store.KeyTheme); err != nil {
		return fmt.Errorf("load theme: %w", err)
	} else if ok && domain.Theme(v) == domain.ThemeDark {
		theme = domain.ThemeDark
	}

	session, ok, err := store.LoadSession(ctx, c.store)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if ok && identity.Expired(session.Token, c.now()) {
		c.logger.Info("persisted session expired")
		ok = false
	}
	if !ok {
		if err := store.ClearSession(ctx, c.store); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		c.update(func(s *State) { s.Theme = theme })
		return nil
	}

	c.update(func(s *State) {
		s.Theme = theme
		s.token = session.Token
		parent := session.Parent
		s.Parent = &parent
		s.enter(domain.SectionChildList)
	})
	return c.refreshChildren(ctx)
}

// Login exchanges credentials for a session, persists it and enters
// ChildList. On failure nothing is persisted and the section is unchanged.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	res, err := c.api.Login(ctx, email, password)
	if err == nil && res.AccessToken == "" {
		err = errNoAccessToken
	}
	if err != nil {
		c.failForm(FormLogin, err, loginFailedText)
		return err
	}

	session := &domain.Session{Token: res.AccessToken, Parent: res.Parent(email)}
	if err := store.SaveSession(ctx, c.store, session); err != nil {
		c.failForm(FormLogin, err, loginFailedText)
		return fmt.Errorf("save session: %w", err)
	}

	c.update(func(s *State) {
		s.token = session.Token
		parent := session.Parent
		s.Parent = &parent
		s.Children = nil
		s.Child = nil
		s.Chat = ChatState{}
		s.Dashboard = DashboardState{}
		s.clearError(FormLogin)
		s.enter(domain.SectionChildList)
		c.notifyLocked(s, NotifySuccess, "Welcome back! 👋")
	})
	c.logger.Info("logged in")

	return c.refreshChildren(ctx)
}

// Register creates an account and then logs in with the same credentials.
// Without consent no request is issued.
func (c *Controller) Register(ctx context.Context, in RegisterInput) error {
	if !in.Consent {
		err := &ValidationError{Form: FormRegister, Message: ConsentRequiredText}
		c.update(func(s *State) {
			s.setError(FormRegister, err.Message)
			c.notifyLocked(s, NotifyError, "Please agree to Terms and Privacy Policy")
		})
		return err
	}

	if _, err := c.api.Register(ctx, in.FullName, in.Email, in.Password); err != nil {
		c.failForm(FormRegister, err, registrationFailedText)
		return err
	}

	c.update(func(s *State) {
		s.clearError(FormRegister)
		c.notifyLocked(s, NotifySuccess, "Account created successfully! 🎉")
	})
	return c.Login(ctx, in.Email, in.Password)
}

// Logout wipes the persisted client state and returns to Auth. The in-memory
// state is reset even if the store fails.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.store.Clear(ctx)
	if err != nil {
		c.logger.Error("failed to clear persisted state", "error", err)
		err = fmt.Errorf("clear state: %w", err)
	}

	c.mu.Lock()
	c.locked = make(map[int64]domain.Feedback)
	c.mu.Unlock()

	c.update(func(s *State) {
		notifications := s.Notifications
		*s = initialState(newViewID())
		s.Notifications = notifications
	})
	return err
}

// failForm records a failed form submission.
func (c *Controller) failForm(form string, err error, fallback string) {
	message := UserMessage(err, fallback)
	c.update(func(s *State) {
		s.setError(form, message)
		if isTransport(err) {
			c.notifyLocked(s, NotifyError, "Connection error")
		}
	})
}
