package controller

import (
	"context"
	"fmt"

	"github.com/ashureev/nia-console/internal/domain"
	"github.com/ashureev/nia-console/internal/store"
)

// NextOnboarding advances the walkthrough. Finishing the last step persists
// the seen flag.
func (c *Controller) NextOnboarding(ctx context.Context) error {
	var finished bool
	err := c.mutate(func(s *State) error {
		if !s.Onboarding.Active {
			return fmt.Errorf("%w: onboarding is not open", ErrInvalidTransition)
		}
		s.Onboarding.Step++
		if s.Onboarding.Step >= len(OnboardingSteps) {
			s.Onboarding = Onboarding{}
			finished = true
		}
		return nil
	})
	if err != nil || !finished {
		return err
	}
	return c.markOnboardingSeen(ctx)
}

// SkipOnboarding closes the walkthrough and persists the seen flag.
func (c *Controller) SkipOnboarding(ctx context.Context) error {
	err := c.mutate(func(s *State) error {
		if !s.Onboarding.Active {
			return fmt.Errorf("%w: onboarding is not open", ErrInvalidTransition)
		}
		s.Onboarding = Onboarding{}
		return nil
	})
	if err != nil {
		return err
	}
	return c.markOnboardingSeen(ctx)
}

func (c *Controller) markOnboardingSeen(ctx context.Context) error {
	if err := c.store.Set(ctx, store.KeySeenOnboarding, "true"); err != nil {
		return fmt.Errorf("save onboarding flag: %w", err)
	}
	return nil
}

// SetTheme persists and applies a colour scheme.
func (c *Controller) SetTheme(ctx context.Context, theme domain.Theme) error {
	c.themeMu.Lock()
	defer c.themeMu.Unlock()
	return c.setThemeLocked(ctx, theme)
}

// ToggleTheme switches between light and dark and returns the new theme.
func (c *Controller) ToggleTheme(ctx context.Context) (domain.Theme, error) {
	c.themeMu.Lock()
	defer c.themeMu.Unlock()

	next := domain.ThemeDark
	if c.Snapshot().Theme == domain.ThemeDark {
		next = domain.ThemeLight
	}
	if err := c.setThemeLocked(ctx, next); err != nil {
		return c.Snapshot().Theme, err
	}
	return next, nil
}

func (c *Controller) setThemeLocked(ctx context.Context, theme domain.Theme) error {
	if theme != domain.ThemeLight && theme != domain.ThemeDark {
		return &ValidationError{Form: FormTheme, Message: fmt.Sprintf("Unknown theme %q", theme)}
	}
	if err := c.store.Set(ctx, store.KeyTheme, string(theme)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	c.update(func(s *State) { s.Theme = theme })
	return nil
}
