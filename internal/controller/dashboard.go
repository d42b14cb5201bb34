package controller

import (
	"context"

	"github.com/ashureev/nia-console/internal/dashboard"
	"github.com/ashureev/nia-console/internal/domain"
)

// OpenDashboard fetches the overview, the children and their quick stats,
// then enters Dashboard. On failure the current section is kept.
func (c *Controller) OpenDashboard(ctx context.Context) error {
	token, viewID, err := c.sessionIn("open dashboard",
		domain.SectionChildList, domain.SectionChat, domain.SectionDashboard, domain.SectionChildDetail)
	if err != nil {
		return err
	}
	return c.loadDashboard(ctx, token, viewID)
}

// CloseDashboard leaves Dashboard or ChildDetail for ChildList.
func (c *Controller) CloseDashboard(ctx context.Context) error {
	return c.enterChildList(ctx, "close dashboard", domain.SectionDashboard, domain.SectionChildDetail)
}

// Back returns from ChildDetail to a freshly fetched Dashboard.
func (c *Controller) Back(ctx context.Context) error {
	token, viewID, err := c.sessionIn("back", domain.SectionChildDetail)
	if err != nil {
		return err
	}
	return c.loadDashboard(ctx, token, viewID)
}

func (c *Controller) loadDashboard(ctx context.Context, token, viewID string) error {
	overview, err := c.api.DashboardOverview(ctx, token)
	if err != nil {
		c.logger.Warn("failed to load dashboard", "error", err)
		c.notify(NotifyError, "Error loading dashboard")
		return err
	}

	children, err := c.api.ListChildren(ctx, token)
	if err != nil {
		c.logger.Warn("failed to load children for dashboard", "error", err)
		children = c.Snapshot().Children
	}

	fetch := func(ctx context.Context, childID int64) (*domain.ChildDashboard, error) {
		return c.api.ChildDashboard(ctx, token, childID, c.quickDays)
	}
	stats := dashboard.CollectQuickStats(ctx, children, fetch, c.statsLimit, c.logger)

	cards := make([]ChildCard, len(children))
	for i, child := range children {
		cards[i] = ChildCard{Child: child, Stats: stats[i]}
	}

	err = c.mutate(func(s *State) error {
		if err := current(s, viewID); err != nil {
			return err
		}
		s.leaveChat()
		s.Children = children
		s.Dashboard = DashboardState{
			Overview: overview,
			Activity: dashboard.ActivityChart(overview.RecentActivity),
			Cards:    cards,
		}
		s.enter(domain.SectionDashboard)
		c.notifyLocked(s, NotifySuccess, "Dashboard loaded! 📊")
		return nil
	})
	return c.stale("dashboard", err)
}

// ViewChildDetail fetches the detail aggregate of a child and enters
// ChildDetail. On failure Dashboard stays active.
func (c *Controller) ViewChildDetail(ctx context.Context, childID int64) error {
	token, viewID, err := c.sessionIn("child detail", domain.SectionDashboard)
	if err != nil {
		return err
	}

	d, err := c.api.ChildDashboard(ctx, token, childID, c.detailDays)
	if err != nil {
		c.logger.Warn("failed to load child analytics", "child_id", childID, "error", err)
		c.notify(NotifyError, "Error loading child analytics")
		return err
	}
	detail := dashboard.NewDetail(d)
	if detail.Child.ID == 0 {
		detail.Child.ID = childID
	}

	err = c.mutate(func(s *State) error {
		if err := current(s, viewID); err != nil {
			return err
		}
		s.Dashboard.Detail = &detail
		s.Dashboard.FullConversation = nil
		s.enter(domain.SectionChildDetail)
		return nil
	})
	return c.stale("child detail", err)
}

// FullConversation fetches the printable transcript of a conversation without
// changing the view.
func (c *Controller) FullConversation(ctx context.Context, conversationID int64) (*domain.FullConversation, error) {
	token, _, err := c.session()
	if err != nil {
		return nil, err
	}
	full, err := c.api.FullConversation(ctx, token, conversationID)
	if err != nil {
		c.logger.Warn("failed to load full conversation", "conversation_id", conversationID, "error", err)
		return nil, err
	}
	return full, nil
}

// OpenFullConversation opens the transcript overlay of ChildDetail.
func (c *Controller) OpenFullConversation(ctx context.Context, conversationID int64) error {
	_, viewID, err := c.sessionIn("open conversation", domain.SectionChildDetail)
	if err != nil {
		return err
	}

	full, err := c.FullConversation(ctx, conversationID)
	if err != nil {
		c.notify(NotifyError, "Error loading conversation")
		return err
	}

	err = c.mutate(func(s *State) error {
		if err := current(s, viewID); err != nil {
			return err
		}
		s.Dashboard.FullConversation = full
		return nil
	})
	return c.stale("full conversation", err)
}

// CloseFullConversation dismisses the transcript overlay.
func (c *Controller) CloseFullConversation() {
	c.update(func(s *State) { s.Dashboard.FullConversation = nil })
}
