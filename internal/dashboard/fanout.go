package dashboard

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ashureev/nia-console/internal/domain"
)

// DefaultConcurrency bounds the number of in-flight per-child requests.
const DefaultConcurrency = 4

// Fetcher loads the per-child aggregate of one child.
type Fetcher func(ctx context.Context, childID int64) (*domain.ChildDashboard, error)

// CollectQuickStats fetches the quick stats of every child concurrently.
// A failed fetch degrades that child's card to placeholder values and never
// affects the others. The result is in the order of children.
func CollectQuickStats(ctx context.Context, children []domain.ChildProfile, fetch Fetcher, limit int, logger *slog.Logger) []domain.QuickStats {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	stats := make([]domain.QuickStats, len(children))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, child := range children {
		g.Go(func() error {
			d, err := fetch(ctx, child.ID)
			if err != nil || d == nil {
				logger.Warn("quick stats unavailable", "child_id", child.ID, "error", err)
				stats[i] = PlaceholderStats(child.ID)
				return nil
			}
			stats[i] = QuickStatsFrom(child.ID, d)
			return nil
		})
	}
	_ = g.Wait()

	return stats
}
