package dashboard

import (
	"context"
	"log/slog"

	dErrors "procurement/pkg/domain-errors"
)

// Service serves the snapshot read-through: cache first, primary storage on
// a miss, then repopulate the cache.
type Service struct {
	store StatsStore
	cache *Cache
	log   *slog.Logger
}

func NewService(store StatsStore, cache *Cache, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, cache: cache, log: log}
}

// Stats returns the current snapshot.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	if cached, err := s.cache.Snapshot(ctx); err == nil {
		return cached, nil
	}

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "compute dashboard stats")
	}
	if err := s.cache.StoreSnapshot(ctx, stats); err != nil {
		// Serving the fresh snapshot matters more than caching it.
		s.log.WarnContext(ctx, "dashboard snapshot not cached", "error", err)
	}
	return stats, nil
}
