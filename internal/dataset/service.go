package dataset

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// Service coordinates dataset loading with the cache layer. Concurrent
// loads of the same version collapse into one call to the source.
type Service struct {
	source Source
	name   string
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
}

// NewService wires a Source with a Cache helper. name identifies the source
// in cache keys.
func NewService(source Source, name string, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, name: name, cache: cache, logger: logger}
}

// Load returns the current record set.
func (s *Service) Load(ctx context.Context) (*SalesRecordSet, error) {
	if s == nil || s.source == nil {
		return nil, fmt.Errorf("dataset: service not configured")
	}
	key, err := s.cache.BuildKey(ctx, s.name)
	if err != nil {
		s.logger.Warn("dataset cache key", slog.Any("error", err))
		return s.source.Load(ctx)
	}
	ch := s.group.DoChan(key, func() (any, error) {
		var set SalesRecordSet
		err := s.cache.FetchJSON(ctx, key, &set, func(ctx context.Context) (any, error) {
			s.logger.Debug("dataset cache miss", slog.String("key", key))
			return s.source.Load(ctx)
		})
		if err != nil {
			return nil, err
		}
		return &set, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*SalesRecordSet), nil
	}
}

// Invalidate bumps the cache version so the next Load reaches the source.
func (s *Service) Invalidate(ctx context.Context) error {
	ver, err := s.cache.Bump(ctx)
	if err != nil {
		return fmt.Errorf("dataset: bump cache: %w", err)
	}
	s.logger.Info("dataset cache invalidated", slog.Int64("version", ver))
	return nil
}
