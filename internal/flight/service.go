package flight

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"farewatch/pkg/cache"
	"farewatch/pkg/logger"
)

// OfferSource fetches live offers for one route and date.
type OfferSource interface {
	FetchOffers(ctx context.Context, req SearchRequest) ([]Offer, error)
}

type Service struct {
	source OfferSource
	cache  cache.Cache
	ttl    time.Duration
	labels Labels
	logger logger.Client
}

func NewService(source OfferSource, c cache.Cache, ttlMinutes int, labels Labels, log logger.Client) *Service {
	return &Service{
		source: source,
		cache:  c,
		ttl:    time.Duration(ttlMinutes) * time.Minute,
		labels: labels,
		logger: log,
	}
}

// generateCacheKey creates a deterministic key from search parameters
func (s *Service) generateCacheKey(req SearchRequest) string {
	maxPrice := "-"
	if req.MaxPrice != nil {
		maxPrice = fmt.Sprint(*req.MaxPrice)
	}
	key := fmt.Sprintf("%s:%s:%s:%s:%d:%s",
		req.Origin,
		req.Destination,
		req.DepartureDate,
		req.ReturnDate,
		req.Adults,
		maxPrice,
	)

	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("flight:search:%x", hash[:16])
}

// SearchFlights serves a route from cache, falling back to the provider.
func (s *Service) SearchFlights(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	offers, meta, err := s.loadOffers(ctx, req)
	if err != nil {
		return nil, err
	}
	meta.TotalResults = len(offers)
	return &SearchResponse{Metadata: meta, Offers: offers}, nil
}

// FilterFlights applies filters and sort to the cached results of a route,
// refreshing from the provider on a miss.
func (s *Service) FilterFlights(ctx context.Context, req FilterRequest) (*FilterResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	state := DefaultFilterState()
	if req.Filters != nil {
		state = *req.Filters
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}

	offers, meta, err := s.loadOffers(ctx, req.SearchRequest)
	if err != nil {
		return nil, err
	}

	if !KnownSortKey(state.SortBy) {
		s.logger.Warn("invalid_sort_criteria", logger.Field{Key: "sort_by", Value: string(state.SortBy)})
	}

	filtered := SortOffers(ApplyFilters(offers, state), state.SortBy)
	meta.TotalResults = len(filtered)

	return &FilterResponse{
		Metadata:      meta,
		Offers:        filtered,
		ActiveFilters: Summarize(state, s.labels),
	}, nil
}

// InvalidateCache manually invalidates cache for a specific route
func (s *Service) InvalidateCache(ctx context.Context, req SearchRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	cacheKey := s.generateCacheKey(req)
	s.logger.Info("cache_invalidated", logger.Field{Key: "cache_key", Value: cacheKey})
	return s.cache.Del(ctx, cacheKey)
}

func (s *Service) loadOffers(ctx context.Context, req SearchRequest) ([]Offer, Metadata, error) {
	cacheKey := s.generateCacheKey(req)

	var cached []Offer
	err := cache.GetJSON(ctx, s.cache, cacheKey, &cached)
	switch {
	case err == nil:
		s.logger.Debug("cache_hit", logger.Field{Key: "cache_key", Value: cacheKey})
		return cached, Metadata{CacheKey: cacheKey, CacheHit: true}, nil
	case errors.Is(err, cache.ErrMiss):
		s.logger.Debug("cache_miss", logger.Field{Key: "cache_key", Value: cacheKey})
	default:
		// A broken cache must not take search down with it.
		s.logger.Error("cache_read_failed", logger.Field{Key: "cache_key", Value: cacheKey}, logger.Err(err))
	}

	start := time.Now()
	offers, err := s.source.FetchOffers(ctx, req)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("failed to refresh search results: %w", err)
	}
	elapsed := time.Since(start)

	if err := cache.SetJSON(ctx, s.cache, cacheKey, offers, s.ttl); err != nil {
		s.logger.Error("cache_write_failed", logger.Field{Key: "cache_key", Value: cacheKey}, logger.Err(err))
	}

	s.logger.Info("offers_fetched",
		logger.Field{Key: "route", Value: req.Origin + "->" + req.Destination},
		logger.Field{Key: "count", Value: len(offers)},
		logger.Field{Key: "elapsed", Value: elapsed},
	)
	return offers, Metadata{CacheKey: cacheKey, SearchTimeMs: elapsed.Milliseconds()}, nil
}
