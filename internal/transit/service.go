// Package transit holds the connection result model and the journey-search
// collaborator contract.
package transit

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/transitdesk/transitdesk/internal/telemetry"
)

const tracerName = "github.com/transitdesk/transitdesk/internal/transit"

// Provider defines the interface for journey-search backends.
type Provider interface {
	// SearchLocation returns candidate station names for free text.
	SearchLocation(ctx context.Context, query string) ([]string, error)

	// SearchConnection returns itineraries matching the request.
	SearchConnection(ctx context.Context, req SearchRequest) ([]Connection, error)

	// Name returns the provider name for logging.
	Name() string
}

// ServiceConfig holds configuration for the transit service.
type ServiceConfig struct {
	// Provider is the journey-search backend.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records search and lookup outcomes (optional).
	Metrics *telemetry.Metrics

	// LocationCacheTTL is how long successful location lookups are reused
	// (default: 10 minutes). Station names change rarely.
	LocationCacheTTL time.Duration

	// MaxCachedQueries bounds the location cache (default: 512).
	MaxCachedQueries int
}

// Service fronts a Provider with a location lookup cache, logging and tracing.
type Service struct {
	provider   Provider
	logger     zerolog.Logger
	metrics    *telemetry.Metrics
	tracer     trace.Tracer
	cacheTTL   time.Duration
	maxEntries int

	mu            sync.RWMutex
	locationCache map[string]*cachedLocations
}

type cachedLocations struct {
	names     []string
	expiresAt time.Time
}

// NewService creates a new transit service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.LocationCacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	maxEntries := cfg.MaxCachedQueries
	if maxEntries == 0 {
		maxEntries = 512
	}

	return &Service{
		provider:      cfg.Provider,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		tracer:        otel.Tracer(tracerName),
		cacheTTL:      cacheTTL,
		maxEntries:    maxEntries,
		locationCache: make(map[string]*cachedLocations),
	}
}

// Name returns the underlying provider name.
func (s *Service) Name() string {
	return s.provider.Name()
}

// SearchLocation returns station names for query, served from cache when fresh.
// Failed lookups are not cached.
func (s *Service) SearchLocation(ctx context.Context, query string) ([]string, error) {
	key := strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	if cached, ok := s.locationCache[key]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.metrics.RecordLookup(ctx, s.provider.Name(), true, nil)
		return cached.names, nil
	}
	s.mu.RUnlock()

	names, err := s.provider.SearchLocation(ctx, query)
	s.metrics.RecordLookup(ctx, s.provider.Name(), false, err)
	if err != nil {
		s.logger.Debug().Err(err).
			Str("query", query).
			Str("provider", s.provider.Name()).
			Msg("location lookup failed")
		return nil, err
	}

	s.mu.Lock()
	if len(s.locationCache) >= s.maxEntries {
		s.evictExpired()
	}
	if len(s.locationCache) < s.maxEntries {
		s.locationCache[key] = &cachedLocations{
			names:     names,
			expiresAt: time.Now().Add(s.cacheTTL),
		}
	}
	s.mu.Unlock()

	return names, nil
}

// SearchConnection forwards the request to the provider.
func (s *Service) SearchConnection(ctx context.Context, req SearchRequest) ([]Connection, error) {
	ctx, span := s.tracer.Start(ctx, "transit.SearchConnection",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("transit.provider", s.provider.Name()),
			attribute.Int("transit.vias", len(req.Vias)),
			attribute.Bool("transit.arrival", req.IsArrivalTime),
		),
	)
	defer span.End()

	start := time.Now()

	s.logger.Debug().
		Str("from", req.From).
		Str("to", req.To).
		Strs("vias", req.Vias).
		Str("provider", s.provider.Name()).
		Msg("searching connections")

	connections, err := s.provider.SearchConnection(ctx, req)
	s.metrics.RecordSearch(ctx, s.provider.Name(), time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error().Err(err).
			Str("from", req.From).
			Str("to", req.To).
			Msg("connection search failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("transit.connections", len(connections)))
	s.logger.Info().
		Int("connections", len(connections)).
		Dur("took", time.Since(start)).
		Msg("connection search completed")

	return connections, nil
}

// evictExpired removes stale cache entries. Caller holds s.mu.
func (s *Service) evictExpired() {
	now := time.Now()
	expired := 0
	for key, cached := range s.locationCache {
		if now.After(cached.expiresAt) {
			delete(s.locationCache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired location cache entries")
	}
}

// InvalidateCache clears all cached lookups.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locationCache = make(map[string]*cachedLocations)
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	stats := CacheStats{
		Provider:        s.provider.Name(),
		LocationEntries: len(s.locationCache),
	}
	for _, cached := range s.locationCache {
		if now.Before(cached.expiresAt) {
			stats.FreshEntries++
		}
	}
	return stats
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Provider        string
	LocationEntries int
	FreshEntries    int
}
