package recommendation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/observability/telemetry"
	"github.com/seu-repo/sigec-route/internal/ports"
)

type Config struct {
	CacheTTL      time.Duration
	TargetPercent float64 // charge target used for cost estimates
	MaxPercent    float64 // target when the battery is already at or above TargetPercent
}

func DefaultConfig() *Config {
	return &Config{
		CacheTTL:      30 * time.Second,
		TargetPercent: 80,
		MaxPercent:    100,
	}
}

// Service ranks the current catalog for a driver and prices the top stations
type Service struct {
	cfg       *Config
	catalog   ports.StationCatalog
	scorer    ports.StationScorer
	estimator ports.CostEstimator
	assembler *Assembler
	cache     ports.Cache
	now       func() time.Time
	log       *zap.Logger
}

// NewService creates the recommendation service. cache may be nil.
func NewService(cfg *Config, catalog ports.StationCatalog, scorer ports.StationScorer, estimator ports.CostEstimator, assembler *Assembler, cache ports.Cache, log *zap.Logger) ports.RecommendationService {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if assembler == nil {
		assembler = NewAssembler(nil)
	}
	return &Service{
		cfg:       cfg,
		catalog:   catalog,
		scorer:    scorer,
		estimator: estimator,
		assembler: assembler,
		cache:     cache,
		now:       time.Now,
		log:       log,
	}
}

// ScoreStations ranks the current snapshot and reports which version was used
func (s *Service) ScoreStations(ctx context.Context, user domain.UserContext) ([]domain.ScoreResult, uint64, error) {
	if err := user.Normalize(); err != nil {
		return nil, 0, err
	}
	snap := s.catalog.Current()
	return s.rank(ctx, snap, user), snap.Version, nil
}

func (s *Service) Recommend(ctx context.Context, user domain.UserContext) (*domain.RecommendationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "recommendation.Recommend")
	defer span.End()

	if err := user.Normalize(); err != nil {
		return nil, err
	}

	// one snapshot for the whole request
	snap := s.catalog.Current()
	span.SetAttributes(
		attribute.Int64("catalog.version", int64(snap.Version)),
		attribute.String("urgency", string(user.Preferences.Urgency)),
	)

	now := s.now()
	key := cacheKey(snap.Version, now.Hour(), user)
	if resp, ok := s.fromCache(ctx, key); ok {
		telemetry.RecommendationsServed.WithLabelValues(string(user.Preferences.Urgency), "hit").Inc()
		return resp, nil
	}

	scored := s.rank(ctx, snap, user)

	costs := make(map[string]domain.CostEstimate, len(scored))
	from, to, ok := s.chargeWindow(user.BatteryPercent)
	if ok {
		for _, r := range scored {
			kind := r.Station.ChargingKind(user.Preferences.PreferFast)
			cost, err := s.estimator.EstimateSessionCost(from, to, user.BatteryCapacityKWh, kind, user.Preferences.Tier)
			if err != nil {
				return nil, fmt.Errorf("failed to estimate cost for %s: %w", r.Station.ID, err)
			}
			costs[r.Station.ID] = cost
		}
	}

	resp := &domain.RecommendationResponse{
		CatalogVersion:  snap.Version,
		Urgency:         user.Preferences.Urgency,
		Recommendations: s.assembler.Assemble(scored, costs, 0, now),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
			s.log.Warn("Failed to cache recommendations", zap.Error(err))
		}
	}

	telemetry.RecommendationsServed.WithLabelValues(string(user.Preferences.Urgency), "miss").Inc()
	s.log.Info("Recommendations served",
		zap.Uint64("catalog_version", snap.Version),
		zap.String("urgency", string(user.Preferences.Urgency)),
		zap.Int("count", len(resp.Recommendations)),
	)
	return resp, nil
}

func (s *Service) rank(ctx context.Context, snap *domain.StationSnapshot, user domain.UserContext) []domain.ScoreResult {
	_, span := telemetry.StartSpan(ctx, "scoring.Rank")
	defer span.End()

	start := time.Now()
	results := s.scorer.Rank(snap.Stations(), *user.Location, user.Preferences)
	telemetry.ScoringLatency.Observe(time.Since(start).Seconds())

	span.SetAttributes(
		attribute.Int("stations", snap.Len()),
		attribute.Int("results", len(results)),
	)
	return results
}

// chargeWindow returns the session to price: up to TargetPercent, or to
// MaxPercent when already past it. A full battery is not priced.
func (s *Service) chargeWindow(battery float64) (float64, float64, bool) {
	switch {
	case battery < s.cfg.TargetPercent:
		return battery, s.cfg.TargetPercent, true
	case battery < s.cfg.MaxPercent:
		return battery, s.cfg.MaxPercent, true
	default:
		return 0, 0, false
	}
}

func (s *Service) fromCache(ctx context.Context, key string) (*domain.RecommendationResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	val, err := s.cache.Get(ctx, key)
	if err != nil || val == "" {
		telemetry.CacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	}
	var resp domain.RecommendationResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		telemetry.CacheRequests.WithLabelValues("corrupt").Inc()
		s.log.Warn("Discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	telemetry.CacheRequests.WithLabelValues("hit").Inc()
	return &resp, true
}

// cacheKey ties an entry to the snapshot version so status updates
// invalidate it implicitly. The hour keeps peak-hour waits from being
// served out of their window.
func cacheKey(version uint64, hour int, user domain.UserContext) string {
	data, _ := json.Marshal(user)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("rec:v%d:h%02d:%s", version, hour, hex.EncodeToString(sum[:12]))
}
