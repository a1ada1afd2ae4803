package main

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seu-repo/sigec-route/internal/adapter/cache"
	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/ports"
	"github.com/seu-repo/sigec-route/internal/service/catalog"
	"github.com/seu-repo/sigec-route/internal/service/pricing"
	"github.com/seu-repo/sigec-route/internal/service/recommendation"
	"github.com/seu-repo/sigec-route/internal/service/trip"
	"github.com/seu-repo/sigec-route/pkg/config"
)

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}

// newCache connects to redis when configured and falls back to the
// in-process cache when redis is not reachable.
func newCache(cfg *config.Config, log *zap.Logger) ports.Cache {
	if cfg.Cache.Provider == "redis" && cfg.Redis.URL != "" {
		c, err := cache.NewRedisCache(cfg.Redis.URL, cache.RedisOptions{
			KeyPrefix:    cfg.Cache.KeyPrefix,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}, log)
		if err == nil {
			return c
		}
		log.Warn("Redis unavailable, falling back to local cache", zap.Error(err))
	}
	return cache.NewLocalCache(cfg.Cache.CleanupInterval, cfg.Cache.MaxEntries, log)
}

func pricingConfig(cfg config.PricingConfig) *pricing.Config {
	pc := pricing.DefaultConfig()
	if cfg.Currency != "" {
		pc.Currency = cfg.Currency
	}
	if cfg.FastPrice > 0 {
		pc.PricePerKWh[domain.ChargerKindFast] = cfg.FastPrice
	}
	if cfg.SlowPrice > 0 {
		pc.PricePerKWh[domain.ChargerKindSlow] = cfg.SlowPrice
	}
	if cfg.FastPowerKW > 0 {
		pc.PowerKW[domain.ChargerKindFast] = cfg.FastPowerKW
	}
	if cfg.SlowPowerKW > 0 {
		pc.PowerKW[domain.ChargerKindSlow] = cfg.SlowPowerKW
	}
	for name, rate := range cfg.TierDiscounts {
		tier, err := domain.ParseTier(name)
		if err != nil {
			continue
		}
		pc.TierDiscount[tier] = rate
	}
	if cfg.PointsDivisor > 0 {
		pc.PointsDivisor = cfg.PointsDivisor
	}
	return pc
}

func plannerConfig(cfg config.PlannerConfig) *trip.PlannerConfig {
	pc := &trip.PlannerConfig{
		RangeSafetyFactor:   cfg.RangeSafetyFactor,
		MidTripFloorPercent: cfg.MidTripFloorPercent,
		ArrivalFloorPercent: cfg.ArrivalFloorPercent,
		TargetPercent:       cfg.TargetPercent,
		MaxTargetPercent:    cfg.MaxTargetPercent,
		MaxDetourPercent:    cfg.MaxDetourPercent,
		AverageSpeedKmh:     cfg.AverageSpeedKmh,
	}
	for _, w := range cfg.TrafficWindows {
		pc.TrafficWindows = append(pc.TrafficWindows, trip.TrafficWindow{
			Hours:      domain.HourRange{Start: w.Start, End: w.End},
			Multiplier: w.Multiplier,
		})
	}
	return pc
}

func recommendationConfigs(cfg *config.Config) (*recommendation.Config, *recommendation.AssemblerConfig) {
	return &recommendation.Config{
			CacheTTL:      cfg.Cache.RecommendationTTL,
			TargetPercent: cfg.Recommendation.TargetPercent,
			MaxPercent:    cfg.Recommendation.MaxPercent,
		}, &recommendation.AssemblerConfig{
			ETASpeedKmh:        cfg.Recommendation.ETASpeedKmh,
			NearbyKm:           cfg.Recommendation.NearbyKm,
			ShortWaitMinutes:   cfg.Recommendation.ShortWaitMinutes,
			PeakWaitMultiplier: cfg.Recommendation.PeakWaitMultiplier,
		}
}

func breakerConfig(cfg config.CircuitBreakerConfig) *catalog.BreakerConfig {
	bc := catalog.DefaultBreakerConfig()
	if cfg.MaxRequests > 0 {
		bc.MaxRequests = uint32(cfg.MaxRequests)
	}
	if cfg.MinRequests > 0 {
		bc.MinRequests = uint32(cfg.MinRequests)
	}
	if cfg.Interval > 0 {
		bc.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		bc.Timeout = cfg.Timeout
	}
	if cfg.FailureThreshold > 0 {
		bc.FailureRatio = cfg.FailureThreshold
	}
	return bc
}
