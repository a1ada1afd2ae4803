package config

import (
	"fmt"
	"time"
)

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	GRPC           GRPCConfig           `mapstructure:"grpc"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Queue          QueueConfig          `mapstructure:"queue"`
	JWT            JWTConfig            `mapstructure:"jwt"`
	Vault          VaultConfig          `mapstructure:"vault"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	CORS           CORSConfig           `mapstructure:"cors"`
	Websocket      WebsocketConfig      `mapstructure:"websocket"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Catalog        CatalogConfig        `mapstructure:"catalog"`
	Scoring        ScoringConfig        `mapstructure:"scoring"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Pricing        PricingConfig        `mapstructure:"pricing"`
	Planner        PlannerConfig        `mapstructure:"planner"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	BodyLimit    int           `mapstructure:"body_limit"`
}

type GRPCConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	Port           int  `mapstructure:"port"`
	MaxConnections int  `mapstructure:"max_connections"`
}

// DatabaseConfig is optional: an empty URL disables saved trips and the
// postgres catalog source.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type QueueConfig struct {
	Provider      string `mapstructure:"provider"` // nats, rabbitmq or memory
	URL           string `mapstructure:"url"`
	Name          string `mapstructure:"name"`
	MaxReconnects int    `mapstructure:"max_reconnects"`
}

type JWTConfig struct {
	Secret               string        `mapstructure:"secret"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration"`
	Issuer               string        `mapstructure:"issuer"`
}

type VaultConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	MountPath  string `mapstructure:"mount_path"`
	SecretPath string `mapstructure:"secret_path"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
	ServiceName string       `mapstructure:"service_name"`
}

type JaegerConfig struct {
	Endpoint     string  `mapstructure:"endpoint"`
	SamplerParam float64 `mapstructure:"sampler_param"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      int           `mapstructure:"max_requests"`
	MinRequests      int           `mapstructure:"min_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	ExposeHeaders  []string `mapstructure:"expose_headers"`
	MaxAge         int      `mapstructure:"max_age"`
	Credentials    bool     `mapstructure:"credentials"`
}

type WebsocketConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type CacheConfig struct {
	Provider          string        `mapstructure:"provider"` // redis or local
	RecommendationTTL time.Duration `mapstructure:"recommendation_ttl"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	MaxEntries        int           `mapstructure:"max_entries"`
	KeyPrefix         string        `mapstructure:"key_prefix"`
}

type CatalogConfig struct {
	Source         string        `mapstructure:"source"` // file or postgres
	Path           string        `mapstructure:"path"`
	ReloadInterval time.Duration `mapstructure:"reload_interval"`
	PersistStatus  bool          `mapstructure:"persist_status"`
	// SeedDatabase copies the file catalog into postgres when the table is empty
	SeedDatabase bool `mapstructure:"seed_database"`
}

type ScoringConfig struct {
	TopK int `mapstructure:"top_k"`
}

type RecommendationConfig struct {
	TargetPercent    float64 `mapstructure:"target_percent"`
	MaxPercent       float64 `mapstructure:"max_percent"`
	ETASpeedKmh      float64 `mapstructure:"eta_speed_kmh"`
	NearbyKm         float64 `mapstructure:"nearby_km"`
	ShortWaitMinutes float64 `mapstructure:"short_wait_minutes"`
	// PeakWaitMultiplier scales average waits inside a station's peak hours
	PeakWaitMultiplier float64 `mapstructure:"peak_wait_multiplier"`
}

type PricingConfig struct {
	Currency      string             `mapstructure:"currency"`
	FastPrice     float64            `mapstructure:"fast_price_per_kwh"`
	SlowPrice     float64            `mapstructure:"slow_price_per_kwh"`
	FastPowerKW   float64            `mapstructure:"fast_power_kw"`
	SlowPowerKW   float64            `mapstructure:"slow_power_kw"`
	TierDiscounts map[string]float64 `mapstructure:"tier_discounts"`
	PointsDivisor float64            `mapstructure:"points_divisor"`
}

type PlannerConfig struct {
	RangeSafetyFactor   float64               `mapstructure:"range_safety_factor"`
	MidTripFloorPercent float64               `mapstructure:"mid_trip_floor_percent"`
	ArrivalFloorPercent float64               `mapstructure:"arrival_floor_percent"`
	TargetPercent       float64               `mapstructure:"target_percent"`
	MaxTargetPercent    float64               `mapstructure:"max_target_percent"`
	MaxDetourPercent    float64               `mapstructure:"max_detour_percent"`
	AverageSpeedKmh     float64               `mapstructure:"average_speed_kmh"`
	TrafficWindows      []TrafficWindowConfig `mapstructure:"traffic_windows"`
}

type TrafficWindowConfig struct {
	Start      int     `mapstructure:"start"`
	End        int     `mapstructure:"end"`
	Multiplier float64 `mapstructure:"multiplier"`
}

// Validate reports the first setting that would stop the server from starting
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	switch c.Queue.Provider {
	case "nats", "rabbitmq", "memory":
	default:
		return fmt.Errorf("queue.provider must be nats, rabbitmq or memory, got %q", c.Queue.Provider)
	}
	switch c.Cache.Provider {
	case "redis", "local":
	default:
		return fmt.Errorf("cache.provider must be redis or local, got %q", c.Cache.Provider)
	}
	switch c.Catalog.Source {
	case "file":
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for the file source")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres catalog source")
		}
	default:
		return fmt.Errorf("catalog.source must be file or postgres, got %q", c.Catalog.Source)
	}
	if c.Scoring.TopK <= 0 {
		return fmt.Errorf("scoring.top_k must be positive")
	}
	if c.Recommendation.TargetPercent <= 0 || c.Recommendation.TargetPercent > c.Recommendation.MaxPercent || c.Recommendation.MaxPercent > 100 {
		return fmt.Errorf("recommendation target must satisfy 0 < target_percent <= max_percent <= 100")
	}
	p := c.Planner
	if p.RangeSafetyFactor < 1 {
		return fmt.Errorf("planner.range_safety_factor must be at least 1")
	}
	if p.TargetPercent > p.MaxTargetPercent || p.MaxTargetPercent > 100 {
		return fmt.Errorf("planner.target_percent must not exceed max_target_percent")
	}
	if p.AverageSpeedKmh <= 0 {
		return fmt.Errorf("planner.average_speed_kmh must be positive")
	}
	for i, w := range p.TrafficWindows {
		if w.Start < 0 || w.Start > 23 || w.End < 0 || w.End > 23 {
			return fmt.Errorf("planner.traffic_windows[%d] hours must be between 0 and 23", i)
		}
		if w.Multiplier <= 0 {
			return fmt.Errorf("planner.traffic_windows[%d].multiplier must be positive", i)
		}
	}
	return nil
}
