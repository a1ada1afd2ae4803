package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml (when present), a local .env file and the
// environment, in increasing order of precedence. Extra paths are searched
// before the standard locations.
func Load(paths ...string) (*Config, error) {
	// .env is a development convenience; a missing file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AddConfigPath("/app/configs")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	v.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	v.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	v.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	v.BindEnv("queue.url", "NATS_URL", "AMQP_URL", "APP_QUEUE_URL")
	v.BindEnv("jwt.secret", "JWT_SECRET", "APP_JWT_SECRET")
	v.BindEnv("vault.address", "VAULT_ADDR", "APP_VAULT_ADDRESS")
	v.BindEnv("vault.token", "VAULT_TOKEN", "APP_VAULT_TOKEN")
	v.BindEnv("catalog.path", "STATIONS_FILE", "APP_CATALOG_PATH")
	v.BindEnv("app.environment", "APP_ENVIRONMENT")
	v.BindEnv("logging.level", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults are static and always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sigec-route")
	v.SetDefault("app.version", "v1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.body_limit", 1<<20)

	v.SetDefault("grpc.enabled", true)
	v.SetDefault("grpc.port", 50051)
	v.SetDefault("grpc.max_connections", 100)

	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("queue.provider", "memory")
	v.SetDefault("queue.name", "sigec-route")
	v.SetDefault("queue.max_reconnects", 10)

	v.SetDefault("jwt.secret", "dev-secret-change-me")
	v.SetDefault("jwt.access_token_duration", 15*time.Minute)
	v.SetDefault("jwt.refresh_token_duration", 7*24*time.Hour)
	v.SetDefault("jwt.issuer", "sigec-route")

	v.SetDefault("vault.mount_path", "secret")
	v.SetDefault("vault.secret_path", "sigec-route")

	v.SetDefault("opentelemetry.service_name", "sigec-route")
	v.SetDefault("opentelemetry.jaeger.endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("opentelemetry.jaeger.sampler_param", 1.0)

	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.min_requests", 3)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_threshold", 0.6)

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization"})
	v.SetDefault("cors.max_age", 3600)

	v.SetDefault("websocket.enabled", true)
	v.SetDefault("websocket.path", "/ws/stations")

	v.SetDefault("cache.provider", "local")
	v.SetDefault("cache.recommendation_ttl", 30*time.Second)
	v.SetDefault("cache.cleanup_interval", time.Minute)
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.key_prefix", "sigec-route:")

	v.SetDefault("catalog.source", "file")
	v.SetDefault("catalog.path", "data/stations.json")
	v.SetDefault("catalog.reload_interval", 5*time.Minute)

	v.SetDefault("scoring.top_k", 3)

	v.SetDefault("recommendation.target_percent", 80.0)
	v.SetDefault("recommendation.max_percent", 100.0)
	v.SetDefault("recommendation.eta_speed_kmh", 30.0)
	v.SetDefault("recommendation.nearby_km", 3.0)
	v.SetDefault("recommendation.short_wait_minutes", 10.0)
	v.SetDefault("recommendation.peak_wait_multiplier", 1.5)

	v.SetDefault("pricing.currency", "KRW")
	v.SetDefault("pricing.fast_price_per_kwh", 250.0)
	v.SetDefault("pricing.slow_price_per_kwh", 180.0)
	v.SetDefault("pricing.fast_power_kw", 150.0)
	v.SetDefault("pricing.slow_power_kw", 50.0)
	v.SetDefault("pricing.tier_discounts", map[string]float64{
		"individual": 0,
		"premium":    0.10,
		"fleet":      0.15,
		"business":   0.20,
	})
	v.SetDefault("pricing.points_divisor", 100.0)

	v.SetDefault("planner.range_safety_factor", 1.2)
	v.SetDefault("planner.mid_trip_floor_percent", 20.0)
	v.SetDefault("planner.arrival_floor_percent", 15.0)
	v.SetDefault("planner.target_percent", 80.0)
	v.SetDefault("planner.max_target_percent", 100.0)
	v.SetDefault("planner.max_detour_percent", 30.0)
	v.SetDefault("planner.average_speed_kmh", 70.0)
	v.SetDefault("planner.traffic_windows", []map[string]interface{}{
		{"start": 7, "end": 10, "multiplier": 1.3},
		{"start": 17, "end": 20, "multiplier": 1.3},
		{"start": 22, "end": 6, "multiplier": 0.9},
	})
}
