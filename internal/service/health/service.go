package health

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/adapter/queue"
	"github.com/seu-repo/sigec-route/internal/ports"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CatalogInfo identifies the station snapshot the instance is serving, so
// instances behind a load balancer can be compared
type CatalogInfo struct {
	Version  uint64    `json:"version"`
	Source   string    `json:"source"`
	Stations int       `json:"stations"`
	LoadedAt time.Time `json:"loaded_at"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Catalog   *CatalogInfo           `json:"catalog,omitempty"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Checker defines a health check function
type Checker func(ctx context.Context) CheckResult

// Service handles health checks
type Service struct {
	startTime time.Time
	version   string
	timeout   time.Duration
	checkers  map[string]Checker
	catalog   ports.StationCatalog
	log       *zap.Logger
	mu        sync.RWMutex
}

// Config holds health service configuration. Every dependency is optional;
// only the ones present get a checker.
type Config struct {
	Version string
	Timeout time.Duration
	DB      *sql.DB
	Cache   ports.Cache
	Queue   queue.MessageQueue
	Catalog ports.StationCatalog
}

// NewService creates a new health service
func NewService(config *Config, log *zap.Logger) *Service {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	s := &Service{
		startTime: time.Now(),
		version:   config.Version,
		timeout:   timeout,
		checkers:  make(map[string]Checker),
		catalog:   config.Catalog,
		log:       log,
	}

	if config.DB != nil {
		s.RegisterChecker("database", pingChecker("database", log, config.DB.PingContext))
	}
	if config.Cache != nil {
		s.RegisterChecker("cache", pingChecker("cache", log, func(context.Context) error {
			return config.Cache.Ping()
		}))
	}
	if hc, ok := config.Queue.(queue.HealthChecker); ok {
		s.RegisterChecker("queue", pingChecker("queue", log, func(context.Context) error {
			return hc.HealthCheck()
		}))
	}
	if config.Catalog != nil {
		s.RegisterChecker("catalog", CatalogChecker(config.Catalog))
	}

	return s
}

// RegisterChecker registers a custom health checker
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.log.Info("Registered health checker", zap.String("name", name))
}

// Health performs a basic liveness check
func (s *Service) Health(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now(),
	}
}

// Ready runs every checker concurrently. Degraded checks keep the service
// ready; any unhealthy check does not.
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for k, v := range s.checkers {
		checkers[k] = v
	}
	s.mu.RUnlock()

	results := make(map[string]CheckResult)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			result := checker(checkCtx)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()

	overallStatus := StatusHealthy
	allReady := true

	for _, result := range results {
		if result.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			allReady = false
		} else if result.Status == StatusDegraded && overallStatus != StatusUnhealthy {
			overallStatus = StatusDegraded
		}
	}

	return &ReadyResponse{
		Ready:     allReady,
		Status:    overallStatus,
		Timestamp: time.Now(),
		Catalog:   s.catalogInfo(),
		Checks:    results,
	}
}

func (s *Service) catalogInfo() *CatalogInfo {
	if s.catalog == nil {
		return nil
	}
	snap := s.catalog.Current()
	if snap == nil {
		return nil
	}
	return &CatalogInfo{
		Version:  snap.Version,
		Source:   snap.Source,
		Stations: snap.Len(),
		LoadedAt: snap.LoadedAt,
	}
}

func pingChecker(name string, log *zap.Logger, ping func(ctx context.Context) error) Checker {
	return func(ctx context.Context) CheckResult {
		start := time.Now()
		err := ping(ctx)
		result := CheckResult{
			Name:      name,
			Duration:  time.Since(start),
			Timestamp: time.Now(),
		}
		if err != nil {
			result.Status = StatusUnhealthy
			result.Message = fmt.Sprintf("ping failed: %v", err)
			log.Warn("Health check failed", zap.String("name", name), zap.Error(err))
			return result
		}
		result.Status = StatusHealthy
		result.Message = "connection ok"
		return result
	}
}

// CatalogChecker is unhealthy until the first snapshot is loaded and
// degraded while the catalog is empty.
func CatalogChecker(catalog ports.StationCatalog) Checker {
	return func(ctx context.Context) CheckResult {
		snap := catalog.Current()
		result := CheckResult{
			Name:      "catalog",
			Timestamp: time.Now(),
		}
		switch {
		case snap == nil || snap.Version == 0:
			result.Status = StatusUnhealthy
			result.Message = "catalog not loaded"
		case snap.Len() == 0:
			result.Status = StatusDegraded
			result.Message = fmt.Sprintf("catalog version %d has no stations", snap.Version)
		default:
			result.Status = StatusHealthy
			result.Message = fmt.Sprintf("version %d, %d stations from %s", snap.Version, snap.Len(), snap.Source)
		}
		return result
	}
}
