package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/ports"
)

// Source loads the full station list for a catalog reload
type Source interface {
	Name() string
	Load(ctx context.Context) ([]domain.Station, error)
}

// FileSource reads a JSON catalog document from disk
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string {
	return "file"
}

func (s *FileSource) Load(ctx context.Context) ([]domain.Station, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", s.path, err)
	}
	return ParseCatalog(data)
}

// BreakerConfig tunes the breaker guarding the repository source
type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  3,
	}
}

// RepositorySource loads stations from the database. Calls go through a
// circuit breaker so a failing database does not stall periodic reloads.
type RepositorySource struct {
	repo    ports.StationRepository
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

func NewRepositorySource(repo ports.StationRepository, cfg *BreakerConfig, log *zap.Logger) *RepositorySource {
	if cfg == nil {
		cfg = DefaultBreakerConfig()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "station-catalog",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Catalog source circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &RepositorySource{repo: repo, breaker: cb, log: log}
}

func (s *RepositorySource) Name() string {
	return "postgres"
}

func (s *RepositorySource) Load(ctx context.Context) ([]domain.Station, error) {
	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.repo.FindAll(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("station repository unavailable: %w", err)
		}
		return nil, fmt.Errorf("failed to load stations: %w", err)
	}

	stations := out.([]domain.Station)
	for i := range stations {
		if err := validateStored(i, stations[i]); err != nil {
			return nil, err
		}
	}
	return stations, nil
}

// State exposes the breaker state for health reporting
func (s *RepositorySource) State() gobreaker.State {
	return s.breaker.State()
}

// validateStored applies the same rules as Normalize to rows that were
// written through the repository rather than parsed from a feed.
func validateStored(i int, st domain.Station) error {
	prefix := fmt.Sprintf("stations[%d]", i)
	if st.ID == "" {
		return domain.NewValidationError(prefix+".id", "is required")
	}
	if err := st.Location.Validate(prefix + ".location"); err != nil {
		return err
	}
	for j, c := range st.Chargers {
		if !c.Kind.Valid() {
			return domain.NewValidationError(fmt.Sprintf("%s.chargers[%d].kind", prefix, j), fmt.Sprintf("unknown charger kind %q", c.Kind))
		}
		if !c.Status.Valid() {
			return domain.NewValidationError(fmt.Sprintf("%s.chargers[%d].status", prefix, j), fmt.Sprintf("unknown charger status %q", c.Status))
		}
	}
	return nil
}

// Seed copies every station from src into repo when the repository holds
// no stations yet. It returns how many stations were written.
func Seed(ctx context.Context, repo ports.StationRepository, src Source, log *zap.Logger) (int, error) {
	existing, err := repo.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check station table: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	stations, err := src.Load(ctx)
	if err != nil {
		return 0, err
	}
	for i := range stations {
		if err := repo.Save(ctx, &stations[i]); err != nil {
			return i, fmt.Errorf("failed to seed station %s: %w", stations[i].ID, err)
		}
	}

	log.Info("Station table seeded", zap.String("source", src.Name()), zap.Int("stations", len(stations)))
	return len(stations), nil
}
