package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/adapter/queue"
	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/observability/telemetry"
	"github.com/seu-repo/sigec-route/internal/ports"
)

// Broadcaster pushes applied status updates to connected clients
type Broadcaster interface {
	Broadcast(data []byte)
}

type Config struct {
	ReloadInterval time.Duration
	// PersistStatus writes applied updates back through the station repository
	PersistStatus bool
}

func DefaultConfig() *Config {
	return &Config{
		ReloadInterval: 5 * time.Minute,
	}
}

// ReloadedEvent is published after every successful reload
type ReloadedEvent struct {
	Version  uint64    `json:"version"`
	Stations int       `json:"stations"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Service holds the current catalog snapshot. Readers load it through an
// atomic pointer; writers build a new snapshot and swap it in.
type Service struct {
	cfg     *Config
	source  Source
	repo    ports.StationRepository
	mq      queue.MessageQueue
	hub     Broadcaster
	current atomic.Pointer[domain.StationSnapshot]
	version uint64
	writeMu sync.Mutex
	log     *zap.Logger
}

// NewService creates the catalog holder. repo, mq and hub may be nil.
func NewService(cfg *Config, source Source, repo ports.StationRepository, mq queue.MessageQueue, hub Broadcaster, log *zap.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Service{
		cfg:    cfg,
		source: source,
		repo:   repo,
		mq:     mq,
		hub:    hub,
		log:    log,
	}
	s.current.Store(domain.NewStationSnapshot(0, "empty", nil))
	return s
}

// Current returns the snapshot to use for one request
func (s *Service) Current() *domain.StationSnapshot {
	return s.current.Load()
}

func (s *Service) GetStation(ctx context.Context, id string) (*domain.Station, error) {
	st, ok := s.Current().Get(id)
	if !ok {
		return nil, domain.NewNotFoundError("station", id)
	}
	out := st.Clone()
	return &out, nil
}

// Reload replaces the catalog from the source. Charger status and wait time
// applied from the live feed after the source copy was written are carried
// over, so a reload never rolls a station back to older state. On failure
// the previous snapshot stays in place.
func (s *Service) Reload(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "catalog.Reload")
	defer span.End()

	stations, err := s.source.Load(ctx)
	if err != nil {
		telemetry.CatalogReloads.WithLabelValues(s.source.Name(), "error").Inc()
		span.RecordError(err)
		s.log.Error("Failed to reload station catalog",
			zap.String("source", s.source.Name()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to reload catalog: %w", err)
	}

	s.writeMu.Lock()
	stations = carryLiveState(s.current.Load(), stations)
	snap := s.swapLocked(s.source.Name(), stations)
	s.writeMu.Unlock()
	telemetry.CatalogReloads.WithLabelValues(s.source.Name(), "success").Inc()

	s.log.Info("Station catalog reloaded",
		zap.String("source", snap.Source),
		zap.Uint64("version", snap.Version),
		zap.Int("stations", snap.Len()),
	)

	if s.mq != nil {
		data, _ := json.Marshal(ReloadedEvent{
			Version:  snap.Version,
			Stations: snap.Len(),
			Source:   snap.Source,
			LoadedAt: snap.LoadedAt,
		})
		if err := s.mq.Publish(queue.SubjectCatalogReloaded, data); err != nil {
			s.log.Warn("Failed to publish catalog reload event", zap.Error(err))
		}
	}
	return nil
}

// Replace installs stations as a new snapshot without going through the source
func (s *Service) Replace(source string, stations []domain.Station) *domain.StationSnapshot {
	return s.publish(source, stations)
}

func (s *Service) publish(source string, stations []domain.Station) *domain.StationSnapshot {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.swapLocked(source, stations)
}

func (s *Service) swapLocked(source string, stations []domain.Station) *domain.StationSnapshot {
	s.version++
	snap := domain.NewStationSnapshot(s.version, source, stations)
	s.current.Store(snap)

	telemetry.CatalogStations.Set(float64(snap.Len()))
	telemetry.CatalogVersion.Set(float64(snap.Version))
	return snap
}

// carryLiveState returns loaded with live fields taken from cur wherever the
// current copy of a station is newer than the loaded one
func carryLiveState(cur *domain.StationSnapshot, loaded []domain.Station) []domain.Station {
	out := make([]domain.Station, len(loaded))
	for i, st := range loaded {
		live, ok := cur.Get(st.ID)
		if !ok || live.UpdatedAt.IsZero() || !live.UpdatedAt.After(st.UpdatedAt) {
			out[i] = st
			continue
		}
		merged := st.Clone()
		for j := range merged.Chargers {
			for _, ch := range live.Chargers {
				if ch.ID == merged.Chargers[j].ID {
					merged.Chargers[j].Status = ch.Status
					break
				}
			}
		}
		merged.Usage.AvgWaitMinutes = live.Usage.AvgWaitMinutes
		merged.UpdatedAt = live.UpdatedAt
		out[i] = merged
	}
	return out
}

// ApplyStatusUpdate publishes a new snapshot with one charger's status
// changed. Updates older than the station's last update are ignored.
func (s *Service) ApplyStatusUpdate(ctx context.Context, update domain.ChargerStatusUpdate) error {
	if update.StationID == "" {
		return domain.NewValidationError("station_id", "is required")
	}
	if update.ChargerID == "" {
		return domain.NewValidationError("charger_id", "is required")
	}
	if !update.Status.Valid() {
		return domain.NewValidationError("status", fmt.Sprintf("unknown charger status %q", update.Status))
	}
	if update.AvgWaitMinutes != nil && *update.AvgWaitMinutes < 0 {
		return domain.NewValidationError("avg_wait_minutes", "must not be negative")
	}
	if update.ObservedAt.IsZero() {
		update.ObservedAt = time.Now()
	}

	s.writeMu.Lock()
	cur := s.current.Load()
	st, ok := cur.Get(update.StationID)
	if !ok {
		s.writeMu.Unlock()
		telemetry.StatusUpdatesTotal.WithLabelValues("unknown_station").Inc()
		return domain.NewNotFoundError("station", update.StationID)
	}
	if !st.UpdatedAt.IsZero() && update.ObservedAt.Before(st.UpdatedAt) {
		s.writeMu.Unlock()
		telemetry.StatusUpdatesTotal.WithLabelValues("stale").Inc()
		s.log.Debug("Ignoring stale charger status update",
			zap.String("station_id", update.StationID),
			zap.String("charger_id", update.ChargerID),
		)
		return nil
	}

	updated := st.Clone()
	found := false
	for i := range updated.Chargers {
		if updated.Chargers[i].ID == update.ChargerID {
			updated.Chargers[i].Status = update.Status
			found = true
			break
		}
	}
	if !found {
		s.writeMu.Unlock()
		telemetry.StatusUpdatesTotal.WithLabelValues("unknown_charger").Inc()
		return domain.NewNotFoundError("charger", update.ChargerID)
	}
	if update.AvgWaitMinutes != nil {
		updated.Usage.AvgWaitMinutes = *update.AvgWaitMinutes
	}
	updated.UpdatedAt = update.ObservedAt

	prev := cur.Stations()
	next := make([]domain.Station, len(prev))
	copy(next, prev)
	for i := range next {
		if next[i].ID == updated.ID {
			next[i] = updated
			break
		}
	}
	snap := s.swapLocked(cur.Source, next)
	s.writeMu.Unlock()

	telemetry.StatusUpdatesTotal.WithLabelValues("applied").Inc()
	s.log.Debug("Charger status updated",
		zap.String("station_id", update.StationID),
		zap.String("charger_id", update.ChargerID),
		zap.String("status", string(update.Status)),
		zap.Uint64("version", snap.Version),
	)

	if s.cfg.PersistStatus && s.repo != nil {
		if err := s.repo.UpdateChargerStatus(ctx, update); err != nil {
			s.log.Warn("Failed to persist charger status", zap.Error(err))
		}
	}

	if s.hub != nil {
		data, _ := json.Marshal(statusEvent{Type: "charger_status", Version: snap.Version, Update: update})
		s.hub.Broadcast(data)
	}
	return nil
}

type statusEvent struct {
	Type    string                     `json:"type"`
	Version uint64                     `json:"version"`
	Update  domain.ChargerStatusUpdate `json:"update"`
}

// HandleStatusMessage decodes a feed message and applies it. Malformed or
// unknown updates are logged and dropped so the subscription keeps running.
func (s *Service) HandleStatusMessage(data []byte) error {
	var update domain.ChargerStatusUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		telemetry.StatusUpdatesTotal.WithLabelValues("malformed").Inc()
		s.log.Warn("Discarding malformed status message", zap.Error(err))
		return nil
	}
	if err := s.ApplyStatusUpdate(context.Background(), update); err != nil {
		if domain.IsValidation(err) || domain.IsNotFound(err) {
			s.log.Warn("Discarding status update", zap.Error(err))
			return nil
		}
		return err
	}
	return nil
}

// Subscribe attaches the service to the station status feed
func (s *Service) Subscribe() error {
	if s.mq == nil {
		return nil
	}
	if err := s.mq.Subscribe(queue.SubjectStationStatus, s.HandleStatusMessage); err != nil {
		return fmt.Errorf("failed to subscribe to station status: %w", err)
	}
	return nil
}

// Run reloads the catalog every ReloadInterval until ctx is done
func (s *Service) Run(ctx context.Context) {
	if s.cfg.ReloadInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.ReloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// errors are logged and counted inside Reload
			_ = s.Reload(ctx)
		}
	}
}
