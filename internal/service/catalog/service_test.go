package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/adapter/queue"
	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/mocks"
)

type staticSource struct {
	stations []domain.Station
	err      error
}

func (s *staticSource) Name() string { return "static" }

func (s *staticSource) Load(ctx context.Context) ([]domain.Station, error) {
	return s.stations, s.err
}

type recordingHub struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (h *recordingHub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.msgs = append(h.msgs, data)
}

func testStations() []domain.Station {
	return []domain.Station{
		{
			ID:       "a",
			Name:     "Alpha",
			Location: domain.Location{Lat: -23.55, Lng: -46.63},
			Chargers: []domain.Charger{
				{ID: "a-1", Kind: domain.ChargerKindFast, PowerKW: 150, Status: domain.ChargerStatusAvailable},
				{ID: "a-2", Kind: domain.ChargerKindSlow, PowerKW: 50, Status: domain.ChargerStatusOccupied},
			},
		},
		{
			ID:       "b",
			Name:     "Beta",
			Location: domain.Location{Lat: -23.60, Lng: -46.70},
			Chargers: []domain.Charger{{ID: "b-1", Kind: domain.ChargerKindSlow, PowerKW: 22, Status: domain.ChargerStatusAvailable}},
		},
	}
}

func TestService_ReloadPublishesSnapshot(t *testing.T) {
	mq := mocks.NewMockMessageQueue()
	svc := NewService(nil, &staticSource{stations: testStations()}, nil, mq, nil, zap.NewNop())

	if v := svc.Current().Version; v != 0 {
		t.Fatalf("expected empty snapshot at version 0, got %d", v)
	}
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	snap := svc.Current()
	if snap.Version != 1 || snap.Len() != 2 || snap.Source != "static" {
		t.Errorf("unexpected snapshot: version=%d len=%d source=%s", snap.Version, snap.Len(), snap.Source)
	}

	msgs := mq.GetPublishedMessages(queue.SubjectCatalogReloaded)
	if len(msgs) != 1 {
		t.Fatalf("expected one reload event, got %d", len(msgs))
	}
	var evt ReloadedEvent
	if err := json.Unmarshal(msgs[0], &evt); err != nil {
		t.Fatalf("bad event payload: %v", err)
	}
	if evt.Version != 1 || evt.Stations != 2 {
		t.Errorf("unexpected event: %+v", evt)
	}
}

func TestService_ReloadFailureKeepsSnapshot(t *testing.T) {
	src := &staticSource{stations: testStations()}
	svc := NewService(nil, src, nil, nil, nil, zap.NewNop())
	_ = svc.Reload(context.Background())

	src.err = errors.New("disk on fire")
	if err := svc.Reload(context.Background()); err == nil {
		t.Fatal("expected reload error")
	}
	if svc.Current().Version != 1 || svc.Current().Len() != 2 {
		t.Error("previous snapshot should remain current")
	}
}

func TestService_GetStation(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil, zap.NewNop())
	svc.Replace("test", testStations())

	st, err := svc.GetStation(context.Background(), "b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st.Chargers[0].Status = domain.ChargerStatusMaintenance
	again, _ := svc.GetStation(context.Background(), "b")
	if again.Chargers[0].Status != domain.ChargerStatusAvailable {
		t.Error("returned station must not alias the snapshot")
	}

	if _, err := svc.GetStation(context.Background(), "zzz"); !domain.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestService_ApplyStatusUpdateIsCopyOnWrite(t *testing.T) {
	hub := &recordingHub{}
	repo := &mocks.MockStationRepository{}
	persisted := 0
	repo.UpdateChargerStatusFunc = func(ctx context.Context, u domain.ChargerStatusUpdate) error {
		persisted++
		return nil
	}

	cfg := DefaultConfig()
	cfg.PersistStatus = true
	svc := NewService(cfg, nil, repo, nil, hub, zap.NewNop())
	svc.Replace("test", testStations())
	before := svc.Current()

	wait := 12.0
	err := svc.ApplyStatusUpdate(context.Background(), domain.ChargerStatusUpdate{
		StationID:      "a",
		ChargerID:      "a-1",
		Status:         domain.ChargerStatusOccupied,
		AvgWaitMinutes: &wait,
		ObservedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := svc.Current()
	if after.Version != before.Version+1 {
		t.Errorf("expected version bump, got %d -> %d", before.Version, after.Version)
	}
	old, _ := before.Get("a")
	if old.AvailableChargers() != 1 {
		t.Error("old snapshot was mutated")
	}
	cur, _ := after.Get("a")
	if cur.AvailableChargers() != 0 || cur.Usage.AvgWaitMinutes != 12 {
		t.Errorf("update not applied: %+v", cur)
	}
	if persisted != 1 {
		t.Errorf("expected status to be persisted once, got %d", persisted)
	}
	if len(hub.msgs) != 1 {
		t.Errorf("expected one broadcast, got %d", len(hub.msgs))
	}
}

func TestService_ApplyStatusUpdateErrors(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil, zap.NewNop())
	svc.Replace("test", testStations())
	ctx := context.Background()

	if err := svc.ApplyStatusUpdate(ctx, domain.ChargerStatusUpdate{ChargerID: "x", Status: domain.ChargerStatusAvailable}); !domain.IsValidation(err) {
		t.Errorf("expected validation error for missing station, got %v", err)
	}
	if err := svc.ApplyStatusUpdate(ctx, domain.ChargerStatusUpdate{StationID: "a", ChargerID: "a-1", Status: "melted"}); !domain.IsValidation(err) {
		t.Errorf("expected validation error for status, got %v", err)
	}
	if err := svc.ApplyStatusUpdate(ctx, domain.ChargerStatusUpdate{StationID: "zzz", ChargerID: "a-1", Status: domain.ChargerStatusAvailable}); !domain.IsNotFound(err) {
		t.Errorf("expected not found for station, got %v", err)
	}
	if err := svc.ApplyStatusUpdate(ctx, domain.ChargerStatusUpdate{StationID: "a", ChargerID: "zzz", Status: domain.ChargerStatusAvailable}); !domain.IsNotFound(err) {
		t.Errorf("expected not found for charger, got %v", err)
	}
}

func TestService_StaleUpdateIgnored(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil, zap.NewNop())
	svc.Replace("test", testStations())
	ctx := context.Background()
	now := time.Now()

	_ = svc.ApplyStatusUpdate(ctx, domain.ChargerStatusUpdate{StationID: "b", ChargerID: "b-1", Status: domain.ChargerStatusOccupied, ObservedAt: now})
	version := svc.Current().Version

	err := svc.ApplyStatusUpdate(ctx, domain.ChargerStatusUpdate{StationID: "b", ChargerID: "b-1", Status: domain.ChargerStatusAvailable, ObservedAt: now.Add(-time.Minute)})
	if err != nil {
		t.Fatalf("stale update should not error: %v", err)
	}
	if svc.Current().Version != version {
		t.Error("stale update should not publish a snapshot")
	}
	st, _ := svc.Current().Get("b")
	if st.HasAvailable() {
		t.Error("stale update overwrote a newer status")
	}
}

func TestService_ReloadKeepsNewerLiveStatus(t *testing.T) {
	src := &staticSource{stations: testStations()}
	svc := NewService(nil, src, nil, nil, nil, zap.NewNop())
	ctx := context.Background()
	if err := svc.Reload(ctx); err != nil {
		t.Fatal(err)
	}

	wait := 12.0
	observed := time.Now()
	err := svc.ApplyStatusUpdate(ctx, domain.ChargerStatusUpdate{
		StationID: "a", ChargerID: "a-1", Status: domain.ChargerStatusOccupied,
		AvgWaitMinutes: &wait, ObservedAt: observed,
	})
	if err != nil {
		t.Fatal(err)
	}

	// the source still carries the state it was written with
	if err := svc.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	st, _ := svc.Current().Get("a")
	if st.Chargers[0].Status != domain.ChargerStatusOccupied {
		t.Errorf("reload rolled a-1 back to %s", st.Chargers[0].Status)
	}
	if st.Usage.AvgWaitMinutes != 12 || !st.UpdatedAt.Equal(observed) {
		t.Errorf("reload dropped live usage: %+v at %v", st.Usage, st.UpdatedAt)
	}
	if st.Chargers[1].Status != domain.ChargerStatusOccupied {
		t.Errorf("untouched charger changed to %s", st.Chargers[1].Status)
	}

	// a source copy written after the live update wins
	fresh := testStations()
	fresh[0].UpdatedAt = observed.Add(time.Minute)
	src.stations = fresh
	if err := svc.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	st, _ = svc.Current().Get("a")
	if st.Chargers[0].Status != domain.ChargerStatusAvailable {
		t.Errorf("expected newer source status, got %s", st.Chargers[0].Status)
	}
	if src.stations[0].Chargers[0].Status != domain.ChargerStatusAvailable {
		t.Error("reload mutated the loaded station slice")
	}
}

func TestService_StatusFeedSubscription(t *testing.T) {
	mq := mocks.NewMockMessageQueue()
	svc := NewService(nil, nil, nil, mq, nil, zap.NewNop())
	svc.Replace("test", testStations())

	if err := svc.Subscribe(); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	msg, _ := json.Marshal(domain.ChargerStatusUpdate{StationID: "a", ChargerID: "a-2", Status: domain.ChargerStatusAvailable})
	if err := mq.Deliver(queue.SubjectStationStatus, msg); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	st, _ := svc.Current().Get("a")
	if st.AvailableChargers() != 2 {
		t.Errorf("expected both chargers available, got %d", st.AvailableChargers())
	}

	if err := mq.Deliver(queue.SubjectStationStatus, []byte("not json")); err != nil {
		t.Errorf("malformed messages should be dropped, got %v", err)
	}
	unknown, _ := json.Marshal(domain.ChargerStatusUpdate{StationID: "nope", ChargerID: "x", Status: domain.ChargerStatusAvailable})
	if err := mq.Deliver(queue.SubjectStationStatus, unknown); err != nil {
		t.Errorf("unknown stations should be dropped, got %v", err)
	}
}

func TestService_ConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, nil, zap.NewNop())
	svc.Replace("test", testStations())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap := svc.Current()
				if snap.Len() != 2 {
					t.Errorf("snapshot lost stations: %d", snap.Len())
					return
				}
			}
		}()
	}
	for j := 0; j < 100; j++ {
		status := domain.ChargerStatusAvailable
		if j%2 == 0 {
			status = domain.ChargerStatusOccupied
		}
		_ = svc.ApplyStatusUpdate(ctx, domain.ChargerStatusUpdate{StationID: "b", ChargerID: "b-1", Status: status})
	}
	wg.Wait()
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stations.json")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o600); err != nil {
		t.Fatal(err)
	}

	svc := NewService(nil, NewFileSource(path), nil, nil, nil, zap.NewNop())
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if svc.Current().Source != "file" || svc.Current().Len() != 2 {
		t.Errorf("unexpected snapshot from file: %+v", svc.Current())
	}

	missing := NewFileSource(filepath.Join(dir, "absent.json"))
	if _, err := missing.Load(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}
