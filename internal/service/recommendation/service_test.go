package recommendation

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/mocks"
	"github.com/seu-repo/sigec-route/internal/ports"
	"github.com/seu-repo/sigec-route/internal/service/pricing"
	"github.com/seu-repo/sigec-route/internal/service/scoring"
)

func station(id string, lat float64, kind domain.ChargerKind, available bool) domain.Station {
	status := domain.ChargerStatusOccupied
	if available {
		status = domain.ChargerStatusAvailable
	}
	return domain.Station{
		ID:       id,
		Name:     "Station " + id,
		Location: domain.Location{Lat: lat, Lng: 0},
		Chargers: []domain.Charger{{ID: id + "-1", Kind: kind, PowerKW: 150, Status: status}},
	}
}

// driver is a request from the equator origin that the test stations sit north of
func driver(battery float64) domain.UserContext {
	return domain.UserContext{Location: &domain.Location{}, BatteryPercent: battery}
}

func newTestService(catalog *mocks.MockStationCatalog, cache *mocks.MockCache) *Service {
	var c ports.Cache
	if cache != nil {
		c = cache
	}
	svc := NewService(nil, catalog, scoring.NewScorer(nil, zap.NewNop()), pricing.NewEstimator(nil), nil, c, zap.NewNop())
	return svc.(*Service)
}

func TestRecommend_RanksAndPrices(t *testing.T) {
	catalog := mocks.NewMockStationCatalog(
		station("near", 0.01, domain.ChargerKindFast, true),
		station("far", 0.2, domain.ChargerKindSlow, true),
	)
	svc := newTestService(catalog, nil)

	resp, err := svc.Recommend(context.Background(), domain.UserContext{
		Location:       &domain.Location{},
		BatteryPercent: 20,
		Preferences:    domain.Preferences{PreferFast: true, Tier: domain.TierPremium},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.CatalogVersion != 1 || resp.Urgency != domain.UrgencyNormal {
		t.Errorf("unexpected response header: %+v", resp)
	}
	if len(resp.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(resp.Recommendations))
	}
	top := resp.Recommendations[0]
	if top.StationID != "near" {
		t.Errorf("expected near station first, got %s", top.StationID)
	}
	if top.Cost == nil {
		t.Fatal("expected a cost estimate")
	}
	// 20 -> 80 on the default 60 kWh pack, fast, premium
	if top.Cost.EnergyKWh != 36 || top.Cost.FinalCost != 8100 || top.Cost.PointsEarned != 81 {
		t.Errorf("unexpected cost: %+v", top.Cost)
	}
	if resp.Recommendations[1].Cost.ChargerKind != domain.ChargerKindSlow {
		t.Errorf("expected slow charger costing for the slow-only station")
	}
}

func TestRecommend_ChargeTargets(t *testing.T) {
	catalog := mocks.NewMockStationCatalog(station("a", 0, domain.ChargerKindFast, true))
	svc := newTestService(catalog, nil)

	resp, _ := svc.Recommend(context.Background(), driver(85))
	if c := resp.Recommendations[0].Cost; c == nil || c.ToPercent != 100 {
		t.Errorf("expected charge to 100 above the target, got %+v", c)
	}

	resp, _ = svc.Recommend(context.Background(), driver(100))
	if c := resp.Recommendations[0].Cost; c != nil {
		t.Errorf("expected no cost for a full battery, got %+v", c)
	}
}

func TestRecommend_ValidationError(t *testing.T) {
	svc := newTestService(mocks.NewMockStationCatalog(), nil)

	_, err := svc.Recommend(context.Background(), driver(150))
	if !domain.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}

	_, err = svc.Recommend(context.Background(), domain.UserContext{Location: &domain.Location{}, Preferences: domain.Preferences{Urgency: "panic"}})
	if !domain.IsValidation(err) {
		t.Errorf("expected validation error for urgency, got %v", err)
	}

	_, err = svc.Recommend(context.Background(), domain.UserContext{BatteryPercent: 50})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Field != "location" {
		t.Errorf("expected missing location to be rejected, got %v", err)
	}
}

func TestRecommend_CachesPerSnapshotVersion(t *testing.T) {
	catalog := mocks.NewMockStationCatalog(station("a", 0, domain.ChargerKindFast, true))
	cache := mocks.NewMockCache()
	svc := newTestService(catalog, cache)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local) }
	user := driver(40)

	first, err := svc.Recommend(context.Background(), user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.Keys() != 1 {
		t.Fatalf("expected one cache entry, got %d", cache.Keys())
	}

	second, _ := svc.Recommend(context.Background(), user)
	if second.Recommendations[0].StationID != first.Recommendations[0].StationID {
		t.Error("cached response differs")
	}
	if cache.Keys() != 1 {
		t.Errorf("cache hit should not add entries, got %d", cache.Keys())
	}

	// a new snapshot version must not reuse the old entry
	catalog.Snapshot = domain.NewStationSnapshot(2, "mock", []domain.Station{station("b", 0, domain.ChargerKindFast, true)})
	third, _ := svc.Recommend(context.Background(), user)
	if third.CatalogVersion != 2 || third.Recommendations[0].StationID != "b" {
		t.Errorf("expected fresh result for version 2, got %+v", third)
	}
	if cache.Keys() != 2 {
		t.Errorf("expected a second cache entry, got %d", cache.Keys())
	}
}

func TestRecommend_PeakHoursAtRequestTime(t *testing.T) {
	st := station("a", 0, domain.ChargerKindFast, true)
	st.Usage = domain.UsageStats{AvgWaitMinutes: 10, PeakHours: []domain.HourRange{{Start: 18, End: 21}}}
	cache := mocks.NewMockCache()
	svc := newTestService(mocks.NewMockStationCatalog(st), cache)

	svc.now = func() time.Time { return time.Date(2026, 3, 10, 19, 0, 0, 0, time.Local) }
	resp, err := svc.Recommend(context.Background(), driver(40))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec := resp.Recommendations[0]; !rec.ArrivesAtPeak || rec.WaitMinutes != 15 {
		t.Errorf("expected peak wait at 19h, got peak=%v wait=%d", rec.ArrivesAtPeak, rec.WaitMinutes)
	}

	// the peak answer is cached per hour and not served at noon
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local) }
	resp, _ = svc.Recommend(context.Background(), driver(40))
	if rec := resp.Recommendations[0]; rec.ArrivesAtPeak || rec.WaitMinutes != 10 {
		t.Errorf("expected off-peak wait at noon, got peak=%v wait=%d", rec.ArrivesAtPeak, rec.WaitMinutes)
	}
	if cache.Keys() != 2 {
		t.Errorf("expected one cache entry per hour, got %d", cache.Keys())
	}
}

func TestScoreStations(t *testing.T) {
	catalog := mocks.NewMockStationCatalog(
		station("a", 0, domain.ChargerKindFast, false),
		station("b", 0.05, domain.ChargerKindFast, true),
	)
	svc := newTestService(catalog, nil)

	results, version, err := svc.ScoreStations(context.Background(), domain.UserContext{
		Location:       &domain.Location{},
		BatteryPercent: 50,
		Preferences:    domain.Preferences{OnlyAvailable: true},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != 1 || len(results) != 1 || results[0].Station.ID != "b" {
		t.Errorf("unexpected results: version=%d %+v", version, results)
	}
}
