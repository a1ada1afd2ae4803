package recommendation

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/seu-repo/sigec-route/internal/domain"
)

func scored(id string, km float64, fast, available int, wait float64, matched ...string) domain.ScoreResult {
	return domain.ScoreResult{
		Station: domain.Station{
			ID:    id,
			Name:  "Station " + id,
			Usage: domain.UsageStats{AvgWaitMinutes: wait, Amenities: []string{"cafe", "wifi"}},
		},
		Total:              70,
		DistanceKm:         km,
		AvailableChargers:  available,
		TotalChargers:      4,
		FastAvailable:      fast,
		MatchedAmenities:   matched,
		RequestedAmenities: 3,
	}
}

func codes(facts []domain.ReasonFact) []domain.ReasonCode {
	out := make([]domain.ReasonCode, len(facts))
	for i, f := range facts {
		out[i] = f.Code
	}
	return out
}

func TestAssemble_ReasonFacts(t *testing.T) {
	a := NewAssembler(nil)

	recs := a.Assemble([]domain.ScoreResult{
		scored("near", 1.24, 2, 3, 4, "cafe", "wifi"),
		scored("far", 12, 0, 0, 25),
	}, nil, 0, time.Time{})

	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}

	want := []domain.ReasonCode{domain.ReasonNearby, domain.ReasonFastChargers, domain.ReasonShortWait, domain.ReasonAmenities}
	if got := codes(recs[0].Reasons); !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected reasons for near: %v", got)
	}
	for _, part := range []string{"within 1.2 km", "2 fast chargers available", "short wait (~4 min)", "2 of 3 amenities"} {
		if !strings.Contains(recs[0].Reasoning, part) {
			t.Errorf("reasoning %q missing %q", recs[0].Reasoning, part)
		}
	}

	if got := codes(recs[1].Reasons); !reflect.DeepEqual(got, []domain.ReasonCode{domain.ReasonNoAvailability}) {
		t.Errorf("unexpected reasons for far: %v", got)
	}
}

func TestAssemble_SingleFastCharger(t *testing.T) {
	recs := NewAssembler(nil).Assemble([]domain.ScoreResult{scored("a", 10, 1, 1, 30)}, nil, 0, time.Time{})
	if recs[0].Reasoning != "1 fast charger available" {
		t.Errorf("unexpected reasoning: %q", recs[0].Reasoning)
	}
}

func TestAssemble_TimesAndCost(t *testing.T) {
	a := NewAssembler(nil)
	cost := domain.CostEstimate{TimeMinutes: 14, FinalCost: 8100}

	recs := a.Assemble([]domain.ScoreResult{scored("a", 6, 1, 1, 5)}, map[string]domain.CostEstimate{"a": cost}, 0, time.Time{})
	r := recs[0]

	if r.ETAMinutes != 12 {
		t.Errorf("expected 12 min ETA at 30 km/h, got %d", r.ETAMinutes)
	}
	if r.WaitMinutes != 5 || r.ChargingMinutes != 14 || r.TotalMinutes != 31 {
		t.Errorf("unexpected times: wait=%d charging=%d total=%d", r.WaitMinutes, r.ChargingMinutes, r.TotalMinutes)
	}
	if r.EstimatedCost != 8100 || r.Cost == nil || r.Cost.TimeMinutes != 14 {
		t.Errorf("cost not attached: %+v", r.Cost)
	}
	if r.Rank != 1 {
		t.Errorf("expected rank 1, got %d", r.Rank)
	}
}

func TestAssemble_LimitAndOrder(t *testing.T) {
	a := NewAssembler(nil)
	in := []domain.ScoreResult{scored("x", 1, 0, 1, 0), scored("y", 2, 0, 1, 0), scored("z", 3, 0, 1, 0)}

	recs := a.Assemble(in, nil, 2, time.Time{})
	if len(recs) != 2 || recs[0].StationID != "x" || recs[1].StationID != "y" || recs[1].Rank != 2 {
		t.Errorf("unexpected result: %+v", recs)
	}
}

func TestAssemble_Idempotent(t *testing.T) {
	a := NewAssembler(nil)
	in := []domain.ScoreResult{scored("a", 2, 1, 2, 3, "cafe")}
	if !reflect.DeepEqual(a.Assemble(in, nil, 0, time.Time{}), a.Assemble(in, nil, 0, time.Time{})) {
		t.Error("assemble should be idempotent")
	}
}

func TestAssemble_PeakHoursRaiseWait(t *testing.T) {
	a := NewAssembler(nil)
	r := scored("busy", 6, 1, 1, 8)
	r.Station.Usage.PeakHours = []domain.HourRange{{Start: 17, End: 20}}

	// 12 minutes out at 16:50 lands inside the 17-20 window
	recs := a.Assemble([]domain.ScoreResult{r}, nil, 0, time.Date(2026, 3, 10, 16, 50, 0, 0, time.UTC))
	got := recs[0]
	if !got.ArrivesAtPeak || got.WaitMinutes != 12 {
		t.Errorf("expected peak wait of 12 min, got peak=%v wait=%d", got.ArrivesAtPeak, got.WaitMinutes)
	}
	if c := codes(got.Reasons); len(c) == 0 || c[len(c)-1] != domain.ReasonPeakHours {
		t.Errorf("expected a peak hours reason, got %v", c)
	}
	for _, f := range got.Reasons {
		if f.Code == domain.ReasonShortWait {
			t.Error("short wait should not be claimed at peak")
		}
	}

	recs = a.Assemble([]domain.ScoreResult{r}, nil, 0, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	if recs[0].ArrivesAtPeak || recs[0].WaitMinutes != 8 {
		t.Errorf("expected off-peak wait of 8 min, got peak=%v wait=%d", recs[0].ArrivesAtPeak, recs[0].WaitMinutes)
	}
}
