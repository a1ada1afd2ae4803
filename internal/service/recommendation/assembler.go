package recommendation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/seu-repo/sigec-route/internal/domain"
)

// AssemblerConfig holds the thresholds behind reason facts
type AssemblerConfig struct {
	ETASpeedKmh      float64
	NearbyKm         float64
	ShortWaitMinutes float64
	// PeakWaitMultiplier scales a station's average wait when the driver
	// would arrive inside one of its peak windows
	PeakWaitMultiplier float64
}

func DefaultAssemblerConfig() *AssemblerConfig {
	return &AssemblerConfig{
		ETASpeedKmh:        30,
		NearbyKm:           3,
		ShortWaitMinutes:   10,
		PeakWaitMultiplier: 1.5,
	}
}

// Assembler turns ranked scores and cost estimates into recommendations
type Assembler struct {
	cfg *AssemblerConfig
}

func NewAssembler(cfg *AssemblerConfig) *Assembler {
	if cfg == nil {
		cfg = DefaultAssemblerConfig()
	}
	return &Assembler{cfg: cfg}
}

// Assemble keeps the order of scored. costs is keyed by station id; a
// station without an entry gets no cost. limit <= 0 keeps every result.
// Waits are estimated for arrival at now plus the ETA; a zero now skips
// the peak-hour adjustment.
func (a *Assembler) Assemble(scored []domain.ScoreResult, costs map[string]domain.CostEstimate, limit int, now time.Time) []domain.Recommendation {
	n := len(scored)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]domain.Recommendation, 0, n)
	for i := 0; i < n; i++ {
		r := scored[i]
		st := r.Station
		eta := a.eta(r.DistanceKm)
		wait, peak := a.wait(st, now, eta)

		rec := domain.Recommendation{
			Rank:              i + 1,
			StationID:         st.ID,
			Name:              st.Name,
			Address:           st.Address,
			Location:          st.Location,
			Score:             r.Total,
			Breakdown:         r.Breakdown,
			DistanceKm:        math.Round(r.DistanceKm*100) / 100,
			ETAMinutes:        eta,
			WaitMinutes:       int(math.Round(wait)),
			ArrivesAtPeak:     peak,
			AvailableChargers: r.AvailableChargers,
			TotalChargers:     r.TotalChargers,
			FastAvailable:     r.FastAvailable,
			Amenities:         st.Usage.Amenities,
		}
		if cost, ok := costs[st.ID]; ok {
			c := cost
			rec.Cost = &c
			rec.ChargingMinutes = c.TimeMinutes
			rec.EstimatedCost = c.FinalCost
		}
		rec.TotalMinutes = rec.ETAMinutes + rec.WaitMinutes + rec.ChargingMinutes

		rec.Reasons = a.reasons(r, wait, peak)
		rec.Reasoning = reasoning(rec.Reasons)
		out = append(out, rec)
	}
	return out
}

func (a *Assembler) eta(km float64) int {
	if a.cfg.ETASpeedKmh <= 0 {
		return 0
	}
	return int(math.Round(km / a.cfg.ETASpeedKmh * 60))
}

// wait is the expected wait in minutes on arriving etaMinutes after now
func (a *Assembler) wait(st domain.Station, now time.Time, etaMinutes int) (float64, bool) {
	wait := st.Usage.AvgWaitMinutes
	if now.IsZero() || !st.IsPeak(now.Add(time.Duration(etaMinutes)*time.Minute).Hour()) {
		return wait, false
	}
	if a.cfg.PeakWaitMultiplier > 1 {
		wait *= a.cfg.PeakWaitMultiplier
	}
	return wait, true
}

func (a *Assembler) reasons(r domain.ScoreResult, wait float64, peak bool) []domain.ReasonFact {
	facts := []domain.ReasonFact{}

	if r.DistanceKm < a.cfg.NearbyKm {
		km := math.Round(r.DistanceKm*10) / 10
		facts = append(facts, domain.ReasonFact{
			Code:  domain.ReasonNearby,
			Value: km,
			Text:  fmt.Sprintf("within %.1f km", km),
		})
	}

	if r.FastAvailable > 0 {
		text := fmt.Sprintf("%d fast chargers available", r.FastAvailable)
		if r.FastAvailable == 1 {
			text = "1 fast charger available"
		}
		facts = append(facts, domain.ReasonFact{
			Code:  domain.ReasonFastChargers,
			Value: float64(r.FastAvailable),
			Text:  text,
		})
	}

	if peak {
		facts = append(facts, domain.ReasonFact{
			Code:  domain.ReasonPeakHours,
			Value: wait,
			Text:  fmt.Sprintf("arriving at peak hours (~%d min wait)", int(math.Round(wait))),
		})
	} else if wait < a.cfg.ShortWaitMinutes {
		facts = append(facts, domain.ReasonFact{
			Code:  domain.ReasonShortWait,
			Value: wait,
			Text:  fmt.Sprintf("short wait (~%d min)", int(math.Round(wait))),
		})
	}

	if len(r.MatchedAmenities) > 0 {
		facts = append(facts, domain.ReasonFact{
			Code:  domain.ReasonAmenities,
			Value: float64(len(r.MatchedAmenities)),
			Text:  fmt.Sprintf("%d of %d amenities (%s)", len(r.MatchedAmenities), r.RequestedAmenities, strings.Join(r.MatchedAmenities, ", ")),
		})
	}

	if r.AvailableChargers == 0 {
		facts = append(facts, domain.ReasonFact{
			Code: domain.ReasonNoAvailability,
			Text: "no chargers currently available",
		})
	}
	return facts
}

func reasoning(facts []domain.ReasonFact) string {
	if len(facts) == 0 {
		return "ranked on overall score"
	}
	parts := make([]string, len(facts))
	for i, f := range facts {
		parts[i] = f.Text
	}
	return strings.Join(parts, "; ")
}
