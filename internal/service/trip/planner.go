package trip

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/ports"
	"github.com/seu-repo/sigec-route/pkg/geo"
)

// TrafficWindow scales drive time for departures inside Hours
type TrafficWindow struct {
	Hours      domain.HourRange
	Multiplier float64
}

// PlannerConfig holds the planner thresholds
type PlannerConfig struct {
	RangeSafetyFactor   float64 // Range must cover distance times this factor to skip charging
	MidTripFloorPercent float64 // Minimum battery on arrival at any stop
	ArrivalFloorPercent float64 // Minimum battery on arrival at the destination
	TargetPercent       float64 // Default charge target at a stop
	MaxTargetPercent    float64 // Hard charge ceiling
	MaxDetourPercent    float64 // Detour tolerance for candidate stations
	AverageSpeedKmh     float64
	TrafficWindows      []TrafficWindow
}

// DefaultPlannerConfig returns the default planner configuration
func DefaultPlannerConfig() *PlannerConfig {
	return &PlannerConfig{
		RangeSafetyFactor:   1.2,
		MidTripFloorPercent: 20,
		ArrivalFloorPercent: 15,
		TargetPercent:       80,
		MaxTargetPercent:    100,
		MaxDetourPercent:    geo.DefaultMaxDetourPercent,
		AverageSpeedKmh:     70,
		TrafficWindows: []TrafficWindow{
			{Hours: domain.HourRange{Start: 7, End: 10}, Multiplier: 1.3},
			{Hours: domain.HourRange{Start: 17, End: 20}, Multiplier: 1.3},
			{Hours: domain.HourRange{Start: 22, End: 6}, Multiplier: 0.9},
		},
	}
}

// Planner lays charging stops along a straight-line route. Plan reads only
// its arguments and is safe for concurrent use.
type Planner struct {
	cfg       *PlannerConfig
	estimator ports.CostEstimator
	now       func() time.Time
	log       *zap.Logger
}

// NewPlanner creates a new trip planner
func NewPlanner(cfg *PlannerConfig, estimator ports.CostEstimator, log *zap.Logger) *Planner {
	if cfg == nil {
		cfg = DefaultPlannerConfig()
	}
	return &Planner{
		cfg:       cfg,
		estimator: estimator,
		now:       time.Now,
		log:       log,
	}
}

type candidate struct {
	station    domain.Station
	point      geo.Point
	fromOrigin float64
	detour     geo.Detour
}

type placement struct {
	at     candidate
	in     float64
	out    float64
	reason string
}

// leg is the simulated vehicle state since the last departure
type leg struct {
	pos  geo.Point
	batt float64
}

// Plan decides where and how much to charge for the trip in req using the
// given station snapshot.
func (p *Planner) Plan(req domain.TripPlanRequest, stations []domain.Station) (domain.TripPlan, error) {
	if err := req.Validate(); err != nil {
		return domain.TripPlan{}, err
	}

	machine := newPlanMachine(p.log)
	origin, dest := req.Origin.Point(), req.Destination.Point()
	direct := geo.DistanceKm(origin, dest)

	departure := req.DepartureTime
	if departure.IsZero() {
		departure = p.now()
	}

	plan := domain.TripPlan{
		ID:               uuid.NewString(),
		Origin:           *req.Origin,
		Destination:      *req.Destination,
		DirectDistanceKm: round1(direct),
		Stops:            []domain.ChargingStop{},
		CreatedAt:        p.now(),
	}

	currentRange := req.BatteryPercent / 100 * req.VehicleRangeKm
	if currentRange >= direct*p.cfg.RangeSafetyFactor {
		if err := machine.fire(eventRangeSufficient); err != nil {
			return domain.TripPlan{}, err
		}
		start := leg{pos: origin, batt: req.BatteryPercent}
		plan.ArrivalBatteryPercent = round1(p.arrival(start, dest, req.VehicleRangeKm))
		p.finish(&plan, direct, departure, machine.status())
		return plan, nil
	}

	if err := machine.fire(eventRangeInsufficient); err != nil {
		return domain.TripPlan{}, err
	}
	plan.NeedsCharging = true

	maxDetour := req.MaxDetourPercent
	if maxDetour <= 0 {
		maxDetour = p.cfg.MaxDetourPercent
	}
	candidates := p.candidates(origin, dest, direct, maxDetour, req.PreferFast, stations)
	placements, last := p.walk(req, origin, dest, candidates)

	event := eventStopsPlaced
	switch {
	case len(placements) == 0 && p.arrival(leg{pos: origin, batt: req.BatteryPercent}, dest, req.VehicleRangeKm) >= p.cfg.ArrivalFloorPercent:
		// inside the range safety factor but still above the arrival floor
		plan.Warnings = append(plan.Warnings, "thin range margin, no stop needed to reach the arrival floor")
	case len(placements) == 0:
		event = eventFallback
		fb, ok := p.fallback(req, origin, stations)
		if !ok {
			plan.LowConfidence = true
			plan.Warnings = append(plan.Warnings, "no station with an available charger")
			break
		}
		if fb.out <= fb.in {
			plan.LowConfidence = true
			plan.Warnings = append(plan.Warnings, "nearest available station cannot add charge")
			break
		}
		if fb.in < 0 {
			plan.LowConfidence = true
			plan.Warnings = append(plan.Warnings, fmt.Sprintf("station %s is beyond the current range", fb.at.station.ID))
			fb.in = 0
		}
		placements = append(placements, fb)
		last = leg{pos: fb.at.point, batt: fb.out}
	}

	arrival := p.arrival(last, dest, req.VehicleRangeKm)
	if arrival < p.cfg.ArrivalFloorPercent {
		event = eventFallback
		plan.LowConfidence = true
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("projected arrival battery %.1f%% is below the %.0f%% floor", arrival, p.cfg.ArrivalFloorPercent))
	}
	plan.ArrivalBatteryPercent = round1(arrival)

	if err := machine.fire(event); err != nil {
		return domain.TripPlan{}, err
	}

	total := 0.0
	prev := origin
	for i, pl := range placements {
		stop, err := p.buildStop(req, i+1, pl)
		if err != nil {
			return domain.TripPlan{}, err
		}
		plan.Stops = append(plan.Stops, stop)
		plan.TotalChargingMinutes += stop.TimeMinutes
		plan.TotalCost += stop.Cost.FinalCost
		total += geo.DistanceKm(prev, pl.at.point)
		prev = pl.at.point
	}
	total += geo.DistanceKm(prev, dest)
	plan.TotalCost = math.Round(plan.TotalCost*100) / 100

	p.finish(&plan, total, departure, machine.status())

	if p.log != nil {
		p.log.Debug("Trip planned",
			zap.String("plan_id", plan.ID),
			zap.String("status", string(plan.Status)),
			zap.Int("stops", len(plan.Stops)),
			zap.Float64("arrival_battery", plan.ArrivalBatteryPercent),
		)
	}

	return plan, nil
}

// candidates returns stations along the route with at least one available
// charger, ordered by distance from the origin.
func (p *Planner) candidates(origin, dest geo.Point, direct, maxDetour float64, preferFast bool, stations []domain.Station) []candidate {
	var out []candidate
	for _, st := range stations {
		if !st.HasAvailable() {
			continue
		}
		pt := st.Location.Point()
		if !geo.IsAlongRoute(origin, dest, pt, maxDetour) {
			continue
		}
		fromOrigin := geo.DistanceKm(origin, pt)
		if fromOrigin >= direct {
			continue
		}
		out = append(out, candidate{
			station:    st,
			point:      pt,
			fromOrigin: fromOrigin,
			detour:     geo.DetourVia(origin, dest, pt),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.fromOrigin != b.fromOrigin {
			return a.fromOrigin < b.fromOrigin
		}
		if preferFast {
			af := a.station.AvailableOfKind(domain.ChargerKindFast) > 0
			bf := b.station.AvailableOfKind(domain.ChargerKindFast) > 0
			if af != bf {
				return af
			}
		}
		return a.station.ID < b.station.ID
	})
	return out
}

// walk places stops greedily: it keeps the furthest candidate still reachable
// above the mid-trip floor and stops there once the next candidate is not.
func (p *Planner) walk(req domain.TripPlanRequest, origin, dest geo.Point, cands []candidate) ([]placement, leg) {
	cur := leg{pos: origin, batt: req.BatteryPercent}
	var placements []placement
	var prev *candidate

	for i := 0; i < len(cands); i++ {
		if p.arrival(cur, dest, req.VehicleRangeKm) >= p.cfg.ArrivalFloorPercent {
			return placements, cur
		}

		c := &cands[i]
		if p.arrival(cur, c.point, req.VehicleRangeKm) >= p.cfg.MidTripFloorPercent {
			// equally distant candidates keep the one the sort put first
			if prev == nil || c.fromOrigin > prev.fromOrigin {
				prev = c
			}
			continue
		}
		if prev == nil {
			continue
		}

		pl, ok := p.charge(cur, *prev, dest, req.VehicleRangeKm, domain.StopReasonSafetyMargin)
		prev = nil
		if !ok {
			continue
		}
		placements = append(placements, pl)
		cur = leg{pos: pl.at.point, batt: pl.out}
		// look at the same candidate again from the new position
		i--
	}

	if prev != nil && p.arrival(cur, dest, req.VehicleRangeKm) < p.cfg.ArrivalFloorPercent {
		if pl, ok := p.charge(cur, *prev, dest, req.VehicleRangeKm, domain.StopReasonFinalLeg); ok {
			placements = append(placements, pl)
			cur = leg{pos: pl.at.point, batt: pl.out}
		}
	}
	return placements, cur
}

// charge computes the charge window at c when arriving from cur
func (p *Planner) charge(cur leg, c candidate, dest geo.Point, rangeKm float64, reason string) (placement, bool) {
	in := round1(p.arrival(cur, c.point, rangeKm))
	need := geo.DistanceKm(c.point, dest) / rangeKm * 100

	out := round1(math.Min(p.cfg.TargetPercent, need+p.cfg.MidTripFloorPercent))
	if out <= in {
		out = round1(math.Min(p.cfg.MaxTargetPercent, need+p.cfg.MidTripFloorPercent))
	}
	if out <= in {
		return placement{}, false
	}
	return placement{at: c, in: in, out: out, reason: reason}, true
}

// fallback picks the available station nearest the origin regardless of detour
func (p *Planner) fallback(req domain.TripPlanRequest, origin geo.Point, stations []domain.Station) (placement, bool) {
	var best *candidate
	for _, st := range stations {
		if !st.HasAvailable() {
			continue
		}
		pt := st.Location.Point()
		d := geo.DistanceKm(origin, pt)
		if best == nil || d < best.fromOrigin || (d == best.fromOrigin && st.ID < best.station.ID) {
			best = &candidate{
				station:    st,
				point:      pt,
				fromOrigin: d,
				detour:     geo.DetourVia(origin, req.Destination.Point(), pt),
			}
		}
	}
	if best == nil {
		return placement{}, false
	}

	in := round1(p.arrival(leg{pos: origin, batt: req.BatteryPercent}, best.point, req.VehicleRangeKm))
	out := p.cfg.TargetPercent
	if in >= p.cfg.TargetPercent {
		out = p.cfg.MaxTargetPercent
	}
	return placement{at: *best, in: in, out: out, reason: domain.StopReasonRecommended}, true
}

func (p *Planner) buildStop(req domain.TripPlanRequest, order int, pl placement) (domain.ChargingStop, error) {
	kind := pl.at.station.ChargingKind(req.PreferFast)
	cost, err := p.estimator.EstimateSessionCost(pl.in, pl.out, req.BatteryCapacityKWh, kind, req.Tier)
	if err != nil {
		return domain.ChargingStop{}, fmt.Errorf("failed to cost stop at %s: %w", pl.at.station.ID, err)
	}

	return domain.ChargingStop{
		Order:                order,
		StationID:            pl.at.station.ID,
		StationName:          pl.at.station.Name,
		Location:             pl.at.station.Location,
		DistanceFromOriginKm: round1(pl.at.fromOrigin),
		DetourKm:             round1(pl.at.detour.Km),
		BatteryInPercent:     pl.in,
		BatteryOutPercent:    pl.out,
		ChargerKind:          kind,
		TimeMinutes:          cost.TimeMinutes,
		Cost:                 cost,
		Reason:               pl.reason,
	}, nil
}

func (p *Planner) finish(plan *domain.TripPlan, totalKm float64, departure time.Time, status domain.PlanStatus) {
	plan.TotalDistanceKm = round1(totalKm)
	hours := totalKm / p.cfg.AverageSpeedKmh
	plan.DriveTimeMinutes = int(math.Round(hours * 60 * p.trafficMultiplier(departure)))
	plan.TotalTimeMinutes = plan.DriveTimeMinutes + plan.TotalChargingMinutes
	plan.Status = status
}

func (p *Planner) trafficMultiplier(t time.Time) float64 {
	hour := t.Hour()
	for _, w := range p.cfg.TrafficWindows {
		if w.Hours.Contains(hour) {
			return w.Multiplier
		}
	}
	return 1.0
}

// arrival is the battery percent left on reaching to from the leg start
func (p *Planner) arrival(from leg, to geo.Point, rangeKm float64) float64 {
	return from.batt - geo.DistanceKm(from.pos, to)/rangeKm*100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
