package scoring

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/pkg/geo"
)

const (
	distancePenaltyPerKm = 10.0
	waitPenaltyPerMinute = 3.0

	chargerScorePreferred = 100.0
	chargerScoreSlow      = 70.0
	chargerScoreNone      = 30.0
)

// Config holds scorer settings
type Config struct {
	DefaultTopK int // Results returned when the request sets no limit
}

// DefaultConfig returns the default scorer configuration
func DefaultConfig() *Config {
	return &Config{DefaultTopK: 3}
}

// Scorer ranks stations for a driver. Scoring is a pure function of its inputs.
type Scorer struct {
	cfg *Config
	log *zap.Logger
}

// NewScorer creates a new scorer
func NewScorer(cfg *Config, log *zap.Logger) *Scorer {
	c := DefaultConfig()
	if cfg != nil && cfg.DefaultTopK > 0 {
		c.DefaultTopK = cfg.DefaultTopK
	}
	return &Scorer{cfg: c, log: log}
}

// Score computes the weighted score of a single station
func (s *Scorer) Score(station domain.Station, from domain.Location, prefs domain.Preferences) domain.ScoreResult {
	distance := geo.DistanceKm(from.Point(), station.Location.Point())
	total := station.TotalChargers()
	available := station.AvailableChargers()
	fast := station.AvailableOfKind(domain.ChargerKindFast)
	slow := station.AvailableOfKind(domain.ChargerKindSlow)

	matched, requested := matchAmenities(station.Usage.Amenities, prefs.Amenities)

	b := domain.ScoreBreakdown{
		Distance:     clamp(100 - distance*distancePenaltyPerKm),
		Availability: availabilityScore(available, total),
		Wait:         clamp(100 - station.Usage.AvgWaitMinutes*waitPenaltyPerMinute),
		ChargerType:  chargerTypeScore(prefs.PreferFast, fast, slow),
		Amenity:      amenityScore(len(matched), requested),
	}

	w := WeightsFor(prefs.Urgency)
	weighted := b.Distance*w.Distance +
		b.Availability*w.Availability +
		b.Wait*w.Wait +
		b.ChargerType*w.ChargerType +
		b.Amenity*w.Amenity

	return domain.ScoreResult{
		Station:            station,
		Total:              int(math.Round(weighted)),
		Breakdown:          b,
		DistanceKm:         distance,
		AvailableChargers:  available,
		TotalChargers:      total,
		FastAvailable:      fast,
		SlowAvailable:      slow,
		MatchedAmenities:   matched,
		RequestedAmenities: requested,
	}
}

// Rank scores every station and returns the top results ordered by total
// descending, then distance ascending, then station id.
func (s *Scorer) Rank(stations []domain.Station, from domain.Location, prefs domain.Preferences) []domain.ScoreResult {
	results := make([]domain.ScoreResult, 0, len(stations))
	for _, st := range stations {
		if prefs.OnlyAvailable && !st.HasAvailable() {
			continue
		}
		results = append(results, s.Score(st, from, prefs))
	}

	SortResults(results)

	limit := prefs.Limit
	if limit == 0 {
		limit = s.cfg.DefaultTopK
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	if s.log != nil {
		s.log.Debug("Stations ranked",
			zap.Int("candidates", len(stations)),
			zap.Int("returned", len(results)),
			zap.String("urgency", string(prefs.Urgency)),
		)
	}

	return results
}

// SortResults orders results in place by total desc, distance asc, id asc
func SortResults(results []domain.ScoreResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		return a.Station.ID < b.Station.ID
	})
}

func availabilityScore(available, total int) float64 {
	if total == 0 {
		return 0
	}
	return clamp(float64(available) / float64(total) * 100)
}

func chargerTypeScore(preferFast bool, fastAvailable, slowAvailable int) float64 {
	switch {
	case preferFast && fastAvailable > 0:
		return chargerScorePreferred
	case slowAvailable > 0:
		return chargerScoreSlow
	default:
		return chargerScoreNone
	}
}

func amenityScore(matched, requested int) float64 {
	if requested == 0 {
		return 0
	}
	return clamp(float64(matched) / float64(requested) * 100)
}

// matchAmenities returns the requested amenities found in the station's list,
// compared case-insensitively by substring, and the number of distinct
// non-empty amenities requested.
func matchAmenities(have, want []string) ([]string, int) {
	seen := make(map[string]bool, len(want))
	var matched []string
	requested := 0

	for _, w := range want {
		key := strings.ToLower(strings.TrimSpace(w))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		requested++

		for _, h := range have {
			if strings.Contains(strings.ToLower(h), key) {
				matched = append(matched, key)
				break
			}
		}
	}
	return matched, requested
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
