package domain

import (
	"time"

	"github.com/seu-repo/sigec-route/pkg/geo"
)

type ChargerKind string

const (
	ChargerKindFast ChargerKind = "fast"
	ChargerKindSlow ChargerKind = "slow"
)

func (k ChargerKind) Valid() bool {
	return k == ChargerKindFast || k == ChargerKindSlow
}

type ChargerStatus string

const (
	ChargerStatusAvailable   ChargerStatus = "available"
	ChargerStatusOccupied    ChargerStatus = "occupied"
	ChargerStatusMaintenance ChargerStatus = "maintenance"
)

func (s ChargerStatus) Valid() bool {
	switch s {
	case ChargerStatusAvailable, ChargerStatusOccupied, ChargerStatusMaintenance:
		return true
	}
	return false
}

// Location is a geographic coordinate in decimal degrees
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (l Location) Point() geo.Point {
	return geo.Point{Lat: l.Lat, Lng: l.Lng}
}

// Validate returns a ValidationError naming field when the coordinate is out of range
func (l Location) Validate(field string) error {
	if !l.Point().Valid() {
		return NewValidationError(field, "coordinates out of range")
	}
	return nil
}

// RequireLocation is Validate for request fields where an absent coordinate
// must not decode to (0,0)
func RequireLocation(l *Location, field string) error {
	if l == nil {
		return NewValidationError(field, "is required")
	}
	return l.Validate(field)
}

type Charger struct {
	ID        string        `json:"id"`
	Kind      ChargerKind   `json:"kind"`
	PowerKW   float64       `json:"power_kw"`
	Connector string        `json:"connector"`
	Status    ChargerStatus `json:"status"`
}

// HourRange is a half-open [Start, End) interval of hours of the day
type HourRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r HourRange) Contains(hour int) bool {
	if r.Start <= r.End {
		return hour >= r.Start && hour < r.End
	}
	// wraps midnight
	return hour >= r.Start || hour < r.End
}

type UsageStats struct {
	PeakHours      []HourRange `json:"peak_hours,omitempty"`
	AvgWaitMinutes float64     `json:"avg_wait_minutes"`
	Amenities      []string    `json:"amenities,omitempty"`
}

// Station is a charging site with its chargers. Values are treated as
// immutable once published in a catalog snapshot.
type Station struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Location  Location   `json:"location"`
	Chargers  []Charger  `json:"chargers"`
	Usage     UsageStats `json:"usage"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (s *Station) TotalChargers() int {
	return len(s.Chargers)
}

func (s *Station) AvailableChargers() int {
	n := 0
	for _, c := range s.Chargers {
		if c.Status == ChargerStatusAvailable {
			n++
		}
	}
	return n
}

func (s *Station) AvailableOfKind(kind ChargerKind) int {
	n := 0
	for _, c := range s.Chargers {
		if c.Status == ChargerStatusAvailable && c.Kind == kind {
			n++
		}
	}
	return n
}

func (s *Station) HasAvailable() bool {
	return s.AvailableChargers() > 0
}

// ChargingKind picks the charger kind a driver would plug into: fast when
// preferred and available, then any available slow charger, else fast.
func (s *Station) ChargingKind(preferFast bool) ChargerKind {
	if preferFast && s.AvailableOfKind(ChargerKindFast) > 0 {
		return ChargerKindFast
	}
	if s.AvailableOfKind(ChargerKindSlow) > 0 {
		return ChargerKindSlow
	}
	return ChargerKindFast
}

// IsPeak reports whether hour falls into one of the station's peak windows
func (s *Station) IsPeak(hour int) bool {
	for _, r := range s.Usage.PeakHours {
		if r.Contains(hour) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so snapshot updates never alias the previous version.
func (s Station) Clone() Station {
	out := s
	out.Chargers = append([]Charger(nil), s.Chargers...)
	out.Usage.PeakHours = append([]HourRange(nil), s.Usage.PeakHours...)
	out.Usage.Amenities = append([]string(nil), s.Usage.Amenities...)
	return out
}

// ChargerStatusUpdate is a status change for one charger as published on the
// station status feed
type ChargerStatusUpdate struct {
	StationID      string        `json:"station_id"`
	ChargerID      string        `json:"charger_id"`
	Status         ChargerStatus `json:"status"`
	AvgWaitMinutes *float64      `json:"avg_wait_minutes,omitempty"`
	ObservedAt     time.Time     `json:"observed_at"`
}
