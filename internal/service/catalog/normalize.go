package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/seu-repo/sigec-route/internal/domain"
)

// RawStation is a catalog record as it arrives from a feed file. Numeric
// fields are kept raw so a malformed value can be reported by field name.
type RawStation struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	Lat       json.RawMessage `json:"lat"`
	Lng       json.RawMessage `json:"lng"`
	Chargers  []RawCharger    `json:"chargers"`
	Usage     RawUsage        `json:"usage"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

type RawCharger struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	PowerKW   json.RawMessage `json:"power_kw"`
	Connector string          `json:"connector"`
	Status    string          `json:"status"`
}

type RawUsage struct {
	PeakHours      []string        `json:"peak_hours"`
	AvgWaitMinutes json.RawMessage `json:"avg_wait_minutes"`
	Amenities      []string        `json:"amenities"`
}

type rawCatalog struct {
	Stations []RawStation `json:"stations"`
}

var kindAliases = map[string]domain.ChargerKind{
	"fast":     domain.ChargerKindFast,
	"dc":       domain.ChargerKindFast,
	"rapid":    domain.ChargerKindFast,
	"ultra":    domain.ChargerKindFast,
	"slow":     domain.ChargerKindSlow,
	"ac":       domain.ChargerKindSlow,
	"standard": domain.ChargerKindSlow,
}

var statusAliases = map[string]domain.ChargerStatus{
	"available":      domain.ChargerStatusAvailable,
	"free":           domain.ChargerStatusAvailable,
	"idle":           domain.ChargerStatusAvailable,
	"occupied":       domain.ChargerStatusOccupied,
	"busy":           domain.ChargerStatusOccupied,
	"charging":       domain.ChargerStatusOccupied,
	"in_use":         domain.ChargerStatusOccupied,
	"maintenance":    domain.ChargerStatusMaintenance,
	"faulted":        domain.ChargerStatusMaintenance,
	"offline":        domain.ChargerStatusMaintenance,
	"out_of_service": domain.ChargerStatusMaintenance,
	"unavailable":    domain.ChargerStatusMaintenance,
}

// ParseCatalog decodes a catalog document, either {"stations": [...]} or a
// bare array, and normalizes it.
func ParseCatalog(data []byte) ([]domain.Station, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, domain.NewValidationError("stations", "empty catalog")
	}

	var raws []RawStation
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, domain.NewValidationError("stations", err.Error())
		}
	} else {
		var doc rawCatalog
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, domain.NewValidationError("stations", err.Error())
		}
		raws = doc.Stations
	}
	return Normalize(raws)
}

// Normalize validates raw records and converts them to domain stations.
// Errors name the offending field by its path, e.g. stations[2].lat.
func Normalize(raws []RawStation) ([]domain.Station, error) {
	stations := make([]domain.Station, 0, len(raws))
	seen := make(map[string]int, len(raws))

	for i, raw := range raws {
		prefix := fmt.Sprintf("stations[%d]", i)
		st, err := normalizeStation(prefix, raw)
		if err != nil {
			return nil, err
		}
		if j, dup := seen[st.ID]; dup {
			return nil, domain.NewValidationError(prefix+".id", fmt.Sprintf("duplicate of stations[%d]", j))
		}
		seen[st.ID] = i
		stations = append(stations, st)
	}
	return stations, nil
}

func normalizeStation(prefix string, raw RawStation) (domain.Station, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return domain.Station{}, domain.NewValidationError(prefix+".id", "is required")
	}

	lat, err := number(raw.Lat, prefix+".lat")
	if err != nil {
		return domain.Station{}, err
	}
	lng, err := number(raw.Lng, prefix+".lng")
	if err != nil {
		return domain.Station{}, err
	}
	loc := domain.Location{Lat: lat, Lng: lng}
	if err := loc.Validate(prefix + ".location"); err != nil {
		return domain.Station{}, err
	}

	wait, err := number(raw.Usage.AvgWaitMinutes, prefix+".usage.avg_wait_minutes")
	if err != nil {
		return domain.Station{}, err
	}
	if wait < 0 {
		return domain.Station{}, domain.NewValidationError(prefix+".usage.avg_wait_minutes", "must not be negative")
	}

	peaks := make([]domain.HourRange, 0, len(raw.Usage.PeakHours))
	for j, p := range raw.Usage.PeakHours {
		r, err := parseHourRange(p)
		if err != nil {
			return domain.Station{}, domain.NewValidationError(fmt.Sprintf("%s.usage.peak_hours[%d]", prefix, j), err.Error())
		}
		peaks = append(peaks, r)
	}

	chargers := make([]domain.Charger, 0, len(raw.Chargers))
	for j, rc := range raw.Chargers {
		c, err := normalizeCharger(fmt.Sprintf("%s.chargers[%d]", prefix, j), id, j, rc)
		if err != nil {
			return domain.Station{}, err
		}
		chargers = append(chargers, c)
	}

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = id
	}

	st := domain.Station{
		ID:       id,
		Name:     name,
		Address:  strings.TrimSpace(raw.Address),
		Location: loc,
		Chargers: chargers,
		Usage: domain.UsageStats{
			PeakHours:      peaks,
			AvgWaitMinutes: wait,
			Amenities:      cleanAmenities(raw.Usage.Amenities),
		},
	}
	if raw.UpdatedAt != nil {
		st.UpdatedAt = *raw.UpdatedAt
	}
	return st, nil
}

func normalizeCharger(prefix, stationID string, n int, raw RawCharger) (domain.Charger, error) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(raw.Kind))]
	if !ok {
		return domain.Charger{}, domain.NewValidationError(prefix+".kind", fmt.Sprintf("unknown charger kind %q", raw.Kind))
	}

	status := domain.ChargerStatusAvailable
	if s := strings.ToLower(strings.TrimSpace(raw.Status)); s != "" {
		if status, ok = statusAliases[s]; !ok {
			return domain.Charger{}, domain.NewValidationError(prefix+".status", fmt.Sprintf("unknown charger status %q", raw.Status))
		}
	}

	power, err := number(raw.PowerKW, prefix+".power_kw")
	if err != nil {
		return domain.Charger{}, err
	}
	if power <= 0 {
		return domain.Charger{}, domain.NewValidationError(prefix+".power_kw", "must be greater than zero")
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = fmt.Sprintf("%s-%d", stationID, n+1)
	}

	return domain.Charger{
		ID:        id,
		Kind:      kind,
		PowerKW:   power,
		Connector: strings.TrimSpace(raw.Connector),
		Status:    status,
	}, nil
}

// number reads a JSON number, or a string holding one. Absent optional
// values read as zero.
func number(raw json.RawMessage, field string) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, domain.NewValidationError(field, "is required")
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, nil
		}
	}
	return 0, domain.NewValidationError(field, "must be numeric")
}

// parseHourRange reads "HH-HH" with hours in [0,24]
func parseHourRange(s string) (domain.HourRange, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return domain.HourRange{}, fmt.Errorf("expected HH-HH, got %q", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return domain.HourRange{}, fmt.Errorf("bad start hour in %q", s)
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return domain.HourRange{}, fmt.Errorf("bad end hour in %q", s)
	}
	if start < 0 || start > 23 || end < 0 || end > 24 {
		return domain.HourRange{}, fmt.Errorf("hour out of range in %q", s)
	}
	return domain.HourRange{Start: start, End: end}, nil
}

func cleanAmenities(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		key := strings.ToLower(a)
		if a == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}
