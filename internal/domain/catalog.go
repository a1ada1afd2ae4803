package domain

import "time"

// StationSnapshot is an immutable, versioned view of the station catalog.
// A request reads one snapshot and never observes a later one mid-computation.
type StationSnapshot struct {
	Version  uint64    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
	Source   string    `json:"source"`
	stations []Station
	index    map[string]int
}

// NewStationSnapshot builds a snapshot that owns stations. Callers must not
// mutate the slice afterwards.
func NewStationSnapshot(version uint64, source string, stations []Station) *StationSnapshot {
	idx := make(map[string]int, len(stations))
	for i, st := range stations {
		idx[st.ID] = i
	}
	return &StationSnapshot{
		Version:  version,
		LoadedAt: time.Now(),
		Source:   source,
		stations: stations,
		index:    idx,
	}
}

// Stations returns the snapshot's stations. The slice is shared and read-only.
func (s *StationSnapshot) Stations() []Station {
	if s == nil {
		return nil
	}
	return s.stations
}

func (s *StationSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.stations)
}

func (s *StationSnapshot) Get(id string) (Station, bool) {
	if s == nil {
		return Station{}, false
	}
	i, ok := s.index[id]
	if !ok {
		return Station{}, false
	}
	return s.stations[i], true
}
