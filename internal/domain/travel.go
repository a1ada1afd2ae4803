package domain

import (
	"time"
)

// PlanStatus is the terminal state of the trip planner
type PlanStatus string

const (
	PlanStatusNoChargeNeeded PlanStatus = "no_charge_needed"
	PlanStatusChargeRequired PlanStatus = "charge_required"
	PlanStatusStopsPlanned   PlanStatus = "stops_planned"
	PlanStatusViaFallback    PlanStatus = "stops_planned_via_fallback"
)

// Stop reason tags
const (
	StopReasonSafetyMargin = "battery below safety margin"
	StopReasonFinalLeg     = "reach destination"
	StopReasonRecommended  = "recommended stop"
)

// TripPlanRequest represents a trip planning request
type TripPlanRequest struct {
	UserID             string    `json:"user_id,omitempty"`
	Origin             *Location `json:"origin"`
	Destination        *Location `json:"destination"`
	BatteryPercent     float64   `json:"battery_percent"`
	VehicleRangeKm     float64   `json:"vehicle_range_km"`
	BatteryCapacityKWh float64   `json:"battery_capacity_kwh,omitempty"`
	Tier               Tier      `json:"tier,omitempty"`
	PreferFast         bool      `json:"prefer_fast"`
	DepartureTime      time.Time `json:"departure_time,omitempty"`
	MaxDetourPercent   float64   `json:"max_detour_percent,omitempty"`
}

// Validate fills defaults and rejects malformed requests.
func (r *TripPlanRequest) Validate() error {
	if err := RequireLocation(r.Origin, "origin"); err != nil {
		return err
	}
	if err := RequireLocation(r.Destination, "destination"); err != nil {
		return err
	}
	if r.BatteryPercent < 0 || r.BatteryPercent > 100 {
		return NewValidationError("battery_percent", "must be between 0 and 100")
	}
	if r.VehicleRangeKm <= 0 {
		return NewValidationError("vehicle_range_km", "must be greater than zero")
	}
	if r.BatteryCapacityKWh < 0 {
		return NewValidationError("battery_capacity_kwh", "must not be negative")
	}
	if r.BatteryCapacityKWh == 0 {
		r.BatteryCapacityKWh = DefaultBatteryCapacityKWh
	}
	if r.MaxDetourPercent < 0 {
		return NewValidationError("max_detour_percent", "must not be negative")
	}
	tier, err := ParseTier(string(r.Tier))
	if err != nil {
		return err
	}
	r.Tier = tier
	return nil
}

// ChargingStop represents a planned charging stop
type ChargingStop struct {
	Order                int          `json:"order"`
	StationID            string       `json:"station_id"`
	StationName          string       `json:"station_name"`
	Location             Location     `json:"location"`
	DistanceFromOriginKm float64      `json:"distance_from_origin_km"`
	DetourKm             float64      `json:"detour_km"`
	BatteryInPercent     float64      `json:"battery_in_percent"`
	BatteryOutPercent    float64      `json:"battery_out_percent"`
	ChargerKind          ChargerKind  `json:"charger_kind"`
	TimeMinutes          int          `json:"time_minutes"`
	Cost                 CostEstimate `json:"cost"`
	Reason               string       `json:"reason"`
}

// TripPlan is the planner output
type TripPlan struct {
	ID                    string         `json:"id"`
	Origin                Location       `json:"origin"`
	Destination           Location       `json:"destination"`
	DirectDistanceKm      float64        `json:"direct_distance_km"`
	TotalDistanceKm       float64        `json:"total_distance_km"`
	DriveTimeMinutes      int            `json:"drive_time_minutes"`
	Stops                 []ChargingStop `json:"stops"`
	TotalChargingMinutes  int            `json:"total_charging_minutes"`
	TotalCost             float64        `json:"total_cost"`
	TotalTimeMinutes      int            `json:"total_time_minutes"`
	NeedsCharging         bool           `json:"needs_charging"`
	ArrivalBatteryPercent float64        `json:"arrival_battery_percent"`
	Status                PlanStatus     `json:"status"`
	LowConfidence         bool           `json:"low_confidence"`
	Warnings              []string       `json:"warnings,omitempty"`
	CatalogVersion        uint64         `json:"catalog_version"`
	CreatedAt             time.Time      `json:"created_at"`
}

type TripStatus string

const (
	TripStatusPlanned  TripStatus = "planned"
	TripStatusArchived TripStatus = "archived"
)

// Trip is a plan saved by a user
type Trip struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	UserID          string     `json:"user_id" gorm:"index"`
	Name            string     `json:"name"`
	Plan            TripPlan   `json:"plan" gorm:"serializer:json;type:jsonb"`
	TotalDistanceKm float64    `json:"total_distance_km"`
	EstimatedCost   float64    `json:"estimated_cost"`
	StopCount       int        `json:"stop_count"`
	Status          TripStatus `json:"status" gorm:"index"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Trip) TableName() string {
	return "saved_trips"
}
