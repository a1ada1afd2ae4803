package domain

import "strings"

// DefaultBatteryCapacityKWh is assumed when a request does not carry the pack size.
const DefaultBatteryCapacityKWh = 60.0

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// ParseUrgency accepts any casing; an empty value means normal.
func ParseUrgency(s string) (Urgency, error) {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(s))); u {
	case "":
		return UrgencyNormal, nil
	case UrgencyLow, UrgencyNormal, UrgencyHigh:
		return u, nil
	}
	return "", NewValidationError("urgency", "must be one of low, normal, high")
}

// Tier is the account class that selects the charging discount
type Tier string

const (
	TierIndividual Tier = "individual"
	TierPremium    Tier = "premium"
	TierFleet      Tier = "fleet"
	TierBusiness   Tier = "business"
)

func ParseTier(s string) (Tier, error) {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TierIndividual, nil
	case TierIndividual, TierPremium, TierFleet, TierBusiness:
		return t, nil
	}
	return "", NewValidationError("tier", "must be one of individual, premium, fleet, business")
}

type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// Preferences tune ranking and costing for a single request
type Preferences struct {
	Urgency       Urgency  `json:"urgency"`
	Tier          Tier     `json:"tier"`
	Amenities     []string `json:"amenities,omitempty"`
	PreferFast    bool     `json:"prefer_fast"`
	Limit         int      `json:"limit,omitempty"` // 0 = default, negative = all
	OnlyAvailable bool     `json:"only_available,omitempty"`
}

// UserContext is the driver's situation at request time
type UserContext struct {
	Location           *Location   `json:"location"`
	BatteryPercent     float64     `json:"battery_percent"`
	VehicleRangeKm     float64     `json:"vehicle_range_km,omitempty"`
	BatteryCapacityKWh float64     `json:"battery_capacity_kwh,omitempty"`
	Preferences        Preferences `json:"preferences"`
}

// Normalize fills defaults and validates the context in place.
func (u *UserContext) Normalize() error {
	if err := RequireLocation(u.Location, "location"); err != nil {
		return err
	}
	if u.BatteryPercent < 0 || u.BatteryPercent > 100 {
		return NewValidationError("battery_percent", "must be between 0 and 100")
	}
	if u.VehicleRangeKm < 0 {
		return NewValidationError("vehicle_range_km", "must not be negative")
	}
	if u.BatteryCapacityKWh < 0 {
		return NewValidationError("battery_capacity_kwh", "must not be negative")
	}
	if u.BatteryCapacityKWh == 0 {
		u.BatteryCapacityKWh = DefaultBatteryCapacityKWh
	}

	urgency, err := ParseUrgency(string(u.Preferences.Urgency))
	if err != nil {
		return err
	}
	u.Preferences.Urgency = urgency

	tier, err := ParseTier(string(u.Preferences.Tier))
	if err != nil {
		return err
	}
	u.Preferences.Tier = tier
	return nil
}

// Principal is the authenticated caller extracted from a bearer token
type Principal struct {
	UserID  string   `json:"user_id"`
	Role    UserRole `json:"role"`
	TokenID string   `json:"-"`
}
