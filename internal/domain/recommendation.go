package domain

// ScoreBreakdown holds the per-factor scores, each in [0,100]
type ScoreBreakdown struct {
	Distance     float64 `json:"distance"`
	Availability float64 `json:"availability"`
	Wait         float64 `json:"wait"`
	ChargerType  float64 `json:"charger_type"`
	Amenity      float64 `json:"amenity"`
}

type ScoreResult struct {
	Station            Station        `json:"station"`
	Total              int            `json:"total"`
	Breakdown          ScoreBreakdown `json:"breakdown"`
	DistanceKm         float64        `json:"distance_km"`
	AvailableChargers  int            `json:"available_chargers"`
	TotalChargers      int            `json:"total_chargers"`
	FastAvailable      int            `json:"fast_available"`
	SlowAvailable      int            `json:"slow_available"`
	MatchedAmenities   []string       `json:"matched_amenities,omitempty"`
	RequestedAmenities int            `json:"requested_amenities,omitempty"`
}

// CostEstimate prices one charging session
type CostEstimate struct {
	FromPercent  float64     `json:"from_percent"`
	ToPercent    float64     `json:"to_percent"`
	ChargerKind  ChargerKind `json:"charger_kind"`
	Tier         Tier        `json:"tier"`
	EnergyKWh    float64     `json:"energy_kwh"`
	PricePerKWh  float64     `json:"price_per_kwh"`
	TimeMinutes  int         `json:"time_minutes"`
	BaseCost     float64     `json:"base_cost"`
	Discount     float64     `json:"discount"`
	FinalCost    float64     `json:"final_cost"`
	PointsEarned int         `json:"points_earned"`
}

type ReasonCode string

const (
	ReasonNearby         ReasonCode = "nearby"
	ReasonFastChargers   ReasonCode = "fast_chargers"
	ReasonShortWait      ReasonCode = "short_wait"
	ReasonAmenities      ReasonCode = "amenities"
	ReasonNoAvailability ReasonCode = "no_availability"
	ReasonPeakHours      ReasonCode = "peak_hours"
)

// ReasonFact is one structured justification behind a recommendation
type ReasonFact struct {
	Code  ReasonCode `json:"code"`
	Value float64    `json:"value"`
	Text  string     `json:"text"`
}

type Recommendation struct {
	Rank              int            `json:"rank"`
	StationID         string         `json:"station_id"`
	Name              string         `json:"name"`
	Address           string         `json:"address"`
	Location          Location       `json:"location"`
	Score             int            `json:"score"`
	Breakdown         ScoreBreakdown `json:"breakdown"`
	Reasoning         string         `json:"reasoning"`
	Reasons           []ReasonFact   `json:"reasons"`
	DistanceKm        float64        `json:"distance_km"`
	ETAMinutes        int            `json:"eta_minutes"`
	WaitMinutes       int            `json:"wait_minutes"`
	ArrivesAtPeak     bool           `json:"arrives_at_peak"`
	ChargingMinutes   int            `json:"charging_minutes"`
	TotalMinutes      int            `json:"total_minutes"`
	EstimatedCost     float64        `json:"estimated_cost"`
	Cost              *CostEstimate  `json:"cost,omitempty"`
	AvailableChargers int            `json:"available_chargers"`
	TotalChargers     int            `json:"total_chargers"`
	FastAvailable     int            `json:"fast_available"`
	Amenities         []string       `json:"amenities,omitempty"`
}

// RecommendationResponse is what the recommendation endpoint returns
type RecommendationResponse struct {
	CatalogVersion  uint64           `json:"catalog_version"`
	Urgency         Urgency          `json:"urgency"`
	Recommendations []Recommendation `json:"recommendations"`
}
