package pricing

import (
	"fmt"
	"math"

	"github.com/seu-repo/sigec-route/internal/domain"
)

// Config holds the tariff tables used to price a charging session
type Config struct {
	PricePerKWh   map[domain.ChargerKind]float64 // Tariff per kWh by charger kind
	PowerKW       map[domain.ChargerKind]float64 // Nominal delivery power by charger kind
	TierDiscount  map[domain.Tier]float64        // Fraction taken off the base cost
	PointsDivisor float64                        // One loyalty point per this much spent
	Currency      string
}

// DefaultConfig returns the default tariff tables
func DefaultConfig() *Config {
	return &Config{
		PricePerKWh: map[domain.ChargerKind]float64{
			domain.ChargerKindFast: 250,
			domain.ChargerKindSlow: 180,
		},
		PowerKW: map[domain.ChargerKind]float64{
			domain.ChargerKindFast: 150,
			domain.ChargerKindSlow: 50,
		},
		TierDiscount: map[domain.Tier]float64{
			domain.TierIndividual: 0,
			domain.TierPremium:    0.10,
			domain.TierFleet:      0.15,
			domain.TierBusiness:   0.20,
		},
		PointsDivisor: 100,
		Currency:      "KRW",
	}
}

// Estimator prices charging sessions. It holds no state besides its tariff
// tables and is safe for concurrent use.
type Estimator struct {
	cfg *Config
}

// NewEstimator creates a new estimator; a nil config uses DefaultConfig
func NewEstimator(cfg *Config) *Estimator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Estimator{cfg: cfg}
}

// Currency returns the currency the estimates are expressed in
func (e *Estimator) Currency() string {
	return e.cfg.Currency
}

// PowerKW returns the nominal power for the given charger kind
func (e *Estimator) PowerKW(kind domain.ChargerKind) float64 {
	return e.cfg.PowerKW[kind]
}

// EstimateSessionCost prices charging a battery of capacityKWh from fromPct to toPct
func (e *Estimator) EstimateSessionCost(fromPct, toPct, capacityKWh float64, kind domain.ChargerKind, tier domain.Tier) (domain.CostEstimate, error) {
	if fromPct < 0 || fromPct > 100 {
		return domain.CostEstimate{}, domain.NewValidationError("from_percent", "must be between 0 and 100")
	}
	if toPct < 0 || toPct > 100 {
		return domain.CostEstimate{}, domain.NewValidationError("to_percent", "must be between 0 and 100")
	}
	if toPct <= fromPct {
		return domain.CostEstimate{}, domain.NewValidationError("to_percent", "must be greater than from_percent")
	}
	if capacityKWh <= 0 {
		return domain.CostEstimate{}, domain.NewValidationError("battery_capacity_kwh", "must be greater than zero")
	}

	price, ok := e.cfg.PricePerKWh[kind]
	if !ok {
		return domain.CostEstimate{}, domain.NewValidationError("charger_kind", fmt.Sprintf("unknown charger kind %q", kind))
	}
	power := e.cfg.PowerKW[kind]
	if power <= 0 {
		return domain.CostEstimate{}, fmt.Errorf("no power configured for charger kind %q", kind)
	}
	discountRate, ok := e.cfg.TierDiscount[tier]
	if !ok {
		return domain.CostEstimate{}, domain.NewValidationError("tier", fmt.Sprintf("unknown tier %q", tier))
	}

	energy := (toPct - fromPct) * capacityKWh / 100
	base := roundMoney(energy * price)
	discount := roundMoney(base * discountRate)
	final := roundMoney(base - discount)

	divisor := e.cfg.PointsDivisor
	if divisor <= 0 {
		divisor = 100
	}

	return domain.CostEstimate{
		FromPercent:  fromPct,
		ToPercent:    toPct,
		ChargerKind:  kind,
		Tier:         tier,
		EnergyKWh:    roundMoney(energy),
		PricePerKWh:  price,
		TimeMinutes:  int(math.Round(energy / power * 60)),
		BaseCost:     base,
		Discount:     discount,
		FinalCost:    final,
		PointsEarned: int(math.Floor(final / divisor)),
	}, nil
}

// roundMoney rounds to two decimal places
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
