package scoring

import "github.com/seu-repo/sigec-route/internal/domain"

// Weights are the factor weights for one urgency level. They sum to 1.
type Weights struct {
	Distance     float64
	Availability float64
	Wait         float64
	ChargerType  float64
	Amenity      float64
}

func (w Weights) Sum() float64 {
	return w.Distance + w.Availability + w.Wait + w.ChargerType + w.Amenity
}

var weightTable = map[domain.Urgency]Weights{
	domain.UrgencyHigh:   {Distance: 0.35, Availability: 0.35, Wait: 0.20, ChargerType: 0.10, Amenity: 0.00},
	domain.UrgencyNormal: {Distance: 0.25, Availability: 0.30, Wait: 0.20, ChargerType: 0.15, Amenity: 0.10},
	domain.UrgencyLow:    {Distance: 0.15, Availability: 0.20, Wait: 0.15, ChargerType: 0.20, Amenity: 0.30},
}

// WeightsFor returns the weights for urgency, falling back to normal
func WeightsFor(u domain.Urgency) Weights {
	if w, ok := weightTable[u]; ok {
		return w
	}
	return weightTable[domain.UrgencyNormal]
}
