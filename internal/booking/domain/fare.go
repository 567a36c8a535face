package domain

// Fixed business rates applied to the estimator's distance/duration output.
const (
	RatePerKm    = 1.20
	RatePerHour  = 15.00
	DiscountRate = 0.15
)

// FareQuote is the deterministic fare arithmetic over a route estimate.
type FareQuote struct {
	DistanceMeters  float64 `json:"distanceMeters"`
	DurationSeconds float64 `json:"durationSeconds"`
	EstimatedFare   float64 `json:"estimatedFare"`
	DiscountedFare  float64 `json:"discountedFare"`
}

// QuoteFare prices a trip: distance at RatePerKm, time at RatePerHour,
// then the flat discount.
func QuoteFare(est RouteEstimate) FareQuote {
	distanceFare := (est.DistanceMeters / 1000) * RatePerKm
	timeFare := (est.DurationSeconds / 3600) * RatePerHour
	estimated := distanceFare + timeFare
	return FareQuote{
		DistanceMeters:  est.DistanceMeters,
		DurationSeconds: est.DurationSeconds,
		EstimatedFare:   estimated,
		DiscountedFare:  estimated * (1 - DiscountRate),
	}
}
