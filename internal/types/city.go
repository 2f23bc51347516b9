package types

// GeoPoint is a WGS84 coordinate pair. Values are not range checked.
type GeoPoint struct {
	Latitude  float64 `json:"latitude" yaml:"lat"`
	Longitude float64 `json:"longitude" yaml:"lon"`
}

// CityRecord is one entry of the reference city table.
type CityRecord struct {
	Name     string   `json:"city" yaml:"city"`
	Region   string   `json:"region,omitempty" yaml:"region,omitempty"`
	Country  string   `json:"country" yaml:"country"`
	Location GeoPoint `json:"coordinates" yaml:"coordinates"`
}

// SameCity reports whether both records name the same place.
// Name alone is not enough: London, ON and London, UK both exist.
func (c CityRecord) SameCity(other CityRecord) bool {
	return c.Name == other.Name && c.Country == other.Country
}

// RankedCity is a CityRecord annotated with its distance from a query point.
type RankedCity struct {
	CityRecord
	DistanceMiles float64 `json:"distance_miles"`
	RoundedMiles  int     `json:"distance"`
}

// SelectedLocation is what the location picker hands back to the profile layer.
type SelectedLocation struct {
	City        string   `json:"city"`
	Region      string   `json:"region,omitempty"`
	Country     string   `json:"country"`
	Coordinates GeoPoint `json:"coordinates"`
	Detected    bool     `json:"detected"`
}

// PopularityPolicy drives the two-tier ranking of popular locations for an area.
type PopularityPolicy struct {
	PriorityCountries  []string
	RadiusMiles        float64
	PriorityQuota      int
	InternationalQuota int
	Limit              int
}

// DefaultPopularityPolicy favours the app's home markets.
func DefaultPopularityPolicy() PopularityPolicy {
	return PopularityPolicy{
		PriorityCountries:  []string{"USA", "Canada"},
		RadiusMiles:        500,
		PriorityQuota:      6,
		InternationalQuota: 2,
		Limit:              8,
	}
}

// IsPriority reports whether country is one of the policy's home markets.
func (p PopularityPolicy) IsPriority(country string) bool {
	for _, c := range p.PriorityCountries {
		if c == country {
			return true
		}
	}
	return false
}
