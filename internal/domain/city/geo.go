package city

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/FACorreiaa/commhub-api/internal/types"
)

const (
	// EarthRadiusMiles is the sphere radius used by Distance.
	EarthRadiusMiles = 3959.0

	// DefaultRadiusMiles is used when a radius query omits the radius.
	DefaultRadiusMiles = 100.0

	searchMinQueryLen = 2
	searchMaxResults  = 10
)

// Distance returns the great-circle distance between a and b in miles
// using the Haversine formula. Inputs are not range checked.
func Distance(a, b types.GeoPoint) float64 {
	// Convert degrees to radians
	lat1Rad := toRadians(a.Latitude)
	lat2Rad := toRadians(b.Latitude)

	// Differences
	dlat := toRadians(b.Latitude - a.Latitude)
	dlon := toRadians(b.Longitude - a.Longitude)

	// Haversine formula
	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMiles * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func rank(c types.CityRecord, center types.GeoPoint) types.RankedCity {
	d := Distance(center, c.Location)
	return types.RankedCity{
		CityRecord:    c,
		DistanceMiles: d,
		RoundedMiles:  int(math.Round(d)),
	}
}

// sortByDistance keeps table order between equidistant cities.
func sortByDistance(cities []types.RankedCity) {
	sort.SliceStable(cities, func(i, j int) bool {
		return cities[i].DistanceMiles < cities[j].DistanceMiles
	})
}

// NearestCity returns the city closest to point. Ties go to the entry that
// comes first in the table. It fails with types.ErrNoData on an empty table.
func (t *ReferenceTable) NearestCity(point types.GeoPoint) (types.CityRecord, error) {
	if t.Len() == 0 {
		return types.CityRecord{}, types.ErrNoData
	}

	best := t.cities[0]
	minDistance := Distance(point, best.Location)
	for _, c := range t.cities[1:] {
		if d := Distance(point, c.Location); d < minDistance {
			minDistance = d
			best = c
		}
	}
	return best, nil
}

// CitiesWithinRadius returns every city at most radiusMiles from center,
// closest first. The boundary is inclusive.
func (t *ReferenceTable) CitiesWithinRadius(center types.GeoPoint, radiusMiles float64) []types.RankedCity {
	nearby := []types.RankedCity{}
	if t == nil {
		return nearby
	}
	for _, c := range t.cities {
		r := rank(c, center)
		if r.DistanceMiles <= radiusMiles {
			nearby = append(nearby, r)
		}
	}
	sortByDistance(nearby)
	return nearby
}

// SearchByName matches query case-insensitively against city names and
// region codes. Queries shorter than two characters match nothing. At most
// ten cities are returned, in table order.
func (t *ReferenceTable) SearchByName(query string) []types.CityRecord {
	results := []types.CityRecord{}
	if t == nil || utf8.RuneCountInString(query) < searchMinQueryLen {
		return results
	}

	q := strings.ToLower(query)
	for _, c := range t.cities {
		if strings.Contains(strings.ToLower(c.Name), q) ||
			(c.Region != "" && strings.Contains(strings.ToLower(c.Region), q)) {
			results = append(results, c)
			if len(results) == searchMaxResults {
				break
			}
		}
	}
	return results
}

// SearchByNameNear runs SearchByName and re-sorts the matches by distance
// from center.
func (t *ReferenceTable) SearchByNameNear(query string, center types.GeoPoint) []types.RankedCity {
	matches := t.SearchByName(query)
	ranked := make([]types.RankedCity, 0, len(matches))
	for _, c := range matches {
		ranked = append(ranked, rank(c, center))
	}
	sortByDistance(ranked)
	return ranked
}

// PopularLocationsForArea picks a short list of cities to offer around
// center. Cities within policy.RadiusMiles are split into priority-country
// and international groups; up to PriorityQuota and InternationalQuota are
// taken from each and merged by distance. A short list is then topped up
// with the closest remaining priority-country cities regardless of radius.
func (t *ReferenceTable) PopularLocationsForArea(center types.GeoPoint, policy types.PopularityPolicy) []types.RankedCity {
	nearby := t.CitiesWithinRadius(center, policy.RadiusMiles)

	var priority, international []types.RankedCity
	for _, c := range nearby {
		if policy.IsPriority(c.Country) {
			priority = append(priority, c)
		} else {
			international = append(international, c)
		}
	}

	selected := make([]types.RankedCity, 0, policy.Limit)
	selected = append(selected, head(priority, policy.PriorityQuota)...)
	selected = append(selected, head(international, policy.InternationalQuota)...)
	sortByDistance(selected)

	if len(selected) < policy.Limit {
		selected = append(selected, t.backfill(center, policy, selected, policy.Limit-len(selected))...)
	}

	return head(selected, policy.Limit)
}

// backfill returns up to n priority-country cities not already taken,
// closest to center first, with no radius bound.
func (t *ReferenceTable) backfill(center types.GeoPoint, policy types.PopularityPolicy, taken []types.RankedCity, n int) []types.RankedCity {
	if t == nil || n <= 0 {
		return nil
	}

	var candidates []types.RankedCity
	for _, c := range t.cities {
		if !policy.IsPriority(c.Country) || isTaken(c, taken) {
			continue
		}
		candidates = append(candidates, rank(c, center))
	}
	sortByDistance(candidates)
	return head(candidates, n)
}

func isTaken(c types.CityRecord, taken []types.RankedCity) bool {
	for _, s := range taken {
		if s.SameCity(c) {
			return true
		}
	}
	return false
}

func head(cities []types.RankedCity, n int) []types.RankedCity {
	if n < 0 {
		n = 0
	}
	if len(cities) > n {
		return cities[:n]
	}
	return cities
}

// FormatLocation renders "City, Region", or just the city when there is no region.
func FormatLocation(city, region string) string {
	if region != "" {
		return city + ", " + region
	}
	return city
}
