package city

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/commhub-api/internal/types"
)

var (
	seattle   = types.GeoPoint{Latitude: 47.6062, Longitude: -122.3321}
	vancouver = types.GeoPoint{Latitude: 49.2827, Longitude: -123.1207}
	toronto   = types.GeoPoint{Latitude: 43.6532, Longitude: -79.3832}
	paris     = types.GeoPoint{Latitude: 48.8566, Longitude: 2.3522}
)

func mustEmbeddedTable(t *testing.T) *ReferenceTable {
	t.Helper()
	table, err := EmbeddedReferenceTable()
	require.NoError(t, err)
	require.NotZero(t, table.Len())
	return table
}

func TestDistance(t *testing.T) {
	points := []types.GeoPoint{seattle, vancouver, toronto, paris, {Latitude: -33.8688, Longitude: 151.2093}}

	t.Run("zero for identical points", func(t *testing.T) {
		for _, p := range points {
			assert.InDelta(t, 0, Distance(p, p), 1e-9)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		for _, a := range points {
			for _, b := range points {
				assert.Equal(t, Distance(a, b), Distance(b, a))
			}
		}
	})

	t.Run("triangle inequality", func(t *testing.T) {
		for _, a := range points {
			for _, b := range points {
				for _, c := range points {
					assert.LessOrEqual(t, Distance(a, c), Distance(a, b)+Distance(b, c)+1e-6)
				}
			}
		}
	})

	t.Run("seattle to vancouver", func(t *testing.T) {
		assert.InDelta(t, 121.3, Distance(seattle, vancouver), 1.0)
	})

	t.Run("out of range input is accepted", func(t *testing.T) {
		d := Distance(types.GeoPoint{Latitude: 120, Longitude: 400}, seattle)
		assert.False(t, d != d, "distance should not be NaN")
	})
}

func TestNearestCity(t *testing.T) {
	table := mustEmbeddedTable(t)

	t.Run("exact coordinates", func(t *testing.T) {
		c, err := table.NearestCity(vancouver)
		require.NoError(t, err)
		assert.Equal(t, "Vancouver", c.Name)
		assert.Equal(t, "BC", c.Region)
	})

	t.Run("point between cities", func(t *testing.T) {
		// Burnaby sits closer to Vancouver than to Langley.
		c, err := table.NearestCity(types.GeoPoint{Latitude: 49.2488, Longitude: -122.9805})
		require.NoError(t, err)
		assert.Equal(t, "Vancouver", c.Name)
	})

	t.Run("tie goes to first table entry", func(t *testing.T) {
		twins, err := NewReferenceTable([]types.CityRecord{
			{Name: "East", Country: "X", Location: types.GeoPoint{Latitude: 0, Longitude: 1}},
			{Name: "West", Country: "X", Location: types.GeoPoint{Latitude: 0, Longitude: -1}},
		})
		require.NoError(t, err)

		c, err := twins.NearestCity(types.GeoPoint{})
		require.NoError(t, err)
		assert.Equal(t, "East", c.Name)
	})

	t.Run("empty table", func(t *testing.T) {
		empty, err := NewReferenceTable(nil)
		require.NoError(t, err)

		_, err = empty.NearestCity(seattle)
		assert.ErrorIs(t, err, types.ErrNoData)
	})
}

func TestCitiesWithinRadius(t *testing.T) {
	table := mustEmbeddedTable(t)

	t.Run("sorted and bounded", func(t *testing.T) {
		const radius = 300.0
		nearby := table.CitiesWithinRadius(seattle, radius)
		require.NotEmpty(t, nearby)
		for i, c := range nearby {
			assert.LessOrEqual(t, c.DistanceMiles, radius)
			if i > 0 {
				assert.LessOrEqual(t, nearby[i-1].DistanceMiles, c.DistanceMiles)
			}
		}
		assert.Equal(t, "Seattle", nearby[0].Name)
	})

	t.Run("vancouver neighbourhood", func(t *testing.T) {
		nearby := table.CitiesWithinRadius(vancouver, 100)
		names := make([]string, 0, len(nearby))
		for _, c := range nearby {
			names = append(names, c.Name)
		}
		assert.Equal(t, []string{"Vancouver", "Langley", "Victoria"}, names)
		assert.Equal(t, 24, nearby[1].RoundedMiles)
	})

	t.Run("zero radius keeps only coincident cities", func(t *testing.T) {
		nearby := table.CitiesWithinRadius(toronto, 0)
		require.Len(t, nearby, 1)
		assert.Equal(t, "Toronto", nearby[0].Name)

		assert.Empty(t, table.CitiesWithinRadius(types.GeoPoint{Latitude: 0, Longitude: 0}, 0))
	})

	t.Run("boundary is inclusive", func(t *testing.T) {
		d := Distance(vancouver, seattle)
		nearby := table.CitiesWithinRadius(vancouver, d)
		assert.Equal(t, "Seattle", nearby[len(nearby)-1].Name)
	})

	t.Run("nothing nearby is not an error", func(t *testing.T) {
		nearby := table.CitiesWithinRadius(types.GeoPoint{Latitude: -60, Longitude: -140}, 50)
		assert.NotNil(t, nearby)
		assert.Empty(t, nearby)
	})
}

func TestSearchByName(t *testing.T) {
	table := mustEmbeddedTable(t)

	t.Run("case insensitive substring", func(t *testing.T) {
		results := table.SearchByName("VAN")
		require.Len(t, results, 1)
		assert.Equal(t, "Vancouver", results[0].Name)
	})

	t.Run("matches region code", func(t *testing.T) {
		results := table.SearchByName("bc")
		names := make([]string, 0, len(results))
		for _, c := range results {
			names = append(names, c.Name)
		}
		assert.Equal(t, []string{"Vancouver", "Victoria", "Langley"}, names)
	})

	t.Run("short query", func(t *testing.T) {
		assert.Empty(t, table.SearchByName("v"))
		assert.Empty(t, table.SearchByName(""))
	})

	t.Run("at most ten", func(t *testing.T) {
		assert.Len(t, table.SearchByName("on"), 10)
	})

	t.Run("near center re-sorts by distance", func(t *testing.T) {
		results := table.SearchByNameNear("on", seattle)
		require.Len(t, results, 10)
		for i := 1; i < len(results); i++ {
			assert.LessOrEqual(t, results[i-1].DistanceMiles, results[i].DistanceMiles)
		}
		assert.Equal(t, "Edmonton", results[0].Name)
	})
}

func TestPopularLocationsForArea(t *testing.T) {
	table := mustEmbeddedTable(t)
	policy := types.DefaultPopularityPolicy()

	t.Run("dense priority area", func(t *testing.T) {
		popular := table.PopularLocationsForArea(toronto, policy)
		require.Len(t, popular, 8)
		for i, c := range popular {
			assert.True(t, policy.IsPriority(c.Country), "%s is not a priority city", c.Name)
			if i > 0 {
				assert.LessOrEqual(t, popular[i-1].DistanceMiles, c.DistanceMiles)
			}
		}
		assert.Equal(t, "Toronto", popular[0].Name)
		assert.Equal(t, "Hamilton", popular[1].Name)
		assert.Equal(t, "Canada", popular[3].Country, "London, ON should win over London, UK")
	})

	t.Run("international area backfills with closest priority cities", func(t *testing.T) {
		popular := table.PopularLocationsForArea(paris, policy)
		require.Len(t, popular, 8)
		assert.Equal(t, "Paris", popular[0].Name)
		assert.Equal(t, "United Kingdom", popular[1].Country)
		for _, c := range popular[2:] {
			assert.True(t, policy.IsPriority(c.Country))
			assert.Greater(t, c.DistanceMiles, policy.RadiusMiles)
		}
		assert.Equal(t, "Halifax", popular[2].Name)
		for i := 3; i < len(popular); i++ {
			assert.LessOrEqual(t, popular[i-1].DistanceMiles, popular[i].DistanceMiles)
		}
	})

	t.Run("no duplicates", func(t *testing.T) {
		popular := table.PopularLocationsForArea(seattle, policy)
		seen := map[string]bool{}
		for _, c := range popular {
			key := c.Name + "|" + c.Country
			assert.False(t, seen[key], "duplicate %s", key)
			seen[key] = true
		}
	})

	t.Run("configurable quotas", func(t *testing.T) {
		p := policy
		p.PriorityCountries = []string{"Canada"}
		p.Limit = 3
		popular := table.PopularLocationsForArea(seattle, p)
		require.Len(t, popular, 3)
		assert.Equal(t, "Seattle", popular[0].Name)
		assert.Equal(t, "Victoria", popular[1].Name)
		assert.Equal(t, "Langley", popular[2].Name)
	})

	t.Run("empty table", func(t *testing.T) {
		empty, err := NewReferenceTable(nil)
		require.NoError(t, err)
		assert.Empty(t, empty.PopularLocationsForArea(toronto, policy))
	})
}

func TestFormatLocation(t *testing.T) {
	assert.Equal(t, "Vancouver, BC", FormatLocation("Vancouver", "BC"))
	assert.Equal(t, "Paris", FormatLocation("Paris", ""))
}
