package city

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/FACorreiaa/commhub-api/internal/types"
)

//go:embed cities.yaml
var embeddedCities []byte

type referenceFile struct {
	Cities []types.CityRecord `yaml:"cities"`
}

// ReferenceTable is the read-only list of known cities. It is built once and
// may be shared by any number of goroutines.
type ReferenceTable struct {
	cities []types.CityRecord
}

// NewReferenceTable validates records and copies them into a new table.
func NewReferenceTable(records []types.CityRecord) (*ReferenceTable, error) {
	cities := make([]types.CityRecord, 0, len(records))
	for i, c := range records {
		if err := validateRecord(c); err != nil {
			return nil, fmt.Errorf("city #%d: %w", i, err)
		}
		cities = append(cities, c)
	}
	return &ReferenceTable{cities: cities}, nil
}

// ParseReferenceTable decodes a YAML document with a top-level "cities" list.
func ParseReferenceTable(data []byte) (*ReferenceTable, error) {
	var f referenceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode city table: %w", err)
	}
	return NewReferenceTable(f.Cities)
}

// EmbeddedReferenceTable returns the table compiled into the binary.
func EmbeddedReferenceTable() (*ReferenceTable, error) {
	return ParseReferenceTable(embeddedCities)
}

// Len returns the number of cities in the table.
func (t *ReferenceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.cities)
}

// Cities returns a copy of the table in table order.
func (t *ReferenceTable) Cities() []types.CityRecord {
	if t == nil {
		return nil
	}
	out := make([]types.CityRecord, len(t.cities))
	copy(out, t.cities)
	return out
}

// Lookup finds a city by exact name, and country when one is given.
func (t *ReferenceTable) Lookup(name, country string) (types.CityRecord, bool) {
	if t == nil {
		return types.CityRecord{}, false
	}
	for _, c := range t.cities {
		if c.Name == name && (country == "" || c.Country == country) {
			return c, true
		}
	}
	return types.CityRecord{}, false
}

func validateRecord(c types.CityRecord) error {
	if c.Name == "" || c.Country == "" {
		return fmt.Errorf("%w: name and country are required", types.ErrInvalidInput)
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return fmt.Errorf("%w: latitude %f out of range for %s", types.ErrInvalidInput, c.Location.Latitude, c.Name)
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("%w: longitude %f out of range for %s", types.ErrInvalidInput, c.Location.Longitude, c.Name)
	}
	return nil
}
