package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// CityIdentity identifies a lookup target by city and country name.
type CityIdentity struct {
	CityName    string `json:"city_name"`
	CountryName string `json:"country_name"`
}

// Normalize returns the identity with both fields trimmed and lower-cased.
func (c CityIdentity) Normalize() CityIdentity {
	return CityIdentity{
		CityName:    strings.ToLower(strings.TrimSpace(c.CityName)),
		CountryName: strings.ToLower(strings.TrimSpace(c.CountryName)),
	}
}

// Validate returns a validation error if either field is empty after trimming.
func (c CityIdentity) Validate() error {
	if strings.TrimSpace(c.CityName) == "" || strings.TrimSpace(c.CountryName) == "" {
		return NewValidationError("city_name and country_name are required")
	}
	return nil
}

// Key derives the cache key "<city>,<country>" from the normalized identity.
func (c CityIdentity) Key() string {
	n := c.Normalize()
	return n.CityName + "," + n.CountryName
}

// Equal reports whether two identities refer to the same city.
func (c CityIdentity) Equal(other CityIdentity) bool {
	return c.Normalize() == other.Normalize()
}

// Coordinates identifies a lookup target by latitude and longitude.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate returns a validation error for non-finite or out-of-range coordinates.
func (c Coordinates) Validate() error {
	if !isFinite(c.Lat) || !isFinite(c.Lon) {
		return NewValidationError("lat and lon must be finite numbers")
	}
	if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
		return NewValidationError("lat must be within [-90, 90] and lon within [-180, 180]")
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Key derives the cache key for a coordinate lookup. The "@" prefix keeps
// coordinate keys disjoint from name keys.
func (c Coordinates) Key() string {
	return fmt.Sprintf("@%.4f,%.4f", c.Lat, c.Lon)
}

// Record is an opaque provider payload, stored verbatim as returned upstream.
// It always holds a JSON object.
type Record = json.RawMessage

// IsObject reports whether raw is a JSON object.
func IsObject(raw []byte) bool {
	var m map[string]json.RawMessage
	return json.Unmarshal(raw, &m) == nil && m != nil
}
