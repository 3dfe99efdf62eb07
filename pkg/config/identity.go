package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/travigo/trajfusion/pkg/ctdf"
	"github.com/travigo/trajfusion/pkg/util"
)

// IdentityMap resolves raw station/vehicle ids from different sources to one canonical
// vehicle id.
type IdentityMap map[string]string

func (m IdentityMap) Resolve(rawID string) string {
	if canonical, exists := m[rawID]; exists {
		return canonical
	}

	return rawID
}

func LoadIdentityMap(path string) (IdentityMap, error) {
	var raw map[string]interface{}
	if err := readJSONObject(path, &raw); err != nil {
		return nil, err
	}

	identityMap := IdentityMap{}
	for rawID, canonical := range raw {
		identityMap[rawID] = stringify(canonical)
	}

	return identityMap, nil
}

// RSURegistry holds the free form metadata of each roadside unit keyed by its id.
type RSURegistry map[string]map[string]interface{}

func LoadRSURegistry(path string) (RSURegistry, error) {
	registry := RSURegistry{}
	if err := readJSONObject(path, &registry); err != nil {
		return nil, err
	}

	return registry, nil
}

func (r RSURegistry) Contains(id string) bool {
	_, exists := r[id]
	return exists
}

// RoadsideUnits returns the units that carry a usable position. Positions may sit at
// the top level or below a "location" key.
func (r RSURegistry) RoadsideUnits() []ctdf.RoadsideUnit {
	var units []ctdf.RoadsideUnit

	for _, id := range util.SortedKeys(map[string]map[string]interface{}(r)) {
		metadata := r[id]
		fields := metadata
		if location, ok := metadata["location"].(map[string]interface{}); ok {
			fields = location
		}

		lat, latOK := firstNumber(fields, "latitude", "lat")
		lon, lonOK := firstNumber(fields, "longitude", "lon", "lng")
		if !latOK || !lonOK {
			continue
		}

		unit := ctdf.RoadsideUnit{
			Identifier: id,
			Latitude:   lat,
			Longitude:  lon,
		}
		if alt, ok := firstNumber(fields, "altitude", "alt"); ok {
			unit.Altitude = &alt
		}

		units = append(units, unit)
	}

	return units
}

func readJSONObject(path string, destination interface{}) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(contents, destination); err != nil {
		return fmt.Errorf("%w: %s must contain a JSON object: %v", ErrInvalidConfiguration, path, err)
	}

	return nil
}

func firstNumber(fields map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch value := fields[key].(type) {
		case float64:
			return value, true
		case string:
			if parsed, err := strconv.ParseFloat(value, 64); err == nil {
				return parsed, true
			}
		}
	}

	return 0, false
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
