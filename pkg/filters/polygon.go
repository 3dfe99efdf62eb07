package filters

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/travigo/trajfusion/pkg/ctdf"
)

var ErrUnsupportedGeometry = errors.New("unsupported GeoJSON geometry")

type Region struct {
	area orb.MultiPolygon
}

// LoadRegion reads a GeoJSON Polygon or MultiPolygon, bare or wrapped in a Feature or
// FeatureCollection.
func LoadRegion(path string) (*Region, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseRegion(contents)
}

func ParseRegion(contents []byte) (*Region, error) {
	var header struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(contents, &header); err != nil {
		return nil, err
	}

	var geometries []orb.Geometry

	switch header.Type {
	case "FeatureCollection":
		collection, err := geojson.UnmarshalFeatureCollection(contents)
		if err != nil {
			return nil, err
		}
		for _, feature := range collection.Features {
			geometries = append(geometries, feature.Geometry)
		}
	case "Feature":
		feature, err := geojson.UnmarshalFeature(contents)
		if err != nil {
			return nil, err
		}
		geometries = append(geometries, feature.Geometry)
	default:
		geometry, err := geojson.UnmarshalGeometry(contents)
		if err != nil {
			return nil, err
		}
		geometries = append(geometries, geometry.Geometry())
	}

	region := &Region{}
	for _, geometry := range geometries {
		if err := region.add(geometry); err != nil {
			return nil, err
		}
	}

	if len(region.area) == 0 {
		return nil, fmt.Errorf("%w: no polygons found", ErrUnsupportedGeometry)
	}

	return region, nil
}

func (r *Region) add(geometry orb.Geometry) error {
	switch g := geometry.(type) {
	case orb.Polygon:
		r.area = append(r.area, g)
	case orb.MultiPolygon:
		r.area = append(r.area, g...)
	case nil:
		return fmt.Errorf("%w: feature without geometry", ErrUnsupportedGeometry)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedGeometry, g.GeoJSONType())
	}

	return nil
}

func (r *Region) Name() string {
	return "polygon"
}

// Contains treats inner rings as holes.
func (r *Region) Contains(lat float64, lon float64) bool {
	return planar.MultiPolygonContains(r.area, orb.Point{lon, lat})
}

func (r *Region) Keep(record *ctdf.GnssRecord) bool {
	return r.Contains(record.Latitude, record.Longitude)
}
