package ctdf

import "math"

// Location is a GeoJSON point, stored as [lon, lat] so Mongo can index it.
type Location struct {
	Type        string    `json:"-" groups:"basic"`
	Coordinates []float64 `json:"coordinates" groups:"basic"`
}

func NewPointLocation(latitude float64, longitude float64) Location {
	return Location{
		Type:        "Point",
		Coordinates: []float64{longitude, latitude},
	}
}

// PlanarDistance is the euclidean distance between two points already projected into
// a local metric frame.
func PlanarDistance(ax float64, ay float64, bx float64, by float64) float64 {
	dx := bx - ax
	dy := by - ay

	return math.Sqrt(dx*dx + dy*dy)
}
