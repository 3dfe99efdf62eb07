package filters

import "github.com/travigo/trajfusion/pkg/ctdf"

// BoundingBox keeps records inside min/max longitude and latitude, edges included.
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// NewBoundingBox takes the configuration order min_lon, min_lat, max_lon, max_lat.
// The box is expected to be validated already.
func NewBoundingBox(bbox []float64) *BoundingBox {
	if len(bbox) != 4 {
		return nil
	}

	return &BoundingBox{MinLon: bbox[0], MinLat: bbox[1], MaxLon: bbox[2], MaxLat: bbox[3]}
}

func (b *BoundingBox) Name() string {
	return "bbox"
}

func (b *BoundingBox) Contains(lat float64, lon float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon && lat >= b.MinLat && lat <= b.MaxLat
}

func (b *BoundingBox) Keep(record *ctdf.GnssRecord) bool {
	return b.Contains(record.Latitude, record.Longitude)
}
