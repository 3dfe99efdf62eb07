package coordinates

import (
	"fmt"
	"math"

	"github.com/wroge/wgs84"
)

type UTMZone struct {
	Number int
	North  bool
}

// ZoneFor uses the plain 6 degree rule, the Norway and Svalbard exceptions are not
// applied.
func ZoneFor(latitude float64, longitude float64) UTMZone {
	number := int(math.Floor((longitude+180)/6)) + 1
	if number > 60 {
		number = 60
	}
	if number < 1 {
		number = 1
	}

	return UTMZone{
		Number: number,
		North:  latitude >= 0,
	}
}

func (z UTMZone) CentralMeridian() float64 {
	return float64(z.Number-1)*6 - 180 + 3
}

func (z UTMZone) String() string {
	hemisphere := "N"
	if !z.North {
		hemisphere = "S"
	}

	return fmt.Sprintf("%d%s", z.Number, hemisphere)
}

// EPSG code of the WGS84 / UTM zone
func (z UTMZone) EPSG() int {
	if z.North {
		return 32600 + z.Number
	}

	return 32700 + z.Number
}

// ToUTM projects a geodetic position into the given zone, even when the position lies
// outside it. Results are absolute easting/northing in metres.
func ToUTM(latitude float64, longitude float64, zone UTMZone) (float64, float64) {
	easting, northing, _ := wgs84.LonLat().To(wgs84.UTM(float64(zone.Number), zone.North))(longitude, latitude, 0)

	return easting, northing
}
