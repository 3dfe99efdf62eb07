package coordinates

import (
	"math"

	"github.com/travigo/trajfusion/pkg/ctdf"
)

// WGS84
const (
	semiMajorAxis   = 6378137.0
	flattening      = 1 / 298.257223563
	eccentricitySq  = flattening * (2 - flattening)
	degreesToRadian = math.Pi / 180
)

func GeodeticToECEF(latitude float64, longitude float64, altitude float64) (float64, float64, float64) {
	phi := latitude * degreesToRadian
	lambda := longitude * degreesToRadian

	sinPhi := math.Sin(phi)
	primeVertical := semiMajorAxis / math.Sqrt(1-eccentricitySq*sinPhi*sinPhi)

	x := (primeVertical + altitude) * math.Cos(phi) * math.Cos(lambda)
	y := (primeVertical + altitude) * math.Cos(phi) * math.Sin(lambda)
	z := (primeVertical*(1-eccentricitySq) + altitude) * sinPhi

	return x, y, z
}

// GeodeticToENU projects onto the local tangent plane at origin. Good for areas up to
// roughly 10 km across.
func GeodeticToENU(latitude float64, longitude float64, altitude float64, origin ctdf.Origin) (float64, float64, float64) {
	x, y, z := GeodeticToECEF(latitude, longitude, altitude)
	x0, y0, z0 := GeodeticToECEF(origin.Latitude, origin.Longitude, origin.Altitude)

	dx, dy, dz := x-x0, y-y0, z-z0

	phi := origin.Latitude * degreesToRadian
	lambda := origin.Longitude * degreesToRadian
	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)
	sinLambda, cosLambda := math.Sin(lambda), math.Cos(lambda)

	east := -sinLambda*dx + cosLambda*dy
	north := -sinPhi*cosLambda*dx - sinPhi*sinLambda*dy + cosPhi*dz
	up := cosPhi*cosLambda*dx + cosPhi*sinLambda*dy + sinPhi*dz

	return east, north, up
}
