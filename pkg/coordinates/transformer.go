package coordinates

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/ctdf"
)

var ErrUnsupportedMode = errors.New("unsupported coordinate mode")

type Mode string

const (
	ModeENU Mode = "enu"
	ModeUTM Mode = "utm"
)

func ParseMode(s string) (Mode, error) {
	switch mode := Mode(strings.ToLower(s)); mode {
	case ModeENU, ModeUTM:
		return mode, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
}

// Transformer projects geodetic samples into one shared local frame.
type Transformer struct {
	Mode   Mode
	Origin ctdf.Origin

	// RebaseUTM shifts UTM output so the origin sits at (0, 0)
	RebaseUTM bool

	zone           UTMZone
	originEasting  float64
	originNorthing float64
}

func NewTransformer(mode Mode, origin ctdf.Origin, rebaseUTM bool) (*Transformer, error) {
	transformer := &Transformer{
		Mode:      mode,
		Origin:    origin,
		RebaseUTM: rebaseUTM,
	}

	switch mode {
	case ModeENU:
	case ModeUTM:
		transformer.zone = ZoneFor(origin.Latitude, origin.Longitude)
		transformer.originEasting, transformer.originNorthing = ToUTM(origin.Latitude, origin.Longitude, transformer.zone)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}

	return transformer, nil
}

func (t *Transformer) Zone() UTMZone {
	return t.zone
}

func (t *Transformer) CoordinateSystem() ctdf.CoordinateSystem {
	if t.Mode == ModeUTM {
		return ctdf.CoordinateSystemUTM
	}

	return ctdf.CoordinateSystemENU
}

// CRS is the human readable frame description stored in the dataset metadata.
func (t *Transformer) CRS() string {
	switch t.Mode {
	case ModeUTM:
		crs := fmt.Sprintf("EPSG:%d (UTM zone %s)", t.zone.EPSG(), t.zone)
		if t.RebaseUTM {
			crs += fmt.Sprintf(" offset by origin (%.3f, %.3f)", t.originEasting, t.originNorthing)
		}
		return crs
	default:
		return fmt.Sprintf("ENU origin (%.8f, %.8f, %.3f)", t.Origin.Latitude, t.Origin.Longitude, t.Origin.Altitude)
	}
}

// Project returns x/y metres for a position. Altitude only matters for ENU.
func (t *Transformer) Project(latitude float64, longitude float64, altitude float64) (float64, float64) {
	if t.Mode == ModeUTM {
		easting, northing := ToUTM(latitude, longitude, t.zone)
		if t.RebaseUTM {
			return easting - t.originEasting, northing - t.originNorthing
		}
		return easting, northing
	}

	east, north, _ := GeodeticToENU(latitude, longitude, altitude, t.Origin)
	return east, north
}

// Transform sets X/Y on every sample. With inPlace false the input is deep copied and
// left untouched. Altitude is never modified.
func (t *Transformer) Transform(samples []ctdf.TrajectorySample, inPlace bool) ([]ctdf.TrajectorySample, error) {
	target := samples

	if !inPlace {
		target = []ctdf.TrajectorySample{}
		if err := copier.CopyWithOption(&target, &samples, copier.Option{DeepCopy: true}); err != nil {
			return nil, err
		}
	}

	for i := range target {
		target[i].X, target[i].Y = t.Project(target[i].Latitude, target[i].Longitude, target[i].AltitudeOrZero())
	}

	return target, nil
}

// TransformAll resolves one origin across every vehicle (unless explicit is set) and
// projects all trajectories in place with it.
func TransformAll(trajectories map[string][]ctdf.TrajectorySample, mode Mode, policy OriginPolicy, explicit *ctdf.Origin, rebaseUTM bool) (*Transformer, error) {
	var all []ctdf.TrajectorySample
	for _, samples := range trajectories {
		all = append(all, samples...)
	}

	origin, err := ResolveOrigin(all, policy, explicit)
	if err != nil {
		return nil, err
	}

	transformer, err := NewTransformer(mode, origin, rebaseUTM)
	if err != nil {
		return nil, err
	}

	if len(all) == 0 {
		log.Warn().Msg("No trajectories to transform")
		return transformer, nil
	}

	for vehicleID, samples := range trajectories {
		if _, err := transformer.Transform(samples, true); err != nil {
			return nil, fmt.Errorf("transforming %s: %w", vehicleID, err)
		}
	}

	return transformer, nil
}

// ResolveOrigin prefers an explicitly configured origin over the policy.
func ResolveOrigin(samples []ctdf.TrajectorySample, policy OriginPolicy, explicit *ctdf.Origin) (ctdf.Origin, error) {
	if explicit != nil {
		return *explicit, nil
	}

	return SelectOrigin(samples, policy)
}
