package pipeline

import (
	"cmp"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/trajfusion/pkg/config"
	"github.com/travigo/trajfusion/pkg/coordinates"
	"github.com/travigo/trajfusion/pkg/ctdf"
	"github.com/travigo/trajfusion/pkg/fusion"
	"github.com/travigo/trajfusion/pkg/trajectory"
	"github.com/travigo/trajfusion/pkg/util"
	"golang.org/x/exp/slices"
)

// Engine turns normalised GNSS and V2X records into fused per tick records. It holds no
// state between calls to Process.
type Engine struct {
	config  config.Config
	builder *trajectory.Builder
	workers int
}

// Result is ordered by vehicle id and then timestamp. Samples and Fused line up index by
// index.
type Result struct {
	Metadata *ctdf.DatasetMetadata

	Trajectories map[string][]ctdf.TrajectorySample

	Samples []ctdf.TrajectorySample
	Fused   []ctdf.FusedRecord

	transformer *coordinates.Transformer
}

// NewEngine fails on configuration errors so nothing is processed with a bad config.
func NewEngine(cfg config.Config) (*Engine, error) {
	if err := cfg.ValidateProcessing(); err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Engine{
		config:  cfg,
		builder: trajectory.NewBuilder(cfg.TrajectoryConfig()),
		workers: workers,
	}, nil
}

type vehicleTrajectory struct {
	vehicleID string
	samples   []ctdf.TrajectorySample
}

type vehicleFusion struct {
	vehicleID string
	fused     []ctdf.FusedRecord
	err       error
}

func (e *Engine) Process(gnss []ctdf.GnssRecord, v2x []ctdf.V2XEventRecord) (*Result, error) {
	gnssByVehicle := map[string][]ctdf.GnssRecord{}
	for _, record := range gnss {
		gnssByVehicle[record.VehicleID] = append(gnssByVehicle[record.VehicleID], record)
	}

	v2xByVehicle := map[string][]ctdf.V2XEventRecord{}
	for _, record := range v2x {
		v2xByVehicle[record.VehicleID] = append(v2xByVehicle[record.VehicleID], record)
	}

	vehicleIDs := util.SortedKeys(gnssByVehicle)

	for vehicleID, events := range v2xByVehicle {
		if _, ok := gnssByVehicle[vehicleID]; !ok {
			log.Debug().Str("vehicle", vehicleID).Int("events", len(events)).Msg("V2X events without GNSS trajectory")
		}
	}

	log.Info().Int("vehicles", len(vehicleIDs)).Int("workers", e.workers).Msg("Building trajectories")

	// Phase 1: trajectories
	trajectoryPool := pool.NewWithResults[vehicleTrajectory]().WithMaxGoroutines(e.workers)
	for _, vehicleID := range vehicleIDs {
		records := gnssByVehicle[vehicleID]

		trajectoryPool.Go(func() vehicleTrajectory {
			return vehicleTrajectory{
				vehicleID: vehicleID,
				samples:   e.builder.Build(vehicleID, records),
			}
		})
	}
	built := trajectoryPool.Wait()

	trajectories := make(map[string][]ctdf.TrajectorySample, len(built))
	var all []ctdf.TrajectorySample
	for _, vehicle := range built {
		trajectories[vehicle.vehicleID] = vehicle.samples
		all = append(all, vehicle.samples...)
	}

	// Every vehicle has to be built before the shared origin can be chosen
	origin, err := coordinates.ResolveOrigin(all, e.config.OriginPolicy(), e.config.ExplicitOrigin())
	if err != nil {
		return nil, err
	}

	transformer, err := coordinates.NewTransformer(e.config.CoordinateMode(), origin, e.config.Coordinates.RebaseUTM)
	if err != nil {
		return nil, err
	}

	log.Info().
		Float64("lat", origin.Latitude).
		Float64("lon", origin.Longitude).
		Float64("alt", origin.Altitude).
		Str("crs", transformer.CRS()).
		Msg("Resolved origin")

	// Phase 2: transform and fuse, each vehicle owns its slice
	fusionPool := pool.NewWithResults[vehicleFusion]().WithMaxGoroutines(e.workers)
	for _, vehicleID := range vehicleIDs {
		samples := trajectories[vehicleID]
		events := v2xByVehicle[vehicleID]

		fusionPool.Go(func() vehicleFusion {
			if _, err := transformer.Transform(samples, true); err != nil {
				return vehicleFusion{vehicleID: vehicleID, err: err}
			}

			return vehicleFusion{
				vehicleID: vehicleID,
				fused:     fusion.Fuse(samples, events, e.config.SyncToleranceMs),
			}
		})
	}
	fusedVehicles := fusionPool.Wait()

	slices.SortFunc(fusedVehicles, func(a, b vehicleFusion) int {
		return cmp.Compare(a.vehicleID, b.vehicleID)
	})

	result := &Result{
		Metadata:     e.metadata(transformer),
		Trajectories: trajectories,
		transformer:  transformer,
	}

	for _, vehicle := range fusedVehicles {
		if vehicle.err != nil {
			return nil, vehicle.err
		}

		result.Samples = append(result.Samples, trajectories[vehicle.vehicleID]...)
		result.Fused = append(result.Fused, vehicle.fused...)
	}

	return result, nil
}

func (e *Engine) metadata(transformer *coordinates.Transformer) *ctdf.DatasetMetadata {
	return &ctdf.DatasetMetadata{
		RunIdentifier:    uuid.NewString(),
		CreationDateTime: time.Now(),

		CRS:              transformer.CRS(),
		CoordinateSystem: transformer.CoordinateSystem(),
		Origin:           transformer.Origin,

		Hz:              int(1000 / e.builder.StepMs()),
		GapThresholdS:   e.config.GapThresholdS,
		SyncToleranceMs: e.config.SyncToleranceMs,
	}
}

// ProjectRoadsideUnits places registry RSUs in the run's frame and records them in the
// metadata.
func (r *Result) ProjectRoadsideUnits(units []ctdf.RoadsideUnit) {
	if len(units) == 0 {
		return
	}

	for i := range units {
		altitude := 0.0
		if units[i].Altitude != nil {
			altitude = *units[i].Altitude
		}

		units[i].X, units[i].Y = r.transformer.Project(units[i].Latitude, units[i].Longitude, altitude)
	}

	r.Metadata.RoadsideUnits = units
}
