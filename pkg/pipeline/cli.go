package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/config"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "process",
		Usage: "Build, project and fuse trajectories for every vehicle in a dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to a YAML or JSON config file",
			},
			&cli.StringFlag{
				Name:  "input",
				Usage: "Directory containing the recordings",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Output directory",
			},
			&cli.StringSliceFlag{
				Name:  "scenario-dir",
				Usage: "Only read these sub directories of the input",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: csv, json or sqlite",
			},
			&cli.BoolFlag{
				Name:  "detailed",
				Usage: "Include quality flags in JSON fused output",
			},
			&cli.StringFlag{
				Name:  "coordinate-mode",
				Usage: "Local frame: enu or utm",
			},
			&cli.StringFlag{
				Name:  "origin-policy",
				Usage: "Origin selection: first, centroid or median",
			},
			&cli.StringFlag{
				Name:  "origin",
				Usage: "Explicit origin as lon,lat[,alt]",
			},
			&cli.StringFlag{
				Name:  "bbox",
				Usage: "Region filter as min_lon,min_lat,max_lon,max_lat",
			},
			&cli.StringFlag{
				Name:  "polygon",
				Usage: "GeoJSON Polygon or MultiPolygon region filter",
			},
			&cli.StringFlag{
				Name:  "filter",
				Usage: "Expression every GNSS record has to satisfy, eg. 'speed_mps > 0.5'",
			},
			&cli.IntFlag{
				Name:  "hz",
				Usage: "Output rate",
			},
			&cli.Float64Flag{
				Name:  "gap-threshold",
				Usage: "Seconds between fixes that count as a gap",
			},
			&cli.Int64Flag{
				Name:  "sync-tolerance",
				Usage: "Fusion window half width in milliseconds",
			},
			&cli.BoolFlag{
				Name:  "no-smoothing",
				Usage: "Disable Savitzky-Golay smoothing",
			},
			&cli.StringFlag{
				Name:  "timestamp-unit",
				Usage: "Force seconds, milliseconds or microseconds instead of detecting it",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel workers, 0 uses every CPU",
			},
			&cli.IntFlag{
				Name:  "sample",
				Usage: "Objects to read per file, 0 reads everything",
			},
			&cli.StringFlag{
				Name:  "ids-map",
				Usage: "JSON file mapping raw vehicle ids to canonical ids",
			},
			&cli.StringFlag{
				Name:  "rsu-ids",
				Usage: "JSON registry of roadside unit ids",
			},
			&cli.BoolFlag{
				Name:  "mongo",
				Usage: "Also store the run in MongoDB",
			},
			&cli.BoolFlag{
				Name:  "elasticsearch",
				Usage: "Also index fused records in Elasticsearch",
			},
			&cli.BoolFlag{
				Name:  "events",
				Usage: "Publish run events to redis",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Resolve(c.String("config"))
			if err != nil {
				return err
			}

			if err := applyFlags(c, &cfg); err != nil {
				return err
			}

			report, err := Run(cfg)
			if err != nil {
				return err
			}

			log.Info().
				Str("run", report.Result.Metadata.RunIdentifier).
				Int("vehicles", report.Statistics.Vehicles).
				Int("fused", report.Statistics.FusedRecords).
				Strs("files", report.Files).
				Msg("Processing complete")

			return nil
		},
	}
}

func applyFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("input") {
		cfg.InputDir = c.String("input")
	}
	if c.IsSet("output") {
		cfg.OutputDir = c.String("output")
	}
	if c.IsSet("scenario-dir") {
		cfg.ScenarioDirs = c.StringSlice("scenario-dir")
	}
	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.IsSet("detailed") {
		cfg.Output.Detailed = c.Bool("detailed")
	}
	if c.IsSet("coordinate-mode") {
		cfg.Coordinates.Mode = c.String("coordinate-mode")
	}
	if c.IsSet("origin-policy") {
		cfg.Coordinates.OriginPolicy = c.String("origin-policy")
	}
	if c.IsSet("origin") {
		origin, err := ParseOrigin(c.String("origin"))
		if err != nil {
			return err
		}
		cfg.Coordinates.Origin = origin
	}
	if c.IsSet("bbox") {
		bbox, err := parseFloatList(c.String("bbox"))
		if err != nil {
			return fmt.Errorf("%w: bbox: %v", config.ErrInvalidConfiguration, err)
		}
		cfg.Region.BBox = bbox
	}
	if c.IsSet("polygon") {
		cfg.Region.PolygonPath = c.String("polygon")
	}
	if c.IsSet("filter") {
		cfg.Region.Expression = c.String("filter")
	}
	if c.IsSet("hz") {
		cfg.Hz = c.Int("hz")
	}
	if c.IsSet("gap-threshold") {
		cfg.GapThresholdS = c.Float64("gap-threshold")
	}
	if c.IsSet("sync-tolerance") {
		cfg.SyncToleranceMs = c.Int64("sync-tolerance")
	}
	if c.Bool("no-smoothing") {
		cfg.Smoothing.Enabled = false
	}
	if c.IsSet("timestamp-unit") {
		cfg.TimestampUnit = c.String("timestamp-unit")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("sample") {
		cfg.Sample = c.Int("sample")
	}
	if c.IsSet("ids-map") {
		cfg.IdsMapPath = c.String("ids-map")
	}
	if c.IsSet("rsu-ids") {
		cfg.RsuIdsPath = c.String("rsu-ids")
	}
	if c.IsSet("mongo") {
		cfg.Output.Mongo = c.Bool("mongo")
	}
	if c.IsSet("elasticsearch") {
		cfg.Output.Elasticsearch = c.Bool("elasticsearch")
	}
	if c.IsSet("events") {
		cfg.Output.Events = c.Bool("events")
	}

	return nil
}

// ParseOrigin reads lon,lat with an optional altitude.
func ParseOrigin(s string) (*config.OriginConfig, error) {
	values, err := parseFloatList(s)
	if err != nil || len(values) < 2 || len(values) > 3 {
		return nil, fmt.Errorf("%w: origin must be lon,lat[,alt], got %q", config.ErrInvalidConfiguration, s)
	}

	origin := &config.OriginConfig{
		Longitude: values[0],
		Latitude:  values[1],
	}
	if len(values) == 3 {
		origin.Altitude = values[2]
	}

	return origin, nil
}

func parseFloatList(s string) ([]float64, error) {
	var values []float64

	for _, part := range strings.Split(s, ",") {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}

	return values, nil
}
