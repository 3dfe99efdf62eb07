package dataimporter

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/config"
	"github.com/travigo/trajfusion/pkg/coordinates"
	"github.com/travigo/trajfusion/pkg/ctdf"
	"github.com/travigo/trajfusion/pkg/timestamps"
	"github.com/travigo/trajfusion/pkg/trajectory"
	"github.com/urfave/cli/v2"
)

const defaultDiscoverySample = 100

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "data-importer",
		Usage: "Discover and inspect raw GNSS and V2X recordings",
		Subcommands: []*cli.Command{
			{
				Name:  "discover",
				Usage: "Summarise the files, vehicles and message types of a dataset",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "Path to a YAML or JSON config file",
					},
					&cli.StringFlag{
						Name:  "input",
						Usage: "Directory containing the recordings",
					},
					&cli.StringSliceFlag{
						Name:  "scenario-dir",
						Usage: "Only read these sub directories of the input",
					},
					&cli.IntFlag{
						Name:  "sample",
						Usage: "Objects to read per file, 0 reads everything",
						Value: defaultDiscoverySample,
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := commandConfig(c)
					if err != nil {
						return err
					}

					summary, err := Discover(cfg.InputDir, cfg.ScenarioDirs, Options{
						Workers:       cfg.Workers,
						TimestampUnit: timestamps.Unit(cfg.TimestampUnit),
						Sample:        c.Int("sample"),
					})
					if err != nil {
						return err
					}

					log.Info().
						Int("files", summary.TotalFiles).
						Int("vehicles", summary.VehicleCount).
						Int("gnss", summary.GnssRecords).
						Int("v2x", summary.V2XRecords).
						Strs("messagetypes", summary.MessageTypes).
						Msg("Discovery complete")

					encoder := json.NewEncoder(os.Stdout)
					encoder.SetIndent("", "  ")
					return encoder.Encode(summary)
				},
			},
			{
				Name:  "inspect",
				Usage: "Build and print the trajectory of a single vehicle",
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
						Name:     "vehicle",
						Usage:    "Vehicle id to inspect",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of samples to print",
						Value: 20,
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := commandConfig(c)
					if err != nil {
						return err
					}

					files, err := FindFiles(cfg.InputDir, cfg.ScenarioDirs)
					if err != nil {
						return err
					}

					identityMap, registry, err := cfg.LoadIdentities()
					if err != nil {
						return err
					}

					input := Import(files, nil, Options{
						Workers:       cfg.Workers,
						TimestampUnit: timestamps.Unit(cfg.TimestampUnit),
						IdentityMap:   identityMap,
						RSURegistry:   registry,
					})

					vehicleID := c.String("vehicle")
					var records []ctdf.GnssRecord
					for _, record := range input.Gnss {
						if record.VehicleID == vehicleID {
							records = append(records, record)
						}
					}

					if len(records) == 0 {
						return fmt.Errorf("no GNSS records for vehicle %s", vehicleID)
					}

					samples := trajectory.NewBuilder(cfg.TrajectoryConfig()).Build(vehicleID, records)

					// The origin only covers this vehicle, x/y differ from a full run unless
					// an explicit origin is configured
					transformer, err := coordinates.TransformAll(map[string][]ctdf.TrajectorySample{vehicleID: samples}, cfg.CoordinateMode(), cfg.OriginPolicy(), cfg.ExplicitOrigin(), cfg.Coordinates.RebaseUTM)
					if err != nil {
						return err
					}

					log.Info().
						Str("vehicle", vehicleID).
						Int("records", len(records)).
						Int("samples", len(samples)).
						Str("crs", transformer.CRS()).
						Msg("Built trajectory")

					if limit := c.Int("limit"); limit > 0 && len(samples) > limit {
						samples = samples[:limit]
					}
					pretty.Println(samples)

					return nil
				},
			},
		},
	}
}

func commandConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Resolve(c.String("config"))
	if err != nil {
		return cfg, err
	}

	if c.String("input") != "" {
		cfg.InputDir = c.String("input")
	}
	if c.IsSet("scenario-dir") {
		cfg.ScenarioDirs = c.StringSlice("scenario-dir")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if cfg.InputDir == "" {
		return cfg, fmt.Errorf("%w: an input directory is required", config.ErrInvalidConfiguration)
	}

	return cfg, nil
}
