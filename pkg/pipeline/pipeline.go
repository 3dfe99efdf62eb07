package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/config"
	"github.com/travigo/trajfusion/pkg/database"
	"github.com/travigo/trajfusion/pkg/dataimporter"
	"github.com/travigo/trajfusion/pkg/dataimporter/datasets"
	"github.com/travigo/trajfusion/pkg/elastic_client"
	"github.com/travigo/trajfusion/pkg/events"
	"github.com/travigo/trajfusion/pkg/exporter"
	"github.com/travigo/trajfusion/pkg/filters"
	"github.com/travigo/trajfusion/pkg/redis_client"
	"github.com/travigo/trajfusion/pkg/stats"
	"github.com/travigo/trajfusion/pkg/timestamps"
)

const sinkTimeout = 10 * time.Minute

type Report struct {
	Result     *Result
	Statistics *stats.RunStatistics
	Files      []string
}

// Run reads everything the config points at, processes it and writes the output. Every
// configuration problem is reported before any file is parsed.
func Run(cfg config.Config) (*Report, error) {
	started := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gnssFilters, err := BuildFilters(cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfiguration, err)
	}

	identityMap, registry, err := cfg.LoadIdentities()
	if err != nil {
		return nil, err
	}

	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Output.Events {
		if err := redis_client.Connect(); err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
	}

	report, err := run(cfg, engine, gnssFilters, identityMap, registry)
	if err != nil {
		publishFailure(cfg, "", err)
		return nil, err
	}

	report.Statistics.Duration = time.Since(started)
	report.Statistics.Log()

	if err := storeSinks(cfg, report); err != nil {
		publishFailure(cfg, report.Result.Metadata.RunIdentifier, err)
		return nil, err
	}

	if cfg.Output.Events {
		if err := events.PublishRunCompleted(report.Statistics); err != nil {
			log.Error().Err(err).Msg("Failed to publish run event")
		}
	}

	return report, nil
}

func run(cfg config.Config, engine *Engine, gnssFilters []filters.GnssFilter, identityMap config.IdentityMap, registry config.RSURegistry) (*Report, error) {
	var files []string
	if cfg.InputDir != "" {
		found, err := dataimporter.FindFiles(cfg.InputDir, cfg.ScenarioDirs)
		if err != nil {
			return nil, err
		}
		files = found
	}

	var datasetList []datasets.DataSet
	for _, datasetConfig := range cfg.Datasets {
		datasetList = append(datasetList, datasets.FromConfig(datasetConfig))
	}

	input := dataimporter.Import(files, datasetList, dataimporter.Options{
		Workers:       cfg.Workers,
		TimestampUnit: timestamps.Unit(cfg.TimestampUnit),
		Sample:        cfg.Sample,
		IdentityMap:   identityMap,
		RSURegistry:   registry,
	})

	filtered := filters.Apply(&input.Gnss, gnssFilters...)
	if filtered > 0 {
		log.Info().Int("removed", filtered).Int("remaining", len(input.Gnss)).Msg("Filtered GNSS records")
	}

	result, err := engine.Process(input.Gnss, input.V2X)
	if err != nil {
		return nil, err
	}

	result.ProjectRoadsideUnits(registry.RoadsideUnits())
	result.Metadata.DataSources = input.DataSources

	statistics := &stats.RunStatistics{
		RunIdentifier:    result.Metadata.RunIdentifier,
		CreationDateTime: result.Metadata.CreationDateTime,
		Files:            len(input.Files),
		FailedFiles:      input.FailedFiles,
		GnssRecords:      len(input.Gnss) + filtered,
		V2XRecords:       len(input.V2X),
		SkippedRecords:   input.Skipped,
		FilteredRecords:  filtered,
	}
	statistics.Calculate(result.Samples, result.Fused)

	written, err := exporter.Write(cfg.OutputDir, &exporter.Output{
		Metadata:     result.Metadata,
		Trajectories: result.Samples,
		Fused:        result.Fused,
	}, exporter.Options{
		Format:       cfg.Output.Format,
		Detailed:     cfg.Output.Detailed,
		MetadataPath: cfg.Output.MetadataPath,
	})
	if err != nil {
		return nil, err
	}

	return &Report{
		Result:     result,
		Statistics: statistics,
		Files:      written,
	}, nil
}

// BuildFilters compiles the region settings, an empty region gives no filters.
func BuildFilters(region config.RegionConfig) ([]filters.GnssFilter, error) {
	var gnssFilters []filters.GnssFilter

	if bbox := filters.NewBoundingBox(region.BBox); bbox != nil {
		gnssFilters = append(gnssFilters, bbox)
	}

	if region.PolygonPath != "" {
		polygon, err := filters.LoadRegion(region.PolygonPath)
		if err != nil {
			return nil, err
		}
		gnssFilters = append(gnssFilters, polygon)
	}

	if region.Expression != "" {
		expression, err := filters.NewExpression(region.Expression)
		if err != nil {
			return nil, err
		}
		gnssFilters = append(gnssFilters, expression)
	}

	return gnssFilters, nil
}

func storeSinks(cfg config.Config, report *Report) error {
	result := report.Result

	if cfg.Output.Mongo {
		if err := database.Connect(); err != nil {
			return fmt.Errorf("connecting to mongo: %w", err)
		}
		defer database.Disconnect()

		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()

		if err := database.StoreRun(ctx, result.Metadata, result.Samples, result.Fused); err != nil {
			return fmt.Errorf("storing run in mongo: %w", err)
		}
	}

	if cfg.Output.Elasticsearch {
		if err := elastic_client.Connect(false); err != nil {
			return fmt.Errorf("connecting to elasticsearch: %w", err)
		}

		elastic_client.IndexFusedRecords(result.Metadata.RunIdentifier, result.Fused)
		report.Statistics.Index()
		elastic_client.WaitUntilQueueEmpty()
	}

	return nil
}

func publishFailure(cfg config.Config, runIdentifier string, runErr error) {
	if !cfg.Output.Events || !redis_client.Connected() {
		return
	}

	if err := events.PublishRunFailed(runIdentifier, runErr); err != nil {
		log.Error().Err(err).Msg("Failed to publish run event")
	}
}
