package dataimporter

import (
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/trajfusion/pkg/config"
	"github.com/travigo/trajfusion/pkg/ctdf"
	"github.com/travigo/trajfusion/pkg/dataimporter/datasets"
	"github.com/travigo/trajfusion/pkg/dataimporter/formats"
	"github.com/travigo/trajfusion/pkg/dataimporter/formats/v2aix"
	"github.com/travigo/trajfusion/pkg/dataimporter/manager"
	"github.com/travigo/trajfusion/pkg/timestamps"
	"golang.org/x/exp/slices"
)

type Options struct {
	Workers       int
	TimestampUnit timestamps.Unit

	// Sample limits the objects read per file, 0 reads everything
	Sample int

	IdentityMap config.IdentityMap
	RSURegistry config.RSURegistry
}

// ParsedFile is the outcome of reading one input file or dataset
type ParsedFile struct {
	Path   string
	Format datasets.DataSetFormat
	Layout string

	Gnss    int
	V2X     int
	Skipped int

	Err error
}

type Input struct {
	Gnss []ctdf.GnssRecord
	V2X  []ctdf.V2XEventRecord

	Files       []ParsedFile
	DataSources []*ctdf.DataSource

	Skipped     int
	RSURecords  int
	FailedFiles int
}

type parseResult struct {
	index      int
	file       ParsedFile
	records    formats.Records
	dataSource *ctdf.DataSource
}

// Import parses every file and dataset in parallel. A file that cannot be read is logged
// and left out, it never stops the others.
func Import(files []string, datasetList []datasets.DataSet, options Options) *Input {
	workers := options.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	formatOptions := formats.Options{
		TimestampUnit: options.TimestampUnit,
		Limit:         options.Sample,
	}

	p := pool.NewWithResults[parseResult]().WithMaxGoroutines(workers)

	for index, path := range files {
		index, path := index, path

		p.Go(func() parseResult {
			format, _ := datasets.FormatForFile(path)
			bundle := datasets.BundleForFile(path)

			fileOptions := formatOptions
			fileOptions.SourceFile = path

			parser, err := manager.ParseFile(path, format, bundle, fileOptions)

			return newParseResult(index, path, format, parser, nil, err)
		})
	}

	for datasetIndex, dataset := range datasetList {
		index, dataset := len(files)+datasetIndex, dataset

		p.Go(func() parseResult {
			parser, dataSource, err := manager.ImportDataset(dataset, formatOptions)

			return newParseResult(index, dataset.Source, dataset.Format, parser, dataSource, err)
		})
	}

	results := p.Wait()
	slices.SortFunc(results, func(a, b parseResult) int {
		return a.index - b.index
	})

	input := &Input{}
	for _, result := range results {
		input.Files = append(input.Files, result.file)

		if result.file.Err != nil {
			log.Error().Err(result.file.Err).Str("file", result.file.Path).Msg("Failed to parse file")
			input.FailedFiles++
			continue
		}

		input.Gnss = append(input.Gnss, result.records.Gnss...)
		input.V2X = append(input.V2X, result.records.V2X...)
		input.Skipped += result.records.Skipped

		if result.dataSource != nil {
			input.DataSources = append(input.DataSources, result.dataSource)
		}
	}

	input.resolveIdentities(options.IdentityMap, options.RSURegistry)

	log.Info().
		Int("files", len(input.Files)).
		Int("failed", input.FailedFiles).
		Int("gnss", len(input.Gnss)).
		Int("v2x", len(input.V2X)).
		Int("skipped", input.Skipped).
		Msg("Imported records")

	return input
}

func newParseResult(index int, path string, format datasets.DataSetFormat, parser formats.Format, dataSource *ctdf.DataSource, err error) parseResult {
	result := parseResult{
		index:      index,
		dataSource: dataSource,
		file: ParsedFile{
			Path:   path,
			Format: format,
			Err:    err,
		},
	}

	if err != nil {
		return result
	}

	result.records = parser.Records()
	result.file.Gnss = len(result.records.Gnss)
	result.file.V2X = len(result.records.V2X)
	result.file.Skipped = result.records.Skipped

	if v2aixParser, ok := parser.(*v2aix.V2AIX); ok {
		result.file.Layout = string(v2aixParser.Layout)
	}

	return result
}

// resolveIdentities maps raw ids onto canonical vehicle ids and drops GNSS fixes that
// belong to roadside units
func (i *Input) resolveIdentities(identityMap config.IdentityMap, registry config.RSURegistry) {
	if len(identityMap) > 0 {
		for index := range i.Gnss {
			i.Gnss[index].VehicleID = identityMap.Resolve(i.Gnss[index].VehicleID)
		}
		for index := range i.V2X {
			i.V2X[index].VehicleID = identityMap.Resolve(i.V2X[index].VehicleID)
		}
	}

	if len(registry) > 0 {
		before := len(i.Gnss)
		i.Gnss = slices.DeleteFunc(i.Gnss, func(record ctdf.GnssRecord) bool {
			return registry.Contains(record.VehicleID)
		})
		i.RSURecords = before - len(i.Gnss)

		if i.RSURecords > 0 {
			log.Info().Int("records", i.RSURecords).Msg("Removed roadside unit positions from vehicle data")
		}
	}
}
