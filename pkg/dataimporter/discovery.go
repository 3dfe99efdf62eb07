package dataimporter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/dataimporter/datasets"
	"github.com/travigo/trajfusion/pkg/util"
)

// FindFiles lists the supported input files below inputDir. When scenarioDirs is set only
// the files directly inside those sub directories are used.
func FindFiles(inputDir string, scenarioDirs []string) ([]string, error) {
	info, err := os.Stat(inputDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input path %s is not a directory", inputDir)
	}

	var files []string

	if len(scenarioDirs) == 0 {
		err := filepath.WalkDir(inputDir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() && isSupported(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		for _, scenarioDir := range scenarioDirs {
			fullPath := filepath.Join(inputDir, scenarioDir)

			entries, err := os.ReadDir(fullPath)
			if errors.Is(err, fs.ErrNotExist) {
				log.Warn().Str("directory", scenarioDir).Msg("Scenario directory not found")
				continue
			} else if err != nil {
				return nil, err
			}

			found := 0
			for _, entry := range entries {
				path := filepath.Join(fullPath, entry.Name())
				if !entry.IsDir() && isSupported(path) {
					files = append(files, path)
					found++
				}
			}
			log.Info().Str("directory", scenarioDir).Int("files", found).Msg("Found scenario files")
		}
	}

	sort.Strings(files)

	return files, nil
}

func isSupported(path string) bool {
	_, ok := datasets.FormatForFile(path)
	return ok
}

type Summary struct {
	InputDir    string
	TotalFiles  int
	FailedFiles int
	SampleLimit int

	Layouts map[string]int
	Formats map[string]int

	GnssRecords    int
	V2XRecords     int
	SkippedRecords int

	Vehicles     []string
	VehicleCount int
	MessageTypes []string
}

// Discover parses a sample of every input file and summarises what the dataset contains
func Discover(inputDir string, scenarioDirs []string, options Options) (*Summary, error) {
	files, err := FindFiles(inputDir, scenarioDirs)
	if err != nil {
		return nil, err
	}

	log.Info().Str("directory", inputDir).Int("files", len(files)).Int("sample", options.Sample).Msg("Discovering dataset")

	input := Import(files, nil, options)

	summary := &Summary{
		InputDir:       inputDir,
		TotalFiles:     len(files),
		FailedFiles:    input.FailedFiles,
		SampleLimit:    options.Sample,
		Layouts:        map[string]int{},
		Formats:        map[string]int{},
		GnssRecords:    len(input.Gnss),
		V2XRecords:     len(input.V2X),
		SkippedRecords: input.Skipped,
	}

	for _, file := range input.Files {
		summary.Formats[string(file.Format)]++
		if file.Layout != "" {
			summary.Layouts[file.Layout]++
		}
	}

	vehicles := map[string]bool{}
	messageTypes := map[string]bool{}

	for _, record := range input.Gnss {
		vehicles[record.VehicleID] = true
	}
	for _, record := range input.V2X {
		vehicles[record.VehicleID] = true
		if record.MessageType != "" {
			messageTypes[record.MessageType] = true
		}
	}

	summary.Vehicles = util.SortedKeys(vehicles)
	summary.VehicleCount = len(summary.Vehicles)
	summary.MessageTypes = util.SortedKeys(messageTypes)

	return summary, nil
}
