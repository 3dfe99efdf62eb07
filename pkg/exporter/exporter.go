package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/ctdf"
)

const (
	FormatCSV    = "csv"
	FormatJSON   = "json"
	FormatSQLite = "sqlite"
)

const (
	trajectoriesName = "trajectories"
	fusedName        = "fused"
	MetadataFileName = "metadata.json"
)

type Output struct {
	Metadata     *ctdf.DatasetMetadata
	Trajectories []ctdf.TrajectorySample
	Fused        []ctdf.FusedRecord
}

type Options struct {
	Format string

	// Detailed adds the detailed field group to JSON output
	Detailed bool

	// MetadataPath overrides <output dir>/metadata.json
	MetadataPath string
}

// Write serialises the run into outputDir and returns the files it created
func Write(outputDir string, output *Output, options Options) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	var files []string
	var err error

	switch options.Format {
	case FormatCSV:
		files, err = writeCSV(outputDir, output)
	case FormatJSON:
		files, err = writeJSONLines(outputDir, output, options.Detailed)
	case FormatSQLite:
		var path string
		path, err = writeSQLite(filepath.Join(outputDir, "trajfusion.sqlite"), output)
		files = []string{path}
	default:
		return nil, fmt.Errorf("unsupported output format %q", options.Format)
	}
	if err != nil {
		return nil, err
	}

	if output.Metadata != nil {
		metadataPath := options.MetadataPath
		if metadataPath == "" {
			metadataPath = filepath.Join(outputDir, MetadataFileName)
		}

		if err := WriteMetadata(metadataPath, output.Metadata); err != nil {
			return nil, err
		}
		files = append(files, metadataPath)
	}

	for _, file := range files {
		log.Info().Str("file", file).Msg("Wrote output")
	}

	return files, nil
}

func WriteMetadata(path string, metadata *ctdf.DatasetMetadata) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// createFile is replaced in tests
var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// writeFile always closes the file and reports the close error when write succeeded
func writeFile(path string, write func(io.Writer) error) error {
	file, err := createFile(path)
	if err != nil {
		return err
	}

	if err := write(file); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}
