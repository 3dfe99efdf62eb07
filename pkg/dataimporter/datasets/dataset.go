package datasets

import (
	"path/filepath"
	"strings"

	"github.com/travigo/trajfusion/pkg/config"
)

type DataSet struct {
	Identifier string
	Format     DataSetFormat

	Provider Provider

	Source       string
	UnpackBundle BundleFormat
}

type DataSetFormat string

const (
	DataSetFormatV2AIX        DataSetFormat = "v2aix-json"
	DataSetFormatGnssCSV      DataSetFormat = "gnss-csv"
	DataSetFormatGTFSRealtime DataSetFormat = "gtfs-realtime"
)

type Provider struct {
	Name    string
	Website string
}

type BundleFormat string

const (
	BundleFormatNone BundleFormat = "none"
	BundleFormatGZ   BundleFormat = "gz"
)

func FromConfig(datasetConfig config.DatasetConfig) DataSet {
	dataset := DataSet{
		Identifier:   datasetConfig.Identifier,
		Format:       DataSetFormat(datasetConfig.Format),
		Provider:     Provider{Name: datasetConfig.Provider},
		Source:       datasetConfig.Source,
		UnpackBundle: BundleFormat(datasetConfig.UnpackBundle),
	}

	if dataset.UnpackBundle == "" {
		dataset.UnpackBundle = BundleForFile(dataset.Source)
	}
	if dataset.Identifier == "" {
		dataset.Identifier = filepath.Base(dataset.Source)
	}

	return dataset
}

func BundleForFile(path string) BundleFormat {
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		return BundleFormatGZ
	}

	return BundleFormatNone
}

// FormatForFile picks a format from a file name, ignoring a trailing .gz
func FormatForFile(path string) (DataSetFormat, bool) {
	name := strings.TrimSuffix(strings.ToLower(path), ".gz")

	switch filepath.Ext(name) {
	case ".json", ".jsonl":
		return DataSetFormatV2AIX, true
	case ".csv":
		return DataSetFormatGnssCSV, true
	case ".pb":
		return DataSetFormatGTFSRealtime, true
	}

	return "", false
}
