package manager

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/ctdf"
	"github.com/travigo/trajfusion/pkg/dataimporter/datasets"
	"github.com/travigo/trajfusion/pkg/dataimporter/formats"
	"github.com/travigo/trajfusion/pkg/dataimporter/formats/gnsscsv"
	"github.com/travigo/trajfusion/pkg/dataimporter/formats/gtfsrt"
	"github.com/travigo/trajfusion/pkg/dataimporter/formats/v2aix"
)

const downloadTimeout = 5 * time.Minute

func NewFormat(format datasets.DataSetFormat, options formats.Options) (formats.Format, error) {
	switch format {
	case datasets.DataSetFormatV2AIX:
		return v2aix.New(options), nil
	case datasets.DataSetFormatGnssCSV:
		return gnsscsv.New(options), nil
	case datasets.DataSetFormatGTFSRealtime:
		return gtfsrt.New(options), nil
	default:
		return nil, fmt.Errorf("unrecognised format %s", format)
	}
}

// ParseFile reads one local file, unpacking it first when it is gzipped
func ParseFile(path string, format datasets.DataSetFormat, bundle datasets.BundleFormat, options formats.Options) (formats.Format, error) {
	parser, err := NewFormat(format, options)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var reader io.Reader = file

	switch bundle {
	case datasets.BundleFormatGZ:
		gzipReader, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("cannot decode gzip stream %s: %w", path, err)
		}
		defer gzipReader.Close()

		reader = gzipReader
	case datasets.BundleFormatNone, "":
	default:
		return nil, fmt.Errorf("cannot handle bundle type %s", bundle)
	}

	if err := parser.ParseFile(reader); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return parser, nil
}

// ImportDataset fetches a configured dataset, downloading it first when the source is a URL
func ImportDataset(dataset datasets.DataSet, options formats.Options) (formats.Format, *ctdf.DataSource, error) {
	log.Info().Str("dataset", dataset.Identifier).Str("format", string(dataset.Format)).Msg("Importing dataset")

	source := dataset.Source
	if isValidUrl(dataset.Source) {
		tempFile, _, err := tempDownloadFile(dataset.Source)
		if err != nil {
			return nil, nil, err
		}

		source = tempFile.Name()
		defer os.Remove(tempFile.Name())
	}

	options.SourceFile = dataset.Source

	parser, err := ParseFile(source, dataset.Format, dataset.UnpackBundle, options)
	if err != nil {
		return nil, nil, err
	}

	dataSource := &ctdf.DataSource{
		OriginalFormat: string(dataset.Format),
		Provider:       dataset.Provider.Name,
		Dataset:        dataset.Identifier,
		Identifier:     fmt.Sprintf("%d", time.Now().Unix()),
	}

	return parser, dataSource, nil
}

func isValidUrl(toTest string) bool {
	_, err := url.ParseRequestURI(toTest)
	if err != nil {
		return false
	}

	u, err := url.Parse(toTest)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

func tempDownloadFile(source string, headers ...[]string) (*os.File, string, error) {
	req, err := http.NewRequest("GET", source, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header["user-agent"] = []string{"curl/7.54.1"}

	for _, header := range headers {
		req.Header[header[0]] = []string{header[1]}
	}

	client := &http.Client{Timeout: downloadTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.New(fmt.Sprintf("download %s: unexpected status %s", source, resp.Status))
	}

	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	fileExtension := filepath.Ext(source)
	if err == nil {
		fileExtension = filepath.Ext(params["filename"])
	}

	tmpFile, err := os.CreateTemp(os.TempDir(), "trajfusion-data-importer-")
	if err != nil {
		return nil, "", fmt.Errorf("cannot create temporary file: %w", err)
	}
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		os.Remove(tmpFile.Name())
		return nil, "", err
	}

	return tmpFile, fileExtension, nil
}
