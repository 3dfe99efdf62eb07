package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/travigo/trajfusion/pkg/coordinates"
	"github.com/travigo/trajfusion/pkg/ctdf"
	"github.com/travigo/trajfusion/pkg/fusion"
	"github.com/travigo/trajfusion/pkg/timestamps"
	"github.com/travigo/trajfusion/pkg/trajectory"
	"github.com/travigo/trajfusion/pkg/util"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

const maxConfigFileSize = 1 << 20

type Config struct {
	InputDir     string          `yaml:"input_dir" json:"input_dir"`
	OutputDir    string          `yaml:"output_dir" json:"output_dir"`
	ScenarioDirs []string        `yaml:"scenario_dirs" json:"scenario_dirs"`
	Datasets     []DatasetConfig `yaml:"datasets" json:"datasets"`

	// Sample limits how many objects are read from each file, 0 means all
	Sample  int `yaml:"sample" json:"sample"`
	Workers int `yaml:"workers" json:"workers"`

	TimestampUnit string `yaml:"timestamp_unit" json:"timestamp_unit"`

	Hz                   int     `yaml:"hz" json:"hz"`
	GapThresholdS        float64 `yaml:"gap_threshold_s" json:"gap_threshold_s"`
	LowSpeedThresholdMps float64 `yaml:"low_speed_threshold_mps" json:"low_speed_threshold_mps"`
	SyncToleranceMs      int64   `yaml:"sync_tolerance_ms" json:"sync_tolerance_ms"`

	Smoothing   SmoothingConfig   `yaml:"smoothing" json:"smoothing"`
	Coordinates CoordinatesConfig `yaml:"coordinates" json:"coordinates"`
	Region      RegionConfig      `yaml:"region" json:"region"`
	Output      OutputConfig      `yaml:"output" json:"output"`

	IdsMapPath string `yaml:"ids_map_path" json:"ids_map_path"`
	RsuIdsPath string `yaml:"rsu_ids_path" json:"rsu_ids_path"`
}

type SmoothingConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Window  int  `yaml:"window" json:"window"`
	Order   int  `yaml:"order" json:"order"`
}

type CoordinatesConfig struct {
	Mode         string        `yaml:"mode" json:"mode"`
	OriginPolicy string        `yaml:"origin_policy" json:"origin_policy"`
	Origin       *OriginConfig `yaml:"origin" json:"origin"`
	RebaseUTM    bool          `yaml:"rebase_utm" json:"rebase_utm"`
}

type OriginConfig struct {
	Latitude  float64 `yaml:"lat" json:"lat"`
	Longitude float64 `yaml:"lon" json:"lon"`
	Altitude  float64 `yaml:"alt" json:"alt"`
}

type RegionConfig struct {
	// BBox is min_lon, min_lat, max_lon, max_lat
	BBox        []float64 `yaml:"bbox" json:"bbox"`
	PolygonPath string    `yaml:"polygon_path" json:"polygon_path"`
	Expression  string    `yaml:"expression" json:"expression"`
}

type OutputConfig struct {
	Format        string `yaml:"format" json:"format"`
	Detailed      bool   `yaml:"detailed" json:"detailed"`
	MetadataPath  string `yaml:"metadata_path" json:"metadata_path"`
	Mongo         bool   `yaml:"mongo" json:"mongo"`
	Elasticsearch bool   `yaml:"elasticsearch" json:"elasticsearch"`
	Events        bool   `yaml:"events" json:"events"`
}

// DatasetConfig points at an extra input that is not part of the input directory, a
// local path or an http(s) URL.
type DatasetConfig struct {
	Identifier   string `yaml:"identifier" json:"identifier"`
	Format       string `yaml:"format" json:"format"`
	Source       string `yaml:"source" json:"source"`
	UnpackBundle string `yaml:"unpack_bundle" json:"unpack_bundle"`
	Provider     string `yaml:"provider" json:"provider"`
}

const (
	OutputFormatCSV    = "csv"
	OutputFormatJSON   = "json"
	OutputFormatSQLite = "sqlite"
)

func Default() Config {
	return Config{
		OutputDir:            "output",
		Hz:                   1,
		GapThresholdS:        trajectory.DefaultGapThresholdS,
		LowSpeedThresholdMps: trajectory.DefaultLowSpeedThresholdMps,
		SyncToleranceMs:      fusion.DefaultSyncToleranceMs,
		Smoothing: SmoothingConfig{
			Enabled: true,
			Window:  trajectory.DefaultSmoothingWindow,
			Order:   trajectory.DefaultSmoothingOrder,
		},
		Coordinates: CoordinatesConfig{
			Mode:         string(coordinates.ModeENU),
			OriginPolicy: string(coordinates.OriginPolicyFirst),
			RebaseUTM:    true,
		},
		Output: OutputConfig{
			Format: OutputFormatCSV,
		},
	}
}

// Load reads a YAML or JSON file on top of the defaults. It does not validate, callers
// apply their overrides first and then call Validate.
func Load(path string) (Config, error) {
	config := Default()

	extension := strings.ToLower(filepath.Ext(path))
	if extension != ".yaml" && extension != ".yml" && extension != ".json" {
		return config, fmt.Errorf("%w: config file must be .yaml, .yml or .json, got %q", ErrInvalidConfiguration, extension)
	}

	info, err := os.Stat(path)
	if err != nil {
		return config, err
	}
	if info.Size() > maxConfigFileSize {
		return config, fmt.Errorf("%w: config file %s is too large", ErrInvalidConfiguration, path)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(contents))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("%w: %s: %v", ErrInvalidConfiguration, path, err)
	}

	return config, nil
}

// ApplyEnvironment overrides settings from TRAJFUSION_* variables.
func (c *Config) ApplyEnvironment() error {
	env := util.GetEnvironmentVariables()

	if env["TRAJFUSION_INPUT_DIR"] != "" {
		c.InputDir = env["TRAJFUSION_INPUT_DIR"]
	}

	if env["TRAJFUSION_OUTPUT_DIR"] != "" {
		c.OutputDir = env["TRAJFUSION_OUTPUT_DIR"]
	}

	if env["TRAJFUSION_WORKERS"] != "" {
		workers, err := strconv.Atoi(env["TRAJFUSION_WORKERS"])
		if err != nil {
			return fmt.Errorf("%w: TRAJFUSION_WORKERS: %v", ErrInvalidConfiguration, err)
		}
		c.Workers = workers
	}

	if env["TRAJFUSION_COORDINATE_MODE"] != "" {
		c.Coordinates.Mode = env["TRAJFUSION_COORDINATE_MODE"]
	}

	if env["TRAJFUSION_OUTPUT_FORMAT"] != "" {
		c.Output.Format = env["TRAJFUSION_OUTPUT_FORMAT"]
	}

	return nil
}

func (c *Config) Validate() error {
	if c.InputDir == "" && len(c.Datasets) == 0 {
		return invalid("an input directory or at least one dataset is required")
	}

	return c.ValidateProcessing()
}

// ValidateProcessing checks everything except where the input comes from, it is what the
// in-memory engine needs before any vehicle is processed.
func (c *Config) ValidateProcessing() error {
	if c.Hz < 1 || c.Hz > 100 {
		return invalid("hz must be between 1 and 100, got %d", c.Hz)
	}

	if c.GapThresholdS < 0 {
		return invalid("gap_threshold_s must not be negative, got %f", c.GapThresholdS)
	}

	if c.SyncToleranceMs < 0 {
		return invalid("sync_tolerance_ms must not be negative, got %d", c.SyncToleranceMs)
	}

	if c.LowSpeedThresholdMps < 0 {
		return invalid("low_speed_threshold_mps must not be negative, got %f", c.LowSpeedThresholdMps)
	}

	if c.Sample < 0 || c.Workers < 0 {
		return invalid("sample and workers must not be negative")
	}

	if c.Smoothing.Enabled {
		window := c.Smoothing.Window
		if window%2 == 0 {
			window++
		}
		if window < 3 {
			return invalid("smoothing window must be at least 3, got %d", c.Smoothing.Window)
		}
		if c.Smoothing.Order < 0 || c.Smoothing.Order >= window {
			return invalid("smoothing order must be between 0 and %d, got %d", window-1, c.Smoothing.Order)
		}
	}

	if _, err := coordinates.ParseMode(c.Coordinates.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	if c.Coordinates.Origin == nil {
		if _, err := coordinates.ParseOriginPolicy(c.Coordinates.OriginPolicy); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
	} else if err := validateLatLon(c.Coordinates.Origin.Latitude, c.Coordinates.Origin.Longitude); err != nil {
		return fmt.Errorf("origin: %w", err)
	}

	if err := ValidateBBox(c.Region.BBox); err != nil {
		return err
	}

	switch c.TimestampUnit {
	case "", string(timestamps.UnitSeconds), string(timestamps.UnitMilliseconds), string(timestamps.UnitMicroseconds):
	default:
		return invalid("unknown timestamp_unit %q", c.TimestampUnit)
	}

	switch c.Output.Format {
	case OutputFormatCSV, OutputFormatJSON, OutputFormatSQLite:
	default:
		return invalid("output format must be csv, json or sqlite, got %q", c.Output.Format)
	}

	for _, dataset := range c.Datasets {
		if dataset.Source == "" || dataset.Format == "" {
			return invalid("dataset %q needs a source and a format", dataset.Identifier)
		}
	}

	return nil
}

// ValidateBBox checks min_lon, min_lat, max_lon, max_lat. An empty box is valid and
// disables the filter.
func ValidateBBox(bbox []float64) error {
	if len(bbox) == 0 {
		return nil
	}

	if len(bbox) != 4 {
		return invalid("bbox needs 4 values (min_lon, min_lat, max_lon, max_lat), got %d", len(bbox))
	}

	minLon, minLat, maxLon, maxLat := bbox[0], bbox[1], bbox[2], bbox[3]

	if minLon >= maxLon {
		return invalid("bbox min_lon (%f) must be less than max_lon (%f)", minLon, maxLon)
	}
	if minLat >= maxLat {
		return invalid("bbox min_lat (%f) must be less than max_lat (%f)", minLat, maxLat)
	}
	if err := validateLatLon(minLat, minLon); err != nil {
		return err
	}

	return validateLatLon(maxLat, maxLon)
}

func validateLatLon(lat float64, lon float64) error {
	if lat < -90 || lat > 90 {
		return invalid("latitude must be in [-90, 90], got %f", lat)
	}
	if lon < -180 || lon > 180 {
		return invalid("longitude must be in [-180, 180], got %f", lon)
	}

	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

func (c *Config) TrajectoryConfig() trajectory.Config {
	return trajectory.Config{
		Hz:                   c.Hz,
		GapThresholdS:        c.GapThresholdS,
		SmoothingEnabled:     c.Smoothing.Enabled,
		SmoothingWindow:      c.Smoothing.Window,
		SmoothingOrder:       c.Smoothing.Order,
		LowSpeedThresholdMps: c.LowSpeedThresholdMps,
	}
}

// CoordinateMode and OriginPolicy assume Validate has passed.
func (c *Config) CoordinateMode() coordinates.Mode {
	mode, _ := coordinates.ParseMode(c.Coordinates.Mode)
	return mode
}

func (c *Config) OriginPolicy() coordinates.OriginPolicy {
	policy, _ := coordinates.ParseOriginPolicy(c.Coordinates.OriginPolicy)
	return policy
}

func (c *Config) ExplicitOrigin() *ctdf.Origin {
	if c.Coordinates.Origin == nil {
		return nil
	}

	return &ctdf.Origin{
		Latitude:  c.Coordinates.Origin.Latitude,
		Longitude: c.Coordinates.Origin.Longitude,
		Altitude:  c.Coordinates.Origin.Altitude,
	}
}

// Resolve loads path when set, otherwise starts from the defaults, and applies the
// environment on top.
func Resolve(path string) (Config, error) {
	config := Default()

	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return config, err
		}
		config = loaded
	}

	if err := config.ApplyEnvironment(); err != nil {
		return config, err
	}

	return config, nil
}

// LoadIdentities reads the optional identity map and RSU registry files.
func (c *Config) LoadIdentities() (IdentityMap, RSURegistry, error) {
	var identityMap IdentityMap
	var registry RSURegistry
	var err error

	if c.IdsMapPath != "" {
		if identityMap, err = LoadIdentityMap(c.IdsMapPath); err != nil {
			return nil, nil, err
		}
	}

	if c.RsuIdsPath != "" {
		if registry, err = LoadRSURegistry(c.RsuIdsPath); err != nil {
			return nil, nil, err
		}
	}

	return identityMap, registry, nil
}
