package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/trajfusion/pkg/coordinates"
	"github.com/travigo/trajfusion/pkg/ctdf"
)

func writeFile(t *testing.T, name string, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func validConfig() Config {
	config := Default()
	config.InputDir = "data"
	return config
}

func TestDefaults(t *testing.T) {
	config := Default()

	assert.Equal(t, 1, config.Hz)
	assert.Equal(t, 5.0, config.GapThresholdS)
	assert.Equal(t, int64(500), config.SyncToleranceMs)
	assert.Equal(t, 1.0, config.LowSpeedThresholdMps)
	assert.Equal(t, SmoothingConfig{Enabled: true, Window: 7, Order: 2}, config.Smoothing)
	assert.Equal(t, coordinates.ModeENU, config.CoordinateMode())
	assert.Equal(t, coordinates.OriginPolicyFirst, config.OriginPolicy())
	assert.Nil(t, config.ExplicitOrigin())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
input_dir: /data/v2aix
hz: 1
sync_tolerance_ms: 250
smoothing:
  window: 9
coordinates:
  mode: utm
  origin:
    lat: 50.77
    lon: 6.08
region:
  bbox: [6.0, 50.7, 6.2, 50.8]
`)

	config, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	assert.Equal(t, "/data/v2aix", config.InputDir)
	assert.Equal(t, int64(250), config.SyncToleranceMs)
	assert.Equal(t, 9, config.Smoothing.Window)
	assert.Equal(t, 2, config.Smoothing.Order, "unset keys keep their defaults")
	assert.True(t, config.Smoothing.Enabled)
	assert.Equal(t, coordinates.ModeUTM, config.CoordinateMode())
	assert.Equal(t, &ctdf.Origin{Latitude: 50.77, Longitude: 6.08}, config.ExplicitOrigin())
	assert.Equal(t, 5.0, config.TrajectoryConfig().GapThresholdS)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"input_dir": "in", "gap_threshold_s": 2.5, "output": {"format": "sqlite"}}`)

	config, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	assert.Equal(t, 2.5, config.GapThresholdS)
	assert.Equal(t, OutputFormatSQLite, config.Output.Format)
}

func TestLoadRejectsUnknownKeysAndExtensions(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", "gap_treshold_s: 3\n"))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = Load(writeFile(t, "config.toml", "hz = 1\n"))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyFileGivesDefaults(t *testing.T) {
	config, err := Load(writeFile(t, "config.yaml", ""))

	require.NoError(t, err)
	assert.Equal(t, Default(), config)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no input", func(c *Config) { c.InputDir = "" }},
		{"hz zero", func(c *Config) { c.Hz = 0 }},
		{"hz too high", func(c *Config) { c.Hz = 101 }},
		{"negative gap", func(c *Config) { c.GapThresholdS = -1 }},
		{"negative tolerance", func(c *Config) { c.SyncToleranceMs = -1 }},
		{"tiny window", func(c *Config) { c.Smoothing.Window = 1 }},
		{"order too high", func(c *Config) { c.Smoothing.Order = 7 }},
		{"bad mode", func(c *Config) { c.Coordinates.Mode = "lambert" }},
		{"bad policy", func(c *Config) { c.Coordinates.OriginPolicy = "last" }},
		{"bad origin", func(c *Config) { c.Coordinates.Origin = &OriginConfig{Latitude: 91} }},
		{"bbox length", func(c *Config) { c.Region.BBox = []float64{1, 2, 3} }},
		{"bbox order", func(c *Config) { c.Region.BBox = []float64{6.2, 50.7, 6.0, 50.8} }},
		{"bbox range", func(c *Config) { c.Region.BBox = []float64{-190, 50.7, 6.0, 50.8} }},
		{"timestamp unit", func(c *Config) { c.TimestampUnit = "fortnights" }},
		{"output format", func(c *Config) { c.Output.Format = "parquet" }},
		{"dataset without source", func(c *Config) { c.Datasets = []DatasetConfig{{Identifier: "x", Format: "gnss-csv"}} }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := validConfig()
			test.modify(&config)

			assert.ErrorIs(t, config.Validate(), ErrInvalidConfiguration)
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	config := validConfig()
	config.Hz = 10
	config.Smoothing.Window = 6
	config.Smoothing.Order = 6
	config.Coordinates.OriginPolicy = "not used with an explicit origin"
	config.Coordinates.Origin = &OriginConfig{Latitude: 1, Longitude: 2}

	assert.NoError(t, config.Validate())

	config = validConfig()
	config.Smoothing.Enabled = false
	config.Smoothing.Window = 0
	assert.NoError(t, config.Validate())
}

func TestApplyEnvironment(t *testing.T) {
	t.Setenv("TRAJFUSION_INPUT_DIR", "/env/input")
	t.Setenv("TRAJFUSION_WORKERS", "4")
	t.Setenv("TRAJFUSION_COORDINATE_MODE", "utm")

	config := Default()
	require.NoError(t, config.ApplyEnvironment())

	assert.Equal(t, "/env/input", config.InputDir)
	assert.Equal(t, 4, config.Workers)
	assert.Equal(t, "utm", config.Coordinates.Mode)

	t.Setenv("TRAJFUSION_WORKERS", "many")
	assert.ErrorIs(t, config.ApplyEnvironment(), ErrInvalidConfiguration)
}

func TestIdentityMap(t *testing.T) {
	path := writeFile(t, "ids.json", `{"1234": "vehicle_a", "obu-7": 42}`)

	identityMap, err := LoadIdentityMap(path)
	require.NoError(t, err)

	assert.Equal(t, "vehicle_a", identityMap.Resolve("1234"))
	assert.Equal(t, "42", identityMap.Resolve("obu-7"))
	assert.Equal(t, "other", identityMap.Resolve("other"))

	_, err = LoadIdentityMap(writeFile(t, "ids.json", `["not", "an", "object"]`))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestRSURegistry(t *testing.T) {
	path := writeFile(t, "rsu.json", `{
		"RSU_001": {"location": {"lat": 50.78, "lon": 6.08, "alt": 210}},
		"RSU_002": {"latitude": "50.79", "longitude": 6.09},
		"RSU_003": {"name": "no position"}
	}`)

	registry, err := LoadRSURegistry(path)
	require.NoError(t, err)

	assert.True(t, registry.Contains("RSU_003"))
	assert.False(t, registry.Contains("vehicle"))

	units := map[string]ctdf.RoadsideUnit{}
	for _, unit := range registry.RoadsideUnits() {
		units[unit.Identifier] = unit
	}

	require.Len(t, units, 2)
	assert.Equal(t, 50.78, units["RSU_001"].Latitude)
	require.NotNil(t, units["RSU_001"].Altitude)
	assert.Equal(t, 210.0, *units["RSU_001"].Altitude)
	assert.Equal(t, 50.79, units["RSU_002"].Latitude)
	assert.Nil(t, units["RSU_002"].Altitude)
}
