package exporter

import (
	"bufio"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/trajfusion/pkg/ctdf"
)

func float(value float64) *float64 {
	return &value
}

func sampleOutput() *Output {
	return &Output{
		Metadata: &ctdf.DatasetMetadata{
			RunIdentifier:    "run-1",
			CRS:              "ENU",
			CoordinateSystem: ctdf.CoordinateSystemENU,
			Origin:           ctdf.Origin{Latitude: 50.78, Longitude: 6.06},
			Hz:               1,
		},
		Trajectories: []ctdf.TrajectorySample{
			{VehicleID: "car-1", TimestampMs: 1000, Latitude: 50.78, Longitude: 6.06, Altitude: float(180), X: 0, Y: 0, Quality: ctdf.QualityFlags{LowSpeed: true}},
			{VehicleID: "car-1", TimestampMs: 2000, Latitude: 50.7801, Longitude: 6.06, X: 0, Y: 11.1, Speed: float(11.1)},
		},
		Fused: []ctdf.FusedRecord{
			{VehicleID: "car-1", TimestampMs: 1000, MessagesSent: 2, TotalBytes: 300, TxBytes: 300, MsgCounts: map[string]int{"CAM": 1, "DENM": 1}, AvgLatencyMs: float(12.5), Quality: ctdf.QualityFlags{LowSpeed: true}},
			{VehicleID: "car-1", TimestampMs: 2000, Y: 11.1, MsgCounts: map[string]int{}},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	return rows
}

func column(header []string, name string) int {
	for index, value := range header {
		if value == name {
			return index
		}
	}

	return -1
}

func TestWriteCSV(t *testing.T) {
	directory := t.TempDir()

	files, err := Write(directory, sampleOutput(), Options{Format: FormatCSV})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(directory, "trajectories.csv"),
		filepath.Join(directory, "fused.csv"),
		filepath.Join(directory, "metadata.json"),
	}, files)

	trajectories := readCSV(t, files[0])
	require.Len(t, trajectories, 3)
	header := trajectories[0]
	assert.Equal(t, "car-1", trajectories[1][column(header, "vehicle_id")])
	assert.Equal(t, "true", trajectories[1][column(header, "flag_low_speed")])
	assert.Equal(t, "", trajectories[2][column(header, "alt_m")])

	fused := readCSV(t, files[1])
	require.Len(t, fused, 3)
	header = fused[0]
	assert.Equal(t, []string{"msg_count_CAM", "msg_count_DENM"}, header[len(header)-2:])
	assert.Equal(t, `{"CAM":1,"DENM":1}`, fused[1][column(header, "msg_counts")])
	assert.Equal(t, "1", fused[1][column(header, "msg_count_DENM")])
	assert.Equal(t, "0", fused[2][column(header, "msg_count_CAM")])
	assert.Equal(t, "{}", fused[2][column(header, "msg_counts")])
	assert.Equal(t, "", fused[2][column(header, "avg_latency_ms")])

	var metadata ctdf.DatasetMetadata
	contents, err := os.ReadFile(files[2])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(contents, &metadata))
	assert.Equal(t, "run-1", metadata.RunIdentifier)
	assert.Equal(t, 50.78, metadata.Origin.Latitude)
}

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())

	return lines
}

func TestWriteJSONLinesGroups(t *testing.T) {
	directory := t.TempDir()
	metadataPath := filepath.Join(directory, "meta", "run.json")

	files, err := Write(directory, sampleOutput(), Options{Format: FormatJSON, MetadataPath: metadataPath})
	require.NoError(t, err)
	assert.Equal(t, metadataPath, files[2])

	fused := readLines(t, files[1])
	require.Len(t, fused, 2)
	assert.Equal(t, "car-1", fused[0]["VehicleID"])
	assert.Equal(t, 2.0, fused[0]["MessagesSent"])
	assert.NotContains(t, fused[0], "Quality")

	files, err = Write(directory, sampleOutput(), Options{Format: FormatJSON, Detailed: true})
	require.NoError(t, err)

	fused = readLines(t, files[1])
	assert.Contains(t, fused[0], "Quality")

	trajectories := readLines(t, files[0])
	require.Len(t, trajectories, 2)
	assert.Nil(t, trajectories[1]["Altitude"])
}

func TestWriteSQLite(t *testing.T) {
	directory := t.TempDir()

	files, err := Write(directory, sampleOutput(), Options{Format: FormatSQLite})
	require.NoError(t, err)

	db, err := sql.Open("sqlite", files[0])
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM trajectories`).Scan(&count))
	assert.Equal(t, 2, count)

	var msgCounts string
	var latency sql.NullFloat64
	require.NoError(t, db.QueryRow(`SELECT msg_counts, avg_latency_ms FROM fused_records WHERE timestamp_ms = 2000`).Scan(&msgCounts, &latency))
	assert.Equal(t, "{}", msgCounts)
	assert.False(t, latency.Valid)

	var runID string
	require.NoError(t, db.QueryRow(`SELECT run_id FROM metadata`).Scan(&runID))
	assert.Equal(t, "run-1", runID)

	_, err = Write(directory, sampleOutput(), Options{Format: FormatSQLite})
	assert.NoError(t, err)
}

func TestWriteUnknownFormat(t *testing.T) {
	_, err := Write(t.TempDir(), sampleOutput(), Options{Format: "parquet"})

	assert.Error(t, err)
}

var errDiskFull = errors.New("disk full")

type failingCloseFile struct {
	*os.File
}

func (f failingCloseFile) Close() error {
	f.File.Close()
	return errDiskFull
}

func TestWriteReportsCloseErrors(t *testing.T) {
	original := createFile
	t.Cleanup(func() { createFile = original })

	createFile = func(path string) (io.WriteCloser, error) {
		file, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		return failingCloseFile{file}, nil
	}

	for _, format := range []string{FormatCSV, FormatJSON} {
		files, err := Write(t.TempDir(), sampleOutput(), Options{Format: format})
		assert.ErrorIs(t, err, errDiskFull, format)
		assert.Nil(t, files, format)
	}
}
