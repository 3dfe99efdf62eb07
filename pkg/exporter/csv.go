package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/travigo/trajfusion/pkg/ctdf"
)

const messageCountColumnPrefix = "msg_count_"

type trajectoryRow struct {
	VehicleID        string   `csv:"vehicle_id"`
	TimestampMs      int64    `csv:"timestamp_ms"`
	Latitude         float64  `csv:"lat"`
	Longitude        float64  `csv:"lon"`
	Altitude         *float64 `csv:"alt_m"`
	X                float64  `csv:"x_m"`
	Y                float64  `csv:"y_m"`
	Speed            *float64 `csv:"speed_mps"`
	Heading          *float64 `csv:"heading_deg"`
	FlagGap          bool     `csv:"flag_gap"`
	FlagExtrapolated bool     `csv:"flag_extrapolated"`
	FlagLowSpeed     bool     `csv:"flag_low_speed"`
}

type fusedRow struct {
	VehicleID        string   `csv:"vehicle_id"`
	TimestampMs      int64    `csv:"timestamp_ms"`
	X                float64  `csv:"x_m"`
	Y                float64  `csv:"y_m"`
	MessagesSent     int      `csv:"messages_sent"`
	TotalBytes       int64    `csv:"total_bytes"`
	TxBytes          int64    `csv:"tx_bytes"`
	RxBytes          int64    `csv:"rx_bytes"`
	AvgLatencyMs     *float64 `csv:"avg_latency_ms"`
	MsgCounts        string   `csv:"msg_counts"`
	FlagGap          bool     `csv:"flag_gap"`
	FlagExtrapolated bool     `csv:"flag_extrapolated"`
	FlagLowSpeed     bool     `csv:"flag_low_speed"`
}

func newTrajectoryRow(sample *ctdf.TrajectorySample) trajectoryRow {
	return trajectoryRow{
		VehicleID:        sample.VehicleID,
		TimestampMs:      sample.TimestampMs,
		Latitude:         sample.Latitude,
		Longitude:        sample.Longitude,
		Altitude:         sample.Altitude,
		X:                sample.X,
		Y:                sample.Y,
		Speed:            sample.Speed,
		Heading:          sample.Heading,
		FlagGap:          sample.Quality.Gap,
		FlagExtrapolated: sample.Quality.Extrapolated,
		FlagLowSpeed:     sample.Quality.LowSpeed,
	}
}

func newFusedRow(record *ctdf.FusedRecord) (fusedRow, error) {
	counts := record.MsgCounts
	if counts == nil {
		counts = map[string]int{}
	}
	encodedCounts, err := json.Marshal(counts)
	if err != nil {
		return fusedRow{}, err
	}

	return fusedRow{
		VehicleID:        record.VehicleID,
		TimestampMs:      record.TimestampMs,
		X:                record.X,
		Y:                record.Y,
		MessagesSent:     record.MessagesSent,
		TotalBytes:       record.TotalBytes,
		TxBytes:          record.TxBytes,
		RxBytes:          record.RxBytes,
		AvgLatencyMs:     record.AvgLatencyMs,
		MsgCounts:        string(encodedCounts),
		FlagGap:          record.Quality.Gap,
		FlagExtrapolated: record.Quality.Extrapolated,
		FlagLowSpeed:     record.Quality.LowSpeed,
	}, nil
}

func writeCSV(outputDir string, output *Output) ([]string, error) {
	trajectoryRows := make([]trajectoryRow, 0, len(output.Trajectories))
	for index := range output.Trajectories {
		trajectoryRows = append(trajectoryRows, newTrajectoryRow(&output.Trajectories[index]))
	}

	trajectoryPath := filepath.Join(outputDir, trajectoriesName+".csv")
	err := writeFile(trajectoryPath, func(w io.Writer) error {
		return gocsv.Marshal(&trajectoryRows, w)
	})
	if err != nil {
		return nil, err
	}

	fusedPath := filepath.Join(outputDir, fusedName+".csv")
	if err := writeFusedCSV(fusedPath, output.Fused); err != nil {
		return nil, err
	}

	return []string{trajectoryPath, fusedPath}, nil
}

// writeFusedCSV adds one msg_count_<TYPE> column per message type seen in the run after
// the fixed columns
func writeFusedCSV(path string, records []ctdf.FusedRecord) error {
	rows := make([]fusedRow, 0, len(records))
	for index := range records {
		row, err := newFusedRow(&records[index])
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	var fixed bytes.Buffer
	if err := gocsv.Marshal(&rows, &fixed); err != nil {
		return err
	}

	lines, err := csv.NewReader(&fixed).ReadAll()
	if err != nil {
		return err
	}

	messageTypes := ctdf.MessageTypes(records)

	return writeFile(path, func(w io.Writer) error {
		writer := csv.NewWriter(w)

		for index, line := range lines {
			if index == 0 {
				for _, messageType := range messageTypes {
					line = append(line, messageCountColumnPrefix+messageType)
				}
			} else {
				record := records[index-1]
				for _, messageType := range messageTypes {
					line = append(line, strconv.Itoa(record.MsgCounts[messageType]))
				}
			}

			if err := writer.Write(line); err != nil {
				return err
			}
		}

		writer.Flush()
		return writer.Error()
	})
}
