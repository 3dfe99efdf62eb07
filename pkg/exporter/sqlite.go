package exporter

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/travigo/trajfusion/pkg/ctdf"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE trajectories (
		vehicle_id TEXT NOT NULL,
		timestamp_ms INTEGER NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		alt_m REAL,
		x_m REAL NOT NULL,
		y_m REAL NOT NULL,
		speed_mps REAL,
		heading_deg REAL,
		flag_gap INTEGER NOT NULL,
		flag_extrapolated INTEGER NOT NULL,
		flag_low_speed INTEGER NOT NULL,
		PRIMARY KEY (vehicle_id, timestamp_ms)
	);

	CREATE TABLE fused_records (
		vehicle_id TEXT NOT NULL,
		timestamp_ms INTEGER NOT NULL,
		x_m REAL NOT NULL,
		y_m REAL NOT NULL,
		messages_sent INTEGER NOT NULL,
		total_bytes INTEGER NOT NULL,
		tx_bytes INTEGER NOT NULL,
		rx_bytes INTEGER NOT NULL,
		avg_latency_ms REAL,
		msg_counts TEXT NOT NULL,
		flag_gap INTEGER NOT NULL,
		flag_extrapolated INTEGER NOT NULL,
		flag_low_speed INTEGER NOT NULL,
		PRIMARY KEY (vehicle_id, timestamp_ms)
	);

	CREATE TABLE metadata (
		run_id TEXT NOT NULL,
		body TEXT NOT NULL
	);
`

// writeSQLite replaces any database already at path
func writeSQLite(path string, output *Output) (string, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return "", err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return "", fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return "", fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if err := insertTrajectories(tx, output.Trajectories); err != nil {
		return "", fmt.Errorf("insert trajectories: %w", err)
	}
	if err := insertFused(tx, output.Fused); err != nil {
		return "", fmt.Errorf("insert fused records: %w", err)
	}

	if output.Metadata != nil {
		body, err := json.Marshal(output.Metadata)
		if err != nil {
			return "", err
		}
		if _, err := tx.Exec(`INSERT INTO metadata (run_id, body) VALUES (?, ?)`, output.Metadata.RunIdentifier, string(body)); err != nil {
			return "", fmt.Errorf("insert metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	return path, nil
}

func insertTrajectories(tx *sql.Tx, samples []ctdf.TrajectorySample) error {
	statement, err := tx.Prepare(`
		INSERT INTO trajectories
		(vehicle_id, timestamp_ms, lat, lon, alt_m, x_m, y_m, speed_mps, heading_deg, flag_gap, flag_extrapolated, flag_low_speed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer statement.Close()

	for _, sample := range samples {
		_, err := statement.Exec(
			sample.VehicleID,
			sample.TimestampMs,
			sample.Latitude,
			sample.Longitude,
			nullable(sample.Altitude),
			sample.X,
			sample.Y,
			nullable(sample.Speed),
			nullable(sample.Heading),
			sample.Quality.Gap,
			sample.Quality.Extrapolated,
			sample.Quality.LowSpeed,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func insertFused(tx *sql.Tx, records []ctdf.FusedRecord) error {
	statement, err := tx.Prepare(`
		INSERT INTO fused_records
		(vehicle_id, timestamp_ms, x_m, y_m, messages_sent, total_bytes, tx_bytes, rx_bytes, avg_latency_ms, msg_counts, flag_gap, flag_extrapolated, flag_low_speed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer statement.Close()

	for _, record := range records {
		counts := record.MsgCounts
		if counts == nil {
			counts = map[string]int{}
		}
		encodedCounts, err := json.Marshal(counts)
		if err != nil {
			return err
		}

		_, err = statement.Exec(
			record.VehicleID,
			record.TimestampMs,
			record.X,
			record.Y,
			record.MessagesSent,
			record.TotalBytes,
			record.TxBytes,
			record.RxBytes,
			nullable(record.AvgLatencyMs),
			string(encodedCounts),
			record.Quality.Gap,
			record.Quality.Extrapolated,
			record.Quality.LowSpeed,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func nullable(value *float64) sql.NullFloat64 {
	if value == nil {
		return sql.NullFloat64{}
	}

	return sql.NullFloat64{Float64: *value, Valid: true}
}
