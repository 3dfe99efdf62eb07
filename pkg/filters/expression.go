package filters

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/ctdf"
)

// ExpressionEnv is what filter expressions can see of a GNSS record, eg.
// `speed_mps > 0.5 && station_type != "rsu"`
type ExpressionEnv struct {
	VehicleID   string  `expr:"vehicle_id"`
	TimestampMs int64   `expr:"timestamp_ms"`
	Latitude    float64 `expr:"lat"`
	Longitude   float64 `expr:"lon"`
	Altitude    float64 `expr:"alt_m"`
	HasAltitude bool    `expr:"has_alt"`
	Speed       float64 `expr:"speed_mps"`
	HasSpeed    bool    `expr:"has_speed"`
	Heading     float64 `expr:"heading_deg"`
	HasHeading  bool    `expr:"has_heading"`
	StationType string  `expr:"station_type"`
}

func NewExpressionEnv(record *ctdf.GnssRecord) ExpressionEnv {
	env := ExpressionEnv{
		VehicleID:   record.VehicleID,
		TimestampMs: record.TimestampMs,
		Latitude:    record.Latitude,
		Longitude:   record.Longitude,
		StationType: record.StationType,
	}

	if record.Altitude != nil {
		env.Altitude, env.HasAltitude = *record.Altitude, true
	}
	if record.Speed != nil {
		env.Speed, env.HasSpeed = *record.Speed, true
	}
	if record.Heading != nil {
		env.Heading, env.HasHeading = *record.Heading, true
	}

	return env
}

type Expression struct {
	source  string
	program *vm.Program
}

func NewExpression(source string) (*Expression, error) {
	program, err := expr.Compile(source, expr.Env(ExpressionEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling filter expression: %w", err)
	}

	return &Expression{source: source, program: program}, nil
}

func (e *Expression) Name() string {
	return "expression"
}

func (e *Expression) Keep(record *ctdf.GnssRecord) bool {
	output, err := expr.Run(e.program, NewExpressionEnv(record))
	if err != nil {
		log.Debug().Err(err).Str("expression", e.source).Msg("Filter expression failed, dropping record")
		return false
	}

	keep, _ := output.(bool)
	return keep
}
