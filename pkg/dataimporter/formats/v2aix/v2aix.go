package v2aix

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/ctdf"
	"github.com/travigo/trajfusion/pkg/dataimporter/formats"
	"github.com/travigo/trajfusion/pkg/timestamps"
)

type Layout string

const (
	LayoutUnknown Layout = ""
	LayoutArray   Layout = "array"
	LayoutLines   Layout = "jsonl"
	LayoutObject  Layout = "object"
	LayoutTopics  Layout = "topics"
)

// V2AIX reads the V2AIX JSON dialects: a JSON array of flat records, JSON Lines of flat
// records, or a single topic keyed recording such as {"/gps/fix": [...], "/v2x/cam": [...]}
type V2AIX struct {
	Options formats.Options
	Layout  Layout

	records formats.Records
	objects int
}

func New(options formats.Options) *V2AIX {
	return &V2AIX{Options: options}
}

func (v *V2AIX) Records() formats.Records {
	return v.records
}

func (v *V2AIX) ParseFile(reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	v.Layout = Sniff(data)

	switch v.Layout {
	case LayoutArray:
		var objects []interface{}
		if err := decode(data, &objects); err != nil {
			return err
		}
		for _, item := range objects {
			if v.limitReached() {
				break
			}
			v.parseItem(item)
		}
	case LayoutLines:
		return v.parseLines(data)
	case LayoutObject, LayoutTopics:
		var root map[string]interface{}
		if err := decode(data, &root); err != nil {
			return err
		}

		if v.Layout == LayoutTopics {
			v.parseTopics(object(root))
		} else {
			v.parseItem(root)
		}
	default:
		return errors.New("file does not contain a JSON array or object")
	}

	return nil
}

// Sniff works out which layout a file uses by looking at the first bytes and lines only
func Sniff(data []byte) Layout {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return LayoutUnknown
	}

	switch trimmed[0] {
	case '[':
		return LayoutArray
	case '{':
	default:
		return LayoutUnknown
	}

	firstLine, rest, _ := bytes.Cut(trimmed, []byte("\n"))
	firstLine = bytes.TrimSpace(firstLine)
	if json.Valid(firstLine) && len(bytes.TrimSpace(rest)) > 0 {
		return LayoutLines
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err == nil {
		for key := range keys {
			if len(key) > 0 && key[0] == '/' {
				return LayoutTopics
			}
		}
	}

	return LayoutObject
}

func (v *V2AIX) parseLines(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if v.limitReached() {
			break
		}

		var item interface{}
		if err := decode(line, &item); err != nil {
			log.Warn().Err(err).Str("file", v.Options.SourceFile).Int("line", lineNumber).Msg("Skipping malformed JSON line")
			v.records.Skipped++
			continue
		}

		v.parseItem(item)
	}

	return scanner.Err()
}

func (v *V2AIX) limitReached() bool {
	return v.Options.Limit > 0 && v.objects >= v.Options.Limit
}

func (v *V2AIX) parseItem(item interface{}) {
	v.objects++

	raw, ok := item.(map[string]interface{})
	if !ok {
		log.Warn().Str("file", v.Options.SourceFile).Msgf("Skipping non object value %T", item)
		v.records.Skipped++
		return
	}
	obj := object(raw)
	produced := false

	gnssRecord, err := parseGnss(obj, v.Options)
	if err == nil {
		v.records.Gnss = append(v.records.Gnss, *gnssRecord)
		produced = true
	} else {
		logSkipped(err, v.Options.SourceFile, "GNSS")
	}

	if isV2XLike(obj) {
		v2xRecord, err := parseV2X(obj, v.Options)
		if err == nil {
			v.records.V2X = append(v.records.V2X, *v2xRecord)
			produced = true
		} else {
			logSkipped(err, v.Options.SourceFile, "V2X")
		}
	}

	if !produced {
		v.records.Skipped++
	}
}

func logSkipped(err error, sourceFile string, kind string) {
	if errors.Is(err, timestamps.ErrInvalidTimestamp) {
		log.Warn().Err(err).Str("file", sourceFile).Msgf("Skipping %s record", kind)
	} else {
		log.Debug().Err(err).Str("file", sourceFile).Msgf("Skipping %s record", kind)
	}
}

// isV2XLike reports whether an object carries any field that only message logs have
func isV2XLike(obj object) bool {
	return obj.has(messageTypeFields...) ||
		obj.has(txTimestampFields...) ||
		obj.has(rxTimestampFields...) ||
		obj.has("payload_bytes", "frame_bytes", "direction")
}

func parseGnss(obj object, options formats.Options) (*ctdf.GnssRecord, error) {
	vehicleID, ok := obj.string(vehicleIDFields)
	if !ok {
		return nil, fmt.Errorf("%w: vehicle id", formats.ErrMissingRequiredField)
	}

	rawTimestamp, ok := obj.first(timestampFields)
	if !ok {
		return nil, fmt.Errorf("%w: timestamp for %s", formats.ErrMissingRequiredField, vehicleID)
	}
	timestampMs, err := timestamps.Normalize(rawTimestamp, options.TimestampUnit)
	if err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", vehicleID, err)
	}

	latitude, hasLatitude := obj.float(latitudeFields)
	longitude, hasLongitude := obj.float(longitudeFields)
	if !hasLatitude || !hasLongitude {
		return nil, fmt.Errorf("%w: coordinates for %s", formats.ErrMissingRequiredField, vehicleID)
	}

	record := &ctdf.GnssRecord{
		VehicleID:   vehicleID,
		TimestampMs: timestampMs,
		Latitude:    latitude,
		Longitude:   longitude,
		Altitude:    obj.floatPointer(altitudeFields),
		Speed:       obj.floatPointer(speedFields),
		Heading:     obj.floatPointer(headingFields),
		SourceFile:  options.SourceFile,
	}
	record.StationID, _ = obj.string(stationIDFields)
	record.StationType, _ = obj.string(stationTypeFields)

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

func parseV2X(obj object, options formats.Options) (*ctdf.V2XEventRecord, error) {
	vehicleID, ok := obj.string(vehicleIDFields)
	if !ok {
		return nil, fmt.Errorf("%w: vehicle id", formats.ErrMissingRequiredField)
	}

	record := &ctdf.V2XEventRecord{
		VehicleID:    vehicleID,
		PayloadBytes: obj.int("payload_bytes"),
		FrameBytes:   obj.int("frame_bytes"),
		SourceFile:   options.SourceFile,
	}

	var err error
	if record.TimestampMs, err = optionalTimestamp(obj, timestampFields, options.TimestampUnit); err != nil {
		log.Warn().Err(err).Str("vehicle", vehicleID).Msg("Invalid timestamp in V2X record")
	}
	if record.TxTimestampMs, err = optionalTimestamp(obj, txTimestampFields, options.TimestampUnit); err != nil {
		log.Warn().Err(err).Str("vehicle", vehicleID).Msg("Invalid tx timestamp in V2X record")
	}
	if record.RxTimestampMs, err = optionalTimestamp(obj, rxTimestampFields, options.TimestampUnit); err != nil {
		log.Warn().Err(err).Str("vehicle", vehicleID).Msg("Invalid rx timestamp in V2X record")
	}
	record.UpdateLatency()

	record.MessageType, _ = obj.string(messageTypeFields)
	record.RsuID, _ = obj.string(rsuIDFields)
	record.StationID, _ = obj.string(stationIDFields)
	record.StationType, _ = obj.string(stationTypeFields)

	if rawDirection, ok := obj.string([]string{"direction"}); ok {
		direction, valid := ctdf.ParseDirection(rawDirection)
		if valid {
			record.Direction = direction
		} else {
			log.Warn().Str("vehicle", vehicleID).Str("direction", rawDirection).Msg("Invalid direction value")
		}
	}

	return record, nil
}

func optionalTimestamp(obj object, keys []string, unit timestamps.Unit) (*int64, error) {
	raw, ok := obj.first(keys)
	if !ok {
		return nil, nil
	}

	value, err := timestamps.Normalize(raw, unit)
	if err != nil {
		return nil, err
	}

	return &value, nil
}

func decode(data []byte, target interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	return decoder.Decode(target)
}
