package formats

import (
	"errors"
	"io"

	"github.com/travigo/trajfusion/pkg/ctdf"
	"github.com/travigo/trajfusion/pkg/timestamps"
)

var ErrMissingRequiredField = errors.New("missing required field")

type Format interface {
	ParseFile(io.Reader) error
	Records() Records
}

type Options struct {
	// TimestampUnit forces a unit, empty means detect from magnitude
	TimestampUnit timestamps.Unit
	SourceFile    string

	// Limit stops parsing after this many objects, 0 means no limit
	Limit int
}

type Records struct {
	Gnss []ctdf.GnssRecord
	V2X  []ctdf.V2XEventRecord

	// Skipped counts objects that produced neither record type
	Skipped int
}

func (r *Records) Append(other Records) {
	r.Gnss = append(r.Gnss, other.Gnss...)
	r.V2X = append(r.V2X, other.V2X...)
	r.Skipped += other.Skipped
}
