package filters

import (
	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/ctdf"
	"github.com/travigo/trajfusion/pkg/util"
)

type GnssFilter interface {
	Name() string
	Keep(record *ctdf.GnssRecord) bool
}

// Apply drops every record rejected by any filter, in place, and returns how many were
// removed.
func Apply(records *[]ctdf.GnssRecord, filters ...GnssFilter) int {
	before := len(*records)

	for _, filter := range filters {
		if filter == nil {
			continue
		}

		count := len(*records)
		util.InPlaceFilter(records, func(record ctdf.GnssRecord) bool {
			return filter.Keep(&record)
		})

		log.Debug().Str("filter", filter.Name()).Int("removed", count-len(*records)).Msg("Applied GNSS filter")
	}

	return before - len(*records)
}
