package elastic_client

import (
	"time"

	"github.com/travigo/trajfusion/pkg/ctdf"
	"github.com/travigo/trajfusion/pkg/util"
)

const FusedRecordsIndex = "trajfusion-fused-records"

type FusedRecordDocument struct {
	RunIdentifier string
	Timestamp     time.Time `json:"@timestamp"`

	ctdf.FusedRecord
}

func IndexFusedRecords(runIdentifier string, records []ctdf.FusedRecord) {
	if Client == nil {
		return
	}

	for _, record := range records {
		IndexRequest(FusedRecordsIndex, &FusedRecordDocument{
			RunIdentifier: runIdentifier,
			Timestamp:     util.TimeFromMillis(record.TimestampMs),
			FusedRecord:   record,
		})
	}
}
