package stats

import (
	"time"

	"github.com/travigo/trajfusion/pkg/elastic_client"
)

const RunStatisticsIndex = "trajfusion-runs"

type runStatisticsDocument struct {
	Timestamp time.Time `json:"@timestamp"`

	*RunStatistics
}

// Index queues the statistics on the shared bulk indexer, a no-op when Elasticsearch is
// not connected.
func (s *RunStatistics) Index() {
	if elastic_client.Client == nil {
		return
	}

	elastic_client.IndexRequest(RunStatisticsIndex, &runStatisticsDocument{
		Timestamp:     s.CreationDateTime,
		RunStatistics: s,
	})
}
