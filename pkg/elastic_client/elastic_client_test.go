package elastic_client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/trajfusion/pkg/ctdf"
)

type fakeElasticsearch struct {
	sync.Mutex
	indexes   []string
	documents []map[string]interface{}
}

func (f *fakeElasticsearch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	if !strings.HasSuffix(r.URL.Path, "/_bulk") {
		fmt.Fprint(w, `{"name":"test","version":{"number":"8.19.0","build_flavor":"default"},"tagline":"You Know, for Search"}`)
		return
	}

	f.Lock()
	defer f.Unlock()

	var items []string
	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var action map[string]map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &action); err != nil {
			continue
		}
		if !scanner.Scan() {
			break
		}

		var document map[string]interface{}
		json.Unmarshal(scanner.Bytes(), &document)

		index, _ := action["index"]["_index"].(string)
		f.indexes = append(f.indexes, index)
		f.documents = append(f.documents, document)
		items = append(items, fmt.Sprintf(`{"index":{"_index":%q,"status":201}}`, index))
	}

	fmt.Fprintf(w, `{"took":1,"errors":false,"items":[%s]}`, strings.Join(items, ","))
}

func TestConnectSkipsWithoutAddress(t *testing.T) {
	t.Setenv("TRAJFUSION_ELASTICSEARCH_ADDRESS", "")

	require.NoError(t, Connect(false))
	assert.Nil(t, Client)

	IndexFusedRecords("run-1", []ctdf.FusedRecord{{VehicleID: "car-1"}})
	WaitUntilQueueEmpty()
}

func TestIndexFusedRecords(t *testing.T) {
	fake := &fakeElasticsearch{}
	server := httptest.NewServer(fake)
	defer server.Close()

	t.Setenv("TRAJFUSION_ELASTICSEARCH_ADDRESS", server.URL)
	defer func() {
		Client = nil
		bulkIndexer = nil
	}()

	require.NoError(t, Connect(true))
	require.NotNil(t, Client)

	IndexFusedRecords("run-1", []ctdf.FusedRecord{
		{VehicleID: "car-1", TimestampMs: 1678901234000, MessagesSent: 2},
		{VehicleID: "car-1", TimestampMs: 1678901235000},
	})
	WaitUntilQueueEmpty()

	fake.Lock()
	defer fake.Unlock()

	require.Len(t, fake.documents, 2)
	assert.Equal(t, []string{FusedRecordsIndex, FusedRecordsIndex}, fake.indexes)
	assert.Equal(t, "run-1", fake.documents[0]["RunIdentifier"])
	assert.Equal(t, "car-1", fake.documents[0]["VehicleID"])
	assert.Equal(t, 2.0, fake.documents[0]["MessagesSent"])
	assert.Equal(t, "2023-03-15T17:27:14Z", fake.documents[0]["@timestamp"])
}
