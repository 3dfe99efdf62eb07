package ctdf

type DataSource struct {
	OriginalFormat string `groups:"internal"` // eg. v2aix-json, gnss-csv, gtfs-realtime
	Provider       string `groups:"internal"`
	Dataset        string `groups:"internal"`
	Identifier     string `groups:"internal"`
}
