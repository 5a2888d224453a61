package models

import "time"

// DataSource identifies where the registries were loaded from
type DataSource string

const (
	SourceBuiltin  DataSource = "builtin"
	SourceYAML     DataSource = "yaml"
	SourceSQLite   DataSource = "sqlite"
	SourcePostgres DataSource = "postgres"
)

// AllDataSources returns all supported data sources
func AllDataSources() []DataSource {
	return []DataSource{
		SourceBuiltin,
		SourceYAML,
		SourceSQLite,
		SourcePostgres,
	}
}

// RegistryCounts summarises the size of each registry
type RegistryCounts struct {
	Buses    int `json:"buses"`
	Routes   int `json:"routes"`
	Stops    int `json:"stops"`
	ETAStops int `json:"etaStops"` // stops with at least one ETA entry
}

// HealthStatus is the JSON body of GET /health
type HealthStatus struct {
	Status     string         `json:"status"` // "ok", "empty"
	Source     DataSource     `json:"source"`
	Registries RegistryCounts `json:"registries"`
	Sessions   int            `json:"sessions"`
	LoadedAt   time.Time      `json:"loadedAt"`
	Timestamp  time.Time      `json:"timestamp"`
}
