package model

import "time"

// RunStatus represents the state of an ingestion run.
type RunStatus string

const (
	RunStatusFetching    RunStatus = "fetching"
	RunStatusNormalizing RunStatus = "normalizing"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Run records one ingestion of the registry into the store.
type Run struct {
	ID         string         `json:"id"`
	Status     RunStatus      `json:"status"`
	TotalItems int            `json:"total_items"`
	TotalPages int            `json:"total_pages"`
	Fetched    int            `json:"fetched"`
	Kept       int            `json:"kept"`
	Dropped    int            `json:"dropped"`
	GeoSources map[string]int `json:"geo_sources,omitempty"`
	Error      string         `json:"error,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}
