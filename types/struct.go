package types

import "aircorr/model"

// Kafka payload: one observation from one source. ingest.go
type ObservationMessage struct {
	Source      string            `json:"source"` // "ims" | "portal"
	Observation model.Observation `json:"observation"`
}

// POST /backfill request body. connect/backfill.go
type BackfillRequest struct {
	Key       string `json:"key"`
	StationID int    `json:"station_id"`
	From      string `json:"from"` // DD/MM/YYYY
	To        string `json:"to"`   // DD/MM/YYYY
}

// Freshness monitor payload. producer/monitor.go
type StationStatus struct {
	Station    string `json:"station"`
	Rows       int    `json:"rows"`
	LatestDate string `json:"latest_date"`
}
