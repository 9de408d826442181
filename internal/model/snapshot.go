package model

import "time"

// Snapshot is one persisted scan: every record extracted from a batch of images.
type Snapshot struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Note      string    `json:"note,omitempty"`
	Sources   []string  `json:"sources"`
	Records   []Record  `json:"records"`
}

// SnapshotInfo summarizes a stored snapshot without its records.
type SnapshotInfo struct {
	CreatedAt   time.Time `json:"created_at"`
	ID          string    `json:"id"`
	Note        string    `json:"note,omitempty"`
	Sources     []string  `json:"sources"`
	RecordCount int       `json:"record_count"`
	TotalValue  float64   `json:"total_value"`
}
