package database

import (
	"time"

	"pixelpeek/internal/fetcher"
)

// BatchRecord is the stored summary of one batch run.
type BatchRecord struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
	Total          int       `json:"total"`
	Succeeded      int       `json:"succeeded"`
	Failed         int       `json:"failed"`
	State          string    `json:"state"`
	OutputPath     string    `json:"outputPath,omitempty"`
	Cause          string    `json:"cause,omitempty"`
}

// BatchDetail is a batch summary together with its outcomes in input order.
type BatchDetail struct {
	BatchRecord
	Outcomes []fetcher.Outcome `json:"outcomes"`
}
