package models

import (
	"fmt"
	"time"
)

// BatchResult summarizes one pass of a pipeline stage over its candidates.
type BatchResult struct {
	Stage              string   `json:"stage"`
	Message            string   `json:"message"`
	Total              int      `json:"total"`
	Processed          int      `json:"processed"`
	Inserted           int      `json:"inserted"`
	Updated            int      `json:"updated"`
	Unchanged          int      `json:"unchanged"`
	Skipped            int      `json:"skipped"`
	TranscriptsMissing int      `json:"transcriptsMissing"`
	Errors             int      `json:"errors"`
	FailedIDs          []string `json:"failedIds,omitempty"`
	ElapsedMs          int64    `json:"elapsedMs"`
}

// RecordFailure counts a per-item failure for videoID.
func (r *BatchResult) RecordFailure(videoID string) {
	r.Errors++
	r.FailedIDs = append(r.FailedIDs, videoID)
}

// GetSummary implements the scheduler.Metrics interface
func (r *BatchResult) GetSummary() string {
	return fmt.Sprintf("%s: total %d, processed %d, inserted %d, updated %d, skipped %d, errors %d",
		r.Stage, r.Total, r.Processed, r.Inserted, r.Updated, r.Skipped, r.Errors)
}

// Finish stamps the elapsed time since start.
func (r *BatchResult) Finish(start time.Time) {
	r.ElapsedMs = time.Since(start).Milliseconds()
}
