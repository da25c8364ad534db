package models

import (
	"fmt"
	"time"
)

// FailureNotice is surfaced to the caller when a scan aborts.
const FailureNotice = "Error occurred during screenshot analysis."

// ScanResult is the outcome of one scan pass.
type ScanResult struct {
	ScanID       string              `json:"scan_id"`
	FlaggedCount int                 `json:"flagged_count"`
	Records      []*ScreenshotRecord `json:"records"`
	Config       ScanConfig          `json:"config"`
	StartedAt    time.Time           `json:"started_at"`
	CompletedAt  time.Time           `json:"completed_at"`
}

// Summary returns the end-of-scan completion message.
func (r ScanResult) Summary() string {
	return fmt.Sprintf("Scan complete. %d screenshot(s) flagged.", r.FlaggedCount)
}

// FlaggedRecords returns the records that received at least one reason.
func (r ScanResult) FlaggedRecords() []*ScreenshotRecord {
	var flagged []*ScreenshotRecord
	for _, rec := range r.Records {
		if rec != nil && rec.Flagged {
			flagged = append(flagged, rec)
		}
	}
	return flagged
}

// Run statuses.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ScanRun is the persisted summary of one scan.
type ScanRun struct {
	ScanID        string    `json:"scan_id"`
	FlaggedCount  int       `json:"flagged_count"`
	RecordCount   int       `json:"record_count"`
	UseComparison bool      `json:"use_comparison"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
}

// RunFromResult summarises a scan result. scanErr marks the run as failed.
func RunFromResult(result ScanResult, scanErr error) ScanRun {
	run := ScanRun{
		ScanID:        result.ScanID,
		FlaggedCount:  result.FlaggedCount,
		RecordCount:   len(result.Records),
		UseComparison: result.Config.UseComparison,
		Status:        RunStatusCompleted,
		StartedAt:     result.StartedAt,
		CompletedAt:   result.CompletedAt,
	}
	if scanErr != nil {
		run.Status = RunStatusFailed
		run.Error = scanErr.Error()
	}
	return run
}
