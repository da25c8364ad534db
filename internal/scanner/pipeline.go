package scanner

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/STRATINT/activityscan/internal/models"
	"github.com/STRATINT/activityscan/internal/page"
	"github.com/STRATINT/activityscan/internal/settings"
)

// RunRecorder persists the outcome of finished scans.
type RunRecorder interface {
	Record(ctx context.Context, result models.ScanResult, scanErr error) error
}

// Service runs scans with the stored settings and keeps a run history.
type Service struct {
	scanner  *Scanner
	settings settings.Store
	runs     RunRecorder
	logger   *slog.Logger
}

// NewService wires a scanner to its settings store. runs may be nil.
func NewService(scanner *Scanner, store settings.Store, runs RunRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{scanner: scanner, settings: store, runs: runs, logger: logger}
}

// PageResult is a scan of a timeline page with the annotated page attached.
type PageResult struct {
	models.ScanResult
	HTML string `json:"html"`
}

// ScanPage parses a timeline page, clears notes from earlier scans, scans its
// records and renders the annotated page. Nothing is annotated when the scan faults.
func (s *Service) ScanPage(ctx context.Context, r io.Reader, baseURL string) (PageResult, error) {
	doc, err := page.Parse(r, baseURL)
	if err != nil {
		return PageResult{}, &models.OrchestrationFault{Op: "read", Index: -1, Err: err}
	}

	removed := doc.RemoveNotes()
	if removed > 0 {
		s.logger.Debug("removed notes from earlier scan", "count", removed)
	}

	result, err := s.ScanRecords(ctx, doc.Records())
	if err != nil {
		return PageResult{ScanResult: result}, err
	}

	doc.Annotate()
	var sb strings.Builder
	if err := doc.Render(&sb); err != nil {
		return PageResult{ScanResult: result}, &models.OrchestrationFault{Op: "render", Index: -1, Err: err}
	}
	return PageResult{ScanResult: result, HTML: sb.String()}, nil
}

// ScanRecords scans records with the current settings.
func (s *Service) ScanRecords(ctx context.Context, records []*models.ScreenshotRecord) (models.ScanResult, error) {
	stored, err := s.settings.Load(ctx)
	if err != nil {
		return models.ScanResult{}, &models.OrchestrationFault{Op: "settings", Index: -1, Err: err}
	}

	result, scanErr := s.scanner.Scan(ctx, stored.ScanConfig(), records)

	if s.runs != nil {
		if err := s.runs.Record(context.WithoutCancel(ctx), result, scanErr); err != nil {
			s.logger.Warn("failed to record scan run", "scan_id", result.ScanID, "error", err)
		}
	}
	return result, scanErr
}
