// Package scanner runs the scan-and-flag pass over a sequence of screenshot records.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/STRATINT/activityscan/internal/imaging"
	"github.com/STRATINT/activityscan/internal/metrics"
	"github.com/STRATINT/activityscan/internal/models"
	"github.com/STRATINT/activityscan/internal/vision"
	"github.com/google/uuid"
)

// ImageEncoder resolves an image reference into a transportable payload.
type ImageEncoder interface {
	Encode(ctx context.Context, ref string) (*imaging.EncodedImage, error)
}

// ErrorPolicy decides what a per-record image or service failure does to the pass.
type ErrorPolicy string

const (
	// ErrorPolicySkip logs the failure and continues with the next record.
	ErrorPolicySkip ErrorPolicy = "skip"
	// ErrorPolicyAbort turns the failure into an OrchestrationFault.
	ErrorPolicyAbort ErrorPolicy = "abort"
)

// ParseErrorPolicy validates a policy name.
func ParseErrorPolicy(raw string) (ErrorPolicy, error) {
	switch ErrorPolicy(raw) {
	case ErrorPolicySkip, ErrorPolicyAbort:
		return ErrorPolicy(raw), nil
	default:
		return "", fmt.Errorf("must be one of skip, abort")
	}
}

// RecordOutcome classifies how a record was handled.
type RecordOutcome string

const (
	OutcomeEvaluated        RecordOutcome = "evaluated"
	OutcomeSkippedAnnotated RecordOutcome = "skipped_annotated"
	OutcomeSkippedNoImage   RecordOutcome = "skipped_no_image"
)

// Options configures a Scanner.
type Options struct {
	ErrorPolicy ErrorPolicy
	Metrics     *metrics.Collector
	Logger      *slog.Logger
}

// Scanner flags screenshot records. It holds no per-scan state, so one
// Scanner may serve concurrent scans; each scan itself is strictly sequential.
type Scanner struct {
	encoder  ImageEncoder
	comparer vision.Comparer
	policy   ErrorPolicy
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// New creates a Scanner. encoder and comparer may be nil, in which case the
// comparison rule is unavailable.
func New(encoder ImageEncoder, comparer vision.Comparer, opts Options) *Scanner {
	if opts.ErrorPolicy == "" {
		opts.ErrorPolicy = ErrorPolicySkip
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Scanner{
		encoder:  encoder,
		comparer: comparer,
		policy:   opts.ErrorPolicy,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
}

// carry is the accumulator threaded through the pass. previous is the last
// eligible record's encoded image.
type carry struct {
	previous *imaging.EncodedImage
	flagged  int
}

// Scan evaluates records in order, writes flag reasons onto them and returns
// the number of fired rules. Per-record failures are logged and skipped under
// ErrorPolicySkip; only scan-wide faults are returned, as *models.OrchestrationFault.
func (s *Scanner) Scan(ctx context.Context, cfg models.ScanConfig, records []*models.ScreenshotRecord) (result models.ScanResult, err error) {
	result = models.ScanResult{
		ScanID:    uuid.NewString(),
		Records:   records,
		StartedAt: time.Now(),
	}
	logger := s.logger.With("scan_id", result.ScanID)
	current := -1

	defer func() {
		if r := recover(); r != nil {
			err = &models.OrchestrationFault{Op: "step", Index: current, Err: fmt.Errorf("panic: %v", r)}
		}
		result.CompletedAt = time.Now()
		duration := result.CompletedAt.Sub(result.StartedAt)
		if err != nil {
			logger.Error("scan failed", "error", err, "duration_ms", duration.Milliseconds())
			s.metrics.ObserveScan("failed", duration)
			return
		}
		logger.Info("scan complete",
			"records", len(records),
			"flagged", result.FlaggedCount,
			"duration_ms", duration.Milliseconds())
		s.metrics.ObserveScan("completed", duration)
	}()

	if err := cfg.Validate(); err != nil {
		return result, &models.OrchestrationFault{Op: "config", Index: -1, Err: err}
	}
	if cfg.UseComparison && (s.encoder == nil || s.comparer == nil) {
		logger.Warn("comparison requested but no vision service configured, disabling for this scan")
		cfg.UseComparison = false
	}
	result.Config = cfg

	for i, rec := range records {
		if rec == nil {
			return result, &models.OrchestrationFault{Op: "read", Index: i, Err: errors.New("nil record")}
		}
	}
	for _, rec := range records {
		rec.ResetFlags()
	}

	logger.Info("scan started",
		"records", len(records),
		"use_comparison", cfg.UseComparison,
		"skip_annotated", cfg.SkipAnnotated)

	acc := carry{}
	for i, rec := range records {
		current = i
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, &models.OrchestrationFault{Op: "step", Index: i, Err: ctxErr}
		}

		acc, err = s.step(ctx, logger, cfg, acc, i, rec)
		result.FlaggedCount = acc.flagged
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

// step folds one record into the accumulator.
func (s *Scanner) step(ctx context.Context, logger *slog.Logger, cfg models.ScanConfig, acc carry, i int, rec *models.ScreenshotRecord) (carry, error) {
	if cfg.SkipAnnotated && rec.HasExistingNote {
		s.metrics.ObserveRecord(string(OutcomeSkippedAnnotated))
		return acc, nil
	}
	if !rec.HasImage() {
		s.metrics.ObserveRecord(string(OutcomeSkippedNoImage))
		return acc, nil
	}
	s.metrics.ObserveRecord(string(OutcomeEvaluated))

	reasons, err := EvaluateRecord(rec, cfg)
	if err != nil {
		logger.Debug("no activity metrics for record", "record_index", i, "error", err)
	}
	for _, reason := range reasons {
		acc.flagged = s.flag(rec, reason, acc.flagged)
	}

	if !cfg.UseComparison {
		return acc, nil
	}

	encoded, err := s.encoder.Encode(ctx, rec.ImageRef)
	if err != nil {
		// The carry keeps the last successfully encoded image.
		return acc, s.recordError(logger, i, "encode", err)
	}

	if acc.previous != nil {
		reason, ok, err := s.compare(ctx, acc.previous, encoded)
		if err != nil {
			if fault := s.recordError(logger, i, "compare", err); fault != nil {
				return acc, fault
			}
		} else if ok {
			acc.flagged = s.flag(rec, reason, acc.flagged)
		}
	}

	acc.previous = encoded
	return acc, nil
}

func (s *Scanner) flag(rec *models.ScreenshotRecord, reason models.FlagReason, count int) int {
	rec.AddReason(reason)
	s.metrics.ObserveFlag(string(reason.Kind))
	return count + 1
}

func (s *Scanner) compare(ctx context.Context, previous, current *imaging.EncodedImage) (models.FlagReason, bool, error) {
	start := time.Now()
	reply, err := s.comparer.Compare(ctx, previous, current)
	if err != nil {
		s.metrics.ObserveComparison("error", time.Since(start))
		return models.FlagReason{}, false, err
	}

	reason, ok := ComparisonReason(reply)
	result := "changed"
	if ok {
		result = "unchanged"
	}
	s.metrics.ObserveComparison(result, time.Since(start))
	return reason, ok, nil
}

// recordError applies the error policy to a per-record failure. It returns a
// non-nil fault only under ErrorPolicyAbort.
func (s *Scanner) recordError(logger *slog.Logger, i int, op string, err error) error {
	kind := ErrorKind(err)
	s.metrics.ObserveRecordError(kind)

	if s.policy == ErrorPolicyAbort {
		return &models.OrchestrationFault{Op: op, Index: i, Err: err}
	}

	logger.Warn("record step failed, continuing",
		"record_index", i,
		"op", op,
		"kind", kind,
		"error", err)
	return nil
}

// ErrorKind maps a per-record error onto its taxonomy label.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, models.ErrParseInvalid):
		return "parse_invalid"
	case errors.Is(err, models.ErrImageUnavailable):
		return "image_unavailable"
	case errors.Is(err, models.ErrServiceMalformedReply):
		return "service_malformed_reply"
	case errors.Is(err, models.ErrServiceUnreachable):
		return "service_unreachable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "unknown"
	}
}
