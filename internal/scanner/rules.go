package scanner

import (
	"fmt"

	"github.com/STRATINT/activityscan/internal/activity"
	"github.com/STRATINT/activityscan/internal/models"
	"github.com/STRATINT/activityscan/internal/vision"
)

// SimilarityLabel is the note rendered for the comparison rule.
const SimilarityLabel = "Visually similar to previous screenshot"

// EvaluateRecord parses the record tooltip and applies the threshold rules.
// It returns models.ErrParseInvalid, with no reasons, when the tooltip has no usable metrics.
func EvaluateRecord(rec *models.ScreenshotRecord, cfg models.ScanConfig) ([]models.FlagReason, error) {
	metrics, ok := activity.ParseTooltip(rec.TooltipText)
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrParseInvalid, rec.TooltipText)
	}
	return activity.Evaluate(metrics, cfg), nil
}

// ComparisonReason classifies a vision reply into the similarity reason.
func ComparisonReason(reply string) (models.FlagReason, bool) {
	if !vision.IsVisuallyUnchanged(reply) {
		return models.FlagReason{}, false
	}
	return models.FlagReason{
		Kind:     models.FlagKindVisuallySimilar,
		Label:    SimilarityLabel,
		Severity: models.SeverityC,
	}, true
}
