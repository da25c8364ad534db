package activity

import (
	"fmt"

	"github.com/STRATINT/activityscan/internal/models"
)

// Evaluate applies the threshold rules to parsed metrics and returns the
// reasons that fired, low-total first. Both rules are checked independently.
func Evaluate(m models.ActivityMetrics, cfg models.ScanConfig) []models.FlagReason {
	var reasons []models.FlagReason

	if m.Total < cfg.TotalThreshold {
		reasons = append(reasons, LowTotalReason(cfg.TotalThreshold))
	}

	if m.Keyboard < cfg.KeyboardThreshold && m.Mouse > cfg.MouseThreshold {
		reasons = append(reasons, InputMismatchReason(cfg.KeyboardThreshold, cfg.MouseThreshold))
	}

	return reasons
}

// LowTotalReason builds the reason for total activity under the threshold.
func LowTotalReason(threshold int) models.FlagReason {
	return models.FlagReason{
		Kind:     models.FlagKindLowTotal,
		Label:    fmt.Sprintf("Low total activity (<%d%%)", threshold),
		Severity: models.SeverityA,
	}
}

// InputMismatchReason builds the reason for low keyboard with high mouse activity.
func InputMismatchReason(keyboardThreshold, mouseThreshold int) models.FlagReason {
	return models.FlagReason{
		Kind:     models.FlagKindInputMismatch,
		Label:    fmt.Sprintf("Keyboard <%d%%, Mouse >%d%%", keyboardThreshold, mouseThreshold),
		Severity: models.SeverityB,
	}
}
