package models

// ScreenshotRecord is one activity screenshot entry scraped from a rendered page.
type ScreenshotRecord struct {
	Index           int    `json:"index"`
	ImageRef        string `json:"image_ref"`
	TooltipText     string `json:"tooltip,omitempty"`
	HasExistingNote bool   `json:"has_existing_note"`

	// Output fields, written only by the scanner during a single pass.
	Flagged     bool         `json:"flagged"`
	FlagReasons []FlagReason `json:"flag_reasons,omitempty"`
}

// HasImage reports whether the record carries an image reference that can be resolved.
func (r *ScreenshotRecord) HasImage() bool {
	return r.ImageRef != ""
}

// ResetFlags clears pipeline output so a record can be re-scanned.
func (r *ScreenshotRecord) ResetFlags() {
	r.Flagged = false
	r.FlagReasons = nil
}

// AddReason appends a flag reason and marks the record as flagged.
func (r *ScreenshotRecord) AddReason(reason FlagReason) {
	r.Flagged = true
	r.FlagReasons = append(r.FlagReasons, reason)
}

// ActivityMetrics holds the activity percentages parsed from a tooltip.
// The three values are only meaningful together.
type ActivityMetrics struct {
	Total    int `json:"total"`
	Mouse    int `json:"mouse"`
	Keyboard int `json:"keyboard"`
}

// FlagKind identifies which rule produced a flag reason.
type FlagKind string

const (
	FlagKindLowTotal        FlagKind = "low_total"
	FlagKindInputMismatch   FlagKind = "input_mismatch"
	FlagKindVisuallySimilar FlagKind = "visually_similar"
)

// Severity grades a flag reason. Each severity renders with its own color.
type Severity string

const (
	SeverityA Severity = "A" // low total activity
	SeverityB Severity = "B" // keyboard low, mouse high
	SeverityC Severity = "C" // visually unchanged
)

// Color returns the marker color used when rendering the severity.
func (s Severity) Color() string {
	switch s {
	case SeverityA:
		return "red"
	case SeverityB:
		return "purple"
	case SeverityC:
		return "orange"
	default:
		return "gray"
	}
}

// FlagReason is a labeled, severity-tagged annotation added when a rule fires.
type FlagReason struct {
	Kind     FlagKind `json:"kind"`
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}
