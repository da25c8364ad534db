package vision

import "strings"

// ComparisonPrompt is the instruction sent with every screenshot pair.
const ComparisonPrompt = "Compare these two screenshots. Are they visually similar, identical, or show no significant change in work or activity?"

// unchangedMarkers are matched case-insensitively against the service reply.
var unchangedMarkers = []string{
	"identical",
	"very similar",
	"no significant change",
}

// IsVisuallyUnchanged classifies a free-text reply. Anything that does not
// contain one of the markers counts as changed.
func IsVisuallyUnchanged(reply string) bool {
	lower := strings.ToLower(reply)
	for _, marker := range unchangedMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
