// Package activity extracts activity percentages from screenshot tooltips and
// applies the deterministic flagging rules to them.
package activity

import (
	"regexp"
	"strconv"

	"github.com/STRATINT/activityscan/internal/models"
)

var percentToken = regexp.MustCompile(`\d+%`)

// Tooltip token positions. The order follows the tooltip format, not the
// alphabet: total, then mouse, then keyboard.
const (
	totalPos    = 0
	mousePos    = 1
	keyboardPos = 2
	minTokens   = 3
)

// ParseTooltip extracts activity metrics from free tooltip text. It reports
// false when the text holds fewer than three percentage tokens; tokens beyond
// the third are ignored.
func ParseTooltip(text string) (models.ActivityMetrics, bool) {
	tokens := percentToken.FindAllString(text, -1)
	if len(tokens) < minTokens {
		return models.ActivityMetrics{}, false
	}

	values := make([]int, minTokens)
	for i := 0; i < minTokens; i++ {
		v, err := strconv.Atoi(tokens[i][:len(tokens[i])-1])
		if err != nil {
			return models.ActivityMetrics{}, false
		}
		values[i] = v
	}

	return models.ActivityMetrics{
		Total:    values[totalPos],
		Mouse:    values[mousePos],
		Keyboard: values[keyboardPos],
	}, true
}
