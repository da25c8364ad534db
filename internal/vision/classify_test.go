package vision

import "testing"

func TestIsVisuallyUnchanged(t *testing.T) {
	tests := []struct {
		reply    string
		expected bool
	}{
		{"These screenshots are identical.", true},
		{"No significant change in activity was observed", true},
		{"The two images are VERY SIMILAR in layout.", true},
		{"Nearly Identical windows", true},
		{"Workloads appear visually distinct", false},
		{"The second screenshot shows a different application.", false},
		{"", false},
		{"No response", false},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			if got := IsVisuallyUnchanged(tt.reply); got != tt.expected {
				t.Errorf("IsVisuallyUnchanged(%q) = %v, want %v", tt.reply, got, tt.expected)
			}
		})
	}
}
