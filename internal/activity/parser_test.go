package activity

import (
	"testing"

	"github.com/STRATINT/activityscan/internal/models"
)

func TestParseTooltip(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   models.ActivityMetrics
		wantOK bool
	}{
		{
			name:   "plain tokens",
			text:   "65% 10% 0%",
			want:   models.ActivityMetrics{Total: 65, Mouse: 10, Keyboard: 0},
			wantOK: true,
		},
		{
			name:   "labelled tooltip",
			text:   "Activity: 42%<br>Mouse: 30%<br>Keyboard: 12%",
			want:   models.ActivityMetrics{Total: 42, Mouse: 30, Keyboard: 12},
			wantOK: true,
		},
		{
			name:   "extra tokens ignored",
			text:   "80% 50% 30% 99% 1%",
			want:   models.ActivityMetrics{Total: 80, Mouse: 50, Keyboard: 30},
			wantOK: true,
		},
		{name: "empty", text: ""},
		{name: "two tokens", text: "Activity 50% Mouse 20%"},
		{name: "numbers without percent", text: "50 20 10"},
		{name: "overflowing digits", text: "99999999999999999999999% 1% 1%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTooltip(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ParseTooltip(%q) ok = %t, want %t", tt.text, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseTooltip(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}
