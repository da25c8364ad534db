package models

import "time"

// Default settings applied when a key is absent from the settings store.
const (
	DefaultUseComparison     = true
	DefaultTotalThreshold    = 20
	DefaultKeyboardThreshold = 1
	DefaultMouseThreshold    = 0
	DefaultSkipAnnotated     = true
)

// Settings mirrors the persisted scan settings. Nil fields are absent and
// resolve to their defaults.
type Settings struct {
	UseGemini         *bool      `json:"useGemini,omitempty" yaml:"useGemini,omitempty"`
	TotalThreshold    *int       `json:"totalThreshold,omitempty" yaml:"totalThreshold,omitempty"`
	KeyboardThreshold *int       `json:"keyboardThreshold,omitempty" yaml:"keyboardThreshold,omitempty"`
	MouseThreshold    *int       `json:"mouseThreshold,omitempty" yaml:"mouseThreshold,omitempty"`
	IgnoreWithNotes   *bool      `json:"ignorewithNotes,omitempty" yaml:"ignorewithNotes,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty" yaml:"-"`
}

// ScanConfig is the frozen configuration for one scan invocation.
type ScanConfig struct {
	UseComparison     bool `json:"use_comparison"`
	SkipAnnotated     bool `json:"skip_annotated"`
	TotalThreshold    int  `json:"total_threshold"`
	KeyboardThreshold int  `json:"keyboard_threshold"`
	MouseThreshold    int  `json:"mouse_threshold"`
}

// DefaultScanConfig returns the configuration used when no settings are stored.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		UseComparison:     DefaultUseComparison,
		SkipAnnotated:     DefaultSkipAnnotated,
		TotalThreshold:    DefaultTotalThreshold,
		KeyboardThreshold: DefaultKeyboardThreshold,
		MouseThreshold:    DefaultMouseThreshold,
	}
}

// ScanConfig resolves the settings into a scan configuration, applying
// defaults for every absent key.
func (s Settings) ScanConfig() ScanConfig {
	cfg := DefaultScanConfig()
	if s.UseGemini != nil {
		cfg.UseComparison = *s.UseGemini
	}
	if s.TotalThreshold != nil {
		cfg.TotalThreshold = *s.TotalThreshold
	}
	if s.KeyboardThreshold != nil {
		cfg.KeyboardThreshold = *s.KeyboardThreshold
	}
	if s.MouseThreshold != nil {
		cfg.MouseThreshold = *s.MouseThreshold
	}
	if s.IgnoreWithNotes != nil {
		cfg.SkipAnnotated = *s.IgnoreWithNotes
	}
	return cfg
}

// Merge returns a copy of s with every key present in update applied.
func (s Settings) Merge(update Settings) Settings {
	merged := s
	if update.UseGemini != nil {
		merged.UseGemini = update.UseGemini
	}
	if update.TotalThreshold != nil {
		merged.TotalThreshold = update.TotalThreshold
	}
	if update.KeyboardThreshold != nil {
		merged.KeyboardThreshold = update.KeyboardThreshold
	}
	if update.MouseThreshold != nil {
		merged.MouseThreshold = update.MouseThreshold
	}
	if update.IgnoreWithNotes != nil {
		merged.IgnoreWithNotes = update.IgnoreWithNotes
	}
	return merged
}

// Validate checks that every present threshold lies within [0,100].
func (s Settings) Validate() error {
	checks := []struct {
		field string
		value *int
	}{
		{"totalThreshold", s.TotalThreshold},
		{"keyboardThreshold", s.KeyboardThreshold},
		{"mouseThreshold", s.MouseThreshold},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if *c.value < 0 || *c.value > 100 {
			return ValidationError{Field: c.field, Message: "must be between 0 and 100"}
		}
	}
	return nil
}

// Validate checks that every threshold lies within [0,100].
func (c ScanConfig) Validate() error {
	total, keyboard, mouse := c.TotalThreshold, c.KeyboardThreshold, c.MouseThreshold
	return Settings{
		TotalThreshold:    &total,
		KeyboardThreshold: &keyboard,
		MouseThreshold:    &mouse,
	}.Validate()
}

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
