package vision

import (
	"context"
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantNil bool
		wantErr bool
	}{
		{name: "none", cfg: Config{Provider: ProviderNone}, wantNil: true},
		{name: "mock", cfg: Config{Provider: ProviderMock}},
		{name: "gemini", cfg: Config{Provider: ProviderGemini, APIKey: "key"}},
		{name: "gemini without key", cfg: Config{Provider: ProviderGemini}, wantErr: true},
		{name: "openai", cfg: Config{Provider: ProviderOpenAI, APIKey: "sk-key"}},
		{name: "openai without key", cfg: Config{Provider: ProviderOpenAI}, wantErr: true},
		{name: "unknown", cfg: Config{Provider: "claude-vision"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (c == nil) != tt.wantNil {
				t.Errorf("New() comparer nil = %v, want %v", c == nil, tt.wantNil)
			}
		})
	}
}

func TestMockComparer(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockComparer("fallback", MockReply{Text: "first"}, MockReply{Err: boom})
	prev, cur := testImages()

	if reply, _ := m.Compare(context.Background(), prev, cur); reply != "first" {
		t.Errorf("first reply = %q", reply)
	}
	if _, err := m.Compare(context.Background(), cur, prev); !errors.Is(err, boom) {
		t.Errorf("second call error = %v, want boom", err)
	}
	if reply, _ := m.Compare(context.Background(), prev, cur); reply != "fallback" {
		t.Errorf("third reply = %q", reply)
	}

	calls := m.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 recorded calls, got %d", len(calls))
	}
	if calls[1][0] != cur || calls[1][1] != prev {
		t.Error("calls must record the pair in argument order")
	}
}
