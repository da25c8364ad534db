package vision

import (
	"context"
	"sync"

	"github.com/STRATINT/activityscan/internal/imaging"
)

// MockReply is one scripted response from MockComparer.
type MockReply struct {
	Text string
	Err  error
}

// MockComparer returns scripted replies without calling any service. Once the
// script is exhausted it repeats the fallback text.
type MockComparer struct {
	mu       sync.Mutex
	script   []MockReply
	fallback string
	calls    [][2]*imaging.EncodedImage
}

// NewMockComparer creates a mock that always answers fallback.
func NewMockComparer(fallback string, script ...MockReply) *MockComparer {
	return &MockComparer{fallback: fallback, script: script}
}

// Compare implements Comparer.
func (m *MockComparer) Compare(ctx context.Context, previous, current *imaging.EncodedImage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, [2]*imaging.EncodedImage{previous, current})
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if len(m.script) == 0 {
		return m.fallback, nil
	}
	next := m.script[0]
	m.script = m.script[1:]
	return next.Text, next.Err
}

// Calls returns the pairs received so far, in call order.
func (m *MockComparer) Calls() [][2]*imaging.EncodedImage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][2]*imaging.EncodedImage(nil), m.calls...)
}
