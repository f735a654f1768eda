package llm

import (
	"context"
	"sync"
)

// MockProvider is a scripted provider for tests and offline runs.
type MockProvider struct {
	mu        sync.Mutex
	available bool
	priority  int
	responses []MockResponse
	calls     []string
}

// MockResponse is one scripted reply. Err takes precedence over Text.
type MockResponse struct {
	Text       string
	Confidence float64
	Err        error
}

// NewMockProvider returns an available mock that replays responses in order,
// repeating the last one once exhausted.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{
		available: true,
		priority:  PriorityMock,
		responses: responses,
	}
}

// WithPriority overrides the mock's priority.
func (m *MockProvider) WithPriority(priority int) *MockProvider {
	m.priority = priority

	return m
}

// SetAvailable toggles IsAvailable.
func (m *MockProvider) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.available = available
}

// Calls returns the prompts received so far.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.calls...)
}

func (m *MockProvider) Name() ProviderName {
	return ProviderMock
}

func (m *MockProvider) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.available
}

func (m *MockProvider) Priority() int {
	return m.priority
}

func (m *MockProvider) Complete(ctx context.Context, prompt string) (Completion, error) {
	if err := ctx.Err(); err != nil {
		return Completion{}, err //nolint:wrapcheck // context error
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := len(m.calls)
	m.calls = append(m.calls, prompt)

	if len(m.responses) == 0 {
		return Completion{Text: "{}", Confidence: ConfidenceComplete, Provider: ProviderMock}, nil
	}

	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}

	resp := m.responses[idx]
	if resp.Err != nil {
		return Completion{}, resp.Err
	}

	confidence := resp.Confidence
	if confidence == 0 {
		confidence = ConfidenceComplete
	}

	return Completion{Text: resp.Text, Confidence: confidence, Provider: ProviderMock, Model: "mock"}, nil
}

var _ Provider = (*MockProvider)(nil)
