package llm

import (
	"context"
	"fmt"
	"time"
)

// MockProvider is a mock implementation of the Provider interface for tests.
type MockProvider struct {
	responses     []string
	responseIndex int
	mode          MockMode
	delay         time.Duration
	callCount     int

	// ToolCallQueue, when non-empty, is returned one entry at a time before
	// any text responses. Used to exercise the tool-calling loop.
	ToolCallQueue [][]ToolCall
}

// MockMode defines the operation mode of the mock provider.
type MockMode int

const (
	// MockModeEcho returns the last user message.
	MockModeEcho MockMode = iota

	// MockModeFixed returns a fixed response.
	MockModeFixed

	// MockModeFixtures returns pre-defined responses in rotation.
	MockModeFixtures

	// MockModeError always returns an error.
	MockModeError
)

// NewEchoProvider creates a mock provider that echoes the user message.
func NewEchoProvider() *MockProvider {
	return &MockProvider{mode: MockModeEcho}
}

// NewFixedProvider creates a mock provider with a fixed response.
func NewFixedProvider(response string) *MockProvider {
	return &MockProvider{mode: MockModeFixed, responses: []string{response}}
}

// NewFixturesProvider creates a mock provider that cycles through responses.
func NewFixturesProvider(responses []string) *MockProvider {
	return &MockProvider{mode: MockModeFixtures, responses: responses}
}

// NewErrorProvider creates a mock provider that always fails.
func NewErrorProvider() *MockProvider {
	return &MockProvider{mode: MockModeError}
}

// Chat returns a canned response according to the mock mode.
func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.callCount++

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if len(m.ToolCallQueue) > 0 {
		calls := m.ToolCallQueue[0]
		m.ToolCallQueue = m.ToolCallQueue[1:]
		return &ChatResponse{
			FinishReason: FinishReasonToolCalls,
			ToolCalls:    calls,
			Model:        "mock",
		}, nil
	}

	switch m.mode {
	case MockModeError:
		return nil, fmt.Errorf("mock provider error")
	case MockModeEcho:
		content := ""
		for i := len(req.Messages) - 1; i >= 0; i-- {
			if req.Messages[i].Role == RoleUser {
				content = req.Messages[i].Content
				break
			}
		}
		return &ChatResponse{Content: content, FinishReason: FinishReasonStop, Model: "mock"}, nil
	case MockModeFixed:
		return &ChatResponse{Content: m.responses[0], FinishReason: FinishReasonStop, Model: "mock"}, nil
	case MockModeFixtures:
		if len(m.responses) == 0 {
			return &ChatResponse{FinishReason: FinishReasonStop, Model: "mock"}, nil
		}
		resp := m.responses[m.responseIndex%len(m.responses)]
		m.responseIndex++
		return &ChatResponse{Content: resp, FinishReason: FinishReasonStop, Model: "mock"}, nil
	default:
		return nil, fmt.Errorf("unknown mock mode: %d", m.mode)
	}
}

// SupportsToolCalling reports tool calling support.
func (m *MockProvider) SupportsToolCalling() bool {
	return true
}

// GetDefaultModel returns the mock model name.
func (m *MockProvider) GetDefaultModel() string {
	return "mock"
}

// CallCount returns the number of Chat calls made.
func (m *MockProvider) CallCount() int {
	return m.callCount
}
