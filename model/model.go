package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/taskmesh/taskmesh/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a JSON Schema object (minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by agents and flows.
type Request struct {
	Messages   []core.Message   `json:"messages"`
	SystemMsgs []core.Message   `json:"system_msgs,omitempty"`
	Tools      []ToolDefinition `json:"tools,omitempty"`
	ToolChoice core.ToolChoice  `json:"tool_choice,omitempty"`
}

// Response is the completed model output for one request.
type Response struct {
	Content   string          `json:"content"`
	ToolCalls []core.ToolCall `json:"tool_calls,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents and flows to drive
// generation. AskTool honors the request's tool-choice mode; Ask is the
// plain text completion used for summaries.
type Model interface {
	Ask(ctx context.Context, messages []core.Message, systemMsgs []core.Message) (string, error)
	AskTool(ctx context.Context, req Request) (*Response, error)
	Info() Info
}

// MockModel is a scripted in-memory Model useful for tests and examples.
// Responses are consumed in FIFO order, one per AskTool call; Ask pops from
// a separate text queue. All requests are recorded for inspection.
type MockModel struct {
	mu            sync.Mutex
	info          Info
	toolResponses []Response
	textResponses []string
	requests      []Request
	err           error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel() *MockModel {
	return &MockModel{
		info: Info{Name: "mock", Provider: "mock", SupportsTools: true},
	}
}

// EnqueueResponse appends a canned AskTool response.
func (m *MockModel) EnqueueResponse(resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolResponses = append(m.toolResponses, resp)
}

// EnqueueToolCall is a convenience wrapper that enqueues a response holding
// a single tool call with a generated id.
func (m *MockModel) EnqueueToolCall(name, arguments string) string {
	id := "call_" + uuid.NewString()[:8]
	m.EnqueueResponse(Response{ToolCalls: []core.ToolCall{{
		ID:       id,
		Type:     "function",
		Function: core.Function{Name: name, Arguments: arguments},
	}}})
	return id
}

// EnqueueText appends a canned Ask response.
func (m *MockModel) EnqueueText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.textResponses = append(m.textResponses, text)
}

// Fail makes all subsequent calls return the given error.
func (m *MockModel) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of every recorded AskTool request.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Ask implements Model.
func (m *MockModel) Ask(_ context.Context, _ []core.Message, _ []core.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if len(m.textResponses) == 0 {
		return "mock summary", nil
	}
	text := m.textResponses[0]
	m.textResponses = m.textResponses[1:]
	return text, nil
}

// AskTool implements Model, popping the next scripted response.
func (m *MockModel) AskTool(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.requests = append(m.requests, req)
	if len(m.toolResponses) == 0 {
		last := ""
		if len(req.Messages) > 0 {
			last = req.Messages[len(req.Messages)-1].Content
		}
		return &Response{Content: fmt.Sprintf("Mock response to: %s", last)}, nil
	}
	resp := m.toolResponses[0]
	m.toolResponses = m.toolResponses[1:]
	return &resp, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
