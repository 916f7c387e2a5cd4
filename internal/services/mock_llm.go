package services

import (
	"context"
	"sync"

	"github.com/driftworld/turncore/pkg/chat"
	"github.com/driftworld/turncore/pkg/schema"
)

// MockLLMService is a mock implementation of LLMService for testing.
type MockLLMService struct {
	InitModelFunc      func(ctx context.Context, modelName string) error
	ChatFunc           func(ctx context.Context, messages []chat.ChatMessage) (string, error)
	ChatStructuredFunc func(ctx context.Context, messages []chat.ChatMessage, id schema.ID) ([]byte, error)

	// Canned structured responses keyed by schema, used when
	// ChatStructuredFunc is nil.
	StructuredResponses map[schema.ID][]byte

	// Track calls for testing
	InitModelCalls      []string
	ChatCalls           []ChatCall
	ChatStructuredCalls []ChatStructuredCall

	mu sync.Mutex // protects all fields above
}

type ChatCall struct {
	Messages []chat.ChatMessage
}

type ChatStructuredCall struct {
	Messages []chat.ChatMessage
	SchemaID schema.ID
}

// Ensure MockLLMService implements LLMService
var _ LLMService = (*MockLLMService)(nil)

// NewMockLLMService creates a new mock LLM service
func NewMockLLMService() *MockLLMService {
	return &MockLLMService{
		StructuredResponses: make(map[schema.ID][]byte),
		InitModelCalls:      make([]string, 0),
		ChatCalls:           make([]ChatCall, 0),
		ChatStructuredCalls: make([]ChatStructuredCall, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLMService) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InitModelCalls = append(m.InitModelCalls, modelName)

	if m.InitModelFunc != nil {
		return m.InitModelFunc(ctx, modelName)
	}
	return nil
}

// Chat mocks narration generation
func (m *MockLLMService) Chat(ctx context.Context, messages []chat.ChatMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ChatCalls = append(m.ChatCalls, ChatCall{Messages: messages})

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, messages)
	}
	return "Mock narration", nil
}

// ChatStructured mocks structured backend generation. Without a
// canned response for the schema it returns an empty object, which
// every validator treats as a harmless no-op or flags as invalid.
func (m *MockLLMService) ChatStructured(ctx context.Context, messages []chat.ChatMessage, id schema.ID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ChatStructuredCalls = append(m.ChatStructuredCalls, ChatStructuredCall{
		Messages: messages,
		SchemaID: id,
	})

	if m.ChatStructuredFunc != nil {
		return m.ChatStructuredFunc(ctx, messages, id)
	}
	if resp, ok := m.StructuredResponses[id]; ok {
		return resp, nil
	}
	return []byte(`{}`), nil
}

// SetStructuredResponse sets the canned response for a schema.
func (m *MockLLMService) SetStructuredResponse(id schema.ID, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StructuredResponses[id] = payload
}

// SetChatError sets up the mock to return an error on Chat
func (m *MockLLMService) SetChatError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (string, error) {
		return "", err
	}
}

// SetChatStructuredError sets up the mock to return an error on ChatStructured
func (m *MockLLMService) SetChatStructuredError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatStructuredFunc = func(ctx context.Context, messages []chat.ChatMessage, id schema.ID) ([]byte, error) {
		return nil, err
	}
}

// Reset clears all call tracking
func (m *MockLLMService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.ChatCalls = make([]ChatCall, 0)
	m.ChatStructuredCalls = make([]ChatStructuredCall, 0)
}

// GetCalls returns a copy of the call tracking data in a thread-safe way
func (m *MockLLMService) GetCalls() ([]string, []ChatCall, []ChatStructuredCall) {
	m.mu.Lock()
	defer m.mu.Unlock()

	initCalls := make([]string, len(m.InitModelCalls))
	copy(initCalls, m.InitModelCalls)

	chatCalls := make([]ChatCall, len(m.ChatCalls))
	copy(chatCalls, m.ChatCalls)

	structuredCalls := make([]ChatStructuredCall, len(m.ChatStructuredCalls))
	copy(structuredCalls, m.ChatStructuredCalls)

	return initCalls, chatCalls, structuredCalls
}
