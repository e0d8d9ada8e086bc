package llm

import (
	"context"
	"sync"

	"github.com/hyperjump/kotae/internal/models"
)

// MockModel replays scripted replies in order and records the conversations
// it was given. For tests.
type MockModel struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]models.Message
}

// NewMockModel returns a model that answers with replies in sequence. When
// the script runs out, the last reply repeats.
func NewMockModel(replies ...string) *MockModel {
	return &MockModel{replies: replies}
}

// Fail makes every subsequent Complete return err.
func (m *MockModel) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Complete returns the next scripted reply.
func (m *MockModel) Complete(ctx context.Context, messages []models.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	snapshot := make([]models.Message, len(messages))
	copy(snapshot, messages)
	m.calls = append(m.calls, snapshot)

	if len(m.replies) == 0 {
		return "", nil
	}
	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return reply, nil
}

// Calls returns the conversations passed to Complete, in order.
func (m *MockModel) Calls() [][]models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
