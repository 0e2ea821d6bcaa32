package memory

import "github.com/taskmesh/taskmesh/core"

// DefaultCapacity is the message limit applied when none is configured.
const DefaultCapacity = 100

// Memory is an ordered sequence of messages with a fixed capacity. It is
// owned exclusively by one agent: a single writer, no external mutation.
// Concurrent access must be coordinated by the owner.
type Memory struct {
	messages []core.Message
	capacity int
}

// New creates a Memory bounded to the given capacity. A capacity of zero or
// less falls back to DefaultCapacity.
func New(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{capacity: capacity}
}

// Add appends a message, evicting the oldest entries when the log would
// exceed its capacity.
func (m *Memory) Add(msg core.Message) {
	m.messages = append(m.messages, msg)
	if len(m.messages) > m.capacity {
		m.messages = m.messages[len(m.messages)-m.capacity:]
	}
}

// AddAll appends multiple messages in order, applying the same eviction rule.
func (m *Memory) AddAll(msgs ...core.Message) {
	for _, msg := range msgs {
		m.Add(msg)
	}
}

// Messages returns a copy of the log for safe iteration.
func (m *Memory) Messages() []core.Message {
	out := make([]core.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Recent returns the last n messages (fewer if the log is shorter).
func (m *Memory) Recent(n int) []core.Message {
	if n <= 0 {
		return nil
	}
	if n > len(m.messages) {
		n = len(m.messages)
	}
	out := make([]core.Message, n)
	copy(out, m.messages[len(m.messages)-n:])
	return out
}

// Last returns the most recent message and true, or a zero message and
// false when the log is empty.
func (m *Memory) Last() (core.Message, bool) {
	if len(m.messages) == 0 {
		return core.Message{}, false
	}
	return m.messages[len(m.messages)-1], true
}

// Len returns the number of stored messages.
func (m *Memory) Len() int { return len(m.messages) }

// Capacity returns the configured message limit.
func (m *Memory) Capacity() int { return m.capacity }

// Clear removes all messages.
func (m *Memory) Clear() { m.messages = m.messages[:0] }
