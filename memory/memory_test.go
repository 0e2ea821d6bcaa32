package memory

import (
	"fmt"
	"testing"

	"github.com/taskmesh/taskmesh/core"
)

func TestMemory_FIFOEviction(t *testing.T) {
	const capacity = 5
	m := New(capacity)
	for i := 0; i < 12; i++ {
		m.Add(core.UserMessage(fmt.Sprintf("msg-%d", i)))
	}
	if m.Len() != capacity {
		t.Fatalf("expected %d messages, got %d", capacity, m.Len())
	}
	msgs := m.Messages()
	// Oldest evicted first: the survivors are msg-7 .. msg-11.
	for i, msg := range msgs {
		want := fmt.Sprintf("msg-%d", 7+i)
		if msg.Content != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, msg.Content)
		}
	}
}

func TestMemory_HoldsMinOfNAndCapacity(t *testing.T) {
	m := New(10)
	for i := 0; i < 3; i++ {
		m.Add(core.UserMessage("x"))
	}
	if m.Len() != 3 {
		t.Fatalf("expected 3 messages, got %d", m.Len())
	}
}

func TestMemory_DefaultCapacity(t *testing.T) {
	m := New(0)
	if m.Capacity() != DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", DefaultCapacity, m.Capacity())
	}
}

func TestMemory_CopyIsolation(t *testing.T) {
	m := New(4)
	m.Add(core.UserMessage("original"))
	msgs := m.Messages()
	msgs[0].Content = "mutated"
	got, ok := m.Last()
	if !ok || got.Content != "original" {
		t.Fatalf("expected copy isolation, got %#v", got)
	}
}

func TestMemory_RecentAndLast(t *testing.T) {
	m := New(10)
	if _, ok := m.Last(); ok {
		t.Fatal("expected no last message on empty memory")
	}
	m.AddAll(core.UserMessage("a"), core.AssistantMessage("b"), core.UserMessage("c"))
	recent := m.Recent(2)
	if len(recent) != 2 || recent[0].Content != "b" || recent[1].Content != "c" {
		t.Fatalf("unexpected recent window: %#v", recent)
	}
	if got := m.Recent(99); len(got) != 3 {
		t.Fatalf("expected full log, got %d messages", len(got))
	}
	last, _ := m.Last()
	if last.Content != "c" {
		t.Fatalf("expected last message c, got %q", last.Content)
	}
}
