package heap

import (
	"math/rand/v2"
	"sort"
	"testing"
)

func TestOrdering(t *testing.T) {
	h := New(func(a, b int) bool { return a < b })
	values := make([]int, 1000)
	for i := range values {
		values[i] = rand.IntN(10000)
		h.Push(values[i])
	}
	sort.Ints(values)
	for _, want := range values {
		got, ok := h.Pop()
		if !ok {
			t.Fatal("heap exhausted early")
		}
		if got != want {
			t.Fatalf("got %d, want %d", got, want)
		}
	}
	if _, ok := h.Pop(); ok {
		t.Error("pop from empty heap should fail")
	}
}

func TestPeek(t *testing.T) {
	h := New(func(a, b int) bool { return a < b })
	if _, ok := h.Peek(); ok {
		t.Error("peek on empty heap should fail")
	}
	h.Push(3)
	h.Push(1)
	h.Push(2)
	if got, _ := h.Peek(); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
	if h.Len() != 3 {
		t.Errorf("got len %d, want 3", h.Len())
	}
}

func TestPopIf(t *testing.T) {
	h := New(func(a, b int) bool { return a < b })
	h.Push(5)
	h.Push(15)
	due := func(v int) bool { return v <= 10 }
	if got, ok := h.PopIf(due); !ok || got != 5 {
		t.Errorf("got %d/%v, want 5/true", got, ok)
	}
	if _, ok := h.PopIf(due); ok {
		t.Error("15 is not due, PopIf should refuse")
	}
	if h.Len() != 1 {
		t.Errorf("got len %d, want 1", h.Len())
	}
}
