// Package heap provides a small generic binary min-heap ordered by a
// caller-supplied comparison.
package heap

type Heap[T any] struct {
	data []T
	less func(a, b T) bool
}

func New[T any](less func(a, b T) bool) *Heap[T] {
	return &Heap[T]{
		less: less,
	}
}

func (h *Heap[T]) Len() int {
	return len(h.data)
}

func (h *Heap[T]) Push(value T) {
	h.data = append(h.data, value)
	h.siftUp(len(h.data) - 1)
}

func (h *Heap[T]) Peek() (T, bool) {
	if len(h.data) == 0 {
		var zero T
		return zero, false
	}
	return h.data[0], true
}

func (h *Heap[T]) Pop() (T, bool) {
	if len(h.data) == 0 {
		var zero T
		return zero, false
	}
	top := h.data[0]
	last := len(h.data) - 1
	h.data[0] = h.data[last]
	var zero T
	h.data[last] = zero
	h.data = h.data[:last]
	h.siftDown(0)
	return top, true
}

// PopIf pops and returns the minimum only when pred accepts it. Used to
// drain due entries from a time-ordered heap without inspecting the rest.
func (h *Heap[T]) PopIf(pred func(T) bool) (T, bool) {
	top, ok := h.Peek()
	if !ok || !pred(top) {
		var zero T
		return zero, false
	}
	return h.Pop()
}

func (h *Heap[T]) siftUp(index int) {
	for index > 0 {
		parent := (index - 1) / 2
		if !h.less(h.data[index], h.data[parent]) {
			break
		}
		h.data[index], h.data[parent] = h.data[parent], h.data[index]
		index = parent
	}
}

func (h *Heap[T]) siftDown(index int) {
	size := len(h.data)
	for {
		left := 2*index + 1
		right := 2*index + 2
		least := index
		if left < size && h.less(h.data[left], h.data[least]) {
			least = left
		}
		if right < size && h.less(h.data[right], h.data[least]) {
			least = right
		}
		if least == index {
			return
		}
		h.data[index], h.data[least] = h.data[least], h.data[index]
		index = least
	}
}
