package game

import (
	"time"

	"github.com/virgilvox/bitrealm-sub000/heap"
)

// timer is one scheduled deferred action. The sequence number keeps entries
// scheduled for the same instant in scheduling order.
type timer struct {
	at  time.Time
	seq uint64
	fn  func()
}

// Timers is the room's deferred-action queue: the mechanism behind wait.
// It has no thread of its own and takes no locks; the room driver pumps it
// with Advance between ticks, on the same thread that runs handlers.
type Timers struct {
	pending *heap.Heap[*timer]
	seq     uint64
}

func NewTimers() *Timers {
	return &Timers{
		pending: heap.New(func(a, b *timer) bool {
			if a.at.Equal(b.at) {
				return a.seq < b.seq
			}
			return a.at.Before(b.at)
		}),
	}
}

// Schedule registers fn to run once now-or-later than at. fn may be nil for
// a bare delay marker.
func (t *Timers) Schedule(at time.Time, fn func()) {
	t.seq++
	t.pending.Push(&timer{at: at, seq: t.seq, fn: fn})
}

// Advance runs every action due at or before now, in time-then-scheduling
// order, and reports how many entries fired.
func (t *Timers) Advance(now time.Time) int {
	fired := 0
	for {
		entry, ok := t.pending.PopIf(func(e *timer) bool {
			return !e.at.After(now)
		})
		if !ok {
			return fired
		}
		fired++
		if entry.fn != nil {
			entry.fn()
		}
	}
}

func (t *Timers) Len() int {
	return t.pending.Len()
}
