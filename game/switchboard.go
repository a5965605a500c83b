package game

import (
	"io"
	"sync"
)

const (
	// consoleBufferSize is the number of log messages buffered per script.
	// Whoever attaches a debug console first receives these.
	consoleBufferSize = 64
)

// consoleBuffer is a ring buffer for console log messages.
type consoleBuffer struct {
	messages [][]byte
	start    int
	count    int
}

func (b *consoleBuffer) push(msg []byte) {
	if b.messages == nil {
		b.messages = make([][]byte, consoleBufferSize)
	}
	msgCopy := make([]byte, len(msg))
	copy(msgCopy, msg)

	idx := (b.start + b.count) % consoleBufferSize
	if b.count < consoleBufferSize {
		b.messages[idx] = msgCopy
		b.count++
	} else {
		b.messages[b.start] = msgCopy
		b.start = (b.start + 1) % consoleBufferSize
	}
}

func (b *consoleBuffer) getAll() [][]byte {
	if b.count == 0 {
		return nil
	}
	result := make([][]byte, b.count)
	for i := 0; i < b.count; i++ {
		result[i] = b.messages[(b.start+i)%consoleBufferSize]
	}
	return result
}

// Switchboard routes per-script debug output to attached writers. Handler
// errors and embedded-code log output for a script id reach every writer
// attached to that id, and a ring buffer of recent messages is replayed on
// attach. Attach/Detach may be called from outside the tick thread, hence
// the lock.
type Switchboard struct {
	mu       sync.RWMutex
	consoles map[string]map[io.Writer]struct{}
	buffers  map[string]*consoleBuffer
}

func NewSwitchboard() *Switchboard {
	return &Switchboard{
		consoles: make(map[string]map[io.Writer]struct{}),
		buffers:  make(map[string]*consoleBuffer),
	}
}

// Attach connects a writer to a script's debug output and replays the
// buffered backlog to it. Nil writers are ignored.
func (s *Switchboard) Attach(scriptID string, w io.Writer) {
	if w == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consoles[scriptID] == nil {
		s.consoles[scriptID] = make(map[io.Writer]struct{})
	}
	s.consoles[scriptID][w] = struct{}{}
	if buf := s.buffers[scriptID]; buf != nil {
		for _, msg := range buf.getAll() {
			w.Write(msg)
		}
	}
}

func (s *Switchboard) Detach(scriptID string, w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if writers := s.consoles[scriptID]; writers != nil {
		delete(writers, w)
		if len(writers) == 0 {
			delete(s.consoles, scriptID)
		}
	}
}

// Console returns the write side for one script id. Everything written goes
// to the ring buffer and to currently attached writers.
func (s *Switchboard) Console(scriptID string) io.Writer {
	return &console{board: s, scriptID: scriptID}
}

type console struct {
	board    *Switchboard
	scriptID string
}

func (c *console) Write(msg []byte) (int, error) {
	c.board.mu.Lock()
	defer c.board.mu.Unlock()
	buf := c.board.buffers[c.scriptID]
	if buf == nil {
		buf = &consoleBuffer{}
		c.board.buffers[c.scriptID] = buf
	}
	buf.push(msg)
	for w := range c.board.consoles[c.scriptID] {
		if _, err := w.Write(msg); err != nil {
			delete(c.board.consoles[c.scriptID], w)
		}
	}
	return len(msg), nil
}
