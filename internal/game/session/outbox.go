// Package session tracks the players connected through a transport and routes
// game text to them.
package session

import (
	"fmt"
	"sync"
)

// Outbox queues text for one connected player. The transport goroutine
// drains Lines and writes each entry to the client.
type Outbox struct {
	name   string
	lines  chan string
	mu     sync.Mutex
	closed bool
}

// NewOutbox creates an Outbox for the named player.
//
// Precondition: name must be non-empty.
// Postcondition: Returns an Outbox with an open channel of bufferSize entries (64 if bufferSize <= 0).
func NewOutbox(name string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Outbox{
		name:  name,
		lines: make(chan string, bufferSize),
	}
}

// Name returns the player name the outbox belongs to.
func (o *Outbox) Name() string {
	return o.name
}

// Push enqueues text without blocking.
//
// Postcondition: text is enqueued, or an error is returned if the outbox is closed or full.
func (o *Outbox) Push(text string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %s is closed", o.name)
	}
	select {
	case o.lines <- text:
		return nil
	default:
		return fmt.Errorf("outbox %s buffer full", o.name)
	}
}

// Lines returns the read-only channel of queued text.
func (o *Outbox) Lines() <-chan string {
	return o.lines
}

// Close marks the outbox closed and closes its channel.
//
// Postcondition: The channel is closed. Further Push calls return an error.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.lines)
	}
	return nil
}

// IsClosed reports whether the outbox has been closed.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
