// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xrlayer

import "sync"

// Completion is a finished swapchain creation waiting to be applied on the
// update goroutine.
type Completion struct {
	ID     LayerID
	Ticket uint64
	Output SwapchainOutput
}

// Bridge is a multi-producer single-consumer FIFO of completions. Post may be
// called from any goroutine; Drain must only be called by the consumer.
//
// The zero value is ready to use.
type Bridge struct {
	mu     sync.Mutex
	queue  []Completion
	spare  []Completion
	closed bool
}

// Post enqueues c. It reports false and drops c if the bridge is closed.
func (b *Bridge) Post(c Completion) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.queue = append(b.queue, c)
	return true
}

// Drain takes every queued completion and calls fn for each in FIFO order.
// Completions posted while fn runs are left for the next Drain.
func (b *Bridge) Drain(fn func(Completion)) int {
	b.mu.Lock()
	batch := b.queue
	b.queue = b.spare[:0]
	b.mu.Unlock()

	for _, c := range batch {
		fn(c)
	}

	clear(batch)
	b.mu.Lock()
	b.spare = batch[:0]
	b.mu.Unlock()
	return len(batch)
}

// Len returns the number of queued completions.
func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Close drops queued completions; later posts are rejected.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.queue = nil
	b.spare = nil
}

// Closed reports whether Close was called.
func (b *Bridge) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
