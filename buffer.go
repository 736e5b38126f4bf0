// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xrlayer

import "fmt"

// DefaultMaxLayers bounds a SubmissionBuffer created with max <= 0.
const DefaultMaxLayers = 1024

// SubmissionBuffer packs the active records of one layout and their draw
// orders into two parallel arrays. Capacity only grows; Reset keeps it.
type SubmissionBuffer[T any] struct {
	records []T
	orders  []int32
	count   int
	max     int
}

// NewSubmissionBuffer returns an empty buffer that refuses to grow past limit
// entries. limit <= 0 selects DefaultMaxLayers.
func NewSubmissionBuffer[T any](limit int) *SubmissionBuffer[T] {
	if limit <= 0 {
		limit = DefaultMaxLayers
	}
	return &SubmissionBuffer[T]{max: limit}
}

// EnsureCapacity grows both arrays to hold at least n entries, preserving the
// live prefix. It returns ErrBufferExhausted if n exceeds the maximum.
func (b *SubmissionBuffer[T]) EnsureCapacity(n int) error {
	if n <= len(b.records) {
		return nil
	}
	if n > b.max {
		return fmt.Errorf("%w: need %d, max %d", ErrBufferExhausted, n, b.max)
	}
	size := max(n, 2*len(b.records))
	size = min(size, b.max)

	records := make([]T, size)
	orders := make([]int32, size)
	copy(records, b.records[:b.count])
	copy(orders, b.orders[:b.count])
	b.records = records
	b.orders = orders
	return nil
}

// Append stores rec and order at the end of the live prefix. The caller must
// ensure capacity first.
func (b *SubmissionBuffer[T]) Append(rec T, order int32) {
	if b.count >= len(b.records) {
		panic(fmt.Sprintf("xrlayer: append beyond capacity %d", len(b.records)))
	}
	b.records[b.count] = rec
	b.orders[b.count] = order
	b.count++
}

// Len returns the number of live entries.
func (b *SubmissionBuffer[T]) Len() int { return b.count }

// Cap returns the current capacity.
func (b *SubmissionBuffer[T]) Cap() int { return len(b.records) }

// Max returns the capacity limit.
func (b *SubmissionBuffer[T]) Max() int { return b.max }

// Records returns the live records. The slice aliases the buffer.
func (b *SubmissionBuffer[T]) Records() []T { return b.records[:b.count] }

// Orders returns the live draw orders. The slice aliases the buffer.
func (b *SubmissionBuffer[T]) Orders() []int32 { return b.orders[:b.count] }

// Batch exposes the live prefix for submission.
func (b *SubmissionBuffer[T]) Batch() Batch {
	return Batch{
		Records: b.records[:b.count],
		Orders:  b.orders[:b.count],
		Count:   b.count,
		Stride:  strideOf[T](),
	}
}

// Submit hands the live prefix to rt in one call. An empty buffer is not
// submitted.
func (b *SubmissionBuffer[T]) Submit(rt Runtime) error {
	if b.count == 0 {
		return nil
	}
	return rt.SubmitLayers(b.Batch())
}

// Reset drops the live entries without releasing capacity.
func (b *SubmissionBuffer[T]) Reset() {
	clear(b.records[:b.count])
	b.count = 0
}
