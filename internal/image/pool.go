// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package image recycles the RGBA images backing software swapchains.
package image

import (
	"image"
	"sync"
)

// Pool is a thread-safe pool of *image.RGBA grouped by size.
//
// Swapchains of the same extent come and go as layers are resized or
// recreated; reusing their images keeps the allocation rate flat.
type Pool struct {
	mu      sync.Mutex
	buckets map[image.Point][]*image.RGBA
	maxSize int // max images per bucket, 0 for unlimited
}

// NewPool creates a pool retaining at most maxPerBucket images of each size.
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[image.Point][]*image.RGBA),
		maxSize: maxPerBucket,
	}
}

// Get returns a cleared width x height image, reused when possible.
// It returns nil for non-positive dimensions.
func (p *Pool) Get(width, height int) *image.RGBA {
	if width <= 0 || height <= 0 {
		return nil
	}
	key := image.Pt(width, height)

	p.mu.Lock()
	if bucket := p.buckets[key]; len(bucket) > 0 {
		img := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.mu.Unlock()
		clear(img.Pix)
		return img
	}
	p.mu.Unlock()

	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// Put returns img to the pool. Images with a non-zero origin, and images
// beyond the bucket limit, are dropped.
func (p *Pool) Put(img *image.RGBA) {
	if img == nil || img.Rect.Min != (image.Point{}) {
		return
	}
	key := img.Rect.Size()

	p.mu.Lock()
	defer p.mu.Unlock()
	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[key] = append(bucket, img)
}

// Len returns the number of pooled images of the given size.
func (p *Pool) Len(width, height int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets[image.Pt(width, height)])
}
