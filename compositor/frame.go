// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"github.com/gogpu/xrlayer"
	"github.com/gogpu/xrlayer/native"
)

// FrameLayer is one submitted composition layer.
type FrameLayer struct {
	// ID is the layer owning the first swapchain, 0 if it was released
	// before submission.
	ID    xrlayer.LayerID
	Order int32
	native.Summary
}

// Frame is everything submitted between two EndFrame calls.
type Frame struct {
	Index        uint64
	DefaultFlags native.LayerFlags
	Layers       []FrameLayer
}

// Count returns the number of layers of type t.
func (f Frame) Count(t native.StructureType) int {
	n := 0
	for _, l := range f.Layers {
		if l.Type == t {
			n++
		}
	}
	return n
}

// IDs returns the layer IDs in draw order.
func (f Frame) IDs() []xrlayer.LayerID {
	ids := make([]xrlayer.LayerID, len(f.Layers))
	for i, l := range f.Layers {
		ids[i] = l.ID
	}
	return ids
}
