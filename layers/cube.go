// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layers

import (
	"github.com/gogpu/xrlayer"
	"github.com/gogpu/xrlayer/native"
)

// Cube builds cube map layers. A cube layer has no position; only the
// orientation of its transform is used.
type Cube struct {
	base
	supported bool
	warned    bool
}

// NewCube returns the cube strategy. When supported is false every request
// is declined and a warning is logged once.
func NewCube(rt xrlayer.Runtime, opts Options, supported bool) *Cube {
	return &Cube{base: newBase(rt, opts), supported: supported}
}

func (c *Cube) BuildSwapchainRequest(info xrlayer.LayerInfo) (xrlayer.SwapchainRequest, bool) {
	if !c.supported {
		if !c.warned {
			c.warned = true
			xrlayer.Logger().Warn("layers: cube layers not supported by runtime version", "id", info.ID)
		}
		return xrlayer.SwapchainRequest{}, false
	}
	return localRequest(c.base, info.Layer, 6)
}

func (c *Cube) BuildNativeRecord(info xrlayer.LayerInfo, out xrlayer.SwapchainOutput) (native.CompositionLayerCube, bool) {
	rec := native.CompositionLayerCube{
		EyeVisibility: native.EyeBoth,
		Swapchain:     uint64(out.Handle),
	}
	c.PatchNativeRecord(info, &rec)
	return rec, true
}

func (c *Cube) PatchNativeRecord(info xrlayer.LayerInfo, rec *native.CompositionLayerCube) bool {
	rec.Header = c.header(native.TypeCompositionLayerCube, info.Layer)
	rec.Orientation = c.pose(info.Layer.Transform).Orientation
	return true
}
