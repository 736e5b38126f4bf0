// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layers

import (
	"github.com/gogpu/xrlayer"
	"github.com/gogpu/xrlayer/native"
)

// Quad builds flat rectangle layers.
type Quad struct {
	base
}

// NewQuad returns the quad strategy.
func NewQuad(rt xrlayer.Runtime, opts Options) *Quad {
	return &Quad{base: newBase(rt, opts)}
}

func (q *Quad) BuildSwapchainRequest(info xrlayer.LayerInfo) (xrlayer.SwapchainRequest, bool) {
	return q.textureRequest(info.Layer, 1)
}

func (q *Quad) BuildNativeRecord(info xrlayer.LayerInfo, out xrlayer.SwapchainOutput) (native.CompositionLayerQuad, bool) {
	w, h, ok := sourceSize(info.Layer)
	if !ok {
		return native.CompositionLayerQuad{}, false
	}
	return native.CompositionLayerQuad{
		Header:        q.header(native.TypeCompositionLayerQuad, info.Layer),
		EyeVisibility: native.EyeBoth,
		SubImage:      subImage(out.Handle, info.Layer, w, h),
		Pose:          q.pose(info.Layer.Transform),
		Size:          quadSize(info.Layer, w, h),
	}, true
}

func (q *Quad) PatchNativeRecord(info xrlayer.LayerInfo, rec *native.CompositionLayerQuad) bool {
	w, h, ok := sourceSize(info.Layer)
	if !ok {
		return false
	}
	rec.Header = q.header(native.TypeCompositionLayerQuad, info.Layer)
	rec.SubImage = subImage(xrlayer.SwapchainHandle(rec.SubImage.Swapchain), info.Layer, w, h)
	rec.Pose = q.pose(info.Layer.Transform)
	rec.Size = quadSize(info.Layer, w, h)
	return true
}

// ActivatePatch refreshes the pose every frame.
func (q *Quad) ActivatePatch(info xrlayer.LayerInfo, rec *native.CompositionLayerQuad) bool {
	rec.Pose = q.pose(info.Layer.Transform)
	return true
}

// quadSize returns the quad extent in meters, optionally scaled by the
// transform and cropped to the source aspect ratio.
func quadSize(l *xrlayer.Layer, texW, texH int) native.Extent2Df {
	size := l.Shape.Quad.Size
	if l.Shape.Quad.ApplyTransformScale {
		size.X *= l.Transform.Scale.X
		size.Y *= l.Transform.Scale.Y
	}
	if l.Textures != nil && l.Textures.CropToAspect && size.Y != 0 && texH != 0 {
		reqRatio := size.X / size.Y
		texRatio := float32(texW) / float32(texH)
		switch {
		case reqRatio > texRatio:
			size.X = size.Y * texRatio
		case reqRatio < texRatio:
			size.Y = size.X / texRatio
		}
	}
	return native.Extent2Df{Width: size.X, Height: size.Y}
}
