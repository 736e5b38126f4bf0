// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layers

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/xrlayer"
	"github.com/gogpu/xrlayer/native"
)

// Equirect builds equirectangular sphere layers described by texture scale
// and bias.
type Equirect struct {
	base
}

// NewEquirect returns the scale/bias equirect strategy.
func NewEquirect(rt xrlayer.Runtime, opts Options) *Equirect {
	return &Equirect{base: newBase(rt, opts)}
}

func (e *Equirect) BuildSwapchainRequest(info xrlayer.LayerInfo) (xrlayer.SwapchainRequest, bool) {
	return localRequest(e.base, info.Layer, 1)
}

func (e *Equirect) BuildNativeRecord(info xrlayer.LayerInfo, out xrlayer.SwapchainOutput) (native.CompositionLayerEquirect, bool) {
	rec := native.CompositionLayerEquirect{EyeVisibility: native.EyeBoth}
	rec.SubImage.Swapchain = uint64(out.Handle)
	if !e.PatchNativeRecord(info, &rec) {
		return native.CompositionLayerEquirect{}, false
	}
	return rec, true
}

func (e *Equirect) PatchNativeRecord(info xrlayer.LayerInfo, rec *native.CompositionLayerEquirect) bool {
	w, h, ok := sourceSize(info.Layer)
	if !ok {
		return false
	}
	s := info.Layer.Shape.Equirect
	scale, bias, ok := EquirectScaleBias(s.CentralHorizontalAngle, s.UpperVerticalAngle, s.LowerVerticalAngle)
	if !ok {
		return false
	}
	rec.Header = e.header(native.TypeCompositionLayerEquirect, info.Layer)
	rec.SubImage = subImage(xrlayer.SwapchainHandle(rec.SubImage.Swapchain), info.Layer, w, h)
	rec.Pose = e.pose(info.Layer.Transform)
	rec.Radius = s.Radius
	rec.Scale = scale
	rec.Bias = bias
	return true
}

// EquirectScaleBias maps the angular extent of a sphere section to texture
// coordinate scale and bias. It reports false for degenerate angles.
func EquirectScaleBias(central, upper, lower float32) (scale, bias native.Vector2f, ok bool) {
	if central <= 0 || upper == lower {
		return scale, bias, false
	}
	scale = native.Vector2f{
		X: 2 * math32.Pi / central,
		Y: math32.Pi / (upper - lower),
	}
	bias = native.Vector2f{
		X: (1 - scale.X) * 0.5,
		Y: (upper/math32.Pi - 0.5) * scale.Y,
	}
	return scale, bias, true
}

// Equirect2 builds equirectangular layers described by angles.
type Equirect2 struct {
	base
}

// NewEquirect2 returns the angle based equirect strategy.
func NewEquirect2(rt xrlayer.Runtime, opts Options) *Equirect2 {
	return &Equirect2{base: newBase(rt, opts)}
}

func (e *Equirect2) BuildSwapchainRequest(info xrlayer.LayerInfo) (xrlayer.SwapchainRequest, bool) {
	return localRequest(e.base, info.Layer, 1)
}

func (e *Equirect2) BuildNativeRecord(info xrlayer.LayerInfo, out xrlayer.SwapchainOutput) (native.CompositionLayerEquirect2, bool) {
	rec := native.CompositionLayerEquirect2{EyeVisibility: native.EyeBoth}
	rec.SubImage.Swapchain = uint64(out.Handle)
	if !e.PatchNativeRecord(info, &rec) {
		return native.CompositionLayerEquirect2{}, false
	}
	return rec, true
}

func (e *Equirect2) PatchNativeRecord(info xrlayer.LayerInfo, rec *native.CompositionLayerEquirect2) bool {
	w, h, ok := sourceSize(info.Layer)
	if !ok {
		return false
	}
	s := info.Layer.Shape.Equirect
	rec.Header = e.header(native.TypeCompositionLayerEquirect2, info.Layer)
	rec.SubImage = subImage(xrlayer.SwapchainHandle(rec.SubImage.Swapchain), info.Layer, w, h)
	rec.Pose = e.pose(info.Layer.Transform)
	rec.Radius = s.Radius
	rec.CentralHorizontalAngle = s.CentralHorizontalAngle
	rec.UpperVerticalAngle = s.UpperVerticalAngle
	// The record measures the lower angle downwards.
	rec.LowerVerticalAngle = -s.LowerVerticalAngle
	return true
}

// localRequest only accepts application textures; panoramas and cube maps
// have no external surface source.
func localRequest(b base, l *xrlayer.Layer, faces uint32) (xrlayer.SwapchainRequest, bool) {
	if l.Textures == nil || l.Textures.Source != xrlayer.SourceLocal {
		return xrlayer.SwapchainRequest{}, false
	}
	return b.textureRequest(l, faces)
}
