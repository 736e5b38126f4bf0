// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layers

import (
	"github.com/gogpu/xrlayer"
	"github.com/gogpu/xrlayer/native"
)

// Projection builds stereo projection layers for both TypeProjection and
// TypeProjectionRig. Plain projection layers copy a left and right source
// texture into a stereo swapchain. Rig layers are rendered straight into
// the swapchain and need the runtime's per-eye views every frame.
type Projection struct {
	base
	locator xrlayer.ViewLocator
}

// NewProjection returns the projection strategy. Per-eye poses come from rt
// when it implements xrlayer.ViewLocator.
func NewProjection(rt xrlayer.Runtime, opts Options) *Projection {
	p := &Projection{base: newBase(rt, opts)}
	p.locator, _ = rt.(xrlayer.ViewLocator)
	return p
}

func isRig(info xrlayer.LayerInfo) bool { return info.Type == xrlayer.TypeProjectionRig }

// viewSize returns the per-eye image size from the runtime's view
// configuration scaled by the layer's render scale.
func (p *Projection) viewSize(l *xrlayer.Layer) (w, h, samples uint32, ok bool) {
	vc, ok := p.rt.ViewConfiguration()
	if !ok || vc.Width == 0 || vc.Height == 0 {
		return 0, 0, 0, false
	}
	scale := l.Shape.Projection.RenderScale
	if scale <= 0 {
		scale = 1
	}
	w = max(uint32(float32(vc.Width)*scale), 1)
	h = max(uint32(float32(vc.Height)*scale), 1)
	return w, h, max(vc.SampleCount, 1), true
}

func (p *Projection) BuildSwapchainRequest(info xrlayer.LayerInfo) (xrlayer.SwapchainRequest, bool) {
	w, h, samples, ok := p.viewSize(info.Layer)
	if !ok {
		return xrlayer.SwapchainRequest{}, false
	}
	if !isRig(info) {
		t := info.Layer.Textures
		if t == nil || t.Left == nil || t.Right == nil {
			return xrlayer.SwapchainRequest{}, false
		}
	}
	format, ok := p.rt.DefaultColorFormat()
	if !ok {
		return xrlayer.SwapchainRequest{}, false
	}
	return xrlayer.SwapchainRequest{
		Usage:       xrlayer.SwapchainUsage,
		Format:      format,
		SampleCount: samples,
		Width:       w,
		Height:      h,
		FaceCount:   1,
		ArraySize:   1,
		MipCount:    1,
		Stereo:      true,
	}, true
}

func (p *Projection) BuildNativeRecord(info xrlayer.LayerInfo, out xrlayer.SwapchainOutput) (native.CompositionLayerProjection, bool) {
	if out.SecondStereoHandle == 0 {
		return native.CompositionLayerProjection{}, false
	}
	w, h, _, ok := p.viewSize(info.Layer)
	if !ok {
		return native.CompositionLayerProjection{}, false
	}
	rec := native.CompositionLayerProjection{
		Header:    p.header(native.TypeCompositionLayerProjection, info.Layer),
		ViewCount: 2,
	}
	for eye, handle := range [2]xrlayer.SwapchainHandle{out.Handle, out.SecondStereoHandle} {
		rec.Views[eye] = native.CompositionLayerProjectionView{
			Type:     native.TypeCompositionLayerProjectionView,
			Pose:     toPosef(xrlayer.IdentityPose()),
			SubImage: native.FullImage(uint64(handle), int32(w), int32(h)),
		}
	}
	p.locate(&rec)
	return rec, true
}

func (p *Projection) PatchNativeRecord(info xrlayer.LayerInfo, rec *native.CompositionLayerProjection) bool {
	rec.Header = p.header(native.TypeCompositionLayerProjection, info.Layer)
	return true
}

// ActivatePatch updates the per-eye views. Rig layers are skipped for the
// frame when the runtime cannot locate the views.
func (p *Projection) ActivatePatch(info xrlayer.LayerInfo, rec *native.CompositionLayerProjection) bool {
	if p.locate(rec) {
		return true
	}
	return !isRig(info)
}

func (p *Projection) locate(rec *native.CompositionLayerProjection) bool {
	if p.locator == nil {
		return false
	}
	views, ok := p.locator.LocateViews()
	if !ok {
		return false
	}
	for eye, v := range views {
		rec.Views[eye].Pose = toPosef(v.Pose)
		rec.Views[eye].Fov = native.Fovf{
			AngleLeft:  v.Fov.Left,
			AngleRight: v.Fov.Right,
			AngleUp:    v.Fov.Up,
			AngleDown:  v.Fov.Down,
		}
	}
	return true
}
