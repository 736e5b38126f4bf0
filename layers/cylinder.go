// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layers

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/xrlayer"
	"github.com/gogpu/xrlayer/native"
)

// Cylinder builds layers on the inside of a cylinder section.
type Cylinder struct {
	base
}

// NewCylinder returns the cylinder strategy.
func NewCylinder(rt xrlayer.Runtime, opts Options) *Cylinder {
	return &Cylinder{base: newBase(rt, opts)}
}

func (c *Cylinder) BuildSwapchainRequest(info xrlayer.LayerInfo) (xrlayer.SwapchainRequest, bool) {
	return c.textureRequest(info.Layer, 1)
}

func (c *Cylinder) BuildNativeRecord(info xrlayer.LayerInfo, out xrlayer.SwapchainOutput) (native.CompositionLayerCylinder, bool) {
	rec := native.CompositionLayerCylinder{EyeVisibility: native.EyeBoth}
	rec.SubImage.Swapchain = uint64(out.Handle)
	if !c.PatchNativeRecord(info, &rec) {
		return native.CompositionLayerCylinder{}, false
	}
	return rec, true
}

func (c *Cylinder) PatchNativeRecord(info xrlayer.LayerInfo, rec *native.CompositionLayerCylinder) bool {
	w, h, ok := sourceSize(info.Layer)
	if !ok {
		return false
	}
	size := cylinderSize(info.Layer, w, h)
	if size.Radius <= 0 || size.CentralAngle <= 0 || size.AspectRatio <= 0 {
		return false
	}
	rec.Header = c.header(native.TypeCompositionLayerCylinder, info.Layer)
	rec.SubImage = subImage(xrlayer.SwapchainHandle(rec.SubImage.Swapchain), info.Layer, w, h)
	rec.Pose = c.activePose(info.Layer)
	rec.Radius = size.Radius
	rec.CentralAngle = size.CentralAngle
	rec.AspectRatio = size.AspectRatio
	return true
}

// ActivatePatch refreshes the pose every frame.
func (c *Cylinder) ActivatePatch(info xrlayer.LayerInfo, rec *native.CompositionLayerCylinder) bool {
	rec.Pose = c.activePose(info.Layer)
	return true
}

// activePose returns the tracking space pose. With custom rects the layer
// is turned around the up axis so the destination rect is centered: the
// rect's horizontal offset from the middle, as a fraction of the arc, times
// the central angle.
func (c *Cylinder) activePose(l *xrlayer.Layer) native.Posef {
	tr := l.Transform
	if t := l.Textures; t != nil && t.CustomRects {
		dr := t.DestRect
		delta := (dr.X + 0.5*dr.Width - 0.5) * l.Shape.Cylinder.CentralAngle / math32.Pi * 180
		if delta != 0 {
			tr.Rotation = tr.Rotation.Normalize().Mul(xrlayer.AngleAxis(delta, xrlayer.Up))
		}
	}
	return c.pose(tr)
}

// cylinderSize returns the shape parameters, optionally scaled by the
// transform and cropped to the source aspect ratio.
func cylinderSize(l *xrlayer.Layer, texW, texH int) xrlayer.CylinderShape {
	s := l.Shape.Cylinder
	if s.ApplyTransformScale {
		sx, sy := l.Transform.Scale.X, l.Transform.Scale.Y
		s.Radius *= sx
		if sy != 0 {
			s.AspectRatio *= sx / sy
		}
	}
	if l.Textures == nil || !l.Textures.CropToAspect || texH == 0 || s.Radius == 0 || s.AspectRatio == 0 {
		return s
	}
	texRatio := float32(texW) / float32(texH)
	switch {
	case s.AspectRatio > texRatio:
		// Too wide: keep the height, shrink the arc.
		height := s.Radius * s.CentralAngle / s.AspectRatio
		s.CentralAngle = height * texRatio / s.Radius
		s.AspectRatio = texRatio
	case s.AspectRatio < texRatio:
		s.AspectRatio = texRatio
	}
	return s
}
