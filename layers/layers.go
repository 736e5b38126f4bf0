// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package layers provides the built-in layer strategies: quad, cylinder,
// equirect, cube, stereo projection and projection rig, plus the handler of
// the default scene layer.
//
// RegisterBuiltins wires all of them into a Registry for a given Runtime.
// Embedding applications override any of them by registering their own
// handler under the same TypeKey, typically from a WithOnStarted hook.
package layers

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/xrlayer"
	"github.com/gogpu/xrlayer/native"
)

// Extension names probed through xrlayer.Capabilities.
const (
	ExtCylinder  = "XR_KHR_composition_layer_cylinder"
	ExtCube      = "XR_KHR_composition_layer_cube"
	ExtEquirect  = "XR_KHR_composition_layer_equirect"
	ExtEquirect2 = "XR_KHR_composition_layer_equirect2"
)

// DefaultCubeConstraint is the runtime version range with cube map support.
const DefaultCubeConstraint = ">= 1.0.0"

// Options configures the built-in strategies.
type Options struct {
	// Origin is the pose of the tracking space in world space. Layer poses
	// are submitted relative to it. The zero value means identity.
	Origin xrlayer.Pose

	// CubeConstraint is a semantic version constraint the runtime version
	// must satisfy for cube layers. Empty selects DefaultCubeConstraint.
	CubeConstraint string

	// MaxLayers bounds the active layers per type and frame.
	MaxLayers int
}

func (o Options) origin() xrlayer.Pose {
	if o.Origin.Rotation == (xrlayer.Quat{}) {
		o.Origin.Rotation = xrlayer.IdentityQuat()
	}
	return o.Origin
}

// base carries what every built-in strategy needs.
type base struct {
	rt     xrlayer.Runtime
	origin xrlayer.Pose
}

func newBase(rt xrlayer.Runtime, opts Options) base {
	return base{rt: rt, origin: opts.origin()}
}

// header returns the record header with the current space and blend flags.
func (b base) header(t native.StructureType, l *xrlayer.Layer) native.Header {
	space, _ := b.rt.CurrentSpace()
	return native.Header{
		Type:       t,
		LayerFlags: native.BlendFlags(l.Blend == xrlayer.BlendPremultiply),
		Space:      uint64(space),
	}
}

// pose converts a world transform into the tracking space.
func (b base) pose(tr xrlayer.Transform) native.Posef {
	return toPosef(b.origin.Inverse().Mul(tr.Pose()))
}

func toPosef(p xrlayer.Pose) native.Posef {
	return native.Posef{
		Orientation: native.Quaternionf{X: p.Rotation.X, Y: p.Rotation.Y, Z: p.Rotation.Z, W: p.Rotation.W},
		Position:    native.Vector3f{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z},
	}
}

// textureRequest builds the swapchain request for a layer sampling one
// source texture. External surfaces get an undefined format and the
// configured resolution.
func (b base) textureRequest(l *xrlayer.Layer, faces uint32) (xrlayer.SwapchainRequest, bool) {
	t := l.Textures
	if t == nil {
		return xrlayer.SwapchainRequest{}, false
	}
	if t.Source == xrlayer.SourceExternalSurface {
		if t.Resolution.X < 1 || t.Resolution.Y < 1 {
			return xrlayer.SwapchainRequest{}, false
		}
		return xrlayer.SwapchainRequest{
			Usage:           xrlayer.SwapchainUsage,
			Format:          gputypes.TextureFormatUndefined,
			Width:           uint32(t.Resolution.X),
			Height:          uint32(t.Resolution.Y),
			ExternalSurface: true,
		}, true
	}
	tex := t.Left
	if tex == nil || tex.Width <= 0 || tex.Height <= 0 {
		return xrlayer.SwapchainRequest{}, false
	}
	format, ok := b.rt.DefaultColorFormat()
	if !ok {
		return xrlayer.SwapchainRequest{}, false
	}
	return xrlayer.SwapchainRequest{
		Usage:       xrlayer.SwapchainUsage,
		Format:      format,
		SampleCount: 1,
		Width:       uint32(tex.Width),
		Height:      uint32(tex.Height),
		FaceCount:   faces,
		ArraySize:   1,
		MipCount:    uint32(max(tex.MipCount, 1)),
	}, true
}

// sourceSize returns the pixel size of the layer's source.
func sourceSize(l *xrlayer.Layer) (w, h int, ok bool) {
	t := l.Textures
	switch {
	case t == nil:
		return 0, 0, false
	case t.Source == xrlayer.SourceExternalSurface:
		w, h = int(t.Resolution.X), int(t.Resolution.Y)
	case t.Left != nil:
		w, h = t.Left.Width, t.Left.Height
	}
	return w, h, w > 0 && h > 0
}

// subImage selects the sampled region: the whole image, or the source rect
// when custom rects are enabled.
func subImage(handle xrlayer.SwapchainHandle, l *xrlayer.Layer, w, h int) native.SwapchainSubImage {
	sub := native.FullImage(uint64(handle), int32(w), int32(h))
	if t := l.Textures; t != nil && t.CustomRects {
		r := t.SourceRect
		sub.ImageRect = native.Rect2Di{
			Offset: native.Offset2Di{X: int32(r.X * float32(w)), Y: int32(r.Y * float32(h))},
			Extent: native.Extent2Di{Width: int32(r.Width * float32(w)), Height: int32(r.Height * float32(h))},
		}
	}
	return sub
}

// RegisterBuiltins registers the built-in handlers for rt. Runtimes that
// implement xrlayer.Capabilities only get cylinder, cube and equirect
// handlers for the extensions they enable; equirect layers use the equirect2
// record when that extension is enabled. Cube layers are also declined
// unless the runtime version satisfies Options.CubeConstraint.
func RegisterBuiltins(reg *xrlayer.Registry, rt xrlayer.Runtime, opts Options) error {
	cubeOK, err := cubeSupported(rt, opts.CubeConstraint)
	if err != nil {
		return err
	}
	limit := xrlayer.WithMaxLayers(opts.MaxLayers)

	reg.Register(xrlayer.TypeDefault, NewDefaultLayer(rt))
	reg.Register(xrlayer.TypeQuad, xrlayer.NewHandler[native.CompositionLayerQuad](rt, NewQuad(rt, opts), xrlayer.WithName("quad"), limit))

	caps, hasCaps := rt.(xrlayer.Capabilities)
	enabled := func(ext string) bool { return !hasCaps || caps.ExtensionEnabled(ext) }

	if enabled(ExtCylinder) {
		reg.Register(xrlayer.TypeCylinder, xrlayer.NewHandler[native.CompositionLayerCylinder](rt, NewCylinder(rt, opts), xrlayer.WithName("cylinder"), limit))
	} else {
		xrlayer.Logger().Info("layers: cylinder layers unsupported by runtime")
	}

	switch {
	case hasCaps && caps.ExtensionEnabled(ExtEquirect2):
		reg.Register(xrlayer.TypeEquirect, xrlayer.NewHandler[native.CompositionLayerEquirect2](rt, NewEquirect2(rt, opts), xrlayer.WithName("equirect2"), limit))
	case enabled(ExtEquirect):
		reg.Register(xrlayer.TypeEquirect, xrlayer.NewHandler[native.CompositionLayerEquirect](rt, NewEquirect(rt, opts), xrlayer.WithName("equirect"), limit))
	default:
		xrlayer.Logger().Info("layers: equirect layers unsupported by runtime")
	}

	if enabled(ExtCube) {
		reg.Register(xrlayer.TypeCube, xrlayer.NewHandler[native.CompositionLayerCube](rt, NewCube(rt, opts, cubeOK), xrlayer.WithName("cube"), limit))
	} else {
		xrlayer.Logger().Info("layers: cube layers unsupported by runtime")
	}

	proj := xrlayer.NewHandler[native.CompositionLayerProjection](rt, NewProjection(rt, opts), xrlayer.WithName("projection"), limit)
	reg.Register(xrlayer.TypeProjection, proj)
	reg.Register(xrlayer.TypeProjectionRig, proj)
	return nil
}

// cubeSupported checks the runtime version against constraint. Runtimes
// that do not report a version are assumed to support cube layers.
func cubeSupported(rt xrlayer.Runtime, constraint string) (bool, error) {
	if constraint == "" {
		constraint = DefaultCubeConstraint
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("layers: cube constraint %q: %w", constraint, err)
	}
	caps, ok := rt.(xrlayer.Capabilities)
	if !ok {
		return true, nil
	}
	v, err := semver.NewVersion(caps.Version())
	if err != nil {
		xrlayer.Logger().Warn("layers: unparsable runtime version, cube layers disabled",
			"version", caps.Version(), "error", err)
		return false, nil
	}
	return c.Check(v), nil
}
