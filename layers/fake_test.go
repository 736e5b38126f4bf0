// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layers

import (
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/xrlayer"
	"github.com/gogpu/xrlayer/native"
)

// fakeRuntime completes swapchain creation inline and records submissions.
type fakeRuntime struct {
	version    string
	extensions []string
	views      [2]xrlayer.View
	viewsOK    bool

	requests     []xrlayer.SwapchainRequest
	frames       [][]native.Summary
	orders       [][]int32
	defaultFlags []uint64
	handle       xrlayer.SwapchainHandle
}

func (f *fakeRuntime) CreateSwapchain(req xrlayer.SwapchainRequest, done xrlayer.SwapchainCallback) {
	f.requests = append(f.requests, req)
	f.handle++
	out := xrlayer.SwapchainOutput{Handle: f.handle}
	if req.Stereo {
		f.handle++
		out.SecondStereoHandle = f.handle
	}
	done(req.ID, req.Ticket, out)
}

func (f *fakeRuntime) ReleaseSwapchain(xrlayer.LayerID) {}

func (f *fakeRuntime) SubmitLayers(b xrlayer.Batch) error {
	f.frames = append(f.frames, native.Summarize(b.Records))
	f.orders = append(f.orders, slices.Clone(b.Orders))
	return nil
}

func (f *fakeRuntime) CurrentSpace() (xrlayer.SpaceHandle, bool) { return 42, true }

func (f *fakeRuntime) DefaultColorFormat() (gputypes.TextureFormat, bool) {
	return gputypes.TextureFormatBGRA8Unorm, true
}

func (f *fakeRuntime) ViewConfiguration() (xrlayer.ViewConfig, bool) {
	return xrlayer.ViewConfig{Width: 1000, Height: 800, SampleCount: 4}, true
}

func (f *fakeRuntime) LocateViews() ([2]xrlayer.View, bool) { return f.views, f.viewsOK }

func (f *fakeRuntime) SetDefaultLayerFlags(flags uint64) {
	f.defaultFlags = append(f.defaultFlags, flags)
}

// capsRuntime adds xrlayer.Capabilities.
type capsRuntime struct {
	*fakeRuntime
}

func (c capsRuntime) ExtensionEnabled(name string) bool { return slices.Contains(c.extensions, name) }
func (c capsRuntime) Version() string                   { return c.version }

func newTexture(w, h int) *xrlayer.Texture {
	return &xrlayer.Texture{Name: "tex", Width: w, Height: h, MipCount: 3}
}

func layerInfo(id xrlayer.LayerID, key xrlayer.TypeKey, l *xrlayer.Layer) xrlayer.LayerInfo {
	return xrlayer.LayerInfo{ID: id, Type: key, Order: int32(id), Layer: l}
}

func texturedLayer(tex *xrlayer.Texture) *xrlayer.Layer {
	return &xrlayer.Layer{
		Transform: xrlayer.Transform{Rotation: xrlayer.IdentityQuat(), Scale: xrlayer.Vec3{X: 1, Y: 1, Z: 1}},
		Textures:  &xrlayer.Textures{Left: tex},
	}
}
