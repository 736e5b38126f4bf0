// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xrlayer

import (
	"errors"
	"slices"
	"sync"

	"github.com/gogpu/gputypes"
)

// testRecord stands in for a native layer record.
type testRecord struct {
	ID      LayerID
	Handle  SwapchainHandle
	Width   int
	Patches int
	Frames  int
}

type heldCreate struct {
	req  SwapchainRequest
	done SwapchainCallback
}

type submitted struct {
	records []testRecord
	orders  []int32
	stride  uintptr
}

type textureWrite struct {
	id  LayerID
	eye int
	tex *Texture
}

// fakeRuntime holds swapchain callbacks until the test completes them.
type fakeRuntime struct {
	mu        sync.Mutex
	held      []heldCreate
	requests  []SwapchainRequest
	released  []LayerID
	batches   []submitted
	writes    []textureWrite
	handle    SwapchainHandle
	submitErr error
}

func (f *fakeRuntime) CreateSwapchain(req SwapchainRequest, done SwapchainCallback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.held = append(f.held, heldCreate{req: req, done: done})
}

func (f *fakeRuntime) ReleaseSwapchain(id LayerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, id)
}

func (f *fakeRuntime) SubmitLayers(b Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.batches = append(f.batches, submitted{
		records: slices.Clone(BatchRecords[testRecord](b)),
		orders:  slices.Clone(b.Orders),
		stride:  b.Stride,
	})
	return nil
}

func (f *fakeRuntime) CurrentSpace() (SpaceHandle, bool) { return 1, true }

func (f *fakeRuntime) DefaultColorFormat() (gputypes.TextureFormat, bool) {
	return gputypes.TextureFormatRGBA8Unorm, true
}

func (f *fakeRuntime) ViewConfiguration() (ViewConfig, bool) {
	return ViewConfig{Width: 1024, Height: 1024, SampleCount: 1}, true
}

func (f *fakeRuntime) WriteTexture(id LayerID, eye int, tex *Texture) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, textureWrite{id: id, eye: eye, tex: tex})
	return nil
}

// completeAll fires every held callback, as a worker goroutine would.
func (f *fakeRuntime) completeAll() {
	f.mu.Lock()
	held := f.held
	f.held = nil
	f.mu.Unlock()
	for _, hc := range held {
		f.fire(hc)
	}
}

// takeHeld removes and returns the held creations without firing them.
func (f *fakeRuntime) takeHeld() []heldCreate {
	f.mu.Lock()
	defer f.mu.Unlock()
	held := f.held
	f.held = nil
	return held
}

func (f *fakeRuntime) fire(hc heldCreate) {
	f.mu.Lock()
	f.handle++
	out := SwapchainOutput{Handle: f.handle}
	if hc.req.Stereo {
		f.handle++
		out.SecondStereoHandle = f.handle
	}
	f.mu.Unlock()
	hc.done(hc.req.ID, hc.req.Ticket, out)
}

func (f *fakeRuntime) lastBatch() (submitted, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		return submitted{}, false
	}
	return f.batches[len(f.batches)-1], true
}

func (f *fakeRuntime) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

var errRuntimeGone = errors.New("runtime gone")

// testStrategy needs a source texture before it requests a swapchain.
type testStrategy struct {
	declineBuild    bool
	declinePatch    bool
	declineActivate map[LayerID]bool
	builds          int
}

func (s *testStrategy) BuildSwapchainRequest(info LayerInfo) (SwapchainRequest, bool) {
	tex := info.Layer.Texture()
	if tex == nil {
		return SwapchainRequest{}, false
	}
	return SwapchainRequest{
		Usage:       SwapchainUsage,
		Format:      gputypes.TextureFormatRGBA8Unorm,
		SampleCount: 1,
		Width:       uint32(tex.Width),
		Height:      uint32(tex.Height),
		FaceCount:   1,
		ArraySize:   1,
		MipCount:    1,
	}, true
}

func (s *testStrategy) BuildNativeRecord(info LayerInfo, out SwapchainOutput) (testRecord, bool) {
	tex := info.Layer.Texture()
	if s.declineBuild || tex == nil {
		return testRecord{}, false
	}
	s.builds++
	return testRecord{ID: info.ID, Handle: out.Handle, Width: tex.Width}, true
}

func (s *testStrategy) PatchNativeRecord(info LayerInfo, rec *testRecord) bool {
	if s.declinePatch {
		rec.Patches = -1
		return false
	}
	rec.Patches++
	return true
}

func (s *testStrategy) ActivatePatch(info LayerInfo, rec *testRecord) bool {
	if s.declineActivate[info.ID] {
		return false
	}
	rec.Frames++
	return true
}

func newTexture(name string, w, h int) *Texture {
	return &Texture{Name: name, Width: w, Height: h, MipCount: 1}
}

func quadInfo(id LayerID, order int32, tex *Texture) LayerInfo {
	l := &Layer{Name: "quad", Shape: Shape{Quad: QuadShape{Size: Vec2{1, 1}}}}
	if tex != nil {
		l.Textures = &Textures{Left: tex}
	}
	return LayerInfo{ID: id, Type: TypeQuad, Order: order, Layer: l}
}
