// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xrlayer

import (
	"unsafe"

	"github.com/gogpu/gputypes"
)

// SwapchainHandle is an opaque compositor swapchain handle.
type SwapchainHandle uint64

// SpaceHandle is an opaque compositor reference space handle.
type SpaceHandle uint64

// SwapchainUsage is the usage every layer swapchain is created with: sampled
// by the compositor and written by the application.
const SwapchainUsage = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopyDst

// SwapchainRequest describes one swapchain to create.
type SwapchainRequest struct {
	ID LayerID
	// Ticket is assigned by the Handler; the runtime echoes it back.
	Ticket      uint64
	Usage       gputypes.TextureUsage
	Format      gputypes.TextureFormat
	SampleCount uint32
	Width       uint32
	Height      uint32
	FaceCount   uint32
	ArraySize   uint32
	MipCount    uint32
	// Stereo asks for a second swapchain for the right eye.
	Stereo bool
	// ExternalSurface asks for a compositor-owned surface instead of images.
	ExternalSurface bool
}

// Extent returns the request size as a texture extent.
func (r SwapchainRequest) Extent() gputypes.Extent3D {
	layers := r.ArraySize * r.FaceCount
	if layers == 0 {
		layers = 1
	}
	return gputypes.Extent3D{Width: r.Width, Height: r.Height, DepthOrArrayLayers: layers}
}

// SwapchainOutput is the result of an asynchronous swapchain creation.
type SwapchainOutput struct {
	Handle SwapchainHandle
	// SecondStereoHandle is set for stereo requests.
	SecondStereoHandle SwapchainHandle
}

// SwapchainCallback receives creation results on a runtime worker goroutine.
type SwapchainCallback func(id LayerID, ticket uint64, out SwapchainOutput)

// Batch is the live prefix of one SubmissionBuffer: Count records of a single
// layout followed by their draw orders.
type Batch struct {
	// Records holds a []T slice of length Count.
	Records any
	Orders  []int32
	Count   int
	// Stride is the byte size of one record.
	Stride uintptr
}

// BatchRecords returns the records of b as []T, or nil if b holds another layout.
func BatchRecords[T any](b Batch) []T {
	recs, _ := b.Records.([]T)
	return recs
}

// ViewConfig is the runtime's recommended per-eye image configuration.
type ViewConfig struct {
	Width       uint32
	Height      uint32
	SampleCount uint32
}

// Fov is a field of view as four half-angles in radians.
type Fov struct {
	Left, Right, Up, Down float32
}

// View is one eye's pose and field of view.
type View struct {
	Pose Pose
	Fov  Fov
}

// Runtime is the compositor interop boundary.
//
// CreateSwapchain returns immediately; done is invoked later from an
// arbitrary goroutine. Every other method is called on the update goroutine.
type Runtime interface {
	CreateSwapchain(req SwapchainRequest, done SwapchainCallback)
	ReleaseSwapchain(id LayerID)
	SubmitLayers(b Batch) error
	CurrentSpace() (SpaceHandle, bool)
	DefaultColorFormat() (gputypes.TextureFormat, bool)
	ViewConfiguration() (ViewConfig, bool)
}

// TextureWriter is implemented by runtimes that copy application textures
// into a layer's swapchain image.
type TextureWriter interface {
	WriteTexture(id LayerID, eye int, tex *Texture) error
}

// Capabilities is implemented by runtimes that report enabled extensions and
// their version.
type Capabilities interface {
	ExtensionEnabled(name string) bool
	Version() string
}

// ViewLocator is implemented by runtimes that report per-eye views for the
// upcoming frame.
type ViewLocator interface {
	LocateViews() ([2]View, bool)
}

// DefaultLayerConfigurer is implemented by runtimes whose default scene layer
// takes blend flags.
type DefaultLayerConfigurer interface {
	SetDefaultLayerFlags(flags uint64)
}

func strideOf[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}
