// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package native defines the fixed-layout layer records exchanged with the
// compositor runtime.
//
// Records are plain values without pointers so a SubmissionBuffer can copy
// them into contiguous arrays. Field order follows the compositor's wire
// layout; projection records embed their two views instead of pointing at
// them.
package native

import "fmt"

// StructureType tags each record with its wire type.
type StructureType uint32

const (
	TypeView                           StructureType = 7
	TypeSwapchainCreateInfo            StructureType = 9
	TypeCompositionLayerProjection     StructureType = 35
	TypeCompositionLayerQuad           StructureType = 36
	TypeCompositionLayerProjectionView StructureType = 48
	TypeCompositionLayerCube           StructureType = 1000006000
	TypeCompositionLayerCylinder       StructureType = 1000017000
	TypeCompositionLayerEquirect       StructureType = 1000018000
	TypeCompositionLayerEquirect2      StructureType = 1000091000
)

func (t StructureType) String() string {
	switch t {
	case TypeView:
		return "View"
	case TypeSwapchainCreateInfo:
		return "SwapchainCreateInfo"
	case TypeCompositionLayerProjection:
		return "CompositionLayerProjection"
	case TypeCompositionLayerQuad:
		return "CompositionLayerQuad"
	case TypeCompositionLayerProjectionView:
		return "CompositionLayerProjectionView"
	case TypeCompositionLayerCube:
		return "CompositionLayerCube"
	case TypeCompositionLayerCylinder:
		return "CompositionLayerCylinder"
	case TypeCompositionLayerEquirect:
		return "CompositionLayerEquirect"
	case TypeCompositionLayerEquirect2:
		return "CompositionLayerEquirect2"
	}
	return fmt.Sprintf("StructureType(%d)", uint32(t))
}

// LayerFlags is a bit set of per-layer blend options.
type LayerFlags uint64

const (
	FlagCorrectChromaticAberration LayerFlags = 1 << iota
	FlagSourceAlpha
	FlagUnpremultipliedAlpha
)

// EyeVisibility selects which eyes see a layer.
type EyeVisibility uint32

const (
	EyeBoth EyeVisibility = iota
	EyeLeft
	EyeRight
)

type Vector2f struct{ X, Y float32 }

type Vector3f struct{ X, Y, Z float32 }

type Quaternionf struct{ X, Y, Z, W float32 }

type Posef struct {
	Orientation Quaternionf
	Position    Vector3f
}

type Extent2Df struct{ Width, Height float32 }

type Offset2Di struct{ X, Y int32 }

type Extent2Di struct{ Width, Height int32 }

type Rect2Di struct {
	Offset Offset2Di
	Extent Extent2Di
}

// Fovf holds four half-angles in radians; Left and Down are negative for
// a symmetric frustum.
type Fovf struct {
	AngleLeft, AngleRight, AngleUp, AngleDown float32
}

// SwapchainSubImage selects the image region a layer samples.
type SwapchainSubImage struct {
	Swapchain       uint64
	ImageRect       Rect2Di
	ImageArrayIndex uint32
}

// Header is the prefix shared by every composition layer record.
type Header struct {
	Type       StructureType
	LayerFlags LayerFlags
	Space      uint64
}

type CompositionLayerQuad struct {
	Header
	EyeVisibility EyeVisibility
	SubImage      SwapchainSubImage
	Pose          Posef
	Size          Extent2Df
}

type CompositionLayerCylinder struct {
	Header
	EyeVisibility EyeVisibility
	SubImage      SwapchainSubImage
	Pose          Posef
	Radius        float32
	CentralAngle  float32
	AspectRatio   float32
}

type CompositionLayerEquirect struct {
	Header
	EyeVisibility EyeVisibility
	SubImage      SwapchainSubImage
	Pose          Posef
	Radius        float32
	Scale         Vector2f
	Bias          Vector2f
}

type CompositionLayerEquirect2 struct {
	Header
	EyeVisibility          EyeVisibility
	SubImage               SwapchainSubImage
	Pose                   Posef
	Radius                 float32
	CentralHorizontalAngle float32
	UpperVerticalAngle     float32
	LowerVerticalAngle     float32
}

type CompositionLayerCube struct {
	Header
	EyeVisibility   EyeVisibility
	Swapchain       uint64
	ImageArrayIndex uint32
	Orientation     Quaternionf
}

type CompositionLayerProjectionView struct {
	Type     StructureType
	Pose     Posef
	Fov      Fovf
	SubImage SwapchainSubImage
}

type CompositionLayerProjection struct {
	Header
	ViewCount uint32
	Views     [2]CompositionLayerProjectionView
}

// FullImage returns a sub-image covering a whole width x height swapchain.
func FullImage(swapchain uint64, width, height int32) SwapchainSubImage {
	return SwapchainSubImage{
		Swapchain: swapchain,
		ImageRect: Rect2Di{Extent: Extent2Di{Width: width, Height: height}},
	}
}

// BlendFlags returns the flags for a layer with alpha; straight alpha also
// sets FlagUnpremultipliedAlpha.
func BlendFlags(premultiplied bool) LayerFlags {
	if premultiplied {
		return FlagSourceAlpha
	}
	return FlagSourceAlpha | FlagUnpremultipliedAlpha
}

// Has reports whether all bits of o are set.
func (f LayerFlags) Has(o LayerFlags) bool { return f&o == o }

// Summary is the layout-independent view of one record.
type Summary struct {
	Type       StructureType
	Flags      LayerFlags
	Space      uint64
	Swapchains [2]uint64
	Extent     Extent2Di
}

// Summarize describes every record of a []CompositionLayerX slice. It
// returns nil for slices of other types.
func Summarize(records any) []Summary {
	switch recs := records.(type) {
	case []CompositionLayerQuad:
		return summarize(recs, func(r CompositionLayerQuad) Summary {
			return subImageSummary(r.Header, r.SubImage)
		})
	case []CompositionLayerCylinder:
		return summarize(recs, func(r CompositionLayerCylinder) Summary {
			return subImageSummary(r.Header, r.SubImage)
		})
	case []CompositionLayerEquirect:
		return summarize(recs, func(r CompositionLayerEquirect) Summary {
			return subImageSummary(r.Header, r.SubImage)
		})
	case []CompositionLayerEquirect2:
		return summarize(recs, func(r CompositionLayerEquirect2) Summary {
			return subImageSummary(r.Header, r.SubImage)
		})
	case []CompositionLayerCube:
		return summarize(recs, func(r CompositionLayerCube) Summary {
			return Summary{Type: r.Type, Flags: r.LayerFlags, Space: r.Space, Swapchains: [2]uint64{r.Swapchain}}
		})
	case []CompositionLayerProjection:
		return summarize(recs, func(r CompositionLayerProjection) Summary {
			s := subImageSummary(r.Header, r.Views[0].SubImage)
			if r.ViewCount > 1 {
				s.Swapchains[1] = r.Views[1].SubImage.Swapchain
			}
			return s
		})
	}
	return nil
}

func summarize[T any](recs []T, fn func(T) Summary) []Summary {
	out := make([]Summary, len(recs))
	for i, r := range recs {
		out[i] = fn(r)
	}
	return out
}

func subImageSummary(h Header, sub SwapchainSubImage) Summary {
	return Summary{
		Type:       h.Type,
		Flags:      h.LayerFlags,
		Space:      h.Space,
		Swapchains: [2]uint64{sub.Swapchain},
		Extent:     sub.ImageRect.Extent,
	}
}
