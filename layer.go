// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xrlayer

import "image"

// BlendType selects how the compositor blends a layer's color.
type BlendType uint8

const (
	// BlendAlpha treats layer colors as straight (non-premultiplied) alpha.
	BlendAlpha BlendType = iota
	// BlendPremultiply treats layer colors as premultiplied alpha.
	BlendPremultiply
)

// String returns "alpha" or "premultiply".
func (b BlendType) String() string {
	if b == BlendPremultiply {
		return "premultiply"
	}
	return "alpha"
}

// Transform places a layer in world space.
type Transform struct {
	Position Vec3
	Rotation Quat
	Scale    Vec3
}

// Pose returns the translation and rotation of t, normalizing the rotation.
func (t Transform) Pose() Pose {
	return Pose{Position: t.Position, Rotation: t.Rotation.Normalize()}
}

// Layer is the shape-specific description of one composition layer.
type Layer struct {
	Name      string
	Transform Transform
	Blend     BlendType
	Textures  *Textures
	Shape     Shape
}

// Shape is a tagged union of the per-shape parameters. Only the member that
// matches the owning LayerInfo.Type is read.
type Shape struct {
	Quad       QuadShape
	Cylinder   CylinderShape
	Equirect   EquirectShape
	Projection ProjectionShape
}

// QuadShape is a flat rectangle.
type QuadShape struct {
	// Size in meters before transform scale.
	Size Vec2
	// ApplyTransformScale multiplies Size by the transform's X/Y scale.
	ApplyTransformScale bool
}

// CylinderShape is a section of a cylinder seen from the inside.
type CylinderShape struct {
	Radius float32
	// CentralAngle is the arc in radians.
	CentralAngle float32
	AspectRatio  float32
	// ApplyTransformScale multiplies Radius by the transform's X scale.
	ApplyTransformScale bool
}

// EquirectShape is a section of a sphere mapped with an equirectangular texture.
type EquirectShape struct {
	Radius                 float32
	CentralHorizontalAngle float32
	UpperVerticalAngle     float32
	LowerVerticalAngle     float32
}

// ProjectionShape controls stereo projection layers.
type ProjectionShape struct {
	// RenderScale scales the runtime's recommended per-eye resolution.
	// Zero means 1.
	RenderScale float32
}

// SourceKind selects where a layer's pixels come from.
type SourceKind uint8

const (
	// SourceLocal copies application textures into the swapchain.
	SourceLocal SourceKind = iota
	// SourceExternalSurface lets a platform producer (video decoder,
	// embedded browser) render into a compositor-owned surface.
	SourceExternalSurface
)

// Texture is an application-side source image. Identity is by pointer: a new
// *Texture with the same dimensions counts as a content change, a new
// *Texture with different dimensions forces a swapchain recreation.
type Texture struct {
	Name     string
	Width    int
	Height   int
	MipCount int
	Image    image.Image
}

// Size returns the texture's dimensions.
func (t *Texture) Size() image.Point {
	if t == nil {
		return image.Point{}
	}
	return image.Pt(t.Width, t.Height)
}

// Textures describes the source textures and sampling rectangles of a layer.
type Textures struct {
	Source SourceKind
	Left   *Texture
	// Right is used by stereo layers; nil means mono.
	Right *Texture
	// Resolution sizes an external surface.
	Resolution Vec2
	// CropToAspect fits the layer's shape to the source aspect ratio.
	CropToAspect bool
	// CustomRects enables SourceRect and DestRect.
	CustomRects bool
	SourceRect  Rect
	DestRect    Rect
	// Video marks sources whose content changes every frame.
	Video bool
	// Interactive marks sources (UI panels) re-rendered every frame.
	Interactive bool
}

// Dynamic reports whether the source must be re-copied every frame.
func (t *Textures) Dynamic() bool {
	return t != nil && (t.Video || t.Interactive)
}

// Texture returns the primary source texture of l, or nil.
func (l *Layer) Texture() *Texture {
	if l == nil || l.Textures == nil {
		return nil
	}
	return l.Textures.Left
}
