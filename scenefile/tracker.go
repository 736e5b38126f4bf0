// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scenefile

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/chewxy/math32"
	"github.com/jinzhu/copier"

	"github.com/gogpu/xrlayer"
)

type tracked struct {
	info xrlayer.LayerInfo
	spec LayerSpec
}

// Tracker turns successive scene versions into change sets. It assigns
// LayerIDs by name and reuses the IDs of removed layers, lowest first.
//
// A Tracker is not safe for concurrent use.
type Tracker struct {
	layers map[string]*tracked
	free   []xrlayer.LayerID
	next   xrlayer.LayerID
}

// NewTracker returns a tracker with no layers. IDs start at 1.
func NewTracker() *Tracker {
	return &Tracker{layers: make(map[string]*tracked), next: 1}
}

// Len returns the number of tracked layers.
func (t *Tracker) Len() int { return len(t.layers) }

// ID returns the LayerID of the named layer.
func (t *Tracker) ID(name string) (xrlayer.LayerID, bool) {
	tr, ok := t.layers[name]
	if !ok {
		return 0, false
	}
	return tr.info.ID, true
}

// Update diffs s against the previous scene. New names are created, missing
// names removed and changed layers modified; a layer whose type changed is
// removed and created again under the same ID. Active lists every visible
// layer in scene order. s is validated first and not retained.
func (t *Tracker) Update(s *Scene) (xrlayer.Changes, error) {
	if err := s.Validate(); err != nil {
		return xrlayer.Changes{}, err
	}
	var ch xrlayer.Changes

	present := make(map[string]bool, len(s.Layers))
	for _, l := range s.Layers {
		present[l.Name] = true
	}
	var gone []string
	for name := range t.layers {
		if !present[name] {
			gone = append(gone, name)
		}
	}
	slices.Sort(gone)
	for _, name := range gone {
		id := t.layers[name].info.ID
		delete(t.layers, name)
		ch.Removed = append(ch.Removed, id)
		t.release(id)
	}

	for _, spec := range s.Layers {
		key, _ := xrlayer.ParseTypeKey(spec.Type)
		snap, err := snapshot(spec)
		if err != nil {
			return xrlayer.Changes{}, err
		}

		prev, ok := t.layers[spec.Name]
		switch {
		case !ok:
			info := xrlayer.LayerInfo{ID: t.allocate(), Type: key, Order: spec.Order, Layer: build(snap, key, nil)}
			t.layers[spec.Name] = &tracked{info: info, spec: snap}
			ch.Created = append(ch.Created, info)
		case prev.info.Type != key:
			ch.Removed = append(ch.Removed, prev.info.ID)
			prev.info = xrlayer.LayerInfo{ID: prev.info.ID, Type: key, Order: spec.Order, Layer: build(snap, key, nil)}
			prev.spec = snap
			ch.Created = append(ch.Created, prev.info)
		case !reflect.DeepEqual(prev.spec, snap):
			prev.info.Order = spec.Order
			prev.info.Layer = build(snap, key, prev)
			prev.spec = snap
			ch.Modified = append(ch.Modified, prev.info)
		}

		if !spec.Hidden {
			ch.Active = append(ch.Active, t.layers[spec.Name].info)
		}
	}
	return ch, nil
}

// Clear removes every layer.
func (t *Tracker) Clear() xrlayer.Changes {
	var ch xrlayer.Changes
	for name, tr := range t.layers {
		ch.Removed = append(ch.Removed, tr.info.ID)
		delete(t.layers, name)
	}
	slices.Sort(ch.Removed)
	t.free = nil
	t.next = 1
	return ch
}

func (t *Tracker) allocate() xrlayer.LayerID {
	if len(t.free) > 0 {
		id := t.free[0]
		t.free = t.free[1:]
		return id
	}
	id := t.next
	t.next++
	return id
}

func (t *Tracker) release(id xrlayer.LayerID) {
	i, _ := slices.BinarySearch(t.free, id)
	t.free = slices.Insert(t.free, i, id)
}

// snapshot deep copies spec so later edits of the scene do not leak into
// the tracked state.
func snapshot(spec LayerSpec) (LayerSpec, error) {
	var out LayerSpec
	if err := copier.CopyWithOption(&out, &spec, copier.Option{DeepCopy: true}); err != nil {
		return LayerSpec{}, fmt.Errorf("scenefile: copy layer %q: %w", spec.Name, err)
	}
	return out, nil
}

// build converts spec into a layer. Textures of prev are reused when their
// image description is unchanged.
func build(spec LayerSpec, key xrlayer.TypeKey, prev *tracked) *xrlayer.Layer {
	blend, _ := parseBlend(spec.Blend)
	scale := xrlayer.Vec3{X: 1, Y: 1, Z: 1}
	if spec.Scale != nil {
		scale = xrlayer.Vec3{X: spec.Scale[0], Y: spec.Scale[1], Z: spec.Scale[2]}
	}
	l := &xrlayer.Layer{
		Name:  spec.Name,
		Blend: blend,
		Transform: xrlayer.Transform{
			Position: vec3(spec.Position),
			Rotation: euler(spec.Rotation),
			Scale:    scale,
		},
		Shape: xrlayer.Shape{
			Quad: xrlayer.QuadShape{
				Size:                xrlayer.Vec2{X: spec.Quad.Width, Y: spec.Quad.Height},
				ApplyTransformScale: spec.Quad.ApplyScale,
			},
			Cylinder: xrlayer.CylinderShape{
				Radius:              spec.Cylinder.Radius,
				CentralAngle:        radians(spec.Cylinder.CentralAngle),
				AspectRatio:         spec.Cylinder.AspectRatio,
				ApplyTransformScale: spec.Cylinder.ApplyScale,
			},
			Equirect: xrlayer.EquirectShape{
				Radius:                 spec.Equirect.Radius,
				CentralHorizontalAngle: radians(spec.Equirect.CentralAngle),
				UpperVerticalAngle:     radians(spec.Equirect.UpperAngle),
				LowerVerticalAngle:     radians(spec.Equirect.LowerAngle),
			},
			Projection: xrlayer.ProjectionShape{RenderScale: spec.Projection.RenderScale},
		},
	}
	if spec.Texture != nil {
		l.Textures = buildTextures(spec, key, prev)
	}
	return l
}

func buildTextures(spec LayerSpec, key xrlayer.TypeKey, prev *tracked) *xrlayer.Textures {
	ts := spec.Texture
	out := &xrlayer.Textures{
		CropToAspect: ts.CropToAspect,
		SourceRect:   xrlayer.FullRect,
		DestRect:     xrlayer.FullRect,
		Video:        ts.Video,
		Interactive:  ts.Interactive,
	}
	if ts.SourceRect != nil || ts.DestRect != nil {
		out.CustomRects = true
		if ts.SourceRect != nil {
			out.SourceRect = rect(*ts.SourceRect)
		}
		if ts.DestRect != nil {
			out.DestRect = rect(*ts.DestRect)
		}
	}
	if ts.External {
		out.Source = xrlayer.SourceExternalSurface
		out.Resolution = xrlayer.Vec2{X: ts.Resolution[0], Y: ts.Resolution[1]}
		return out
	}

	faces := 1
	if key == xrlayer.TypeCube {
		faces = 6
	}
	var old *TexturesSpec
	var oldTex *xrlayer.Textures
	if prev != nil && prev.info.Layer != nil {
		old, oldTex = prev.spec.Texture, prev.info.Layer.Textures
	}

	if old != nil && oldTex != nil && oldTex.Left != nil && !old.External && old.Left == ts.Left {
		out.Left = oldTex.Left
	} else {
		out.Left = ts.Left.texture(spec.Name+"/left", faces)
	}
	if ts.Right != nil {
		if old != nil && oldTex != nil && oldTex.Right != nil && old.Right != nil && *old.Right == *ts.Right {
			out.Right = oldTex.Right
		} else {
			out.Right = ts.Right.texture(spec.Name+"/right", faces)
		}
	}
	return out
}

func vec3(v [3]float32) xrlayer.Vec3 { return xrlayer.Vec3{X: v[0], Y: v[1], Z: v[2]} }
func rect(r [4]float32) xrlayer.Rect { return xrlayer.Rect{X: r[0], Y: r[1], Width: r[2], Height: r[3]} }
func radians(deg float32) float32    { return deg * math32.Pi / 180 }

// euler returns the rotation for degrees around X, Y and Z, applied Y, X
// then Z.
func euler(deg [3]float32) xrlayer.Quat {
	yaw := xrlayer.AngleAxis(deg[1], xrlayer.Vec3{Y: 1})
	pitch := xrlayer.AngleAxis(deg[0], xrlayer.Vec3{X: 1})
	roll := xrlayer.AngleAxis(deg[2], xrlayer.Vec3{Z: 1})
	return yaw.Mul(pitch).Mul(roll)
}

// OriginPose returns the tracking space origin of the scene.
func (s *Scene) OriginPose() xrlayer.Pose {
	return xrlayer.Pose{Position: vec3(s.Origin.Position), Rotation: euler(s.Origin.Rotation)}
}
