// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scenefile

import (
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/xrlayer"
)

func quadSpec(name string, order int32, color string) LayerSpec {
	return LayerSpec{
		Name:  name,
		Type:  "quad",
		Order: order,
		Quad:  QuadSpec{Width: 1, Height: 1},
		Texture: &TexturesSpec{
			Left: ImageSpec{Width: 8, Height: 8, Color: color},
		},
	}
}

func ids(infos []xrlayer.LayerInfo) []xrlayer.LayerID {
	out := make([]xrlayer.LayerID, len(infos))
	for i, info := range infos {
		out[i] = info.ID
	}
	return out
}

func TestTrackerCreateModifyRemove(t *testing.T) {
	tr := NewTracker()

	s := &Scene{Layers: []LayerSpec{quadSpec("a", 1, "red"), quadSpec("b", 2, "blue")}}
	ch, err := tr.Update(s)
	require.NoError(t, err)
	assert.Equal(t, []xrlayer.LayerID{1, 2}, ids(ch.Created))
	assert.Equal(t, []xrlayer.LayerID{1, 2}, ids(ch.Active))
	assert.Empty(t, ch.Removed)
	assert.Empty(t, ch.Modified)
	assert.Equal(t, xrlayer.TypeQuad, ch.Created[0].Type)
	texA := ch.Created[0].Layer.Textures.Left

	// Unchanged scene: only the active list.
	ch, err = tr.Update(s)
	require.NoError(t, err)
	assert.Empty(t, ch.Created)
	assert.Empty(t, ch.Modified)
	assert.Len(t, ch.Active, 2)
	assert.Same(t, texA, ch.Active[0].Layer.Textures.Left)

	// Moving a layer keeps its texture.
	s.Layers[0].Position = [3]float32{1, 2, 3}
	ch, err = tr.Update(s)
	require.NoError(t, err)
	require.Len(t, ch.Modified, 1)
	assert.Equal(t, xrlayer.LayerID(1), ch.Modified[0].ID)
	assert.Equal(t, xrlayer.Vec3{X: 1, Y: 2, Z: 3}, ch.Modified[0].Layer.Transform.Position)
	assert.Same(t, texA, ch.Modified[0].Layer.Textures.Left)

	// Recoloring regenerates it.
	s.Layers[0].Texture.Left.Color = "green"
	ch, err = tr.Update(s)
	require.NoError(t, err)
	require.Len(t, ch.Modified, 1)
	assert.NotSame(t, texA, ch.Modified[0].Layer.Textures.Left)

	// Removing a frees its ID for the next new layer.
	s.Layers = []LayerSpec{quadSpec("b", 2, "blue"), quadSpec("c", 0, "white")}
	ch, err = tr.Update(s)
	require.NoError(t, err)
	assert.Equal(t, []xrlayer.LayerID{1}, ch.Removed)
	assert.Equal(t, []xrlayer.LayerID{1}, ids(ch.Created), "c reuses a's ID")
	assert.Equal(t, []xrlayer.LayerID{2, 1}, ids(ch.Active))

	id, ok := tr.ID("c")
	assert.True(t, ok)
	assert.Equal(t, xrlayer.LayerID(1), id)
	_, ok = tr.ID("a")
	assert.False(t, ok)
}

func TestTrackerReusesLowestID(t *testing.T) {
	tr := NewTracker()
	s := &Scene{}
	for _, n := range []string{"a", "b", "c", "d"} {
		s.Layers = append(s.Layers, quadSpec(n, 0, ""))
	}
	_, err := tr.Update(s)
	require.NoError(t, err)

	s.Layers = []LayerSpec{s.Layers[0], s.Layers[2]}
	ch, err := tr.Update(s)
	require.NoError(t, err)
	assert.Equal(t, []xrlayer.LayerID{2, 4}, ch.Removed)

	s.Layers = append(s.Layers, quadSpec("e", 0, ""), quadSpec("f", 0, ""), quadSpec("g", 0, ""))
	ch, err = tr.Update(s)
	require.NoError(t, err)
	assert.Equal(t, []xrlayer.LayerID{2, 4, 5}, ids(ch.Created))
}

func TestTrackerTypeChange(t *testing.T) {
	tr := NewTracker()
	s := &Scene{Layers: []LayerSpec{quadSpec("a", 0, "")}}
	_, err := tr.Update(s)
	require.NoError(t, err)

	s.Layers[0].Type = "cylinder"
	s.Layers[0].Cylinder = CylinderSpec{Radius: 2, CentralAngle: 90, AspectRatio: 1}
	ch, err := tr.Update(s)
	require.NoError(t, err)
	assert.Equal(t, []xrlayer.LayerID{1}, ch.Removed)
	require.Len(t, ch.Created, 1)
	assert.Equal(t, xrlayer.LayerID(1), ch.Created[0].ID)
	assert.Equal(t, xrlayer.TypeCylinder, ch.Created[0].Type)
	assert.InDelta(t, math32.Pi/2, ch.Created[0].Layer.Shape.Cylinder.CentralAngle, 1e-6)
	assert.Empty(t, ch.Modified)
}

func TestTrackerHiddenAndInvalid(t *testing.T) {
	tr := NewTracker()
	hidden := quadSpec("a", 0, "")
	hidden.Hidden = true
	ch, err := tr.Update(&Scene{Layers: []LayerSpec{hidden}})
	require.NoError(t, err)
	assert.Len(t, ch.Created, 1)
	assert.Empty(t, ch.Active)

	_, err = tr.Update(&Scene{Layers: []LayerSpec{{Name: "a", Type: "blob"}}})
	assert.Error(t, err)
	assert.Equal(t, 1, tr.Len(), "invalid scenes leave the tracker untouched")

	ch = tr.Clear()
	assert.Equal(t, []xrlayer.LayerID{1}, ch.Removed)
	assert.Equal(t, 0, tr.Len())
}

func TestTrackerBuild(t *testing.T) {
	s, err := Read(strings.NewReader(`
layers:
  - name: eyes
    type: projection
    projection: {render_scale: 0.5}
    texture:
      left: {width: 4, height: 4, color: red}
      right: {width: 4, height: 4, color: blue}
  - name: sky
    type: cube
    rotation: [0, 90, 0]
    texture:
      left: {width: 4, height: 4}
  - name: pano
    type: equirect
    equirect: {radius: 10, central_angle: 360, upper_angle: 90, lower_angle: -90}
    texture:
      video: true
      source_rect: [0, 0, 0.5, 1]
      left: {width: 8, height: 4}
  - name: stream
    type: quad
    blend: premultiply
    scale: [2, 1, 1]
    quad: {width: 1, height: 1, apply_scale: true}
    texture: {external: true, resolution: [640, 360]}
  - name: rig
    type: projection-rig
`))
	require.NoError(t, err)
	ch, err := NewTracker().Update(s)
	require.NoError(t, err)
	require.Len(t, ch.Created, 5)

	eyes := ch.Created[0].Layer
	assert.Equal(t, xrlayer.TypeProjection, ch.Created[0].Type)
	require.NotNil(t, eyes.Textures.Right)
	assert.Equal(t, "eyes/right", eyes.Textures.Right.Name)
	assert.InDelta(t, 0.5, eyes.Shape.Projection.RenderScale, 1e-6)

	sky := ch.Created[1].Layer
	assert.Equal(t, 24, sky.Textures.Left.Image.Bounds().Dy(), "six faces")
	assert.InDelta(t, math32.Sin(math32.Pi/4), sky.Transform.Rotation.Y, 1e-6)

	pano := ch.Created[2].Layer
	assert.True(t, pano.Textures.Dynamic())
	assert.True(t, pano.Textures.CustomRects)
	assert.Equal(t, xrlayer.Rect{Width: 0.5, Height: 1}, pano.Textures.SourceRect)
	assert.Equal(t, xrlayer.FullRect, pano.Textures.DestRect)
	assert.InDelta(t, 2*math32.Pi, pano.Shape.Equirect.CentralHorizontalAngle, 1e-5)
	assert.InDelta(t, -math32.Pi/2, pano.Shape.Equirect.LowerVerticalAngle, 1e-5)

	stream := ch.Created[3].Layer
	assert.Equal(t, xrlayer.BlendPremultiply, stream.Blend)
	assert.Equal(t, xrlayer.SourceExternalSurface, stream.Textures.Source)
	assert.Nil(t, stream.Textures.Left)
	assert.Equal(t, xrlayer.Vec2{X: 640, Y: 360}, stream.Textures.Resolution)
	assert.Equal(t, xrlayer.Vec3{X: 2, Y: 1, Z: 1}, stream.Transform.Scale)

	rig := ch.Created[4]
	assert.Equal(t, xrlayer.TypeProjectionRig, rig.Type)
	assert.Nil(t, rig.Layer.Textures)
	assert.Equal(t, xrlayer.Vec3{X: 1, Y: 1, Z: 1}, rig.Layer.Transform.Scale)
}
