// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package scenefile loads composition layer scenes from YAML and turns
// successive versions of a scene into xrlayer.Changes.
//
// A scene lists named layers:
//
//	origin:
//	  position: [0, 0, 0]
//	layers:
//	  - name: panel
//	    type: quad
//	    order: 1
//	    position: [0, 1.5, -2]
//	    quad: {width: 1.6, height: 0.9}
//	    texture:
//	      left: {pattern: checker, width: 256, height: 144, color: white, color2: "#202020"}
//
// Layer names are the identity across reloads: a layer keeps its LayerID
// as long as a layer with the same name exists. Textures are procedural and
// regenerated only when their description changes.
package scenefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/xrlayer"
)

// Scene is one version of a scene file.
type Scene struct {
	// Origin is the pose of the tracking space in world space.
	Origin PoseSpec    `yaml:"origin"`
	Layers []LayerSpec `yaml:"layers"`
}

// PoseSpec is a position and Euler rotation in degrees, applied Y, X then Z.
type PoseSpec struct {
	Position [3]float32 `yaml:"position"`
	Rotation [3]float32 `yaml:"rotation"`
}

// LayerSpec describes one layer.
type LayerSpec struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Order  int32  `yaml:"order"`
	Hidden bool   `yaml:"hidden"`
	// Blend is "alpha" (default) or "premultiply".
	Blend string `yaml:"blend"`

	Position [3]float32  `yaml:"position"`
	Rotation [3]float32  `yaml:"rotation"`
	Scale    *[3]float32 `yaml:"scale"`

	Quad       QuadSpec       `yaml:"quad"`
	Cylinder   CylinderSpec   `yaml:"cylinder"`
	Equirect   EquirectSpec   `yaml:"equirect"`
	Projection ProjectionSpec `yaml:"projection"`

	Texture *TexturesSpec `yaml:"texture"`
}

type QuadSpec struct {
	Width      float32 `yaml:"width"`
	Height     float32 `yaml:"height"`
	ApplyScale bool    `yaml:"apply_scale"`
}

// CylinderSpec angles are in degrees.
type CylinderSpec struct {
	Radius       float32 `yaml:"radius"`
	CentralAngle float32 `yaml:"central_angle"`
	AspectRatio  float32 `yaml:"aspect_ratio"`
	ApplyScale   bool    `yaml:"apply_scale"`
}

// EquirectSpec angles are in degrees.
type EquirectSpec struct {
	Radius       float32 `yaml:"radius"`
	CentralAngle float32 `yaml:"central_angle"`
	UpperAngle   float32 `yaml:"upper_angle"`
	LowerAngle   float32 `yaml:"lower_angle"`
}

type ProjectionSpec struct {
	RenderScale float32 `yaml:"render_scale"`
}

// TexturesSpec describes the layer's source.
type TexturesSpec struct {
	// External selects an external surface of the given resolution
	// instead of procedural images.
	External   bool       `yaml:"external"`
	Resolution [2]float32 `yaml:"resolution"`

	Left  ImageSpec  `yaml:"left"`
	Right *ImageSpec `yaml:"right"`

	CropToAspect bool        `yaml:"crop_to_aspect"`
	SourceRect   *[4]float32 `yaml:"source_rect"`
	DestRect     *[4]float32 `yaml:"dest_rect"`
	Video        bool        `yaml:"video"`
	Interactive  bool        `yaml:"interactive"`
}

// ParseError reports an invalid scene.
type ParseError struct {
	Path  string // empty when not read from a file
	Layer string // empty for document level errors
	Err   error
}

func (e *ParseError) Error() string {
	msg := "scenefile: "
	if e.Path != "" {
		msg += e.Path + ": "
	}
	if e.Layer != "" {
		msg += fmt.Sprintf("layer %q: ", e.Layer)
	}
	return msg + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Read decodes and validates a scene. Unknown keys are rejected.
func Read(r io.Reader) (*Scene, error) {
	var s Scene
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: err}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads the scene file at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	s, err := Read(bytes.NewReader(data))
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return s, nil
}

// Validate checks names, types and texture descriptions.
func (s *Scene) Validate() error {
	seen := make(map[string]bool, len(s.Layers))
	for i := range s.Layers {
		l := &s.Layers[i]
		if l.Name == "" {
			return &ParseError{Err: fmt.Errorf("layer %d has no name", i)}
		}
		if seen[l.Name] {
			return &ParseError{Layer: l.Name, Err: errors.New("duplicate name")}
		}
		seen[l.Name] = true
		if err := l.validate(); err != nil {
			return &ParseError{Layer: l.Name, Err: err}
		}
	}
	return nil
}

func (l *LayerSpec) validate() error {
	key, err := xrlayer.ParseTypeKey(l.Type)
	if err != nil {
		return err
	}
	if _, err := parseBlend(l.Blend); err != nil {
		return err
	}
	t := l.Texture
	if t == nil {
		switch key {
		case xrlayer.TypeDefault, xrlayer.TypeProjectionRig:
			return nil
		}
		return fmt.Errorf("%s layer needs a texture", key)
	}
	if t.External {
		if t.Resolution[0] < 1 || t.Resolution[1] < 1 {
			return errors.New("external surface needs a resolution")
		}
		return nil
	}
	if err := t.Left.validate(); err != nil {
		return fmt.Errorf("left: %w", err)
	}
	if t.Right != nil {
		if err := t.Right.validate(); err != nil {
			return fmt.Errorf("right: %w", err)
		}
	}
	if key == xrlayer.TypeProjection && t.Right == nil {
		return errors.New("projection layer needs a right image")
	}
	return nil
}

func parseBlend(s string) (xrlayer.BlendType, error) {
	switch s {
	case "", "alpha":
		return xrlayer.BlendAlpha, nil
	case "premultiply":
		return xrlayer.BlendPremultiply, nil
	}
	return 0, fmt.Errorf("unknown blend %q", s)
}
