// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package scenefile

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"

	"github.com/gogpu/xrlayer"
)

// ImageSpec describes a procedural image.
type ImageSpec struct {
	// Pattern is "solid" (default), "checker" or "gradient".
	Pattern string `yaml:"pattern"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Mips    int    `yaml:"mips"`
	// Color and Color2 are SVG color names or #rrggbb / #rrggbbaa.
	Color  string `yaml:"color"`
	Color2 string `yaml:"color2"`
	// Cells is the checker cell size in pixels.
	Cells int `yaml:"cells"`
}

func (s *ImageSpec) validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid size %dx%d", s.Width, s.Height)
	}
	switch s.Pattern {
	case "", "solid", "checker", "gradient":
	default:
		return fmt.Errorf("unknown pattern %q", s.Pattern)
	}
	if _, err := parseColor(s.Color, color.RGBA{A: 255}); err != nil {
		return err
	}
	if _, err := parseColor(s.Color2, color.RGBA{A: 255}); err != nil {
		return err
	}
	return nil
}

var errBadColor = errors.New("bad color")

// parseColor accepts SVG names and #rgb, #rrggbb or #rrggbbaa.
func parseColor(s string, fallback color.RGBA) (color.RGBA, error) {
	if s == "" {
		return fallback, nil
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.RGBA{}, fmt.Errorf("%w %q", errBadColor, s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if len(hex) != 8 || err != nil {
		return color.RGBA{}, fmt.Errorf("%w %q", errBadColor, s)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// generate renders the pattern. Cube textures get faces images stacked
// vertically, each tinted differently so the faces can be told apart.
func (s *ImageSpec) generate(faces int) *image.RGBA {
	c1, _ := parseColor(s.Color, color.RGBA{R: 200, G: 200, B: 200, A: 255})
	c2, _ := parseColor(s.Color2, color.RGBA{R: 40, G: 40, B: 40, A: 255})
	faces = max(faces, 1)

	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height*faces))
	for f := range faces {
		face := img.SubImage(image.Rect(0, f*s.Height, s.Width, (f+1)*s.Height)).(*image.RGBA)
		a, b := c1, c2
		if faces > 1 {
			a, b = tint(c1, f, faces), tint(c2, f, faces)
		}
		switch s.Pattern {
		case "checker":
			checker(face, a, b, max(s.Cells, 1))
		case "gradient":
			gradient(face, a, b)
		default:
			draw.Draw(face, face.Bounds(), image.NewUniform(a), image.Point{}, draw.Src)
		}
	}
	return img
}

func checker(img *image.RGBA, a, b color.RGBA, cell int) {
	r := img.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := a
			if ((x-r.Min.X)/cell+(y-r.Min.Y)/cell)%2 == 1 {
				c = b
			}
			img.SetRGBA(x, y, c)
		}
	}
}

// gradient blends a into b from left to right.
func gradient(img *image.RGBA, a, b color.RGBA) {
	r := img.Bounds()
	span := max(r.Dx()-1, 1)
	for x := r.Min.X; x < r.Max.X; x++ {
		t := float32(x-r.Min.X) / float32(span)
		c := color.RGBA{
			R: lerp(a.R, b.R, t),
			G: lerp(a.G, b.G, t),
			B: lerp(a.B, b.B, t),
			A: lerp(a.A, b.A, t),
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func lerp(a, b uint8, t float32) uint8 {
	return uint8(float32(a) + (float32(b)-float32(a))*t + 0.5)
}

// tint darkens c progressively for face f of n.
func tint(c color.RGBA, f, n int) color.RGBA {
	k := 1 - 0.5*float32(f)/float32(n)
	return color.RGBA{
		R: uint8(float32(c.R) * k),
		G: uint8(float32(c.G) * k),
		B: uint8(float32(c.B) * k),
		A: c.A,
	}
}

// texture builds the layer texture. Width and Height are per face.
func (s *ImageSpec) texture(name string, faces int) *xrlayer.Texture {
	return &xrlayer.Texture{
		Name:     name,
		Width:    s.Width,
		Height:   s.Height,
		MipCount: max(s.Mips, 1),
		Image:    s.generate(faces),
	}
}
