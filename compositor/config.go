// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gogpu/gputypes"
	"gopkg.in/yaml.v3"
)

// Config describes the simulated runtime.
type Config struct {
	// Version is the runtime version reported through Capabilities.
	Version string `yaml:"version"`

	// Extensions lists the enabled runtime extensions.
	Extensions []string `yaml:"extensions"`

	// ColorFormat names the default swapchain format ("rgba8unorm" or
	// "bgra8unorm"). Empty asks the device given with WithDevice.
	ColorFormat string `yaml:"color_format"`

	View ViewConfig `yaml:"view"`

	// Workers is the number of goroutines creating swapchains; 0 selects
	// GOMAXPROCS.
	Workers int `yaml:"workers"`

	// CreateLatency delays every swapchain creation.
	CreateLatency time.Duration `yaml:"create_latency"`

	// Space is the tracking space handle; 0 means no space is available.
	Space uint64 `yaml:"space"`

	// PooledImages bounds the recycled swapchain images per size.
	PooledImages int `yaml:"pooled_images"`
}

// ViewConfig is the per-eye view configuration.
type ViewConfig struct {
	Width       uint32  `yaml:"width"`
	Height      uint32  `yaml:"height"`
	SampleCount uint32  `yaml:"sample_count"`
	FovDegrees  float32 `yaml:"fov_degrees"`
	IPD         float32 `yaml:"ipd"`
}

// DefaultConfig returns a runtime with the cylinder, cube and both equirect
// extensions and a 1440x1600 per-eye view.
func DefaultConfig() Config {
	return Config{
		Version: "1.0.34",
		Extensions: []string{
			"XR_KHR_composition_layer_cylinder",
			"XR_KHR_composition_layer_cube",
			"XR_KHR_composition_layer_equirect",
			"XR_KHR_composition_layer_equirect2",
		},
		ColorFormat: "rgba8unorm",
		View: ViewConfig{
			Width:       1440,
			Height:      1600,
			SampleCount: 1,
			FovDegrees:  90,
			IPD:         0.064,
		},
		Workers:      2,
		Space:        1,
		PooledImages: 8,
	}
}

var formats = map[string]gputypes.TextureFormat{
	"rgba8unorm": gputypes.TextureFormatRGBA8Unorm,
	"bgra8unorm": gputypes.TextureFormatBGRA8Unorm,
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.ColorFormat != "" {
		if _, ok := formats[strings.ToLower(c.ColorFormat)]; !ok {
			return fmt.Errorf("compositor: unknown color format %q", c.ColorFormat)
		}
	}
	if c.View.Width == 0 || c.View.Height == 0 {
		return errors.New("compositor: view width and height must be positive")
	}
	if c.View.FovDegrees < 0 || c.View.FovDegrees >= 180 {
		return fmt.Errorf("compositor: field of view %v out of range", c.View.FovDegrees)
	}
	if c.Workers < 0 {
		return fmt.Errorf("compositor: negative worker count %d", c.Workers)
	}
	if c.CreateLatency < 0 {
		return fmt.Errorf("compositor: negative create latency %v", c.CreateLatency)
	}
	return nil
}

// ReadConfig decodes a YAML config from r on top of DefaultConfig. Unknown
// keys are rejected.
func ReadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("compositor: decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads the YAML config file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("compositor: load config: %w", err)
	}
	cfg, err := ReadConfig(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
