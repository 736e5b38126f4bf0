// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compositor

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Device is the host GPU device the compositor asks for its surface format
// when the config names none.
type Device = gpucontext.DeviceProvider

// NullDevice is a Device without GPU objects that reports a fixed surface
// format.
type NullDevice struct {
	Format gputypes.TextureFormat
}

// Device returns nil.
func (NullDevice) Device() gpucontext.Device { return nil }

// Queue returns nil.
func (NullDevice) Queue() gpucontext.Queue { return nil }

// Adapter returns nil.
func (NullDevice) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo returns the zero AdapterInfo.
func (NullDevice) AdapterInfo() gpucontext.AdapterInfo { return gpucontext.AdapterInfo{} }

// SurfaceFormat returns d.Format.
func (d NullDevice) SurfaceFormat() gputypes.TextureFormat { return d.Format }

var _ Device = NullDevice{}
