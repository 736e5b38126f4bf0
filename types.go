// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xrlayer

import "fmt"

// LayerID identifies one live layer instance. It is unique for the lifetime
// of the instance and may be reused after the instance is removed.
type LayerID int32

// TypeKey selects which LayerHandler owns a layer.
type TypeKey uint16

// Built-in layer type keys.
const (
	TypeDefault TypeKey = iota
	TypeQuad
	TypeCylinder
	TypeEquirect
	TypeCube
	TypeProjection
	TypeProjectionRig
)

// TypeCustom is the first key available to embedding applications.
const TypeCustom TypeKey = 64

var typeNames = [...]string{
	TypeDefault:       "default",
	TypeQuad:          "quad",
	TypeCylinder:      "cylinder",
	TypeEquirect:      "equirect",
	TypeCube:          "cube",
	TypeProjection:    "projection",
	TypeProjectionRig: "projection-rig",
}

// String returns the lower-case name of a built-in key, or "custom(N)".
func (k TypeKey) String() string {
	if int(k) < len(typeNames) {
		return typeNames[k]
	}
	return fmt.Sprintf("custom(%d)", uint16(k))
}

// ParseTypeKey returns the built-in key with the given name.
func ParseTypeKey(name string) (TypeKey, error) {
	for k, n := range typeNames {
		if n == name {
			return TypeKey(k), nil
		}
	}
	return 0, &UnknownTypeError{Name: name}
}

// LayerInfo is one live layer instance as seen by the framework in the
// current frame. It is supplied by the caller and never retained beyond the
// handler's pending copy.
type LayerInfo struct {
	ID    LayerID
	Type  TypeKey
	Order int32
	Layer *Layer
}

// Changes is the per-frame change set passed to Registry.Dispatch.
//
// Removed carries identifiers only; the registry broadcasts them to every
// handler because the type of a removed instance is no longer known.
type Changes struct {
	Created  []LayerInfo
	Removed  []LayerID
	Modified []LayerInfo
	Active   []LayerInfo
}

// Empty reports whether c carries no entries.
func (c Changes) Empty() bool {
	return len(c.Created) == 0 && len(c.Removed) == 0 && len(c.Modified) == 0 && len(c.Active) == 0
}
