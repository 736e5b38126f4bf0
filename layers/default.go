// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package layers

import (
	"github.com/gogpu/xrlayer"
	"github.com/gogpu/xrlayer/native"
)

// DefaultLayer handles the scene's default layer, which the runtime renders
// itself. The only thing to submit is its blend mode.
type DefaultLayer struct {
	conf xrlayer.DefaultLayerConfigurer
}

// NewDefaultLayer returns the default layer handler. It does nothing when rt
// does not implement xrlayer.DefaultLayerConfigurer.
func NewDefaultLayer(rt xrlayer.Runtime) *DefaultLayer {
	conf, _ := rt.(xrlayer.DefaultLayerConfigurer)
	return &DefaultLayer{conf: conf}
}

func (d *DefaultLayer) apply(info xrlayer.LayerInfo) {
	if d.conf == nil {
		return
	}
	flags := native.BlendFlags(info.Layer.Blend == xrlayer.BlendPremultiply)
	d.conf.SetDefaultLayerFlags(uint64(flags))
}

func (d *DefaultLayer) CreateLayer(info xrlayer.LayerInfo) { d.apply(info) }
func (d *DefaultLayer) ModifyLayer(info xrlayer.LayerInfo) { d.apply(info) }
func (d *DefaultLayer) RemoveLayer(xrlayer.LayerID)        {}
func (d *DefaultLayer) SetActiveLayer(xrlayer.LayerInfo)   {}
func (d *DefaultLayer) Update()                            {}
