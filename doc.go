// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package xrlayer connects a scene's composition layers to an XR compositor
// runtime.
//
// # Overview
//
// A composition layer is a compositor-visible surface (flat quad, curved
// cylinder, equirectangular panorama, cube map or stereo projection) that the
// compositor reads from a swapchain and submits once per frame. xrlayer owns
// the part between "the scene says this layer changed" and "the compositor
// received a packed array of native layer records":
//
//   - Registry routes per-frame change sets to one LayerHandler per TypeKey.
//   - Handler implements the shared life cycle (create, swapchain pending,
//     built, modified, removed) on top of a small Strategy per shape.
//   - Bridge carries swapchain creation completions from runtime worker
//     goroutines to the update goroutine.
//   - SubmissionBuffer packs the active records of one type for a single
//     batched Runtime.SubmitLayers call.
//
// # Threading
//
// Registry.Dispatch, every LayerHandler method and every Strategy method run
// on one update goroutine. The only entry point that may be called from other
// goroutines is the swapchain callback a Handler passes to
// Runtime.CreateSwapchain; it only enqueues into the Handler's Bridge.
//
// # Quick Start
//
//	rt := compositor.New(compositor.DefaultConfig())
//	reg := xrlayer.NewRegistry()
//	layers.RegisterBuiltins(reg, rt, layers.Options{})
//	reg.Start()
//	defer reg.Close()
//
//	for frame := range frames {
//	    reg.Dispatch(tracker.Changes(frame.Scene))
//	    rt.EndFrame()
//	}
//
// # Logging
//
// xrlayer is silent by default. Call SetLogger to route diagnostics from this
// package and its sub-packages to a slog.Logger.
package xrlayer
