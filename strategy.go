// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xrlayer

// Strategy supplies the shape-specific parts of a Handler. Every method runs
// on the update goroutine. Returning false declines the operation; the
// handler skips the layer and retries on the next relevant event.
type Strategy[T any] interface {
	// BuildSwapchainRequest describes the swapchain for info. The handler
	// fills in ID and Ticket.
	BuildSwapchainRequest(info LayerInfo) (SwapchainRequest, bool)

	// BuildNativeRecord builds the record once the swapchain exists.
	BuildNativeRecord(info LayerInfo, out SwapchainOutput) (T, bool)

	// PatchNativeRecord updates rec in place after the layer was modified.
	// On decline the handler keeps the previous record.
	PatchNativeRecord(info LayerInfo, rec *T) bool
}

// Activator is an optional Strategy extension called for every active layer
// every frame before submission. Declining skips the layer for this frame.
type Activator[T any] interface {
	ActivatePatch(info LayerInfo, rec *T) bool
}

// StrategyFuncs adapts plain functions to Strategy and Activator. A nil
// Activate accepts every frame.
type StrategyFuncs[T any] struct {
	Request  func(info LayerInfo) (SwapchainRequest, bool)
	Build    func(info LayerInfo, out SwapchainOutput) (T, bool)
	Patch    func(info LayerInfo, rec *T) bool
	Activate func(info LayerInfo, rec *T) bool
}

func (s StrategyFuncs[T]) BuildSwapchainRequest(info LayerInfo) (SwapchainRequest, bool) {
	return s.Request(info)
}

func (s StrategyFuncs[T]) BuildNativeRecord(info LayerInfo, out SwapchainOutput) (T, bool) {
	return s.Build(info, out)
}

func (s StrategyFuncs[T]) PatchNativeRecord(info LayerInfo, rec *T) bool {
	return s.Patch(info, rec)
}

func (s StrategyFuncs[T]) ActivatePatch(info LayerInfo, rec *T) bool {
	if s.Activate == nil {
		return true
	}
	return s.Activate(info, rec)
}
