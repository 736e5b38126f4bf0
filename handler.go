// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xrlayer

import (
	"image"
	"log/slog"
)

// Phase is the life cycle position of one layer inside a Handler.
type Phase uint8

const (
	// PhaseUnseen means the handler holds no state for the layer.
	PhaseUnseen Phase = iota
	// PhaseIdle means the layer is known but no swapchain is in flight,
	// usually because the strategy declined to build a request.
	PhaseIdle
	// PhasePending means swapchain creation was issued and has not been
	// applied yet.
	PhasePending
	// PhaseBuilt means the native record exists.
	PhaseBuilt
)

var phaseNames = [...]string{"unseen", "idle", "pending", "built"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// renderResources caches what was last copied into the swapchain.
type renderResources struct {
	left, right *Texture
	size        image.Point
	written     bool
}

type layerState[T any] struct {
	info   LayerInfo
	phase  Phase
	ticket uint64
	output SwapchainOutput
	record T
	res    renderResources
}

type handlerOptions struct {
	name      string
	maxLayers int
}

// HandlerOption configures a Handler.
type HandlerOption func(*handlerOptions)

// WithName sets the name used in log records.
func WithName(name string) HandlerOption {
	return func(o *handlerOptions) { o.name = name }
}

// WithMaxLayers bounds how many layers one frame may submit. Exceeding it
// disables the handler for the rest of the session.
func WithMaxLayers(n int) HandlerOption {
	return func(o *handlerOptions) { o.maxLayers = n }
}

// Handler implements the life cycle shared by every layer shape: it tracks
// per-layer state, drives asynchronous swapchain creation through a Runtime
// and packs the active records of one frame into a single submission.
//
// All methods except the swapchain callback run on the update goroutine.
type Handler[T any] struct {
	name      string
	rt        Runtime
	strategy  Strategy[T]
	activator Activator[T]
	writer    TextureWriter

	states    map[LayerID]*layerState[T]
	bridge    Bridge
	buf       *SubmissionBuffer[T]
	ticket    uint64
	onCreated SwapchainCallback

	failed bool
	closed bool
}

// NewHandler returns a Handler driving s against rt. If s also implements
// Activator it is consulted every frame; if rt implements TextureWriter
// source textures are copied into the layer swapchains.
func NewHandler[T any](rt Runtime, s Strategy[T], opts ...HandlerOption) *Handler[T] {
	o := handlerOptions{name: "layers"}
	for _, opt := range opts {
		opt(&o)
	}
	h := &Handler[T]{
		name:     o.name,
		rt:       rt,
		strategy: s,
		states:   make(map[LayerID]*layerState[T]),
		buf:      NewSubmissionBuffer[T](o.maxLayers),
	}
	h.activator, _ = s.(Activator[T])
	h.writer, _ = rt.(TextureWriter)
	h.onCreated = h.postCompletion
	return h
}

// Name returns the handler name.
func (h *Handler[T]) Name() string { return h.name }

// postCompletion is handed to the runtime. It runs on worker goroutines and
// only touches the bridge.
func (h *Handler[T]) postCompletion(id LayerID, ticket uint64, out SwapchainOutput) {
	if !h.bridge.Post(Completion{ID: id, Ticket: ticket, Output: out}) {
		Logger().Debug("xrlayer: completion dropped after close", "handler", h.name, "id", id)
	}
}

// CreateLayer starts tracking info and requests its swapchain. A layer that
// is already tracked is treated as modified.
func (h *Handler[T]) CreateLayer(info LayerInfo) {
	if h.closed {
		return
	}
	if st, ok := h.states[info.ID]; ok {
		h.modify(st, info)
		return
	}
	st := &layerState[T]{info: info, phase: PhaseIdle}
	h.states[info.ID] = st
	h.requestSwapchain(st)
}

func (h *Handler[T]) requestSwapchain(st *layerState[T]) {
	req, ok := h.strategy.BuildSwapchainRequest(st.info)
	if !ok {
		Logger().Debug("xrlayer: swapchain request declined", "handler", h.name, "id", st.info.ID)
		return
	}
	h.ticket++
	req.ID = st.info.ID
	req.Ticket = h.ticket
	st.ticket = h.ticket
	st.phase = PhasePending
	Logger().Debug("xrlayer: swapchain requested", "handler", h.name, "id", req.ID,
		"width", req.Width, "height", req.Height, "stereo", req.Stereo)
	h.rt.CreateSwapchain(req, h.onCreated)
}

// ModifyLayer applies a changed description. Idle layers retry creation,
// pending layers only refresh the stored info, built layers are patched.
func (h *Handler[T]) ModifyLayer(info LayerInfo) {
	if h.closed {
		return
	}
	st, ok := h.states[info.ID]
	if !ok {
		h.CreateLayer(info)
		return
	}
	h.modify(st, info)
}

func (h *Handler[T]) modify(st *layerState[T], info LayerInfo) {
	st.info = info
	switch st.phase {
	case PhaseIdle:
		h.requestSwapchain(st)
	case PhaseBuilt:
		rec := st.record
		if h.strategy.PatchNativeRecord(info, &rec) {
			st.record = rec
		}
	}
}

// RemoveLayer releases the layer's swapchain and forgets it. Unknown
// identifiers are ignored.
func (h *Handler[T]) RemoveLayer(id LayerID) {
	st, ok := h.states[id]
	if !ok {
		return
	}
	delete(h.states, id)
	if st.phase != PhaseIdle {
		h.rt.ReleaseSwapchain(id)
	}
	Logger().Debug("xrlayer: layer removed", "handler", h.name, "id", id, "phase", st.phase)
}

// SetActiveLayer queues a built layer for this frame's submission.
func (h *Handler[T]) SetActiveLayer(info LayerInfo) {
	if h.closed || h.failed {
		return
	}
	st, ok := h.states[info.ID]
	if !ok || st.phase != PhaseBuilt {
		return
	}
	st.info = info

	if h.resized(st, info.Layer) {
		Logger().Debug("xrlayer: source resized, recreating swapchain", "handler", h.name, "id", info.ID)
		h.RemoveLayer(info.ID)
		h.CreateLayer(info)
		return
	}
	h.writeSources(st, info.Layer)

	rec := st.record
	if h.activator != nil {
		if !h.activator.ActivatePatch(info, &rec) {
			return
		}
		st.record = rec
	}

	if err := h.buf.EnsureCapacity(h.buf.Len() + 1); err != nil {
		h.fail(err)
		return
	}
	h.buf.Append(rec, info.Order)
}

// resized reports whether the source texture was replaced by one of a
// different size since the swapchain was built.
func (h *Handler[T]) resized(st *layerState[T], l *Layer) bool {
	tex := l.Texture()
	if tex == nil || st.res.left == nil || tex == st.res.left {
		return false
	}
	return tex.Size() != st.res.size
}

func (h *Handler[T]) writeSources(st *layerState[T], l *Layer) {
	if l == nil || l.Textures == nil || l.Textures.Source == SourceExternalSurface {
		return
	}
	left, right := l.Textures.Left, l.Textures.Right
	if left != st.res.left || right != st.res.right {
		st.res.left, st.res.right = left, right
		st.res.size = left.Size()
		st.res.written = false
	}
	if h.writer == nil || left == nil {
		return
	}
	if st.res.written && !l.Textures.Dynamic() {
		return
	}
	err := h.writer.WriteTexture(st.info.ID, 0, left)
	if err == nil && right != nil {
		err = h.writer.WriteTexture(st.info.ID, 1, right)
	}
	if err != nil {
		Logger().Warn("xrlayer: texture write failed", "handler", h.name, "id", st.info.ID, "error", err)
		return
	}
	st.res.written = true
}

func (h *Handler[T]) fail(err error) {
	h.buf.Reset()
	if h.failed {
		return
	}
	h.failed = true
	Logger().Error("xrlayer: handler disabled", "handler", h.name, "error", err)
}

// Update applies queued swapchain completions, submits this frame's active
// records as one batch and resets the submission buffer.
func (h *Handler[T]) Update() {
	if h.closed {
		return
	}
	h.bridge.Drain(h.applyCompletion)
	if h.failed {
		return
	}
	if err := h.buf.Submit(h.rt); err != nil {
		Logger().Warn("xrlayer: submit failed", "handler", h.name, "layers", h.buf.Len(), "error", err)
	}
	h.buf.Reset()
}

func (h *Handler[T]) applyCompletion(c Completion) {
	st, ok := h.states[c.ID]
	if !ok || st.phase != PhasePending || st.ticket != c.Ticket {
		Logger().Debug("xrlayer: stale completion dropped", "handler", h.name, "id", c.ID, "ticket", c.Ticket)
		return
	}
	rec, ok := h.strategy.BuildNativeRecord(st.info, c.Output)
	if !ok {
		st.phase = PhaseIdle
		h.rt.ReleaseSwapchain(c.ID)
		Logger().Debug("xrlayer: native record declined", "handler", h.name, "id", c.ID)
		return
	}
	st.record = rec
	st.output = c.Output
	st.phase = PhaseBuilt
	st.res = renderResources{}
	if l := st.info.Layer; l != nil && l.Textures != nil {
		st.res.left, st.res.right = l.Textures.Left, l.Textures.Right
		st.res.size = l.Textures.Left.Size()
	}
	Logger().Debug("xrlayer: native record built", "handler", h.name, "id", c.ID,
		slog.Uint64("swapchain", uint64(c.Output.Handle)))
}

// Close releases every swapchain and drops completions that arrive later.
func (h *Handler[T]) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.bridge.Close()
	for id, st := range h.states {
		if st.phase != PhaseIdle {
			h.rt.ReleaseSwapchain(id)
		}
	}
	clear(h.states)
	h.buf.Reset()
	return nil
}

// Len returns the number of tracked layers.
func (h *Handler[T]) Len() int { return len(h.states) }

// Phase returns the life cycle phase of id.
func (h *Handler[T]) Phase(id LayerID) Phase {
	if st, ok := h.states[id]; ok {
		return st.phase
	}
	return PhaseUnseen
}

// Record returns the native record of a built layer.
func (h *Handler[T]) Record(id LayerID) (T, bool) {
	st, ok := h.states[id]
	if !ok || st.phase != PhaseBuilt {
		var zero T
		return zero, false
	}
	return st.record, true
}

// Info returns the last LayerInfo stored for id.
func (h *Handler[T]) Info(id LayerID) (LayerInfo, bool) {
	st, ok := h.states[id]
	if !ok {
		return LayerInfo{}, false
	}
	return st.info, true
}

// Output returns the swapchain handles of a built layer.
func (h *Handler[T]) Output(id LayerID) (SwapchainOutput, bool) {
	st, ok := h.states[id]
	if !ok || st.phase != PhaseBuilt {
		return SwapchainOutput{}, false
	}
	return st.output, true
}

// Queued returns the number of completions waiting for the next Update.
func (h *Handler[T]) Queued() int { return h.bridge.Len() }

// Err returns ErrHandlerFailed after a fatal buffer growth failure and
// ErrClosed after Close.
func (h *Handler[T]) Err() error {
	switch {
	case h.failed:
		return ErrHandlerFailed
	case h.closed:
		return ErrClosed
	}
	return nil
}

// Buffer returns the submission buffer. It is empty outside a frame.
func (h *Handler[T]) Buffer() *SubmissionBuffer[T] { return h.buf }
