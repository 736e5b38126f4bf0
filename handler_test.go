// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package xrlayer

import (
	"bytes"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(opts ...HandlerOption) (*Handler[testRecord], *fakeRuntime, *testStrategy) {
	rt := &fakeRuntime{}
	s := &testStrategy{}
	return NewHandler[testRecord](rt, s, opts...), rt, s
}

// buildLayer drives info from Unseen to Built.
func buildLayer(t *testing.T, h *Handler[testRecord], rt *fakeRuntime, info LayerInfo) {
	t.Helper()
	h.CreateLayer(info)
	rt.completeAll()
	h.Update()
	require.Equal(t, PhaseBuilt, h.Phase(info.ID))
}

func TestHandlerCreateIssuesRequest(t *testing.T) {
	h, rt, _ := newTestHandler()
	h.CreateLayer(quadInfo(7, 0, newTexture("a", 64, 32)))

	assert.Equal(t, PhasePending, h.Phase(7))
	require.Len(t, rt.requests, 1)
	req := rt.requests[0]
	assert.Equal(t, LayerID(7), req.ID)
	assert.Equal(t, uint64(1), req.Ticket)
	assert.Equal(t, uint32(64), req.Width)
	assert.Equal(t, uint32(32), req.Height)
	_, ok := h.Record(7)
	assert.False(t, ok)
}

// A layer whose texture arrives late is submitted on the frame after its
// completion is applied, and never on the frame of creation.
func TestHandlerLateTexture(t *testing.T) {
	h, rt, _ := newTestHandler()

	// Frame 1: created without a texture.
	h.CreateLayer(quadInfo(1, 0, nil))
	h.Update()
	assert.Equal(t, PhaseIdle, h.Phase(1))
	assert.Empty(t, rt.requests)
	assert.Equal(t, 0, rt.batchCount())

	// Frame 2: texture attached.
	info := quadInfo(1, 0, newTexture("late", 128, 128))
	h.ModifyLayer(info)
	h.SetActiveLayer(info)
	h.Update()
	assert.Equal(t, PhasePending, h.Phase(1))
	require.Len(t, rt.requests, 1)
	assert.Equal(t, 0, rt.batchCount())

	// Completion arrives between frames; frame 3 applies it.
	rt.completeAll()
	h.SetActiveLayer(info)
	h.Update()
	assert.Equal(t, PhaseBuilt, h.Phase(1))
	assert.Equal(t, 0, rt.batchCount())

	// Frame 4 submits.
	h.SetActiveLayer(info)
	h.Update()
	b, ok := rt.lastBatch()
	require.True(t, ok)
	require.Len(t, b.records, 1)
	assert.Equal(t, LayerID(1), b.records[0].ID)
	assert.Equal(t, 128, b.records[0].Width)
	assert.Equal(t, 0, h.Buffer().Len())
}

func TestHandlerTwoActiveInsertionOrder(t *testing.T) {
	h, rt, _ := newTestHandler()
	a := quadInfo(1, 5, newTexture("a", 16, 16))
	b := quadInfo(2, 2, newTexture("b", 16, 16))
	h.CreateLayer(a)
	h.CreateLayer(b)
	rt.completeAll()
	h.Update()

	h.SetActiveLayer(a)
	h.SetActiveLayer(b)
	h.Update()

	got, ok := rt.lastBatch()
	require.True(t, ok)
	require.Len(t, got.records, 2)
	assert.Equal(t, LayerID(1), got.records[0].ID)
	assert.Equal(t, LayerID(2), got.records[1].ID)
	assert.Equal(t, []int32{5, 2}, got.orders)
	assert.Equal(t, unsafe.Sizeof(testRecord{}), got.stride)
}

// A pending layer that loses its texture cannot be built once its swapchain
// arrives: the swapchain is released and the layer waits in Idle.
func TestHandlerPendingLosesTexture(t *testing.T) {
	h, rt, s := newTestHandler()
	h.CreateLayer(quadInfo(1, 0, newTexture("a", 8, 8)))
	require.Equal(t, PhasePending, h.Phase(1))

	h.ModifyLayer(quadInfo(1, 0, nil))
	assert.Equal(t, PhasePending, h.Phase(1))
	assert.Len(t, rt.requests, 1, "no second request while pending")

	rt.completeAll()
	assert.NotPanics(t, h.Update)
	assert.Equal(t, PhaseIdle, h.Phase(1))
	assert.Equal(t, []LayerID{1}, rt.released)
	assert.Equal(t, 0, s.builds)
	_, ok := h.Record(1)
	assert.False(t, ok)

	// Getting the texture back requests a new swapchain.
	info := quadInfo(1, 0, newTexture("b", 8, 8))
	h.ModifyLayer(info)
	require.Len(t, rt.requests, 2)
	rt.completeAll()
	h.Update()
	assert.Equal(t, PhaseBuilt, h.Phase(1))
}

func TestHandlerRemoveWithQueuedCompletion(t *testing.T) {
	h, rt, _ := newTestHandler()
	h.CreateLayer(quadInfo(1, 0, newTexture("a", 8, 8)))
	rt.completeAll()
	require.Equal(t, 1, h.Queued())

	h.RemoveLayer(1)
	assert.NotPanics(t, h.Update)

	assert.Equal(t, PhaseUnseen, h.Phase(1))
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 0, h.Queued())
	assert.Equal(t, []LayerID{1}, rt.released)
}

func TestHandlerStaleTicketDropped(t *testing.T) {
	h, rt, _ := newTestHandler()
	info := quadInfo(1, 0, newTexture("a", 8, 8))
	h.CreateLayer(info)
	old := rt.takeHeld()
	h.RemoveLayer(1)
	h.CreateLayer(info)
	require.Len(t, rt.requests, 2)
	assert.Equal(t, uint64(2), rt.requests[1].Ticket)

	// The first creation finishes late; it must not build the new instance.
	rt.fire(old[0])
	h.Update()
	assert.Equal(t, PhasePending, h.Phase(1))

	rt.completeAll()
	h.Update()
	assert.Equal(t, PhaseBuilt, h.Phase(1))
}

func TestHandlerModify(t *testing.T) {
	t.Run("pending refreshes info only", func(t *testing.T) {
		h, rt, _ := newTestHandler()
		h.CreateLayer(quadInfo(1, 0, newTexture("a", 8, 8)))
		h.ModifyLayer(quadInfo(1, 9, newTexture("a", 8, 8)))
		assert.Len(t, rt.requests, 1)
		info, ok := h.Info(1)
		require.True(t, ok)
		assert.Equal(t, int32(9), info.Order)
	})

	t.Run("built patches in place", func(t *testing.T) {
		h, rt, _ := newTestHandler()
		info := quadInfo(1, 0, newTexture("a", 8, 8))
		buildLayer(t, h, rt, info)
		h.ModifyLayer(info)
		h.ModifyLayer(info)
		rec, ok := h.Record(1)
		require.True(t, ok)
		assert.Equal(t, 2, rec.Patches)
		assert.Len(t, rt.requests, 1)
	})

	t.Run("declined patch keeps record", func(t *testing.T) {
		h, rt, s := newTestHandler()
		info := quadInfo(1, 0, newTexture("a", 8, 8))
		buildLayer(t, h, rt, info)
		h.ModifyLayer(info)
		s.declinePatch = true
		h.ModifyLayer(info)
		rec, _ := h.Record(1)
		assert.Equal(t, 1, rec.Patches)
	})

	t.Run("unknown id creates", func(t *testing.T) {
		h, rt, _ := newTestHandler()
		h.ModifyLayer(quadInfo(3, 0, newTexture("a", 8, 8)))
		assert.Equal(t, PhasePending, h.Phase(3))
		assert.Len(t, rt.requests, 1)
	})

	t.Run("duplicate create is a modify", func(t *testing.T) {
		h, rt, _ := newTestHandler()
		info := quadInfo(1, 0, newTexture("a", 8, 8))
		h.CreateLayer(info)
		h.CreateLayer(info)
		assert.Len(t, rt.requests, 1)
	})
}

func TestHandlerBuildDeclined(t *testing.T) {
	h, rt, s := newTestHandler()
	s.declineBuild = true
	info := quadInfo(1, 0, newTexture("a", 8, 8))
	h.CreateLayer(info)
	rt.completeAll()
	h.Update()

	assert.Equal(t, PhaseIdle, h.Phase(1))
	assert.Equal(t, []LayerID{1}, rt.released)

	s.declineBuild = false
	h.ModifyLayer(info)
	rt.completeAll()
	h.Update()
	assert.Equal(t, PhaseBuilt, h.Phase(1))
}

func TestHandlerActivateDeclineSkipsFrame(t *testing.T) {
	h, rt, s := newTestHandler()
	a := quadInfo(1, 0, newTexture("a", 8, 8))
	b := quadInfo(2, 1, newTexture("b", 8, 8))
	buildLayer(t, h, rt, a)
	buildLayer(t, h, rt, b)

	s.declineActivate = map[LayerID]bool{1: true}
	h.SetActiveLayer(a)
	h.SetActiveLayer(b)
	h.Update()
	got, _ := rt.lastBatch()
	require.Len(t, got.records, 1)
	assert.Equal(t, LayerID(2), got.records[0].ID)

	s.declineActivate = nil
	h.SetActiveLayer(a)
	h.Update()
	got, _ = rt.lastBatch()
	require.Len(t, got.records, 1)
	assert.Equal(t, LayerID(1), got.records[0].ID)
	assert.Equal(t, PhaseBuilt, h.Phase(1))
}

func TestHandlerNotSubmittedWhenEmpty(t *testing.T) {
	h, rt, _ := newTestHandler()
	buildLayer(t, h, rt, quadInfo(1, 0, newTexture("a", 8, 8)))
	h.Update()
	h.Update()
	assert.Equal(t, 0, rt.batchCount())
}

func TestHandlerResizeRecreates(t *testing.T) {
	h, rt, _ := newTestHandler()
	small := quadInfo(1, 0, newTexture("a", 64, 64))
	buildLayer(t, h, rt, small)
	h.SetActiveLayer(small)
	h.Update()
	require.Equal(t, 1, rt.batchCount())

	big := quadInfo(1, 0, newTexture("b", 128, 64))
	h.SetActiveLayer(big)
	h.Update()
	assert.Equal(t, PhasePending, h.Phase(1))
	assert.Equal(t, []LayerID{1}, rt.released)
	require.Len(t, rt.requests, 2)
	assert.Equal(t, uint32(128), rt.requests[1].Width)
	assert.Equal(t, 1, rt.batchCount(), "resized layer must not be submitted")

	// Still pending: still absent.
	h.SetActiveLayer(big)
	h.Update()
	assert.Equal(t, 1, rt.batchCount())

	rt.completeAll()
	h.SetActiveLayer(big)
	h.Update()
	assert.Equal(t, 1, rt.batchCount())

	h.SetActiveLayer(big)
	h.Update()
	got, ok := rt.lastBatch()
	require.True(t, ok)
	require.Len(t, got.records, 1)
	assert.Equal(t, 128, got.records[0].Width)
}

func TestHandlerTextureWrites(t *testing.T) {
	t.Run("written once", func(t *testing.T) {
		h, rt, _ := newTestHandler()
		tex := newTexture("a", 8, 8)
		info := quadInfo(1, 0, tex)
		buildLayer(t, h, rt, info)
		for range 3 {
			h.SetActiveLayer(info)
			h.Update()
		}
		require.Len(t, rt.writes, 1)
		assert.Same(t, tex, rt.writes[0].tex)
	})

	t.Run("same size swap writes again", func(t *testing.T) {
		h, rt, _ := newTestHandler()
		info := quadInfo(1, 0, newTexture("a", 8, 8))
		buildLayer(t, h, rt, info)
		h.SetActiveLayer(info)
		h.Update()

		swapped := quadInfo(1, 0, newTexture("b", 8, 8))
		h.SetActiveLayer(swapped)
		h.Update()
		assert.Len(t, rt.writes, 2)
		assert.Len(t, rt.requests, 1)
		assert.Equal(t, 2, rt.batchCount())
	})

	t.Run("video written every frame", func(t *testing.T) {
		h, rt, _ := newTestHandler()
		info := quadInfo(1, 0, newTexture("v", 8, 8))
		info.Layer.Textures.Video = true
		buildLayer(t, h, rt, info)
		for range 3 {
			h.SetActiveLayer(info)
			h.Update()
		}
		assert.Len(t, rt.writes, 3)
	})

	t.Run("stereo writes both eyes", func(t *testing.T) {
		h, rt, _ := newTestHandler()
		info := quadInfo(1, 0, newTexture("l", 8, 8))
		info.Layer.Textures.Right = newTexture("r", 8, 8)
		buildLayer(t, h, rt, info)
		h.SetActiveLayer(info)
		h.Update()
		require.Len(t, rt.writes, 2)
		assert.Equal(t, 0, rt.writes[0].eye)
		assert.Equal(t, 1, rt.writes[1].eye)
	})

	t.Run("external surface not written", func(t *testing.T) {
		h, rt, _ := newTestHandler()
		info := quadInfo(1, 0, newTexture("ext", 8, 8))
		info.Layer.Textures.Source = SourceExternalSurface
		buildLayer(t, h, rt, info)
		h.SetActiveLayer(info)
		h.Update()
		assert.Empty(t, rt.writes)
		assert.Equal(t, 1, rt.batchCount())
	})
}

func TestHandlerBufferExhaustion(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	var logs bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))

	h, rt, _ := newTestHandler(WithMaxLayers(1), WithName("quad"))
	a := quadInfo(1, 0, newTexture("a", 8, 8))
	b := quadInfo(2, 0, newTexture("b", 8, 8))
	buildLayer(t, h, rt, a)
	buildLayer(t, h, rt, b)

	for range 2 {
		h.SetActiveLayer(a)
		h.SetActiveLayer(b)
		h.Update()
	}
	assert.Equal(t, 0, rt.batchCount())
	assert.ErrorIs(t, h.Err(), ErrHandlerFailed)
	assert.Equal(t, 1, bytes.Count(logs.Bytes(), []byte("handler disabled")))

	// Later frames with a single layer stay disabled.
	h.SetActiveLayer(a)
	h.Update()
	assert.Equal(t, 0, rt.batchCount())
}

func TestHandlerSubmitFailureIsNotFatal(t *testing.T) {
	h, rt, _ := newTestHandler()
	info := quadInfo(1, 0, newTexture("a", 8, 8))
	buildLayer(t, h, rt, info)

	rt.submitErr = errRuntimeGone
	h.SetActiveLayer(info)
	assert.NotPanics(t, h.Update)
	assert.Equal(t, 0, h.Buffer().Len())
	assert.NoError(t, h.Err())

	rt.submitErr = nil
	h.SetActiveLayer(info)
	h.Update()
	assert.Equal(t, 1, rt.batchCount())
}

func TestHandlerClose(t *testing.T) {
	h, rt, _ := newTestHandler()
	buildLayer(t, h, rt, quadInfo(1, 0, newTexture("a", 8, 8)))
	h.CreateLayer(quadInfo(2, 0, newTexture("b", 8, 8)))
	h.CreateLayer(quadInfo(3, 0, nil))
	held := rt.takeHeld()

	require.NoError(t, h.Close())
	assert.ElementsMatch(t, []LayerID{1, 2}, rt.released)
	assert.Equal(t, 0, h.Len())
	assert.ErrorIs(t, h.Err(), ErrClosed)

	// Late completion after close is dropped.
	assert.NotPanics(t, func() { rt.fire(held[0]) })
	assert.Equal(t, 0, h.Queued())
	h.Update()
	h.CreateLayer(quadInfo(4, 0, newTexture("c", 8, 8)))
	assert.Equal(t, 0, h.Len())
	assert.NoError(t, h.Close())
}

func TestHandlerConcurrentCompletions(t *testing.T) {
	h, rt, _ := newTestHandler()
	const n = 64
	for i := range n {
		h.CreateLayer(quadInfo(LayerID(i), int32(i), newTexture("t", 8, 8)))
	}
	held := rt.takeHeld()
	require.Len(t, held, n)

	var wg sync.WaitGroup
	for _, hc := range held {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rt.fire(hc)
		}()
	}
	wg.Wait()
	h.Update()

	for i := range n {
		assert.Equal(t, PhaseBuilt, h.Phase(LayerID(i)), "id %d", i)
	}
}

// The handler holds state for an id iff a create was processed and no
// remove followed, for any interleaving of events and completions.
func TestHandlerStateMapProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	h, rt, _ := newTestHandler()
	known := map[LayerID]bool{}
	tex := newTexture("t", 8, 8)

	for step := range 2000 {
		id := LayerID(rng.IntN(5))
		var info LayerInfo
		if rng.IntN(4) == 0 {
			info = quadInfo(id, 0, nil)
		} else {
			info = quadInfo(id, 0, tex)
		}
		switch rng.IntN(6) {
		case 0:
			h.CreateLayer(info)
			known[id] = true
		case 1:
			h.ModifyLayer(info)
			known[id] = true
		case 2:
			h.RemoveLayer(id)
			delete(known, id)
		case 3:
			h.SetActiveLayer(info)
		case 4:
			rt.completeAll()
		case 5:
			h.Update()
		}

		require.Equal(t, len(known), h.Len(), "step %d", step)
		for i := range LayerID(5) {
			assert.Equal(t, known[i], h.Phase(i) != PhaseUnseen, "step %d id %d", step, i)
		}
	}
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "unseen", PhaseUnseen.String())
	assert.Equal(t, "built", PhaseBuilt.String())
	assert.Equal(t, "unknown", Phase(9).String())
}
