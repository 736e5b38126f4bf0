// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package compositor is an in-process software XR runtime.
//
// Compositor implements xrlayer.Runtime and every optional runtime facet.
// Swapchains are created asynchronously on worker goroutines and backed by
// RGBA images; submitted batches are collected into a Frame ordered by draw
// order. It stands in for a device runtime in tests, headless runs and the
// terminal monitor.
//
// Basic usage:
//
//	c, err := compositor.New(compositor.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	reg := xrlayer.NewRegistry()
//	layers.RegisterBuiltins(reg, c, layers.Options{})
//	reg.Dispatch(changes)
//	frame := c.EndFrame()
package compositor

import (
	"cmp"
	"errors"
	"fmt"
	"image"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/xrlayer"
	imagepool "github.com/gogpu/xrlayer/internal/image"
	"github.com/gogpu/xrlayer/internal/parallel"
	"github.com/gogpu/xrlayer/native"
)

var (
	// ErrRuntimeLost is returned by every call after Lose.
	ErrRuntimeLost = errors.New("compositor: runtime lost")

	// ErrUnknownSwapchain is returned when writing to a layer without a swapchain.
	ErrUnknownSwapchain = errors.New("compositor: unknown swapchain")
)

// Option configures a Compositor.
type Option func(*Compositor)

// WithDevice sets the host device asked for the default color format when
// Config.ColorFormat is empty.
func WithDevice(d Device) Option {
	return func(c *Compositor) {
		c.device = d
	}
}

type swapchain struct {
	req xrlayer.SwapchainRequest
	out xrlayer.SwapchainOutput
	// images holds one slice of faces per eye; nil for external surfaces.
	images [][]*image.RGBA
}

// Compositor is a software runtime. It is safe for concurrent use.
type Compositor struct {
	cfg     Config
	format  gputypes.TextureFormat
	device  Device
	workers *parallel.WorkerPool
	images  *imagepool.Pool

	mu           sync.Mutex
	swapchains   map[xrlayer.LayerID]*swapchain
	owners       map[xrlayer.SwapchainHandle]xrlayer.LayerID
	epochs       map[xrlayer.LayerID]uint64
	nextHandle   xrlayer.SwapchainHandle
	pending      []FrameLayer
	frames       uint64
	defaultFlags native.LayerFlags
	head         xrlayer.Pose
	lost         bool
	closed       bool
}

var (
	_ xrlayer.Runtime                = (*Compositor)(nil)
	_ xrlayer.TextureWriter          = (*Compositor)(nil)
	_ xrlayer.Capabilities           = (*Compositor)(nil)
	_ xrlayer.ViewLocator            = (*Compositor)(nil)
	_ xrlayer.DefaultLayerConfigurer = (*Compositor)(nil)
)

// New validates cfg and starts the compositor's workers.
func New(cfg Config, opts ...Option) (*Compositor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Compositor{
		cfg:        cfg,
		swapchains: make(map[xrlayer.LayerID]*swapchain),
		owners:     make(map[xrlayer.SwapchainHandle]xrlayer.LayerID),
		epochs:     make(map[xrlayer.LayerID]uint64),
		head:       xrlayer.IdentityPose(),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch {
	case cfg.ColorFormat != "":
		c.format = formats[strings.ToLower(cfg.ColorFormat)]
	case c.device != nil:
		c.format = c.device.SurfaceFormat()
	default:
		c.format = gputypes.TextureFormatUndefined
	}

	c.workers = parallel.NewWorkerPool(cfg.Workers)
	c.images = imagepool.NewPool(cfg.PooledImages)

	xrlayer.Logger().Info("compositor: started",
		"version", cfg.Version,
		"format", c.format,
		"workers", c.workers.Workers())
	return c, nil
}

// Config returns the configuration the compositor was created with.
func (c *Compositor) Config() Config { return c.cfg }

// CreateSwapchain allocates the swapchain on a worker and calls done from
// that worker. Requests for layers released before the worker runs, and
// requests after Lose or Close, never complete.
func (c *Compositor) CreateSwapchain(req xrlayer.SwapchainRequest, done xrlayer.SwapchainCallback) {
	c.mu.Lock()
	if c.closed || c.lost {
		c.mu.Unlock()
		xrlayer.Logger().Debug("compositor: swapchain request dropped", "id", req.ID)
		return
	}
	epoch := c.epochs[req.ID]
	c.mu.Unlock()

	latency := c.cfg.CreateLatency
	c.workers.Submit(func() {
		if latency > 0 {
			time.Sleep(latency)
		}
		if out, ok := c.allocate(req, epoch); ok {
			done(req.ID, req.Ticket, out)
		}
	})
}

func (c *Compositor) allocate(req xrlayer.SwapchainRequest, epoch uint64) (xrlayer.SwapchainOutput, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.lost || c.epochs[req.ID] != epoch {
		return xrlayer.SwapchainOutput{}, false
	}
	if old := c.swapchains[req.ID]; old != nil {
		c.releaseLocked(old)
	}

	sc := &swapchain{req: req}
	eyes := 1
	if req.Stereo {
		eyes = 2
	}
	faces := max(int(req.FaceCount), 1) * max(int(req.ArraySize), 1)
	for eye := range eyes {
		c.nextHandle++
		c.owners[c.nextHandle] = req.ID
		if eye == 0 {
			sc.out.Handle = c.nextHandle
		} else {
			sc.out.SecondStereoHandle = c.nextHandle
		}
		if req.ExternalSurface {
			continue
		}
		imgs := make([]*image.RGBA, faces)
		for f := range imgs {
			imgs[f] = c.images.Get(int(req.Width), int(req.Height))
		}
		sc.images = append(sc.images, imgs)
	}
	c.swapchains[req.ID] = sc

	xrlayer.Logger().Debug("compositor: swapchain created",
		"id", req.ID, "handle", sc.out.Handle, "width", req.Width, "height", req.Height)
	return sc.out, true
}

// ReleaseSwapchain frees the layer's swapchain and cancels a creation still
// in flight.
func (c *Compositor) ReleaseSwapchain(id xrlayer.LayerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epochs[id]++
	if sc := c.swapchains[id]; sc != nil {
		c.releaseLocked(sc)
		delete(c.swapchains, id)
	}
}

func (c *Compositor) releaseLocked(sc *swapchain) {
	delete(c.owners, sc.out.Handle)
	if sc.out.SecondStereoHandle != 0 {
		delete(c.owners, sc.out.SecondStereoHandle)
	}
	for _, faces := range sc.images {
		for _, img := range faces {
			c.images.Put(img)
		}
	}
	sc.images = nil
}

// WriteTexture scales the texture's image into the layer's swapchain image
// for eye. Cube sources hold their faces stacked vertically. Textures
// without an image are ignored.
func (c *Compositor) WriteTexture(id xrlayer.LayerID, eye int, tex *xrlayer.Texture) error {
	if tex == nil || tex.Image == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lost {
		return ErrRuntimeLost
	}
	sc := c.swapchains[id]
	if sc == nil {
		return fmt.Errorf("%w: layer %d", ErrUnknownSwapchain, id)
	}
	if eye < 0 || eye >= len(sc.images) {
		return fmt.Errorf("compositor: layer %d has no image for eye %d", id, eye)
	}

	faces := sc.images[eye]
	src := tex.Image.Bounds()
	step := src.Dy() / len(faces)
	if step == 0 {
		return fmt.Errorf("compositor: texture %q too small for %d faces", tex.Name, len(faces))
	}
	for f, dst := range faces {
		r := image.Rect(src.Min.X, src.Min.Y+f*step, src.Max.X, src.Min.Y+(f+1)*step)
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), tex.Image, r, draw.Src, nil)
	}
	return nil
}

// Image returns a copy of one face of the layer's swapchain image.
func (c *Compositor) Image(id xrlayer.LayerID, eye, face int) (*image.RGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sc := c.swapchains[id]
	if sc == nil || eye < 0 || eye >= len(sc.images) || face < 0 || face >= len(sc.images[eye]) {
		return nil, false
	}
	img := sc.images[eye][face]
	return &image.RGBA{
		Pix:    slices.Clone(img.Pix),
		Stride: img.Stride,
		Rect:   img.Rect,
	}, true
}

// Swapchains returns the number of live swapchains.
func (c *Compositor) Swapchains() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.swapchains)
}

// SubmitLayers copies the batch into the current frame.
func (c *Compositor) SubmitLayers(b xrlayer.Batch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		return xrlayer.ErrClosed
	case c.lost:
		return ErrRuntimeLost
	}
	sums := native.Summarize(b.Records)
	if len(sums) != b.Count || len(b.Orders) != b.Count {
		return fmt.Errorf("compositor: batch of %d %T records", b.Count, b.Records)
	}
	for i, s := range sums {
		c.pending = append(c.pending, FrameLayer{
			ID:      c.owners[xrlayer.SwapchainHandle(s.Swapchains[0])],
			Order:   b.Orders[i],
			Summary: s,
		})
	}
	return nil
}

// EndFrame returns the layers submitted since the previous call, sorted by
// draw order. Layers with equal order keep their submission order.
func (c *Compositor) EndFrame() Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	layers := c.pending
	c.pending = nil
	slices.SortStableFunc(layers, func(a, b FrameLayer) int {
		return cmp.Compare(a.Order, b.Order)
	})
	f := Frame{Index: c.frames, DefaultFlags: c.defaultFlags, Layers: layers}
	c.frames++
	return f
}

// Flush waits for every swapchain creation requested so far.
func (c *Compositor) Flush() {
	c.workers.Wait()
}

// Lose simulates losing the runtime: pending creations never complete and
// every later call fails with ErrRuntimeLost.
func (c *Compositor) Lose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lost {
		return
	}
	c.lost = true
	xrlayer.Logger().Warn("compositor: runtime lost", "swapchains", len(c.swapchains))
}

// Lost reports whether Lose was called.
func (c *Compositor) Lost() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lost
}

// Close stops the workers and frees every swapchain. Close is idempotent.
func (c *Compositor) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.workers.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, sc := range c.swapchains {
		c.releaseLocked(sc)
		delete(c.swapchains, id)
	}
	c.pending = nil
	xrlayer.Logger().Info("compositor: closed", "frames", c.frames)
	return nil
}

// CurrentSpace returns the configured tracking space.
func (c *Compositor) CurrentSpace() (xrlayer.SpaceHandle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return xrlayer.SpaceHandle(c.cfg.Space), c.cfg.Space != 0 && !c.lost
}

// DefaultColorFormat returns the resolved swapchain format.
func (c *Compositor) DefaultColorFormat() (gputypes.TextureFormat, bool) {
	return c.format, c.format != gputypes.TextureFormatUndefined
}

// ViewConfiguration returns the configured per-eye view.
func (c *Compositor) ViewConfiguration() (xrlayer.ViewConfig, bool) {
	v := c.cfg.View
	return xrlayer.ViewConfig{Width: v.Width, Height: v.Height, SampleCount: max(v.SampleCount, 1)}, true
}

// ExtensionEnabled reports whether name is in Config.Extensions.
func (c *Compositor) ExtensionEnabled(name string) bool {
	return slices.Contains(c.cfg.Extensions, name)
}

// Version returns Config.Version.
func (c *Compositor) Version() string { return c.cfg.Version }

// SetHeadPose moves the simulated head in tracking space.
func (c *Compositor) SetHeadPose(p xrlayer.Pose) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head = p
}

// LocateViews returns both eyes, offset from the head by half the IPD, with
// a symmetric field of view.
func (c *Compositor) LocateViews() ([2]xrlayer.View, bool) {
	c.mu.Lock()
	head, lost := c.head, c.lost
	c.mu.Unlock()

	var views [2]xrlayer.View
	if lost {
		return views, false
	}
	half := c.cfg.View.FovDegrees / 2 * math32.Pi / 180
	fov := xrlayer.Fov{Left: -half, Right: half, Up: half, Down: -half}
	for eye, side := range [2]float32{-1, 1} {
		offset := xrlayer.Pose{
			Position: xrlayer.Vec3{X: side * c.cfg.View.IPD / 2},
			Rotation: xrlayer.IdentityQuat(),
		}
		views[eye] = xrlayer.View{Pose: head.Mul(offset), Fov: fov}
	}
	return views, true
}

// SetDefaultLayerFlags records the flags of the default scene layer.
func (c *Compositor) SetDefaultLayerFlags(flags uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultFlags = native.LayerFlags(flags)
}
