// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/swapchain/compositor"
	"github.com/gogpu/wgpu/core"
)

// Backend is the registry name of the wgpu layer backend.
const Backend = "wgpu"

func init() {
	compositor.Register(Backend, 100, func(opts compositor.Options) (compositor.Layer, error) {
		return New(opts)
	}, Available)
}

// availableOnce caches the adapter probe. Availability cannot change
// within a process lifetime, and probing creates a real instance.
var availableOnce = sync.OnceValue(func() bool {
	instance := core.NewInstance(&gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
	})
	adapterID, err := instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		compositor.Logger().Debug("wgpu: no adapter available", "error", err)
		return false
	}
	_ = releaseAdapter(adapterID)
	return true
})

// Available reports whether a GPU adapter can be requested.
func Available() bool { return availableOnce() }

// Layer is a GPU compositor layer backed by gogpu/wgpu.
//
// Layer is safe for concurrent use.
type Layer struct {
	mu sync.Mutex

	// geometry, in points
	width  float64
	height float64
	scale  float64

	refresh time.Duration

	// GPU resources
	instance *core.Instance
	adapter  core.AdapterID
	device   core.DeviceID
	queue    core.QueueID
	gpuInfo  *GPUInfo

	cfg        compositor.Config
	configured bool
	drawables  []*gpuDrawable

	pending []compositor.PresentRequest
	dirty   []compositor.Region
	hdr     compositor.HDRMetadata

	events      chan compositor.Event
	released    bool
	invalidated bool
}

// gpuDrawable is one presentable slot. Its texture is logical: the
// descriptor is tracked but no GPU memory is bound yet.
type gpuDrawable struct {
	slot   int
	extent compositor.Extent
	desc   gputypes.TextureDescriptor
	id     core.TextureID
	tex    gpucontext.Texture
}

func (d *gpuDrawable) Slot() int                   { return d.slot }
func (d *gpuDrawable) Extent() compositor.Extent   { return d.extent }
func (d *gpuDrawable) Texture() gpucontext.Texture { return d.tex }
func (d *gpuDrawable) Release()                    { d.id = core.TextureID{}; d.tex = nil }

// New creates a wgpu-backed layer, bootstrapping the full GPU chain:
// instance, adapter, device, queue. Resources are released by Release.
func New(opts compositor.Options) (*Layer, error) {
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	l := &Layer{
		width:   width,
		height:  height,
		scale:   scale,
		refresh: 16_666_667 * time.Nanosecond,
		events:  make(chan compositor.Event, 128),
	}

	l.instance = core.NewInstance(&gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
	})

	adapterID, err := l.instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: adapter request failed: %w", err)
	}
	l.adapter = adapterID

	logGPUInfo(adapterID)
	l.gpuInfo, _ = getGPUInfo(adapterID)

	deviceID, err := createDevice(adapterID, "swapchain-layer-device")
	if err != nil {
		_ = releaseAdapter(adapterID)
		return nil, fmt.Errorf("wgpu: %w", err)
	}
	l.device = deviceID

	queueID, err := getDeviceQueue(deviceID)
	if err != nil {
		_ = releaseDevice(deviceID)
		_ = releaseAdapter(adapterID)
		return nil, fmt.Errorf("wgpu: %w", err)
	}
	l.queue = queueID

	return l, nil
}

// GPUInfo returns information about the selected GPU.
// Returns nil after Release.
func (l *Layer) GPUInfo() *GPUInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gpuInfo
}

// Device returns the GPU device ID. Zero after Release.
func (l *Layer) Device() core.DeviceID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.device
}

// Queue returns the GPU queue ID. Zero after Release.
func (l *Layer) Queue() core.QueueID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue
}

// Bounds returns the layer size in points.
func (l *Layer) Bounds() (width, height float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.width, l.height
}

// ContentsScale returns the pixel density.
func (l *Layer) ContentsScale() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scale
}

// Configure prepares the layer for presentation with the given
// drawable geometry and mode.
func (l *Layer) Configure(cfg compositor.Config) error {
	if cfg.Extent.IsZero() {
		return fmt.Errorf("wgpu: zero drawable extent")
	}
	if cfg.DrawableCount <= 0 {
		return fmt.Errorf("wgpu: drawable count %d", cfg.DrawableCount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return compositor.ErrLayerReleased
	}
	if l.invalidated {
		return compositor.ErrLayerInvalidated
	}
	l.cfg = cfg
	l.configured = true
	l.drawables = make([]*gpuDrawable, cfg.DrawableCount)
	compositor.Logger().Info("wgpu layer configured",
		"extent", fmt.Sprintf("%dx%d", cfg.Extent.Width, cfg.Extent.Height),
		"format", cfg.Format,
		"drawables", cfg.DrawableCount,
		"mode", cfg.Mode.String())
	return nil
}

// NewDrawable creates the presentable texture for one slot.
func (l *Layer) NewDrawable(slot int) (compositor.Drawable, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return nil, compositor.ErrLayerReleased
	}
	if !l.configured {
		return nil, compositor.ErrNotConfigured
	}
	if slot < 0 || slot >= len(l.drawables) {
		return nil, fmt.Errorf("%w: %d", compositor.ErrInvalidSlot, slot)
	}

	layers := uint32(l.cfg.ArrayLayers)
	if layers == 0 {
		layers = 1
	}
	d := &gpuDrawable{
		slot:   slot,
		extent: l.cfg.Extent,
		desc: gputypes.TextureDescriptor{
			Label: fmt.Sprintf("swapchain-drawable-%d", slot),
			Size: gputypes.Extent3D{
				Width:              l.cfg.Extent.Width,
				Height:             l.cfg.Extent.Height,
				DepthOrArrayLayers: layers,
			},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        l.cfg.Format,
			Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
		},
		// Logical texture until wgpu surface textures land.
		id: core.TextureID{},
	}
	l.drawables[slot] = d
	return d, nil
}

// Present submits one drawable for display. Completion is paced by the
// refresh interval (immediately for PresentModeImmediate).
func (l *Layer) Present(req compositor.PresentRequest) error {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return compositor.ErrLayerReleased
	}
	if l.invalidated {
		l.mu.Unlock()
		return compositor.ErrLayerInvalidated
	}
	if !l.configured {
		l.mu.Unlock()
		return compositor.ErrNotConfigured
	}
	if req.Slot < 0 || req.Slot >= len(l.drawables) || l.drawables[req.Slot] == nil {
		l.mu.Unlock()
		return fmt.Errorf("%w: %d", compositor.ErrInvalidSlot, req.Slot)
	}

	l.pending = append(l.pending, req)
	delay := l.refresh
	if req.Mode == compositor.PresentModeImmediate ||
		(req.Mode == compositor.PresentModeUnspecified && l.cfg.Mode == compositor.PresentModeImmediate) {
		delay = 0
	}
	l.mu.Unlock()

	time.AfterFunc(delay, l.completeOldest)
	return nil
}

// completeOldest pops the oldest pending present and emits its
// completion event.
func (l *Layer) completeOldest() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released || l.invalidated || len(l.pending) == 0 {
		return
	}
	req := l.pending[0]
	l.pending = l.pending[1:]

	select {
	case l.events <- compositor.PresentCompleted{
		Slot:       req.Slot,
		PresentID:  req.PresentID,
		ActualTime: time.Now(),
	}:
	default:
		compositor.Logger().Warn("wgpu layer dropped completion event", "slot", req.Slot)
	}
}

// SetNeedsDisplay records regions needing redraw.
func (l *Layer) SetNeedsDisplay(regions []compositor.Region) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	if len(regions) == 0 {
		l.dirty = []compositor.Region{{Rect: image.Rect(0, 0, int(l.width*l.scale), int(l.height*l.scale))}}
		return
	}
	l.dirty = append(l.dirty[:0], regions...)
}

// SetHDRMetadata records HDR mastering metadata for the display path.
func (l *Layer) SetHDRMetadata(md compositor.HDRMetadata) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hdr = md
	compositor.Logger().Debug("wgpu layer HDR metadata set",
		"maxLuminance", md.MaxLuminance,
		"minLuminance", md.MinLuminance)
}

// RefreshInterval returns the display refresh cycle duration.
func (l *Layer) RefreshInterval() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refresh
}

// SetRefreshInterval overrides the assumed display refresh cycle.
func (l *Layer) SetRefreshInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refresh = d
}

// Events returns the layer's notification channel.
func (l *Layer) Events() <-chan compositor.Event {
	return l.events
}

// Release tears down the GPU chain in reverse creation order and
// closes the Events channel.
func (l *Layer) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	l.released = true
	l.pending = nil
	l.drawables = nil

	if !l.device.IsZero() {
		if err := releaseDevice(l.device); err != nil {
			compositor.Logger().Warn("wgpu: error releasing device", "error", err)
		}
		l.device = core.DeviceID{}
	}
	if !l.adapter.IsZero() {
		if err := releaseAdapter(l.adapter); err != nil {
			compositor.Logger().Warn("wgpu: error releasing adapter", "error", err)
		}
		l.adapter = core.AdapterID{}
	}
	// Queue is released with the device; the instance needs no
	// explicit cleanup.
	l.instance = nil
	l.queue = core.QueueID{}
	l.gpuInfo = nil

	close(l.events)
}

// Ensure Layer implements compositor.Layer.
var _ compositor.Layer = (*Layer)(nil)
