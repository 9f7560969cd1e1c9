// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	xdraw "golang.org/x/image/draw"
)

// BackendHeadless is the registry name of the headless layer backend.
const BackendHeadless = "headless"

func init() {
	Register(BackendHeadless, 10, func(opts Options) (Layer, error) {
		h := NewHeadless(opts.Width, opts.Height)
		if opts.Scale > 0 {
			h.SetContentsScale(opts.Scale)
		}
		return h, nil
	}, nil)
}

// defaultRefreshInterval approximates a 60 Hz display.
const defaultRefreshInterval = 16_666_667 * time.Nanosecond

// Headless is a CPU compositor target. It composites presented
// drawables into an in-memory framebuffer and is always available,
// which makes it both the fallback backend and the layer used in tests.
//
// Presentation pacing is timer-driven by default: a present completes
// one refresh interval after submission (immediately for
// PresentModeImmediate). With SetManualPresentation(true), presents
// queue up and complete only when Tick is called, which makes frame
// delivery fully deterministic.
//
// Headless is safe for concurrent use.
type Headless struct {
	mu sync.Mutex

	// geometry, in points
	width  float64
	height float64
	scale  float64

	refresh time.Duration
	manual  bool

	cfg        Config
	configured bool
	drawables  []*headlessDrawable

	// frame is the front buffer at the layer's natural pixel size.
	frame *image.RGBA

	dirty []Region
	hdr   HDRMetadata

	pending      []PresentRequest
	completed    PresentRequest
	hasCompleted bool

	events      chan Event
	released    bool
	invalidated bool
}

// headlessDrawable is a CPU-backed drawable slot.
type headlessDrawable struct {
	slot   int
	extent Extent
	img    *image.RGBA
}

// Slot returns the drawable's slot index.
func (d *headlessDrawable) Slot() int { return d.slot }

// Extent returns the drawable size in pixels.
func (d *headlessDrawable) Extent() Extent { return d.extent }

// Texture returns nil: headless drawables are CPU-backed.
func (d *headlessDrawable) Texture() gpucontext.Texture { return nil }

// Release frees the backing store.
func (d *headlessDrawable) Release() { d.img = nil }

// Image returns the drawable's backing image for rendering into.
func (d *headlessDrawable) Image() *image.RGBA { return d.img }

// NewHeadless creates a headless layer of the given size in points,
// with a pixel density of 1.
func NewHeadless(width, height float64) *Headless {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &Headless{
		width:   width,
		height:  height,
		scale:   1,
		refresh: defaultRefreshInterval,
		events:  make(chan Event, 128),
	}
}

// Bounds returns the layer size in points.
func (h *Headless) Bounds() (width, height float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

// ContentsScale returns the pixel density.
func (h *Headless) ContentsScale() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.scale
}

// SetContentsScale changes the pixel density, reallocating the
// framebuffer if the layer is configured.
func (h *Headless) SetContentsScale(scale float64) {
	if scale <= 0 {
		scale = 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scale = scale
	h.reallocFrameLocked()
}

// Resize changes the layer size in points, simulating a window resize.
// Drawables keep their configured extent; only the layer geometry
// changes, which is what makes a swapchain report a suboptimal surface.
func (h *Headless) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width = width
	h.height = height
	h.reallocFrameLocked()
}

// SetRefreshInterval changes the simulated display refresh cycle.
func (h *Headless) SetRefreshInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refresh = d
}

// SetManualPresentation switches between timer-driven completion and
// Tick-driven completion.
func (h *Headless) SetManualPresentation(manual bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.manual = manual
}

// Configure prepares the layer for presentation.
func (h *Headless) Configure(cfg Config) error {
	if cfg.Extent.IsZero() {
		return fmt.Errorf("compositor: headless: zero drawable extent")
	}
	if cfg.DrawableCount <= 0 {
		return fmt.Errorf("compositor: headless: drawable count %d", cfg.DrawableCount)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrLayerReleased
	}
	if h.invalidated {
		return ErrLayerInvalidated
	}
	h.cfg = cfg
	h.configured = true
	h.drawables = make([]*headlessDrawable, cfg.DrawableCount)
	h.reallocFrameLocked()
	Logger().Info("headless layer configured",
		"extent", fmt.Sprintf("%dx%d", cfg.Extent.Width, cfg.Extent.Height),
		"drawables", cfg.DrawableCount,
		"mode", cfg.Mode.String())
	return nil
}

// reallocFrameLocked sizes the front buffer to the natural extent.
// Must be called with mu held.
func (h *Headless) reallocFrameLocked() {
	if !h.configured {
		return
	}
	w := int(math.RoundToEven(h.width * h.scale))
	ht := int(math.RoundToEven(h.height * h.scale))
	if w < 1 {
		w = 1
	}
	if ht < 1 {
		ht = 1
	}
	h.frame = image.NewRGBA(image.Rect(0, 0, w, ht))
}

// NewDrawable allocates the CPU backing store for one slot.
func (h *Headless) NewDrawable(slot int) (Drawable, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, ErrLayerReleased
	}
	if !h.configured {
		return nil, ErrNotConfigured
	}
	if slot < 0 || slot >= len(h.drawables) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	d := &headlessDrawable{
		slot:   slot,
		extent: h.cfg.Extent,
		img:    image.NewRGBA(image.Rect(0, 0, int(h.cfg.Extent.Width), int(h.cfg.Extent.Height))),
	}
	h.drawables[slot] = d
	return d, nil
}

// Present submits one drawable for display.
func (h *Headless) Present(req PresentRequest) error {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return ErrLayerReleased
	}
	if h.invalidated {
		h.mu.Unlock()
		return ErrLayerInvalidated
	}
	if !h.configured {
		h.mu.Unlock()
		return ErrNotConfigured
	}
	if req.Slot < 0 || req.Slot >= len(h.drawables) || h.drawables[req.Slot] == nil {
		h.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrInvalidSlot, req.Slot)
	}

	h.pending = append(h.pending, req)
	manual := h.manual
	delay := h.refresh
	if req.Mode == PresentModeImmediate ||
		(req.Mode == PresentModeUnspecified && h.cfg.Mode == PresentModeImmediate) {
		delay = 0
	}
	h.mu.Unlock()

	if !manual {
		time.AfterFunc(delay, h.completeOldest)
	}
	return nil
}

// Tick completes the oldest pending present, if any.
// It reports whether a present completed. Only meaningful in manual
// presentation mode, but harmless otherwise.
func (h *Headless) Tick() bool {
	return h.completeOldestReport()
}

// Pending returns the number of submitted presents that have not yet
// completed.
func (h *Headless) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// LastPresented returns the most recently completed present request.
// It reports false if nothing has completed yet.
func (h *Headless) LastPresented() (PresentRequest, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.completed, h.hasCompleted
}

func (h *Headless) completeOldest() { h.completeOldestReport() }

// completeOldestReport pops the oldest pending present, composites it
// into the front buffer, and emits PresentCompleted.
func (h *Headless) completeOldestReport() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released || h.invalidated || len(h.pending) == 0 {
		return false
	}
	req := h.pending[0]
	h.pending = h.pending[1:]
	h.completed = req
	h.hasCompleted = true

	if d := h.drawables[req.Slot]; d != nil && d.img != nil && h.frame != nil {
		h.compositeLocked(d.img)
	}

	ev := PresentCompleted{
		Slot:       req.Slot,
		PresentID:  req.PresentID,
		ActualTime: time.Now(),
	}
	select {
	case h.events <- ev:
	default:
		// The consumer stopped draining; dropping the completion is
		// the only option that cannot deadlock the compositor.
		Logger().Warn("headless layer dropped completion event", "slot", req.Slot)
	}
	return true
}

// compositeLocked blits src into the front buffer, scaling when the
// drawable and layer sizes differ. Must be called with mu held.
func (h *Headless) compositeLocked(src *image.RGBA) {
	dst := h.frame
	sr := src.Bounds()
	db := dst.Bounds()

	if sr.Dx() == db.Dx() && sr.Dy() == db.Dy() {
		xdraw.Copy(dst, image.Point{}, src, sr, xdraw.Src, nil)
		return
	}

	dr := db
	if h.cfg.Scaling == ScalingAspectFit {
		sw, sh := float64(sr.Dx()), float64(sr.Dy())
		dw, dh := float64(db.Dx()), float64(db.Dy())
		r := math.Min(dw/sw, dh/sh)
		w, ht := int(sw*r), int(sh*r)
		x0 := (db.Dx() - w) / 2
		y0 := (db.Dy() - ht) / 2
		dr = image.Rect(x0, y0, x0+w, y0+ht)
	}
	xdraw.ApproxBiLinear.Scale(dst, dr, src, sr, xdraw.Src, nil)
}

// SetNeedsDisplay records regions needing redraw.
// An empty slice marks the whole layer.
func (h *Headless) SetNeedsDisplay(regions []Region) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	if len(regions) == 0 {
		h.dirty = []Region{{Rect: image.Rect(0, 0, int(h.width*h.scale), int(h.height*h.scale))}}
		return
	}
	h.dirty = append(h.dirty[:0], regions...)
}

// DirtyRegions returns the regions recorded by the last SetNeedsDisplay.
func (h *Headless) DirtyRegions() []Region {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Region, len(h.dirty))
	copy(out, h.dirty)
	return out
}

// SetHDRMetadata records HDR mastering metadata.
func (h *Headless) SetHDRMetadata(md HDRMetadata) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hdr = md
}

// AppliedHDRMetadata returns the metadata recorded by the last
// SetHDRMetadata.
func (h *Headless) AppliedHDRMetadata() HDRMetadata {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hdr
}

// RefreshInterval returns the simulated display refresh cycle.
func (h *Headless) RefreshInterval() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refresh
}

// Events returns the layer's notification channel.
func (h *Headless) Events() <-chan Event {
	return h.events
}

// Frame returns the front buffer. The returned image is the live
// framebuffer; callers must not retain it across presents.
func (h *Headless) Frame() *image.RGBA {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame
}

// Invalidate simulates external destruction of the backing surface.
// Pending presents are dropped and an Invalidated event is emitted.
// The layer cannot be used afterwards; only Release may follow.
func (h *Headless) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released || h.invalidated {
		return
	}
	h.invalidated = true
	h.pending = nil
	select {
	case h.events <- Invalidated{}:
	default:
	}
}

// Release tears the layer down and closes the Events channel.
func (h *Headless) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	h.pending = nil
	h.drawables = nil
	h.frame = nil
	close(h.events)
}

// Ensure Headless implements Layer.
var _ Layer = (*Headless)(nil)
