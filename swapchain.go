// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/swapchain/compositor"
)

// Swapchain rotates a fixed set of presentable image slots between an
// application and a compositor layer.
//
// The lifecycle of each slot is acquire, render, present, complete:
// AcquireNextImage hands a free slot to the application, Present queues
// it on the layer, and the layer's completion event returns it to the
// free pool. All methods are safe for concurrent use.
type Swapchain struct {
	binding *surfaceBinding
	device  gpucontext.DeviceProvider

	format      gputypes.TextureFormat
	colorSpace  ColorSpace
	extent      Extent
	arrayLayers int
	presentMode PresentMode

	// modes is the compatible present mode set, including presentMode.
	modes map[PresentMode]bool

	// deliberatelyScaled suppresses the suboptimal condition when the
	// image extent intentionally differs from the layer.
	deliberatelyScaled bool

	beforePresent func(*Image)

	acquisitionID atomic.Uint64
	surfaceLost   atomic.Bool
	destroyed     atomic.Bool

	// slotMu guards image slot state; slotCond wakes blocked acquires
	// when a slot frees up or the swapchain dies.
	slotMu   sync.Mutex
	slotCond *sync.Cond
	images   []*Image

	// presentation timing history ring
	historyMu     sync.Mutex
	history       [presentTimingHistorySize]PresentTiming
	historyCount  int
	historyIndex  int
	historyHead   int
	lastFrameTime time.Time

	destroyOnce sync.Once
	pumpDone    chan struct{}
}

// New creates a swapchain over cfg.Layer, configures the layer, and
// allocates all image slots eagerly.
//
// On success the swapchain owns the layer and releases it in Destroy.
// On failure the caller keeps ownership.
func New(cfg Config) (*Swapchain, error) {
	if cfg.Layer == nil {
		return nil, ErrNilLayer
	}

	count := cfg.MinImageCount
	switch {
	case count == 0:
		count = defaultImageCount
	case count < minImageCount:
		count = minImageCount
	case count > maxImageCount:
		count = maxImageCount
	}

	layers := cfg.ArrayLayers
	if layers <= 0 {
		layers = 1
	}

	format := cfg.Format
	if format == gputypes.TextureFormatUndefined {
		if cfg.Device != nil {
			format = cfg.Device.SurfaceFormat()
		}
		if format == gputypes.TextureFormatUndefined {
			format = gputypes.TextureFormatBGRA8Unorm
		}
	}

	mode := cfg.PresentMode
	if mode == compositor.PresentModeUnspecified {
		mode = PresentModeFifo
	}
	modes := make(map[PresentMode]bool, len(cfg.CompatibleModes)+1)
	modes[mode] = true
	for _, m := range cfg.CompatibleModes {
		if m != compositor.PresentModeUnspecified {
			modes[m] = true
		}
	}

	s := &Swapchain{
		binding:            newSurfaceBinding(cfg.Layer),
		device:             cfg.Device,
		format:             format,
		colorSpace:         cfg.ColorSpace,
		arrayLayers:        layers,
		presentMode:        mode,
		modes:              modes,
		deliberatelyScaled: cfg.Scaling != ScalingNone,
		beforePresent:      cfg.BeforePresent,
		pumpDone:           make(chan struct{}),
	}
	s.slotCond = sync.NewCond(&s.slotMu)

	extent := cfg.Extent
	if extent.IsZero() {
		extent = s.binding.naturalExtent()
	}
	if extent.IsZero() {
		return nil, fmt.Errorf("%w: zero image extent", ErrInvalidConfig)
	}
	s.extent = extent

	err := s.binding.configure(compositor.Config{
		Extent:        extent,
		Format:        format,
		ColorSpace:    cfg.ColorSpace,
		DrawableCount: count,
		ArrayLayers:   layers,
		Scaling:       cfg.Scaling,
		Mode:          mode,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	s.images = make([]*Image, count)
	for i := range s.images {
		drawable, err := s.binding.newDrawable(i)
		if err != nil {
			for _, img := range s.images[:i] {
				img.drawable.Release()
			}
			return nil, fmt.Errorf("swapchain: slot %d: %w", i, err)
		}
		s.images[i] = &Image{index: i, drawable: drawable}
	}

	events := s.binding.events()
	go s.run(events)

	Logger().Info("swapchain created",
		"extent", fmt.Sprintf("%dx%d", extent.Width, extent.Height),
		"format", format,
		"images", count,
		"mode", mode.String())
	return s, nil
}

// run pumps compositor events until the layer's channel closes.
func (s *Swapchain) run(events <-chan compositor.Event) {
	defer close(s.pumpDone)
	if events == nil {
		return
	}
	for ev := range events {
		switch e := ev.(type) {
		case compositor.PresentCompleted:
			s.handlePresentCompleted(e)
		case compositor.Invalidated:
			s.handleInvalidated()
		}
	}
}

// ImageCount returns the number of image slots.
func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

// Images copies the image slots into buf and returns how many were
// written. A nil buf queries the required length. When buf is shorter
// than the slot count, a valid prefix is written and the count is
// returned with ErrIncomplete.
func (s *Swapchain) Images(buf []*Image) (int, error) {
	if s.destroyed.Load() {
		return 0, ErrDestroyed
	}
	if buf == nil {
		return len(s.images), nil
	}
	n := copy(buf, s.images)
	if n < len(s.images) {
		return n, ErrIncomplete
	}
	return n, nil
}

// Image returns the slot at the given index.
func (s *Swapchain) Image(index int) (*Image, error) {
	if s.destroyed.Load() {
		return nil, ErrDestroyed
	}
	if index < 0 || index >= len(s.images) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidImageIndex, index)
	}
	return s.images[index], nil
}

// Extent returns the image size in pixels.
func (s *Swapchain) Extent() Extent { return s.extent }

// Format returns the image pixel format.
func (s *Swapchain) Format() gputypes.TextureFormat { return s.format }

// PresentMode returns the configured present mode.
func (s *Swapchain) PresentMode() PresentMode { return s.presentMode }

// SurfaceStatus reports the health of the backing surface.
//
// Precedence: a device configuration error dominates everything, then
// surface loss, then the advisory suboptimal condition. A healthy
// surface returns nil.
func (s *Swapchain) SurfaceStatus() error {
	if s.destroyed.Load() {
		return ErrDestroyed
	}
	if s.device != nil {
		if checker, ok := s.device.(ConfigurationChecker); ok {
			if err := checker.ConfigurationError(); err != nil {
				return fmt.Errorf("%w: %w", ErrDeviceConfiguration, err)
			}
		}
	}
	if s.surfaceLost.Load() {
		return ErrSurfaceLost
	}
	if !s.HasOptimalSurface() {
		return ErrSuboptimal
	}
	return nil
}

// HasOptimalSurface reports whether the image extent still matches the
// layer's natural extent. Deliberate scaling makes any size difference
// intentional, so the surface stays optimal.
func (s *Swapchain) HasOptimalSurface() bool {
	if s.surfaceLost.Load() {
		return false
	}
	if s.deliberatelyScaled {
		return true
	}
	natural := s.binding.naturalExtent()
	if natural.IsZero() {
		return false
	}
	return natural == s.extent
}

// SetNeedsDisplay marks regions of the layer as needing redraw. An
// empty slice marks the whole layer.
func (s *Swapchain) SetNeedsDisplay(regions ...Region) {
	if s.destroyed.Load() {
		return
	}
	s.binding.setNeedsDisplay(compositorRegions(regions))
}

// handlePresentCompleted returns a presented slot to the free pool and
// records its timing.
func (s *Swapchain) handlePresentCompleted(e compositor.PresentCompleted) {
	s.slotMu.Lock()
	if e.Slot < 0 || e.Slot >= len(s.images) {
		s.slotMu.Unlock()
		return
	}
	img := s.images[e.Slot]
	if img.state != ImageStatePresenting {
		s.slotMu.Unlock()
		return
	}
	img.state = ImageStateFree
	img.recycled = true
	desired := img.desiredTime
	presentID := img.presentID
	s.slotCond.Broadcast()
	s.slotMu.Unlock()

	if presentID != 0 {
		var margin time.Duration
		if !desired.IsZero() && e.ActualTime.After(desired) {
			margin = e.ActualTime.Sub(desired)
		}
		s.recordPresentTime(PresentTiming{
			PresentID:   presentID,
			DesiredTime: desired,
			ActualTime:  e.ActualTime,
			Margin:      margin,
		})
	}

	Logger().Debug("present completed", "slot", e.Slot, "presentID", presentID)
}

// handleInvalidated marks the surface lost and flushes in-flight
// presents so nothing waits on a dead surface.
func (s *Swapchain) handleInvalidated() {
	s.surfaceLost.Store(true)

	s.slotMu.Lock()
	for _, img := range s.images {
		if img.state == ImageStatePresenting {
			img.state = ImageStateFree
			img.recycled = true
		}
	}
	s.slotCond.Broadcast()
	s.slotMu.Unlock()

	Logger().Warn("surface lost")
}

// destroyDrainTimeout bounds how long Destroy waits for in-flight
// presents to complete before tearing the layer down anyway.
const destroyDrainTimeout = 500 * time.Millisecond

// Destroy tears the swapchain down: it waits briefly for in-flight
// presents to drain, releases the layer, and frees all drawables.
// Destroy is idempotent, and every other method fails with
// ErrDestroyed afterwards.
func (s *Swapchain) Destroy() {
	s.destroyOnce.Do(func() {
		s.destroyed.Store(true)

		// Wake blocked acquires so they observe the destroyed flag.
		s.slotMu.Lock()
		s.slotCond.Broadcast()
		s.slotMu.Unlock()

		s.drainPresents()
		s.binding.release()
		<-s.pumpDone

		s.slotMu.Lock()
		for _, img := range s.images {
			if img.drawable != nil {
				img.drawable.Release()
			}
		}
		s.slotMu.Unlock()

		Logger().Info("swapchain destroyed")
	})
}

// drainPresents waits until no slot is mid-presentation, the surface
// dies, or the drain timeout expires.
func (s *Swapchain) drainPresents() {
	deadline := time.Now().Add(destroyDrainTimeout)
	wake := time.AfterFunc(destroyDrainTimeout, func() {
		s.slotMu.Lock()
		s.slotCond.Broadcast()
		s.slotMu.Unlock()
	})
	defer wake.Stop()

	s.slotMu.Lock()
	defer s.slotMu.Unlock()
	for s.anyPresentingLocked() && !s.surfaceLost.Load() {
		if !time.Now().Before(deadline) {
			Logger().Warn("destroy proceeding with presents in flight")
			return
		}
		s.slotCond.Wait()
	}
}

// anyPresentingLocked reports whether any slot is mid-presentation.
// Must be called with slotMu held.
func (s *Swapchain) anyPresentingLocked() bool {
	for _, img := range s.images {
		if img.state == ImageStatePresenting {
			return true
		}
	}
	return false
}
