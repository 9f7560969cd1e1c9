// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

import (
	"math"
	"sync"
	"time"

	"github.com/gogpu/swapchain/compositor"
)

// surfaceBinding serializes all access to the compositor layer. The
// layer can be detached exactly once, after which every call becomes a
// no-op; this lets Destroy race safely with in-flight presents.
type surfaceBinding struct {
	mu    sync.Mutex
	layer compositor.Layer
}

func newSurfaceBinding(layer compositor.Layer) *surfaceBinding {
	return &surfaceBinding{layer: layer}
}

// naturalExtent returns the layer's bounds scaled by its pixel density,
// rounded half to even per component.
func (b *surfaceBinding) naturalExtent() Extent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.layer == nil {
		return Extent{}
	}
	w, h := b.layer.Bounds()
	s := b.layer.ContentsScale()
	return Extent{
		Width:  uint32(math.RoundToEven(w * s)),
		Height: uint32(math.RoundToEven(h * s)),
	}
}

func (b *surfaceBinding) configure(cfg compositor.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.layer == nil {
		return ErrSurfaceLost
	}
	return b.layer.Configure(cfg)
}

func (b *surfaceBinding) newDrawable(slot int) (compositor.Drawable, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.layer == nil {
		return nil, ErrSurfaceLost
	}
	return b.layer.NewDrawable(slot)
}

func (b *surfaceBinding) present(req compositor.PresentRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.layer == nil {
		return ErrSurfaceLost
	}
	return b.layer.Present(req)
}

func (b *surfaceBinding) setNeedsDisplay(regions []compositor.Region) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.layer == nil {
		return
	}
	b.layer.SetNeedsDisplay(regions)
}

func (b *surfaceBinding) setHDRMetadata(md HDRMetadata) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.layer == nil {
		return
	}
	b.layer.SetHDRMetadata(md)
}

func (b *surfaceBinding) refreshInterval() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.layer == nil {
		return 0
	}
	return b.layer.RefreshInterval()
}

func (b *surfaceBinding) events() <-chan compositor.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.layer == nil {
		return nil
	}
	return b.layer.Events()
}

// release detaches and releases the layer. Idempotent.
func (b *surfaceBinding) release() {
	b.mu.Lock()
	layer := b.layer
	b.layer = nil
	b.mu.Unlock()
	if layer != nil {
		layer.Release()
	}
}
