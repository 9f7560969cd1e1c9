// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

import (
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/swapchain/compositor"
)

// ImageState is the lifecycle state of one image slot.
type ImageState uint8

const (
	// ImageStateFree means the slot can be acquired.
	ImageStateFree ImageState = iota

	// ImageStateAcquired means the application owns the slot.
	ImageStateAcquired

	// ImageStatePresenting means the slot is queued or on screen,
	// waiting for the compositor to signal completion.
	ImageStatePresenting
)

// String returns the state name.
func (s ImageState) String() string {
	switch s {
	case ImageStateFree:
		return "free"
	case ImageStateAcquired:
		return "acquired"
	case ImageStatePresenting:
		return "presenting"
	default:
		return "unknown"
	}
}

// Image is one presentable slot of a swapchain.
//
// State transitions are driven entirely by the owning swapchain;
// applications only read from an Image.
type Image struct {
	index    int
	drawable compositor.Drawable

	// Guarded by the swapchain's slot lock.
	state        ImageState
	lastAcquired uint64 // acquisition ID of the most recent acquire
	recycled     bool   // has completed a full acquire/release cycle
	presentID    uint64
	desiredTime  time.Time
	deviceMask   uint32
}

// Index returns the slot index within the swapchain.
func (img *Image) Index() int { return img.index }

// Drawable returns the compositor drawable backing this slot.
func (img *Image) Drawable() compositor.Drawable { return img.drawable }

// Texture returns the GPU texture backing this slot, or nil for
// CPU-backed layers.
func (img *Image) Texture() gpucontext.Texture {
	if img.drawable == nil {
		return nil
	}
	return img.drawable.Texture()
}

// Extent returns the image size in pixels.
func (img *Image) Extent() Extent {
	if img.drawable == nil {
		return Extent{}
	}
	return img.drawable.Extent()
}
