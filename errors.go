// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

import "errors"

// Swapchain errors.
var (
	// ErrSurfaceLost is returned once the backing surface has been
	// invalidated. The condition is permanent; the swapchain must be
	// destroyed and recreated against a new layer.
	ErrSurfaceLost = errors.New("swapchain: surface lost")

	// ErrSuboptimal reports that presentation succeeded or will
	// succeed, but the swapchain's geometry no longer matches the
	// layer. It is advisory; operations carrying it still complete.
	ErrSuboptimal = errors.New("swapchain: suboptimal surface")

	// ErrNotReady is returned by a zero-timeout acquire when no image
	// slot is free.
	ErrNotReady = errors.New("swapchain: no image ready")

	// ErrTimeout is returned when an acquire deadline expires before
	// an image slot becomes free.
	ErrTimeout = errors.New("swapchain: acquire timed out")

	// ErrIncomplete reports that a caller-supplied buffer was smaller
	// than the available data; the buffer holds a valid prefix.
	ErrIncomplete = errors.New("swapchain: result incomplete")

	// ErrDeviceConfiguration is returned when the rendering device
	// reports a configuration problem. It takes precedence over
	// surface-level status.
	ErrDeviceConfiguration = errors.New("swapchain: device configuration error")

	// ErrDestroyed is returned by operations on a destroyed swapchain.
	ErrDestroyed = errors.New("swapchain: destroyed")

	// ErrImageNotAcquired is returned when presenting or releasing an
	// image slot that is not in the acquired state.
	ErrImageNotAcquired = errors.New("swapchain: image not acquired")

	// ErrInvalidImageIndex is returned for out-of-range image indices.
	ErrInvalidImageIndex = errors.New("swapchain: invalid image index")

	// ErrIncompatiblePresentMode is returned when a per-present mode
	// override is not in the swapchain's compatible mode set.
	ErrIncompatiblePresentMode = errors.New("swapchain: incompatible present mode")

	// ErrNilLayer is returned when creating a swapchain without a layer.
	ErrNilLayer = errors.New("swapchain: nil layer")

	// ErrInvalidConfig is returned when swapchain configuration is
	// rejected.
	ErrInvalidConfig = errors.New("swapchain: invalid configuration")
)
