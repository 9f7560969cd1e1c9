// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

import (
	"image"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/swapchain/compositor"
)

// Aliases for compositor types, so most applications only import this
// package.
type (
	// Extent is a drawable size in pixels.
	Extent = compositor.Extent

	// PresentMode selects the presentation pacing discipline.
	PresentMode = compositor.PresentMode

	// ColorSpace identifies the color encoding of presented images.
	ColorSpace = compositor.ColorSpace

	// ScalingMode controls how drawables map onto a differently sized
	// layer.
	ScalingMode = compositor.ScalingMode

	// HDRMetadata carries HDR mastering display metadata.
	HDRMetadata = compositor.HDRMetadata

	// Chromaticity is a CIE 1931 xy coordinate.
	Chromaticity = compositor.Chromaticity
)

// Re-exported compositor constants.
const (
	PresentModeFifo      = compositor.PresentModeFifo
	PresentModeImmediate = compositor.PresentModeImmediate
	PresentModeMailbox   = compositor.PresentModeMailbox

	ColorSpaceSRGBNonlinear = compositor.ColorSpaceSRGBNonlinear
	ColorSpaceDisplayP3     = compositor.ColorSpaceDisplayP3
	ColorSpaceBT2020PQ      = compositor.ColorSpaceBT2020PQ

	ScalingNone      = compositor.ScalingNone
	ScalingStretch   = compositor.ScalingStretch
	ScalingAspectFit = compositor.ScalingAspectFit
)

// Image count bounds applied to Config.MinImageCount.
const (
	minImageCount     = 1
	maxImageCount     = 8
	defaultImageCount = 3
)

// Config describes a swapchain to create.
//
// Layer is the only required field; everything else has a usable
// default.
type Config struct {
	// Layer is the compositor layer images are presented to.
	Layer compositor.Layer

	// Device optionally provides the rendering device. When set, its
	// surface format is the default image format, and if it reports a
	// configuration error that error dominates surface status.
	Device gpucontext.DeviceProvider

	// Extent is the image size in pixels. Zero means the layer's
	// natural extent (bounds times contents scale).
	Extent Extent

	// Format is the pixel format of the images. Zero means the
	// device's surface format, or BGRA8Unorm without a device.
	Format gputypes.TextureFormat

	// ColorSpace is the color encoding of presented images.
	ColorSpace ColorSpace

	// MinImageCount is the number of image slots. Zero means 3;
	// values are clamped to [1, 8].
	MinImageCount int

	// ArrayLayers is the number of array layers per image. Zero
	// means 1.
	ArrayLayers int

	// PresentMode is the default pacing discipline. The zero value
	// means FIFO.
	PresentMode PresentMode

	// CompatibleModes lists additional modes that per-present
	// overrides may select. PresentMode is always compatible.
	CompatibleModes []PresentMode

	// Scaling maps differently sized images onto the layer. A mode
	// other than ScalingNone marks the size difference as deliberate,
	// which suppresses the suboptimal surface condition.
	Scaling ScalingMode

	// BeforePresent, when set, runs on the presenting goroutine right
	// before each image is handed to the layer.
	BeforePresent func(*Image)
}

// AcquireInfo carries the synchronization payload of one acquire call.
type AcquireInfo struct {
	// Timeout bounds the wait for a free image slot. Zero means poll:
	// fail immediately with ErrNotReady when nothing is free. Negative
	// means wait indefinitely.
	Timeout time.Duration

	// Semaphore, if non-nil, is signaled when the acquired image is
	// ready for rendering.
	Semaphore Signaler

	// Fence, if non-nil, is signaled when the acquired image is ready
	// for rendering.
	Fence Signaler

	// DeviceMask selects devices in a device group. Informational;
	// recorded with the acquisition.
	DeviceMask uint32
}

// Signaler is a synchronization primitive that can be signaled once an
// acquired image is ready. GPU semaphores and fences both satisfy it.
type Signaler interface {
	Signal()
}

// ConfigurationChecker is implemented by device providers that can
// report configuration problems. When the swapchain's device implements
// it, a non-nil result dominates every surface-level status.
type ConfigurationChecker interface {
	ConfigurationError() error
}

// PresentInfo carries the parameters of one present call.
type PresentInfo struct {
	// PresentID identifies this present in the timing history. Zero
	// means untracked.
	PresentID uint64

	// DesiredPresentTime is the earliest time the image should reach
	// the display. Zero means as soon as possible.
	DesiredPresentTime time.Time

	// Mode overrides the swapchain's present mode for this present
	// only. Must be in the compatible set. The zero value keeps the
	// configured mode.
	Mode PresentMode

	// Regions marks the areas of the image that changed since the
	// previous present. Empty means the whole image.
	Regions []Region
}

// Region is a changed rectangle in image coordinates, with an optional
// array layer.
type Region struct {
	X, Y          int
	Width, Height int
	Layer         int
}

// compositorRegions converts regions to the layer's representation,
// keeping the array layer of each rectangle.
func compositorRegions(regions []Region) []compositor.Region {
	if len(regions) == 0 {
		return nil
	}
	out := make([]compositor.Region, len(regions))
	for i, r := range regions {
		out[i] = compositor.Region{
			Rect:  image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height),
			Layer: r.Layer,
		}
	}
	return out
}

// PresentTiming is one historical presentation record.
type PresentTiming struct {
	// PresentID is the application-supplied identifier.
	PresentID uint64

	// DesiredTime is the time the application asked for.
	DesiredTime time.Time

	// ActualTime is when the image reached the display.
	ActualTime time.Time

	// Margin is how much earlier than ActualTime the image was ready.
	Margin time.Duration
}
