// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"image"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Extent is a surface size in whole pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether both dimensions are zero.
func (e Extent) IsZero() bool {
	return e.Width == 0 && e.Height == 0
}

// PresentMode selects the policy governing how a presented drawable
// becomes visible.
type PresentMode uint8

const (
	// PresentModeUnspecified defers to the swapchain's configured mode.
	PresentModeUnspecified PresentMode = iota

	// PresentModeFifo queues presents and displays them on refresh
	// boundaries (vsync). This mode is always supported.
	PresentModeFifo

	// PresentModeImmediate displays presents as soon as possible,
	// without waiting for a refresh boundary. May tear.
	PresentModeImmediate

	// PresentModeMailbox replaces the queued present with the newest
	// one on each refresh boundary.
	PresentModeMailbox
)

// String returns a human-readable name for the present mode.
func (m PresentMode) String() string {
	switch m {
	case PresentModeUnspecified:
		return "Unspecified"
	case PresentModeFifo:
		return "Fifo"
	case PresentModeImmediate:
		return "Immediate"
	case PresentModeMailbox:
		return "Mailbox"
	default:
		return "Unknown"
	}
}

// ColorSpace identifies the color space presented drawables are
// interpreted in.
type ColorSpace uint8

const (
	// ColorSpaceSRGBNonlinear is standard sRGB with nonlinear encoding.
	ColorSpaceSRGBNonlinear ColorSpace = iota

	// ColorSpaceDisplayP3 is the Display P3 wide gamut color space.
	ColorSpaceDisplayP3

	// ColorSpaceBT2020PQ is BT.2020 with the PQ transfer function,
	// used for HDR presentation.
	ColorSpaceBT2020PQ
)

// ScalingMode controls how a drawable that differs in size from the
// layer is mapped onto it. A mode other than ScalingNone declares the
// scaling deliberate: size mismatches are expected and are not
// reported as a suboptimal surface.
type ScalingMode uint8

const (
	// ScalingNone presents drawables at their native size.
	ScalingNone ScalingMode = iota

	// ScalingStretch stretches the drawable to fill the layer.
	ScalingStretch

	// ScalingAspectFit scales the drawable to fit inside the layer
	// while preserving its aspect ratio.
	ScalingAspectFit
)

// Chromaticity is a CIE 1931 xy chromaticity coordinate.
type Chromaticity struct {
	X float32
	Y float32
}

// HDRMetadata describes the mastering display and content light levels
// of presented frames. It is forwarded to the compositor target as-is;
// how (or whether) it is honored is up to the display pipeline.
type HDRMetadata struct {
	// Mastering display primaries and white point.
	PrimaryRed   Chromaticity
	PrimaryGreen Chromaticity
	PrimaryBlue  Chromaticity
	WhitePoint   Chromaticity

	// Mastering display luminance bounds, in cd/m².
	MaxLuminance float32
	MinLuminance float32

	// Content light levels, in cd/m².
	MaxContentLightLevel      float32
	MaxFrameAverageLightLevel float32
}

// Config describes how a layer is set up for presentation.
type Config struct {
	// Extent is the drawable size in pixels.
	Extent Extent

	// Format is the drawable pixel format.
	Format gputypes.TextureFormat

	// ColorSpace is the color space of presented drawables.
	ColorSpace ColorSpace

	// DrawableCount is the number of drawables the layer must back.
	DrawableCount int

	// ArrayLayers is the number of array layers per drawable.
	ArrayLayers int

	// Scaling is the drawable-to-layer scaling policy.
	Scaling ScalingMode

	// Mode is the default present mode.
	Mode PresentMode
}

// Region is a rectangular area of one array layer of a drawable.
// Layer is zero for non-array drawables.
type Region struct {
	Rect  image.Rectangle
	Layer int
}

// PresentRequest asks the layer to display one drawable.
type PresentRequest struct {
	// Slot is the index of the drawable to display.
	Slot int

	// PresentID is an application-chosen identifier reported back in
	// the PresentCompleted event and in presentation timing records.
	PresentID uint64

	// DesiredTime is the earliest time the frame should become
	// visible. Zero means "as soon as the mode allows".
	DesiredTime time.Time

	// Mode overrides the configured present mode for this request.
	Mode PresentMode

	// Regions marks the parts of the drawable that changed since the
	// previous present. Empty means the whole drawable. Purely a hint.
	Regions []Region
}

// Event is a notification delivered by a layer on its Events channel.
// Events originate from the layer's own execution context, never from
// the goroutine that called a Layer method.
type Event interface {
	event()
}

// PresentCompleted reports that the compositor is done displaying a
// drawable and its slot may be reused.
type PresentCompleted struct {
	Slot       int
	PresentID  uint64
	ActualTime time.Time
}

// Invalidated reports that the backing surface was destroyed or
// reconfigured externally. The layer is unusable afterwards; only
// Release may follow.
type Invalidated struct{}

func (PresentCompleted) event() {}
func (Invalidated) event()      {}

// Drawable is one presentable backing store owned by a layer.
type Drawable interface {
	// Slot returns the drawable's slot index.
	Slot() int

	// Extent returns the drawable size in pixels.
	Extent() Extent

	// Texture returns the drawable's GPU identity, or nil for
	// CPU-backed layers.
	Texture() gpucontext.Texture

	// Release frees the backing store. The drawable must not be
	// presented afterwards.
	Release()
}

// Layer is a native presentation target: a compositor-owned surface
// with its own size, scale and timing. Implementations wrap a real
// windowing/display backend (or simulate one, see Headless).
//
// Layers deliver completion and invalidation notifications on the
// Events channel from an independent execution context. Release closes
// the Events channel after the last event.
type Layer interface {
	// Bounds returns the layer size in points (not pixels).
	Bounds() (width, height float64)

	// ContentsScale returns the pixel density: pixels per point.
	ContentsScale() float64

	// Configure prepares the layer for presentation. It is called
	// once, synchronously, before any drawable is requested, and may
	// fail if the configuration is unsupported.
	Configure(cfg Config) error

	// NewDrawable allocates the backing store for one slot.
	NewDrawable(slot int) (Drawable, error)

	// Present submits one drawable for display. Completion is
	// reported asynchronously via a PresentCompleted event.
	Present(req PresentRequest) error

	// SetNeedsDisplay marks regions of the layer as needing redraw.
	// An empty slice marks the whole layer.
	SetNeedsDisplay(regions []Region)

	// SetHDRMetadata forwards HDR mastering metadata to the display
	// pipeline.
	SetHDRMetadata(md HDRMetadata)

	// RefreshInterval returns the duration of one refresh cycle of
	// the underlying display.
	RefreshInterval() time.Duration

	// Events returns the layer's notification channel.
	Events() <-chan Event

	// Release tears the layer down and closes the Events channel.
	// Pending presents complete or are dropped; no further events
	// follow. Release is idempotent.
	Release()
}
