// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/swapchain/compositor"
)

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

// mockQueue implements gpucontext.Queue for testing.
type mockQueue struct{}

// mockAdapter implements gpucontext.Adapter for testing.
type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider for testing.
type mockProvider struct {
	device  gpucontext.Device
	queue   gpucontext.Queue
	adapter gpucontext.Adapter
	format  gputypes.TextureFormat

	configErr error
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		device:  &mockDevice{},
		queue:   &mockQueue{},
		adapter: &mockAdapter{},
		format:  gputypes.TextureFormatBGRA8Unorm,
	}
}

func (m *mockProvider) Device() gpucontext.Device             { return m.device }
func (m *mockProvider) Queue() gpucontext.Queue               { return m.queue }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return m.adapter }
func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return m.format }
func (m *mockProvider) ConfigurationError() error             { return m.configErr }

// signalFlag is a test Signaler that remembers being signaled.
type signalFlag struct{ signaled bool }

func (f *signalFlag) Signal() { f.signaled = true }

// newTestLayer returns a manual-presentation headless layer.
func newTestLayer(w, h float64) *compositor.Headless {
	layer := compositor.NewHeadless(w, h)
	layer.SetManualPresentation(true)
	return layer
}

// newTestSwapchain builds a swapchain over a manual headless layer.
// Destroy is registered as cleanup.
func newTestSwapchain(t *testing.T, slots int) (*Swapchain, *compositor.Headless) {
	t.Helper()
	layer := newTestLayer(800, 600)
	sc, err := New(Config{Layer: layer, MinImageCount: slots})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(sc.Destroy)
	return sc, layer
}

// waitUntil polls cond until it holds or the deadline passes.
// Completion events travel through the layer's event pump, so state
// changes are observed asynchronously.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached within 2s")
}

// TestNewDefaults verifies configuration defaulting.
func TestNewDefaults(t *testing.T) {
	layer := newTestLayer(800, 600)
	sc, err := New(Config{Layer: layer})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer sc.Destroy()

	if got := sc.ImageCount(); got != 3 {
		t.Errorf("ImageCount() = %d, want 3", got)
	}
	if got := sc.Format(); got != gputypes.TextureFormatBGRA8Unorm {
		t.Errorf("Format() = %v, want BGRA8Unorm", got)
	}
	if got := sc.PresentMode(); got != PresentModeFifo {
		t.Errorf("PresentMode() = %v, want FIFO", got)
	}
	// Natural extent: 800x600 points at scale 1.
	if got := sc.Extent(); got.Width != 800 || got.Height != 600 {
		t.Errorf("Extent() = %v, want 800x600", got)
	}
}

// TestNewValidation verifies rejection of bad configurations.
func TestNewValidation(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNilLayer) {
		t.Errorf("New(no layer) error = %v, want ErrNilLayer", err)
	}

	// Image count clamps instead of failing.
	layer := newTestLayer(100, 100)
	sc, err := New(Config{Layer: layer, MinImageCount: 99})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer sc.Destroy()
	if got := sc.ImageCount(); got != 8 {
		t.Errorf("ImageCount() = %d with MinImageCount 99, want clamp to 8", got)
	}
}

// TestNewDeviceFormat verifies that the device's surface format is the
// default image format.
func TestNewDeviceFormat(t *testing.T) {
	provider := newMockProvider()
	provider.format = gputypes.TextureFormatRGBA8Unorm

	layer := newTestLayer(100, 100)
	sc, err := New(Config{Layer: layer, Device: provider})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer sc.Destroy()

	if got := sc.Format(); got != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format() = %v, want device surface format RGBA8Unorm", got)
	}
}

// TestImagesTwoCall verifies the query-then-fill idiom, including the
// short-buffer prefix case.
func TestImagesTwoCall(t *testing.T) {
	sc, _ := newTestSwapchain(t, 3)

	n, err := sc.Images(nil)
	if err != nil {
		t.Fatalf("Images(nil) error: %v", err)
	}
	if n != 3 {
		t.Fatalf("Images(nil) = %d, want 3", n)
	}

	buf := make([]*Image, n)
	n, err = sc.Images(buf)
	if err != nil {
		t.Fatalf("Images(buf) error: %v", err)
	}
	for i := 0; i < n; i++ {
		if buf[i] == nil {
			t.Fatalf("Images(buf) left index %d nil", i)
		}
		if buf[i].Index() != i {
			t.Errorf("image %d has Index() = %d", i, buf[i].Index())
		}
	}

	// Short buffer: valid prefix plus ErrIncomplete.
	short := make([]*Image, 2)
	n, err = sc.Images(short)
	if !errors.Is(err, ErrIncomplete) {
		t.Errorf("Images(short) error = %v, want ErrIncomplete", err)
	}
	if n != 2 || short[0].Index() != 0 || short[1].Index() != 1 {
		t.Errorf("Images(short) wrote %d entries %v, want prefix of length 2", n, short)
	}
}

// TestSurfaceStatusPrecedence verifies that a device configuration
// error dominates surface loss, which dominates suboptimal.
func TestSurfaceStatusPrecedence(t *testing.T) {
	provider := newMockProvider()
	layer := newTestLayer(800, 600)
	sc, err := New(Config{Layer: layer, Device: provider})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer sc.Destroy()

	if err := sc.SurfaceStatus(); err != nil {
		t.Fatalf("SurfaceStatus() = %v on healthy surface, want nil", err)
	}

	// Geometry drift: suboptimal.
	layer.Resize(400, 300)
	if err := sc.SurfaceStatus(); !errors.Is(err, ErrSuboptimal) {
		t.Errorf("SurfaceStatus() = %v after resize, want ErrSuboptimal", err)
	}

	// Surface loss beats suboptimal.
	layer.Invalidate()
	waitUntil(t, func() bool { return errors.Is(sc.SurfaceStatus(), ErrSurfaceLost) })

	// Device configuration error beats everything.
	provider.configErr = errors.New("device out of date")
	if err := sc.SurfaceStatus(); !errors.Is(err, ErrDeviceConfiguration) {
		t.Errorf("SurfaceStatus() = %v with device error, want ErrDeviceConfiguration", err)
	}
}

// TestSurfaceLostSticky verifies that surface loss is permanent.
func TestSurfaceLostSticky(t *testing.T) {
	sc, layer := newTestSwapchain(t, 2)

	layer.Invalidate()
	waitUntil(t, func() bool { return errors.Is(sc.SurfaceStatus(), ErrSurfaceLost) })

	// Growing the layer back does not heal the swapchain.
	layer.Resize(800, 600)
	if err := sc.SurfaceStatus(); !errors.Is(err, ErrSurfaceLost) {
		t.Errorf("SurfaceStatus() = %v after loss, want sticky ErrSurfaceLost", err)
	}
	if _, err := sc.AcquireNextImage(AcquireInfo{}); !errors.Is(err, ErrSurfaceLost) {
		t.Errorf("AcquireNextImage() = %v after loss, want ErrSurfaceLost", err)
	}
}

// TestDeliberateScalingSuppressesSuboptimal verifies that an explicit
// scaling mode keeps a mismatched surface optimal.
func TestDeliberateScalingSuppressesSuboptimal(t *testing.T) {
	layer := newTestLayer(800, 600)
	sc, err := New(Config{
		Layer:   layer,
		Extent:  Extent{Width: 400, Height: 300},
		Scaling: ScalingStretch,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer sc.Destroy()

	if !sc.HasOptimalSurface() {
		t.Error("HasOptimalSurface() = false with deliberate scaling, want true")
	}
	if err := sc.SurfaceStatus(); err != nil {
		t.Errorf("SurfaceStatus() = %v with deliberate scaling, want nil", err)
	}

	layer.Resize(1024, 768)
	if err := sc.SurfaceStatus(); err != nil {
		t.Errorf("SurfaceStatus() = %v after resize with deliberate scaling, want nil", err)
	}
}

// TestDestroyIdempotent verifies double destroy and post-destroy
// operation failures.
func TestDestroyIdempotent(t *testing.T) {
	layer := newTestLayer(100, 100)
	sc, err := New(Config{Layer: layer, MinImageCount: 2})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	sc.Destroy()
	sc.Destroy()

	if _, err := sc.AcquireNextImage(AcquireInfo{}); !errors.Is(err, ErrDestroyed) {
		t.Errorf("AcquireNextImage() = %v after Destroy, want ErrDestroyed", err)
	}
	if err := sc.Present(0, PresentInfo{}); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Present() = %v after Destroy, want ErrDestroyed", err)
	}
	if _, err := sc.Images(nil); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Images() = %v after Destroy, want ErrDestroyed", err)
	}
	if _, err := sc.PastPresentationTiming(nil); !errors.Is(err, ErrDestroyed) {
		t.Errorf("PastPresentationTiming() = %v after Destroy, want ErrDestroyed", err)
	}
}

// TestDestroyWakesBlockedAcquire verifies that Destroy unblocks an
// indefinite acquire.
func TestDestroyWakesBlockedAcquire(t *testing.T) {
	layer := newTestLayer(100, 100)
	sc, err := New(Config{Layer: layer, MinImageCount: 1})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if _, err := sc.AcquireNextImage(AcquireInfo{}); err != nil {
		t.Fatalf("AcquireNextImage() error: %v", err)
	}

	result := make(chan error, 1)
	go func() {
		_, err := sc.AcquireNextImage(AcquireInfo{Timeout: -1})
		result <- err
	}()

	// Give the goroutine time to block, then destroy.
	time.Sleep(20 * time.Millisecond)
	sc.Destroy()

	select {
	case err := <-result:
		if !errors.Is(err, ErrDestroyed) && !errors.Is(err, ErrSurfaceLost) {
			t.Errorf("blocked acquire returned %v, want ErrDestroyed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked acquire not woken by Destroy")
	}
}

// TestImageAccessors verifies per-slot accessors.
func TestImageAccessors(t *testing.T) {
	sc, _ := newTestSwapchain(t, 2)

	img, err := sc.Image(1)
	if err != nil {
		t.Fatalf("Image(1) error: %v", err)
	}
	if img.Index() != 1 {
		t.Errorf("Index() = %d, want 1", img.Index())
	}
	if img.Drawable() == nil {
		t.Error("Drawable() = nil, want eager backing store")
	}
	if got := img.Extent(); got.Width != 800 || got.Height != 600 {
		t.Errorf("Extent() = %v, want 800x600", got)
	}
	// Headless drawables are CPU-backed.
	if img.Texture() != nil {
		t.Error("Texture() != nil for headless drawable")
	}

	if _, err := sc.Image(5); !errors.Is(err, ErrInvalidImageIndex) {
		t.Errorf("Image(5) error = %v, want ErrInvalidImageIndex", err)
	}
}

// TestSetNeedsDisplay verifies region forwarding to the layer.
func TestSetNeedsDisplay(t *testing.T) {
	sc, layer := newTestSwapchain(t, 2)

	sc.SetNeedsDisplay(Region{X: 10, Y: 20, Width: 30, Height: 40, Layer: 2})
	got := layer.DirtyRegions()
	if len(got) != 1 {
		t.Fatalf("DirtyRegions() has %d entries, want 1", len(got))
	}
	r := got[0]
	if r.Rect.Min.X != 10 || r.Rect.Min.Y != 20 || r.Rect.Dx() != 30 || r.Rect.Dy() != 40 {
		t.Errorf("DirtyRegions()[0] = %v, want (10,20)-(40,60)", r.Rect)
	}
	if r.Layer != 2 {
		t.Errorf("DirtyRegions()[0].Layer = %d, want 2", r.Layer)
	}

	// Empty means whole layer.
	sc.SetNeedsDisplay()
	got = layer.DirtyRegions()
	if len(got) != 1 || got[0].Rect.Dx() != 800 || got[0].Rect.Dy() != 600 {
		t.Errorf("DirtyRegions() = %v for empty request, want full layer", got)
	}
}

// TestSetHDRMetadata verifies metadata pass-through to the layer.
func TestSetHDRMetadata(t *testing.T) {
	sc, layer := newTestSwapchain(t, 2)

	md := HDRMetadata{
		PrimaryRed:           Chromaticity{X: 0.708, Y: 0.292},
		PrimaryGreen:         Chromaticity{X: 0.170, Y: 0.797},
		PrimaryBlue:          Chromaticity{X: 0.131, Y: 0.046},
		WhitePoint:           Chromaticity{X: 0.3127, Y: 0.3290},
		MaxLuminance:         1000,
		MinLuminance:         0.001,
		MaxContentLightLevel: 1000,
	}
	if err := sc.SetHDRMetadata(md); err != nil {
		t.Fatalf("SetHDRMetadata() error: %v", err)
	}
	if got := layer.AppliedHDRMetadata(); got != md {
		t.Errorf("layer metadata = %+v, want %+v", got, md)
	}
}

// TestSlotSelectionPrefersRecycled verifies the rotation policy: a
// slot that went through a full cycle is reused before untouched slots.
func TestSlotSelectionPrefersRecycled(t *testing.T) {
	sc, _ := newTestSwapchain(t, 3)

	first, err := sc.AcquireNextImage(AcquireInfo{})
	if err != nil {
		t.Fatalf("acquire 1 error: %v", err)
	}
	second, err := sc.AcquireNextImage(AcquireInfo{})
	if err != nil {
		t.Fatalf("acquire 2 error: %v", err)
	}
	if first != 0 || second != 1 {
		t.Fatalf("initial acquires = %d, %d, want 0, 1", first, second)
	}

	if err := sc.ReleaseImages(first); err != nil {
		t.Fatalf("ReleaseImages() error: %v", err)
	}

	// Slot 0 is back in the pool; slot 2 has never been used. The
	// recycled slot wins.
	third, err := sc.AcquireNextImage(AcquireInfo{})
	if err != nil {
		t.Fatalf("acquire 3 error: %v", err)
	}
	if third != first {
		t.Errorf("acquire after release = %d, want recycled slot %d", third, first)
	}
}
