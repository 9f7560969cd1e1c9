// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compositor abstracts the native presentation target a
// swapchain presents into.
//
// A compositor-owned surface (a window layer, a fullscreen plane, a
// remote display) has its own buffering, size, scale and timing. The
// Layer interface is the boundary between the swapchain, which hands
// out drawables and tracks their lifecycle, and that surface, which
// decides when a presented drawable actually reaches the screen.
//
// # Layers
//
//   - Headless: CPU framebuffer compositor. Always available. Used as
//     the test double and as the fallback backend.
//   - wgpu (subpackage): GPU-backed layer bootstrapped over gogpu/wgpu.
//
// # Events
//
// Layers push notifications on their Events channel from their own
// execution context: PresentCompleted when the display is done with a
// drawable, Invalidated when the backing surface was torn down
// externally. Consumers must drain the channel until it is closed by
// Release.
//
// # Registry
//
// Layer backends register themselves with a name and a priority, so
// applications can pick the best available target without linking
// against a specific backend:
//
//	layer, err := compositor.New(compositor.Options{Width: 800, Height: 600})
package compositor
