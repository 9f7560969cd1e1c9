// Package swapchain rotates presentable images between an application
// and a compositor layer.
//
// # Overview
//
// swapchain is a Pure Go presentation engine designed to integrate
// with the GoGPU ecosystem. It manages a fixed set of image slots over
// a native compositor target: the application acquires a slot, renders
// into it, presents it, and the slot returns to the free pool once the
// compositor is done displaying it.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/swapchain"
//	    "github.com/gogpu/swapchain/compositor"
//	)
//
//	// Pick the best layer backend available on this system.
//	layer, err := compositor.New(compositor.Options{Width: 800, Height: 600})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sc, err := swapchain.New(swapchain.Config{Layer: layer})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sc.Destroy()
//
//	for running {
//	    idx, err := sc.AcquireNextImage(swapchain.AcquireInfo{Timeout: -1})
//	    if err != nil {
//	        break
//	    }
//	    // ... render into the slot's drawable ...
//	    sc.Present(idx, swapchain.PresentInfo{})
//	}
//
// # Surface Health
//
// SurfaceStatus reports the state of the backing surface. Surface loss
// is permanent: once the layer is invalidated, every operation fails
// with ErrSurfaceLost and the swapchain must be recreated. The
// suboptimal condition is advisory; acquires and presents keep
// working while reporting ErrSuboptimal, and the application recreates
// the swapchain at a convenient point.
//
// # Backends
//
// Layer backends register with the compositor package:
//   - "wgpu" (compositor/wgpu): GPU-backed via gogpu/wgpu
//   - "headless" (compositor): CPU framebuffer, always available
//
// # Logging
//
// The package is silent by default. Call SetLogger with a *slog.Logger
// to enable diagnostics.
package swapchain
