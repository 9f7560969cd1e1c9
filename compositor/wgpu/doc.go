// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu provides a compositor layer backed by gogpu/wgpu.
//
// The layer owns a full GPU bootstrap chain (instance, adapter, device,
// queue) and registers itself with the compositor registry under the
// name "wgpu" at a higher priority than the headless backend, so
// compositor.New picks it whenever a GPU adapter is present.
//
// Drawable textures are logical for now: the layer tracks texture
// descriptors and slot state, and presentation completion is paced by
// the configured refresh interval. Real surface presentation will
// arrive with wgpu swapchain support.
package wgpu
