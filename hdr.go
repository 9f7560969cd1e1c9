// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

// SetHDRMetadata forwards HDR mastering metadata to the layer. The
// metadata applies to all subsequent presents; whether the display
// pipeline honors it is out of the swapchain's hands.
func (s *Swapchain) SetHDRMetadata(md HDRMetadata) error {
	if s.destroyed.Load() {
		return ErrDestroyed
	}
	if s.surfaceLost.Load() {
		return ErrSurfaceLost
	}
	s.binding.setHDRMetadata(md)
	return nil
}
