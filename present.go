// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

import (
	"fmt"

	"github.com/gogpu/swapchain/compositor"
)

// Present queues an acquired image slot for display. The slot stays
// owned by the compositor until its completion event returns it to the
// free pool.
//
// A nil error means the present was queued on a healthy surface;
// ErrSuboptimal is advisory, reporting a queued present on a surface
// whose geometry drifted.
func (s *Swapchain) Present(index int, info PresentInfo) error {
	if s.destroyed.Load() {
		return ErrDestroyed
	}
	if s.surfaceLost.Load() {
		return ErrSurfaceLost
	}

	mode := info.Mode
	if mode != compositor.PresentModeUnspecified && !s.modes[mode] {
		return fmt.Errorf("%w: %s", ErrIncompatiblePresentMode, mode)
	}

	s.slotMu.Lock()
	if index < 0 || index >= len(s.images) {
		s.slotMu.Unlock()
		return fmt.Errorf("%w: %d", ErrInvalidImageIndex, index)
	}
	img := s.images[index]
	if img.state != ImageStateAcquired {
		s.slotMu.Unlock()
		return fmt.Errorf("%w: slot %d is %s", ErrImageNotAcquired, index, img.state)
	}
	img.state = ImageStatePresenting
	img.presentID = info.PresentID
	img.desiredTime = info.DesiredPresentTime
	s.slotMu.Unlock()

	if s.beforePresent != nil {
		s.beforePresent(img)
	}

	err := s.binding.present(compositor.PresentRequest{
		Slot:        index,
		PresentID:   info.PresentID,
		DesiredTime: info.DesiredPresentTime,
		Mode:        mode,
		Regions:     compositorRegions(info.Regions),
	})
	if err != nil {
		// The present never reached the compositor; the application
		// still owns the slot.
		s.slotMu.Lock()
		img.state = ImageStateAcquired
		s.slotMu.Unlock()

		switch {
		case compositor.IsSurfaceDead(err):
			s.handleInvalidated()
			return ErrSurfaceLost
		default:
			return fmt.Errorf("swapchain: present: %w", err)
		}
	}

	s.markFrameInterval()
	Logger().Debug("image presented", "slot", index, "presentID", info.PresentID)

	if !s.HasOptimalSurface() {
		return ErrSuboptimal
	}
	return nil
}
