// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

import (
	"fmt"
	"time"
)

// AcquireNextImage hands a free image slot to the application and
// returns its index.
//
// When no slot is free: a zero timeout fails immediately with
// ErrNotReady, a positive timeout waits at most that long before
// failing with ErrTimeout, and a negative timeout waits indefinitely.
//
// On success the acquired slot also signals info.Semaphore and
// info.Fence. A nil error means the slot is ready and the surface is
// healthy; ErrSuboptimal is advisory, reporting a usable slot on a
// surface whose geometry drifted.
func (s *Swapchain) AcquireNextImage(info AcquireInfo) (int, error) {
	if s.destroyed.Load() {
		return -1, ErrDestroyed
	}
	if s.surfaceLost.Load() {
		return -1, ErrSurfaceLost
	}

	// Every attempt gets an identity, successful or not.
	id := s.acquisitionID.Add(1)

	var deadline time.Time
	if info.Timeout > 0 {
		deadline = time.Now().Add(info.Timeout)
		// The waiter must wake up to observe an expired deadline.
		wake := time.AfterFunc(info.Timeout, func() {
			s.slotMu.Lock()
			s.slotCond.Broadcast()
			s.slotMu.Unlock()
		})
		defer wake.Stop()
	}

	s.slotMu.Lock()
	for {
		if s.destroyed.Load() {
			s.slotMu.Unlock()
			return -1, ErrDestroyed
		}
		if s.surfaceLost.Load() {
			s.slotMu.Unlock()
			return -1, ErrSurfaceLost
		}

		if img := s.selectFreeLocked(); img != nil {
			img.state = ImageStateAcquired
			img.lastAcquired = id
			img.deviceMask = info.DeviceMask
			img.presentID = 0
			img.desiredTime = time.Time{}
			s.slotMu.Unlock()

			if info.Semaphore != nil {
				info.Semaphore.Signal()
			}
			if info.Fence != nil {
				info.Fence.Signal()
			}

			Logger().Debug("image acquired", "slot", img.index, "acquisition", id)
			if !s.HasOptimalSurface() {
				return img.index, ErrSuboptimal
			}
			return img.index, nil
		}

		if info.Timeout == 0 {
			s.slotMu.Unlock()
			return -1, ErrNotReady
		}
		if info.Timeout > 0 && !time.Now().Before(deadline) {
			s.slotMu.Unlock()
			return -1, ErrTimeout
		}
		s.slotCond.Wait()
	}
}

// selectFreeLocked picks the next slot to acquire. Slots that have
// been through a full presentation cycle are preferred, least recently
// acquired first, so frames rotate through the same set instead of
// touching untouched slots. Never-used slots are a fallback, lowest
// index first. Must be called with slotMu held.
func (s *Swapchain) selectFreeLocked() *Image {
	var recycled *Image
	var virgin *Image
	for _, img := range s.images {
		if img.state != ImageStateFree {
			continue
		}
		if img.recycled {
			if recycled == nil || img.lastAcquired < recycled.lastAcquired {
				recycled = img
			}
		} else if virgin == nil {
			virgin = img
		}
	}
	if recycled != nil {
		return recycled
	}
	return virgin
}

// ReleaseImages returns acquired slots to the free pool without
// presenting them. The whole batch is validated before any slot
// changes state, so a failed call leaves the swapchain untouched.
func (s *Swapchain) ReleaseImages(indices ...int) error {
	if s.destroyed.Load() {
		return ErrDestroyed
	}

	s.slotMu.Lock()
	defer s.slotMu.Unlock()

	for _, idx := range indices {
		if idx < 0 || idx >= len(s.images) {
			return fmt.Errorf("%w: %d", ErrInvalidImageIndex, idx)
		}
		if s.images[idx].state != ImageStateAcquired {
			return fmt.Errorf("%w: slot %d is %s", ErrImageNotAcquired, idx, s.images[idx].state)
		}
	}
	for _, idx := range indices {
		img := s.images[idx]
		img.state = ImageStateFree
		img.recycled = true
	}
	s.slotCond.Broadcast()
	return nil
}
