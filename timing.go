// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

import "time"

// presentTimingHistorySize is how many completed presents the timing
// ring retains. About one second of history at 60 Hz.
const presentTimingHistorySize = 60

// recordPresentTime inserts one completed present into the history
// ring, evicting the oldest record when full.
func (s *Swapchain) recordPresentTime(t PresentTiming) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	if s.historyCount < presentTimingHistorySize {
		s.historyCount++
	} else {
		// Full: the slot being written holds the oldest record.
		s.historyHead = (s.historyHead + 1) % presentTimingHistorySize
	}
	s.history[s.historyIndex] = t
	s.historyIndex = (s.historyIndex + 1) % presentTimingHistorySize
}

// markFrameInterval stamps the current present for inter-frame
// duration tracking.
func (s *Swapchain) markFrameInterval() {
	now := time.Now()
	s.historyMu.Lock()
	last := s.lastFrameTime
	s.lastFrameTime = now
	s.historyMu.Unlock()

	if !last.IsZero() {
		Logger().Debug("frame interval", "duration", now.Sub(last))
	}
}

// PastPresentationTiming copies historical presentation records into
// buf, oldest first, and returns how many were written. A nil buf
// queries the number of available records. When buf is shorter than
// the history, the oldest records are written and the count is
// returned with ErrIncomplete.
//
// Records are consumed: returned entries leave the history.
func (s *Swapchain) PastPresentationTiming(buf []PresentTiming) (int, error) {
	if s.destroyed.Load() {
		return 0, ErrDestroyed
	}

	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	if buf == nil {
		return s.historyCount, nil
	}

	available := s.historyCount
	n := len(buf)
	if n > available {
		n = available
	}
	for i := 0; i < n; i++ {
		buf[i] = s.history[(s.historyHead+i)%presentTimingHistorySize]
	}

	// Drop what was handed out.
	s.historyHead = (s.historyHead + n) % presentTimingHistorySize
	s.historyCount -= n
	if s.historyCount == 0 {
		s.historyHead = 0
		s.historyIndex = 0
	}

	if n < available {
		return n, ErrIncomplete
	}
	return n, nil
}

// RefreshCycleDuration returns the display's refresh period as
// reported by the layer.
func (s *Swapchain) RefreshCycleDuration() (time.Duration, error) {
	if s.destroyed.Load() {
		return 0, ErrDestroyed
	}
	d := s.binding.refreshInterval()
	if d <= 0 {
		return 0, ErrSurfaceLost
	}
	return d, nil
}
