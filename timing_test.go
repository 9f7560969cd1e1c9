// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain

import (
	"errors"
	"testing"
	"time"
)

// TestTimingRingEviction verifies that the history keeps only the
// newest records, in order, once full.
func TestTimingRingEviction(t *testing.T) {
	sc, _ := newTestSwapchain(t, 2)

	base := time.Now()
	for i := 1; i <= 100; i++ {
		sc.recordPresentTime(PresentTiming{
			PresentID:  uint64(i),
			ActualTime: base.Add(time.Duration(i) * time.Millisecond),
		})
	}

	n, err := sc.PastPresentationTiming(nil)
	if err != nil {
		t.Fatalf("PastPresentationTiming(nil) error: %v", err)
	}
	if n != presentTimingHistorySize {
		t.Fatalf("history holds %d records, want %d", n, presentTimingHistorySize)
	}

	buf := make([]PresentTiming, n)
	n, err = sc.PastPresentationTiming(buf)
	if err != nil {
		t.Fatalf("PastPresentationTiming(buf) error: %v", err)
	}

	// Inserting 100 into a 60-entry ring retains IDs 41..100,
	// oldest first.
	for i := 0; i < n; i++ {
		want := uint64(41 + i)
		if buf[i].PresentID != want {
			t.Fatalf("record %d has PresentID %d, want %d", i, buf[i].PresentID, want)
		}
	}
}

// TestTimingTwoCallConsumes verifies the query-then-fill idiom and
// that returned records leave the history.
func TestTimingTwoCallConsumes(t *testing.T) {
	sc, _ := newTestSwapchain(t, 2)

	for i := 1; i <= 5; i++ {
		sc.recordPresentTime(PresentTiming{PresentID: uint64(i), ActualTime: time.Now()})
	}

	// Short buffer: oldest prefix plus ErrIncomplete.
	short := make([]PresentTiming, 2)
	n, err := sc.PastPresentationTiming(short)
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("PastPresentationTiming(short) error = %v, want ErrIncomplete", err)
	}
	if n != 2 || short[0].PresentID != 1 || short[1].PresentID != 2 {
		t.Fatalf("short read = %d records %v, want IDs 1, 2", n, short[:n])
	}

	// The remaining three are still there, still oldest first.
	rest := make([]PresentTiming, 10)
	n, err = sc.PastPresentationTiming(rest)
	if err != nil {
		t.Fatalf("PastPresentationTiming(rest) error: %v", err)
	}
	if n != 3 || rest[0].PresentID != 3 || rest[2].PresentID != 5 {
		t.Fatalf("rest read = %d records, want IDs 3..5", n)
	}

	// Fully drained.
	if n, _ := sc.PastPresentationTiming(nil); n != 0 {
		t.Errorf("history holds %d records after drain, want 0", n)
	}
}

// TestRefreshCycleDuration verifies the layer's refresh period query.
func TestRefreshCycleDuration(t *testing.T) {
	layer := newTestLayer(100, 100)
	layer.SetRefreshInterval(8 * time.Millisecond)
	sc, err := New(Config{Layer: layer, MinImageCount: 2})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer sc.Destroy()

	d, err := sc.RefreshCycleDuration()
	if err != nil {
		t.Fatalf("RefreshCycleDuration() error: %v", err)
	}
	if d != 8*time.Millisecond {
		t.Errorf("RefreshCycleDuration() = %v, want 8ms", d)
	}
}
