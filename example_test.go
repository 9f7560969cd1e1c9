// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package swapchain_test

import (
	"fmt"
	"time"

	"github.com/gogpu/swapchain"
	"github.com/gogpu/swapchain/compositor"
)

// Example renders three frames through a headless layer with manual
// presentation, so frame completion is fully deterministic.
func Example() {
	layer := compositor.NewHeadless(640, 480)
	layer.SetManualPresentation(true)

	sc, err := swapchain.New(swapchain.Config{Layer: layer})
	if err != nil {
		fmt.Println("create:", err)
		return
	}
	defer sc.Destroy()

	for frame := 1; frame <= 3; frame++ {
		idx, err := sc.AcquireNextImage(swapchain.AcquireInfo{Timeout: time.Second})
		if err != nil {
			fmt.Println("acquire:", err)
			return
		}

		// ... render into the slot's drawable here ...

		if err := sc.Present(idx, swapchain.PresentInfo{PresentID: uint64(frame)}); err != nil {
			fmt.Println("present:", err)
			return
		}
		fmt.Printf("frame %d presented on slot %d\n", frame, idx)
	}

	// Drive the compositor by hand so all three frames complete
	// before teardown.
	for layer.Tick() {
	}

	// Output:
	// frame 1 presented on slot 0
	// frame 2 presented on slot 1
	// frame 3 presented on slot 2
}
