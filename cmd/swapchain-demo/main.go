// Command swapchain-demo runs a frame loop through the swapchain and
// saves the last composited frame.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/gogpu/swapchain"
	"github.com/gogpu/swapchain/compositor"
)

func main() {
	var (
		width   = flag.Int("width", 800, "layer width in points")
		height  = flag.Int("height", 600, "layer height in points")
		frames  = flag.Int("frames", 60, "number of frames to render")
		output  = flag.String("output", "frame.png", "output file for the final frame")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		swapchain.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	layer := compositor.NewHeadless(float64(*width), float64(*height))
	layer.SetManualPresentation(true)

	sc, err := swapchain.New(swapchain.Config{Layer: layer})
	if err != nil {
		log.Fatalf("Failed to create swapchain: %v", err)
	}
	defer sc.Destroy()

	for frame := 0; frame < *frames; frame++ {
		idx, err := sc.AcquireNextImage(swapchain.AcquireInfo{Timeout: time.Second})
		if err != nil {
			log.Fatalf("Frame %d: acquire failed: %v", frame, err)
		}

		img, err := sc.Image(idx)
		if err != nil {
			log.Fatalf("Frame %d: %v", frame, err)
		}
		renderFrame(img, frame, *frames)

		if err := sc.Present(idx, swapchain.PresentInfo{PresentID: uint64(frame + 1)}); err != nil {
			log.Fatalf("Frame %d: present failed: %v", frame, err)
		}
		layer.Tick()
	}

	// Let the last completion reach the front buffer.
	for layer.Tick() {
	}
	time.Sleep(10 * time.Millisecond)

	if err := savePNG(*output, layer.Frame()); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	if n, err := sc.PastPresentationTiming(nil); err == nil {
		log.Printf("Timing history holds %d records", n)
	}
	log.Printf("Final frame saved to %s (%dx%d)\n", *output, *width, *height)
}

// renderFrame fills the drawable with a phase-shifted color wash so
// consecutive frames are visually distinct.
func renderFrame(img *swapchain.Image, frame, total int) {
	target := headlessImage(img)
	if target == nil {
		return
	}

	phase := float64(frame) / float64(total)
	b := target.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			fx := float64(x) / float64(b.Dx())
			fy := float64(y) / float64(b.Dy())
			target.SetRGBA(x, y, color.RGBA{
				R: uint8(255 * fx),
				G: uint8(255 * fy),
				B: uint8(127 + 127*math.Sin(2*math.Pi*phase)),
				A: 255,
			})
		}
	}
}

// headlessImage unwraps the CPU backing store of a headless drawable.
func headlessImage(img *swapchain.Image) *image.RGBA {
	type imager interface{ Image() *image.RGBA }
	if d, ok := img.Drawable().(imager); ok {
		return d.Image()
	}
	return nil
}

func savePNG(path string, frame image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, frame)
}
