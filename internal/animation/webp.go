package animation

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/kixorz/webp"
)

// writeWebP encodes frames as an infinitely looping animated WebP with
// per-frame millisecond durations.
func writeWebP(outpath string, frames []image.Image, durations []time.Duration) error {
	wframes := make([]webp.Frame, len(frames))
	for i, img := range frames {
		wframes[i] = webp.Frame{
			Image:       img,
			Duration:    int(durations[i].Milliseconds()),
			DisposeMode: webp.DisposeModeBackground,
			BlendMode:   webp.BlendModeNoBlend,
		}
	}
	params := webp.AnimationParams{
		BackgroundColor: 0xffffffff,
		LoopCount:       0, // forever
	}

	f, err := os.Create(outpath)
	if err != nil {
		return fmt.Errorf("create webp %s: %w", outpath, err)
	}
	if err := webp.EncodeAnimation(f, wframes, params); err != nil {
		f.Close()
		return fmt.Errorf("encode webp %s: %w", outpath, err)
	}
	return f.Close()
}
