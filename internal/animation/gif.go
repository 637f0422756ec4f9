package animation

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"
	"time"
)

// writeGIF encodes frames as an infinitely looping animated GIF with
// per-frame durations. Frames are palettized with Floyd-Steinberg
// dithering; no further recompression is attempted.
func writeGIF(outpath string, frames []image.Image, durations []time.Duration) error {
	g := &gif.GIF{
		Image: make([]*image.Paletted, 0, len(frames)),
		Delay: make([]int, 0, len(frames)),
		// LoopCount zero loops forever.
	}
	for i, img := range frames {
		pal := image.NewPaletted(img.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(pal, img.Bounds(), img, img.Bounds().Min)
		g.Image = append(g.Image, pal)
		// GIF delays are in hundredths of a second.
		g.Delay = append(g.Delay, int(durations[i].Milliseconds()/10))
	}

	f, err := os.Create(outpath)
	if err != nil {
		return fmt.Errorf("create gif %s: %w", outpath, err)
	}
	if err := gif.EncodeAll(f, g); err != nil {
		f.Close()
		return fmt.Errorf("encode gif %s: %w", outpath, err)
	}
	return f.Close()
}
