package animation

import (
	"fmt"
	"image"
	"math"
	"os"
	"time"

	"github.com/kettek/apng"
)

// writeAPNG encodes frames as an infinitely looping animated PNG with
// per-frame fractional delays.
func writeAPNG(outpath string, frames []image.Image, durations []time.Duration) error {
	a := apng.APNG{
		Frames:    make([]apng.Frame, len(frames)),
		LoopCount: 0, // forever
	}
	for i, img := range frames {
		num, den := apngDelay(durations[i])
		a.Frames[i] = apng.Frame{
			Image:            img,
			DelayNumerator:   num,
			DelayDenominator: den,
		}
	}

	f, err := os.Create(outpath)
	if err != nil {
		return fmt.Errorf("create apng %s: %w", outpath, err)
	}
	if err := apng.Encode(f, a); err != nil {
		f.Close()
		return fmt.Errorf("encode apng %s: %w", outpath, err)
	}
	return f.Close()
}

// apngDelay converts a duration into a fractional delay. Both fields are
// uint16, so millisecond precision only holds up to ~65s; longer holds
// coarsen to centiseconds, then whole seconds, instead of wrapping.
func apngDelay(d time.Duration) (num, den uint16) {
	ms := d.Milliseconds()
	switch {
	case ms <= math.MaxUint16:
		return uint16(ms), 1000
	case ms/10 <= math.MaxUint16:
		return uint16(ms / 10), 100
	case ms/1000 <= math.MaxUint16:
		return uint16(ms / 1000), 1
	default:
		return math.MaxUint16, 1
	}
}
