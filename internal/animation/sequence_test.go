package animation

import (
	"fmt"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidFrame(w, h int, c color.RGBA) Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return FromImage(img)
}

func solidFrames(n, w, h int) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = solidFrame(w, h, color.RGBA{R: uint8(i * 7), G: 0x40, B: 0x80, A: 0xff})
	}
	return frames
}

func TestBounceFrameCounts(t *testing.T) {
	opts := BounceOptions{
		TransitionDuration: 500 * time.Millisecond,
		StartPause:         time.Second,
		EndPause:           2 * time.Second,
		MaxFPS:             20,
	}

	tests := []struct {
		name       string
		total      int
		wantMiddle int
	}{
		{name: "no middle frames", total: 2, wantMiddle: 0},
		{name: "single frame", total: 1, wantMiddle: 0},
		{name: "middle under budget", total: 10, wantMiddle: 8},
		{name: "middle at budget", total: 12, wantMiddle: 10},
		{name: "middle over budget", total: 32, wantMiddle: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := Bounce(solidFrames(tt.total, 32, 32), opts)
			require.NoError(t, err)

			assert.Equal(t, 2+2*tt.wantMiddle, seq.Len())
			assert.Len(t, seq.Durations, seq.Len())
			assert.Equal(t, opts.StartPause, seq.Durations[0])
			assert.Equal(t, opts.EndPause, seq.Durations[1+tt.wantMiddle])
		})
	}
}

func TestBounceTransitionDurations(t *testing.T) {
	opts := BounceOptions{
		TransitionDuration: 500 * time.Millisecond,
		StartPause:         time.Second,
		EndPause:           2 * time.Second,
		MaxFPS:             20,
	}
	minDuration := 50 * time.Millisecond // 1000/20 ms

	for _, total := range []int{10, 32} {
		t.Run(fmt.Sprintf("%d_frames", total), func(t *testing.T) {
			seq, err := Bounce(solidFrames(total, 32, 32), opts)
			require.NoError(t, err)

			middle := (seq.Len() - 2) / 2
			var forward time.Duration
			for _, d := range seq.Durations[1 : 1+middle] {
				assert.GreaterOrEqual(t, d, minDuration)
				forward += d
			}
			// The per-direction sum approximates the transition duration
			// within per-frame rounding error.
			assert.InDelta(t,
				float64(opts.TransitionDuration.Milliseconds()),
				float64(forward.Milliseconds()),
				float64(middle),
			)

			// Mirrored sweep carries the same durations.
			backward := seq.Durations[2+middle:]
			require.Len(t, backward, middle)
			for _, d := range backward {
				assert.Equal(t, seq.Durations[1], d)
			}
		})
	}
}

func TestBounceEmpty(t *testing.T) {
	_, err := Bounce(nil, BounceOptions{})
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestBounceNormalizesSizes(t *testing.T) {
	frames := []Frame{
		solidFrame(16, 16, color.RGBA{R: 0xff, A: 0xff}),
		solidFrame(64, 48, color.RGBA{G: 0xff, A: 0xff}),
		solidFrame(32, 32, color.RGBA{B: 0xff, A: 0xff}),
	}
	seq, err := Bounce(frames, BounceOptions{})
	require.NoError(t, err)

	want := image.Pt(64, 48)
	for i, img := range seq.Frames {
		assert.Equal(t, want, img.Bounds().Size(), "frame %d", i)
	}
}

func TestSlideshow(t *testing.T) {
	seq, err := Slideshow(solidFrames(5, 24, 24), 750*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, 5, seq.Len())
	require.Len(t, seq.Durations, 5)
	for _, d := range seq.Durations {
		assert.Equal(t, 750*time.Millisecond, d)
	}
}

func TestSlideshowEmpty(t *testing.T) {
	_, err := Slideshow(nil, time.Second)
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestDownsample(t *testing.T) {
	tests := []struct {
		name string
		n    int
		max  int
		want int
	}{
		{name: "under cap", n: 5, max: 10, want: 5},
		{name: "at cap", n: 10, max: 10, want: 10},
		{name: "over cap", n: 30, max: 10, want: 10},
		{name: "cap of one", n: 30, max: 1, want: 1},
		{name: "cap of zero", n: 30, max: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames := solidFrames(tt.n, 8, 8)
			got := downsample(frames, tt.max)
			assert.Len(t, got, tt.want)
			if tt.want > 0 {
				// The first frame always survives down-sampling.
				assert.Equal(t, frames[0], got[0])
			}
		})
	}
}

func TestNewSequenceLengthMismatch(t *testing.T) {
	imgs := []image.Image{image.NewRGBA(image.Rect(0, 0, 4, 4))}
	_, err := NewSequence(imgs, []time.Duration{time.Second, time.Second})
	assert.Error(t, err)
}
