package animation

import (
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	xdraw "golang.org/x/image/draw"
)

// ErrNoFrames is returned when a sequence is built or rendered from an
// empty frame list.
var ErrNoFrames = errors.New("animation: no frames")

// Sequence is an ordered set of materialized frames and a parallel list
// of per-frame display durations. Both slices always have the same length.
type Sequence struct {
	Frames    []image.Image
	Durations []time.Duration
}

// NewSequence pairs frames with per-frame durations.
func NewSequence(frames []image.Image, durations []time.Duration) (*Sequence, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if len(durations) != len(frames) {
		return nil, fmt.Errorf("animation: %d durations for %d frames", len(durations), len(frames))
	}
	return &Sequence{Frames: frames, Durations: durations}, nil
}

// NewUniformSequence pairs frames with a single shared display duration.
func NewUniformSequence(frames []image.Image, d time.Duration) (*Sequence, error) {
	durations := make([]time.Duration, len(frames))
	for i := range durations {
		durations[i] = d
	}
	return NewSequence(frames, durations)
}

// Len returns the number of frames in the sequence.
func (s *Sequence) Len() int { return len(s.Frames) }

// BounceOptions tunes bounce sequence assembly. Zero values are replaced
// with the defaults noted on each field.
type BounceOptions struct {
	// TransitionDuration is the target duration of each directional
	// sweep through the middle frames. Default 500ms.
	TransitionDuration time.Duration
	// StartPause is how long the first frame is held. Default 1s.
	StartPause time.Duration
	// EndPause is how long the last frame is held before the reverse
	// sweep. Default 2s.
	EndPause time.Duration
	// MaxFPS caps the transition frame rate and derives the middle
	// frame budget. Default 20.
	MaxFPS int
}

func (o *BounceOptions) applyDefaults() {
	if o.TransitionDuration <= 0 {
		o.TransitionDuration = 500 * time.Millisecond
	}
	if o.StartPause <= 0 {
		o.StartPause = time.Second
	}
	if o.EndPause <= 0 {
		o.EndPause = 2 * time.Second
	}
	if o.MaxFPS <= 0 {
		o.MaxFPS = 20
	}
}

// Bounce assembles a forward-then-backward sequence: the first frame, a
// down-sampled set of middle frames, the last frame, then the down-sampled
// middle frames reversed. The middle set is capped at
// round(transition * maxFPS) frames. Each transition frame is shown for
// round(transition / middle count) milliseconds, floored at the minimum
// duration a frame may hold at maxFPS; pauses pad both ends. All frames
// are normalized to the largest frame's dimensions.
func Bounce(frames []Frame, opts BounceOptions) (*Sequence, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	opts.applyDefaults()

	first := frames[0]
	last := frames[len(frames)-1]
	var middle []Frame
	if len(frames) > 2 {
		middle = frames[1 : len(frames)-1]
	}

	maxFrames := int(math.Round(opts.TransitionDuration.Seconds() * float64(opts.MaxFPS)))
	minMs := int64(1000 / opts.MaxFPS)
	var transitionMs int64
	if len(middle) > 0 {
		transitionMs = int64(math.Round(float64(opts.TransitionDuration.Milliseconds()) / float64(len(middle))))
	}
	if transitionMs < minMs {
		transitionMs = minMs
	}
	transition := time.Duration(transitionMs) * time.Millisecond

	middle = downsample(middle, maxFrames)

	ordered := make([]Frame, 0, 2+2*len(middle))
	ordered = append(ordered, first)
	ordered = append(ordered, middle...)
	ordered = append(ordered, last)
	for i := len(middle) - 1; i >= 0; i-- {
		ordered = append(ordered, middle[i])
	}

	imgs, err := materialize(ordered)
	if err != nil {
		return nil, err
	}
	normalizeSizes(imgs)

	durations := make([]time.Duration, 0, len(imgs))
	durations = append(durations, opts.StartPause)
	for range middle {
		durations = append(durations, transition)
	}
	durations = append(durations, opts.EndPause)
	for range middle {
		durations = append(durations, transition)
	}

	return &Sequence{Frames: imgs, Durations: durations}, nil
}

// Slideshow assembles a sequence showing every frame for the same fixed
// duration.
func Slideshow(frames []Frame, imagePause time.Duration) (*Sequence, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if imagePause <= 0 {
		imagePause = time.Second
	}
	imgs, err := materialize(frames)
	if err != nil {
		return nil, err
	}
	return NewUniformSequence(imgs, imagePause)
}

// downsample reduces frames to at most max entries, keeping the first
// frame and the last frame of each of max-1 evenly sized buckets.
func downsample(frames []Frame, max int) []Frame {
	if max <= 0 {
		return nil
	}
	if len(frames) <= max {
		return frames
	}
	if max == 1 {
		return frames[:1]
	}

	buckets := make([]Frame, max-1)
	ratio := float64(len(frames)) / float64(max-1)
	for i, f := range frames {
		b := int(float64(i) / ratio)
		if b > max-2 {
			b = max - 2
		}
		buckets[b] = f
	}

	out := make([]Frame, 0, max)
	out = append(out, frames[0])
	out = append(out, buckets...)
	return out
}

// normalizeSizes resizes any frame whose dimensions differ from the
// largest frame's, in place. The largest frame is the one with the
// greatest width, ties broken by height.
func normalizeSizes(imgs []image.Image) {
	if len(imgs) == 0 {
		return
	}
	target := imgs[0].Bounds().Size()
	for _, img := range imgs[1:] {
		sz := img.Bounds().Size()
		if sz.X > target.X || (sz.X == target.X && sz.Y > target.Y) {
			target = sz
		}
	}
	for i, img := range imgs {
		if img.Bounds().Size() != target {
			imgs[i] = resize(img, target)
		}
	}
}

func resize(img image.Image, size image.Point) image.Image {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}
