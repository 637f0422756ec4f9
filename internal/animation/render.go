package animation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrCaptionMismatch is returned when the caption count does not equal
// the frame count.
var ErrCaptionMismatch = errors.New("animation: captions and frames must be of same length")

// Extensions supported by Renderer.Render. SupportsExtension reports
// membership so callers can reject unsupported outputs up front.
const (
	ExtGIF  = "gif"
	ExtWebP = "webp"
	ExtPNG  = "png"
	ExtAPNG = "apng"
	ExtMP4  = "mp4"
)

// SupportsExtension reports whether the renderer can encode output files
// with the given extension (without a leading dot).
func SupportsExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ExtGIF, ExtWebP, ExtPNG, ExtAPNG, ExtMP4:
		return true
	}
	return false
}

// Renderer writes frame sequences to animated image or video files,
// selecting the encoder from the output path's extension.
type Renderer struct {
	fps    int
	codec  string
	logger *zap.Logger
}

// NewRenderer returns a Renderer encoding video at the given frame rate
// with the given ffmpeg codec. Non-positive fps defaults to 30 and an
// empty codec to libx264.
func NewRenderer(fps int, codec string, logger *zap.Logger) *Renderer {
	if fps <= 0 {
		fps = 30
	}
	if codec == "" {
		codec = "libx264"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{fps: fps, codec: codec, logger: logger}
}

// Render writes seq to outpath. Captions, when present, are burned into
// the frames and must match the frame count exactly; on mismatch no
// output is written. Animated image formats loop forever. A path with an
// unrecognized extension produces no file and no error; the omission is
// logged.
func (r *Renderer) Render(ctx context.Context, seq *Sequence, outpath string, captions []string) error {
	if seq == nil || len(seq.Frames) == 0 {
		return ErrNoFrames
	}
	if len(seq.Durations) != len(seq.Frames) {
		return fmt.Errorf("animation: %d durations for %d frames", len(seq.Durations), len(seq.Frames))
	}

	frames := seq.Frames
	if len(captions) > 0 {
		if len(captions) != len(frames) {
			return fmt.Errorf("%w: %d captions for %d frames", ErrCaptionMismatch, len(captions), len(frames))
		}
		frames = burnCaptions(frames, captions)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(outpath), "."))
	switch ext {
	case ExtGIF:
		return writeGIF(outpath, frames, seq.Durations)
	case ExtWebP:
		return writeWebP(outpath, frames, seq.Durations)
	case ExtPNG, ExtAPNG:
		return writeAPNG(outpath, frames, seq.Durations)
	case ExtMP4:
		return r.writeVideo(ctx, outpath, frames, seq.Durations)
	default:
		r.logger.Warn("unrecognized animation extension, nothing written",
			zap.String("path", outpath),
			zap.String("extension", ext),
		)
		return nil
	}
}
