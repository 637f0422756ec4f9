package animation

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"
	"os/exec"
	"strconv"
	"time"
)

// writeVideo encodes frames into a video container at the renderer's
// fixed frame rate. Each source frame is expanded into
// round(duration * fps) repeated output frames so variable per-frame
// durations survive constant frame rate encoding.
func (r *Renderer) writeVideo(ctx context.Context, outpath string, frames []image.Image, durations []time.Duration) (err error) {
	bounds := frames[0].Bounds()
	vw, err := newVideoWriter(ctx, outpath, bounds.Dx(), bounds.Dy(), r.fps, r.codec)
	if err != nil {
		return fmt.Errorf("open video writer: %w", err)
	}
	// The writer owns an ffmpeg child process; it must be released even
	// when a write fails mid-encode.
	defer func() {
		if cerr := vw.Close(); err == nil {
			err = cerr
		}
	}()

	for i, img := range frames {
		for n := frameRepeat(durations[i], r.fps); n > 0; n-- {
			if err := vw.WriteFrame(img); err != nil {
				return fmt.Errorf("write frame %d: %w", i, err)
			}
		}
	}
	return nil
}

// frameRepeat converts a display duration into a whole number of encoded
// frames at the given rate. Rounding is to nearest, not floor or ceiling:
// a 50ms frame at 30fps occupies 2 output frames.
func frameRepeat(d time.Duration, fps int) int {
	return int(math.Round(d.Seconds() * float64(fps)))
}

// videoWriter streams raw RGBA frames to an ffmpeg child process.
type videoWriter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	width  int
	height int
	closed bool
}

func newVideoWriter(ctx context.Context, outpath string, width, height, fps int, codec string) (*videoWriter, error) {
	w := &videoWriter{width: width, height: height}
	w.cmd = exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.Itoa(fps),
		"-i", "-",
		"-c:v", codec,
		"-pix_fmt", "yuv420p",
		outpath,
	)
	w.cmd.Stderr = &w.stderr

	stdin, err := w.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	w.stdin = stdin

	if err := w.cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	return w, nil
}

// WriteFrame emits one frame. Images smaller or larger than the writer's
// dimensions are drawn into a canvas of the fixed size.
func (w *videoWriter) WriteFrame(img image.Image) error {
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Bounds() != image.Rect(0, 0, w.width, w.height) || rgba.Stride != 4*w.width {
		canvas := image.NewRGBA(image.Rect(0, 0, w.width, w.height))
		draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Src)
		rgba = canvas
	}
	if _, err := w.stdin.Write(rgba.Pix); err != nil {
		return fmt.Errorf("pipe frame to ffmpeg: %w", err)
	}
	return nil
}

// Close finishes the stream and waits for ffmpeg to exit. It is safe to
// call more than once.
func (w *videoWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg: %w, output: %s", err, w.stderr.String())
	}
	return nil
}
