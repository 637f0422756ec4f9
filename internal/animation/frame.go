// Package animation assembles sequences of still images into animated
// outputs. Sequences are built with Bounce or Slideshow and written to
// GIF, WebP, APNG or MP4 files by a Renderer, which selects the encoder
// from the output path's extension.
package animation

import (
	"fmt"
	"image"
	"os"

	// Frame sources may reference files in any of the common still formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Frame is a source of one still image in an animation sequence. A frame
// may be an already-materialized image, a lazily-loaded file reference,
// or a model-generated tensor paired with a decoder.
type Frame interface {
	// Image materializes the frame.
	Image() (image.Image, error)
}

// Tensor holds raw model output in CHW layout. Decoding a tensor into a
// displayable image is model-specific and is left to a TensorDecoder.
type Tensor struct {
	Data     []float32
	Channels int
	Height   int
	Width    int
}

// TensorDecoder converts a model tensor into an image.
type TensorDecoder interface {
	Decode(t Tensor) (image.Image, error)
}

type imageFrame struct {
	img image.Image
}

// FromImage wraps a materialized image as a Frame.
func FromImage(img image.Image) Frame {
	return imageFrame{img: img}
}

func (f imageFrame) Image() (image.Image, error) {
	if f.img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrNoFrames)
	}
	return f.img, nil
}

type fileFrame struct {
	path string
}

// FromFile returns a Frame backed by an image file. The file is not read
// until the frame is materialized, so frames dropped during down-sampling
// are never decoded.
func FromFile(path string) Frame {
	return fileFrame{path: path}
}

func (f fileFrame) Image() (image.Image, error) {
	fd, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open frame %s: %w", f.path, err)
	}
	defer fd.Close()

	img, _, err := image.Decode(fd)
	if err != nil {
		return nil, fmt.Errorf("decode frame %s: %w", f.path, err)
	}
	return img, nil
}

type tensorFrame struct {
	t   Tensor
	dec TensorDecoder
}

// FromTensor returns a Frame that decodes t with dec when materialized.
func FromTensor(t Tensor, dec TensorDecoder) Frame {
	return tensorFrame{t: t, dec: dec}
}

func (f tensorFrame) Image() (image.Image, error) {
	if f.dec == nil {
		return nil, fmt.Errorf("decode tensor frame: no decoder")
	}
	img, err := f.dec.Decode(f.t)
	if err != nil {
		return nil, fmt.Errorf("decode tensor frame: %w", err)
	}
	return img, nil
}

// materialize decodes every frame in order.
func materialize(frames []Frame) ([]image.Image, error) {
	imgs := make([]image.Image, len(frames))
	for i, f := range frames {
		img, err := f.Image()
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		imgs[i] = img
	}
	return imgs, nil
}
