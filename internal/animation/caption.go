package animation

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const captionPad = 4

// burnCaptions returns copies of frames with the matching caption drawn
// along the bottom edge. Source frames are never modified.
func burnCaptions(frames []image.Image, captions []string) []image.Image {
	out := make([]image.Image, len(frames))
	for i, img := range frames {
		out[i] = withCaption(img, captions[i])
	}
	return out
}

func withCaption(img image.Image, caption string) image.Image {
	if caption == "" {
		return img
	}

	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)

	face := basicfont.Face7x13
	stripH := face.Height + 2*captionPad
	strip := image.Rect(b.Min.X, b.Max.Y-stripH, b.Max.X, b.Max.Y)
	backdrop := image.NewUniform(color.NRGBA{A: 0xa0})
	draw.Draw(dst, strip, backdrop, image.Point{}, draw.Over)

	d := font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(b.Min.X+captionPad, b.Max.Y-captionPad-face.Descent),
	}
	d.DrawString(caption)
	return dst
}
