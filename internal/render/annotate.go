// Package render prepares stage images for display: a caption in the top-left
// corner and a ring around the tracked point.
package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	captionPadding = 4
	markerRadius   = 6
)

// Annotate returns a copy of src with caption drawn on a dark band and, when
// marker is non-nil, a ring around it. src is not modified.
func Annotate(src *image.Gray, caption string, marker *image.Point) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	if caption != "" {
		drawCaption(dst, caption)
	}
	if marker != nil {
		drawRing(dst, marker.Sub(b.Min), markerRadius, color.Gray{Y: 128})
	}
	return dst
}

func drawCaption(dst *image.Gray, caption string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Gray{Y: 255}),
		Face: face,
	}

	width := d.MeasureString(caption).Ceil()
	height := face.Metrics().Height.Ceil()
	band := image.Rect(0, 0, width+2*captionPadding, height+2*captionPadding).Intersect(dst.Bounds())
	draw.Draw(dst, band, image.NewUniform(color.Gray{Y: 0}), image.Point{}, draw.Src)

	d.Dot = fixed.P(captionPadding, captionPadding+face.Metrics().Ascent.Ceil())
	d.DrawString(caption)
}

// drawRing plots a one-pixel circle with the midpoint algorithm
func drawRing(dst *image.Gray, c image.Point, r int, col color.Gray) {
	x, y, d := r, 0, 1-r
	for x >= y {
		for _, p := range []image.Point{
			{c.X + x, c.Y + y}, {c.X + y, c.Y + x},
			{c.X - y, c.Y + x}, {c.X - x, c.Y + y},
			{c.X - x, c.Y - y}, {c.X - y, c.Y - x},
			{c.X + y, c.Y - x}, {c.X + x, c.Y - y},
		} {
			if p.In(dst.Bounds()) {
				dst.SetGray(p.X, p.Y, col)
			}
		}
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}
