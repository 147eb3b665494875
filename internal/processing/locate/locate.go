// Package locate turns a cleaned foreground mask into a tracked image point.
package locate

import (
	"image"
)

// Location describes where the foreground sits in a mask
type Location struct {
	Found    bool
	Point    image.Point // first non-zero pixel in row-major order
	Count    int
	Centroid image.Point
	Bounds   image.Rectangle
}

// FindForeground scans mask for non-zero pixels. Point is the first hit,
// which is what the tracker follows.
func FindForeground(mask *image.Gray) Location {
	var loc Location
	if mask == nil {
		return loc
	}

	b := mask.Bounds()
	var sumX, sumY int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, y):][:b.Dx()]
		for i, v := range row {
			if v == 0 {
				continue
			}
			x := b.Min.X + i
			if !loc.Found {
				loc.Found = true
				loc.Point = image.Pt(x, y)
				loc.Bounds = image.Rect(x, y, x+1, y+1)
			} else {
				loc.Bounds = loc.Bounds.Union(image.Rect(x, y, x+1, y+1))
			}
			loc.Count++
			sumX += x
			sumY += y
		}
	}

	if loc.Count > 0 {
		loc.Centroid = image.Pt(sumX/loc.Count, sumY/loc.Count)
	}
	return loc
}
