package render

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnnotateLeavesSourceUntouched(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 120, 60))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	orig := append([]uint8(nil), src.Pix...)

	out := Annotate(src, "threshold", nil)
	assert.Equal(t, orig, src.Pix)
	assert.Equal(t, src.Bounds(), out.Bounds())

	// caption band is dark with white glyphs, the rest is unchanged
	var dark, white int
	for y := 0; y < 21; y++ {
		for x := 0; x < 60; x++ {
			switch out.GrayAt(x, y).Y {
			case 0:
				dark++
			case 255:
				white++
			}
		}
	}
	assert.Positive(t, dark)
	assert.Positive(t, white)
	assert.Equal(t, uint8(200), out.GrayAt(110, 50).Y)
}

func TestAnnotateMarker(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 40, 40))
	p := image.Pt(20, 30)

	out := Annotate(src, "", &p)
	assert.Equal(t, uint8(128), out.GrayAt(20+markerRadius, 30).Y)
	assert.Equal(t, uint8(128), out.GrayAt(20, 30-markerRadius).Y)
	assert.Equal(t, uint8(0), out.GrayAt(20, 30).Y)
}

func TestAnnotateMarkerNearEdge(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 5, 5))
	p := image.Pt(0, 0)
	assert.NotPanics(t, func() { Annotate(src, "", &p) })
}
