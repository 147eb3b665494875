package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"zebrafish-isolator/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestLoadFromPathGray(t *testing.T) {
	dir := t.TempDir()
	src := image.NewGray(image.Rect(0, 0, 4, 3))
	src.SetGray(2, 1, color.Gray{Y: 200})
	writePNG(t, filepath.Join(dir, "background.png"), src)

	data, err := NewImageLoader(logger.Nop()).LoadFromPath(filepath.Join(dir, "background.png"))
	require.NoError(t, err)

	assert.Equal(t, "background", data.Name)
	assert.Equal(t, "png", data.Format)
	assert.Equal(t, 4, data.Width())
	assert.Equal(t, 3, data.Height())
	assert.Equal(t, uint8(200), data.Gray.GrayAt(2, 1).Y)
	assert.Equal(t, filepath.Join(dir, "background.png"), data.Path)
}

func TestLoadFromPathConvertsColour(t *testing.T) {
	dir := t.TempDir()
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	src.Set(1, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	writePNG(t, filepath.Join(dir, "fish01.png"), src)

	data, err := NewImageLoader(logger.Nop()).LoadFromPath(filepath.Join(dir, "fish01.png"))
	require.NoError(t, err)

	// 0.299 * 255
	assert.InDelta(t, 76, int(data.Gray.GrayAt(0, 0).Y), 1)
	assert.Equal(t, uint8(255), data.Gray.GrayAt(1, 0).Y)
}

func TestLoadFromBytesBMP(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 3))
	src.SetGray(1, 1, color.Gray{Y: 90})

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))

	data, err := NewImageLoader(logger.Nop()).LoadFromBytes(buf.Bytes(), "frame")
	require.NoError(t, err)
	assert.Equal(t, "bmp", data.Format)
	assert.Equal(t, uint8(90), data.Gray.GrayAt(1, 1).Y)
}

func TestLoadFromPathMissing(t *testing.T) {
	_, err := NewImageLoader(logger.Nop()).LoadFromPath(filepath.Join(t.TempDir(), "nope.png"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFromPathUnreadableIsNotMissing(t *testing.T) {
	// a directory exists but cannot be read as a file
	_, err := NewImageLoader(logger.Nop()).LoadFromPath(t.TempDir())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFileNotFound)
	assert.NotErrorIs(t, err, ErrDecode)
}

func TestLoadFromPathCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "background.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := NewImageLoader(logger.Nop()).LoadFromPath(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
	assert.NotErrorIs(t, err, ErrFileNotFound)
}

func TestToGrayNormalisesOrigin(t *testing.T) {
	parent := image.NewGray(image.Rect(0, 0, 5, 5))
	parent.SetGray(3, 3, color.Gray{Y: 7})
	sub := parent.SubImage(image.Rect(2, 2, 5, 5))

	g := toGray(sub)
	assert.Equal(t, image.Rect(0, 0, 3, 3), g.Bounds())
	assert.Equal(t, uint8(7), g.GrayAt(1, 1).Y)
}

func TestLoadFromPathIgnoresAlpha(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 0})
	src.SetNRGBA(1, 0, color.NRGBA{R: 255, A: 128})
	src.SetNRGBA(2, 0, color.NRGBA{R: 40, G: 40, B: 40, A: 255})
	writePNG(t, filepath.Join(dir, "fish01.png"), src)

	data, err := NewImageLoader(logger.Nop()).LoadFromPath(filepath.Join(dir, "fish01.png"))
	require.NoError(t, err)

	assert.Equal(t, uint8(255), data.Gray.GrayAt(0, 0).Y, "transparent white stays white")
	assert.InDelta(t, 76, int(data.Gray.GrayAt(1, 0).Y), 1)
	assert.Equal(t, uint8(40), data.Gray.GrayAt(2, 0).Y)
}

func TestToGrayNonPremultiplied(t *testing.T) {
	wide := image.NewNRGBA64(image.Rect(1, 1, 3, 2))
	wide.SetNRGBA64(1, 1, color.NRGBA64{R: 0xffff, G: 0xffff, B: 0xffff, A: 0})
	wide.SetNRGBA64(2, 1, color.NRGBA64{R: 0x8080, G: 0x8080, B: 0x8080, A: 0x1000})

	g := toGray(wide)
	assert.Equal(t, image.Rect(0, 0, 2, 1), g.Bounds())
	assert.Equal(t, uint8(255), g.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0x80), g.GrayAt(1, 0).Y)

	pal := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{
		color.NRGBA{R: 200, G: 200, B: 200, A: 0},
		color.NRGBA{A: 255},
	})
	pal.SetColorIndex(1, 0, 1)

	g = toGray(pal)
	assert.Equal(t, uint8(200), g.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), g.GrayAt(1, 0).Y)
}

func TestToGrayMatchesGrayModelWhenOpaque(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	colours := []color.NRGBA{
		{R: 255, G: 0, B: 0, A: 255},
		{R: 0, G: 255, B: 0, A: 255},
		{R: 0, G: 0, B: 255, A: 255},
		{R: 13, G: 177, B: 91, A: 255},
	}
	for x, c := range colours {
		src.SetNRGBA(x, 0, c)
	}

	g := toGray(src)
	for x, c := range colours {
		want := color.GrayModel.Convert(c).(color.Gray).Y
		assert.Equal(t, want, g.GrayAt(x, 0).Y, "pixel %d", x)
	}
}
