package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"zebrafish-isolator/internal/logger"
	"zebrafish-isolator/internal/models"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type imageLoader struct {
	logger logger.Logger
}

func NewImageLoader(log logger.Logger) ImageLoader {
	return &imageLoader{logger: log}
}

func (l *imageLoader) LoadFromPath(path string) (*models.ImageData, error) {
	l.logger.Debug("ImageLoader", "loading image", map[string]interface{}{
		"path":      path,
		"extension": strings.ToLower(filepath.Ext(path)),
	})

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrFileNotFound, path, err)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	imageData, err := l.LoadFromBytes(data, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	imageData.Path = path

	return imageData, nil
}

func (l *imageLoader) LoadFromBytes(data []byte, name string) (*models.ImageData, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	gray := toGray(img)
	if gray.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}

	imageData := &models.ImageData{
		Name:   name,
		Format: format,
		Gray:   gray,
	}

	l.logger.Info("ImageLoader", "image loaded successfully", map[string]interface{}{
		"name":        name,
		"width":       imageData.Width(),
		"height":      imageData.Height(),
		"format":      format,
		"source_type": fmt.Sprintf("%T", img),
	})

	return imageData, nil
}

// toGray converts img to an 8-bit single channel grid anchored at the origin,
// using the ITU-R 601 luma weights of color.GrayModel. Alpha is dropped, not
// premultiplied, so a transparent pixel keeps the luma of its stored colour.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) {
		return g
	}

	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				s := src.Pix[i : i+3 : i+3]
				dst.Pix[y*dst.Stride+x] = luma(uint32(s[0])*0x101, uint32(s[1])*0x101, uint32(s[2])*0x101)
			}
		}
	case *image.NRGBA64:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
				s := src.Pix[i : i+6 : i+6]
				dst.Pix[y*dst.Stride+x] = luma(
					uint32(s[0])<<8|uint32(s[1]),
					uint32(s[2])<<8|uint32(s[3]),
					uint32(s[4])<<8|uint32(s[5]),
				)
			}
		}
	case *image.Paletted:
		var lut [256]uint8
		for i, c := range src.Palette {
			if i >= len(lut) {
				break
			}
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			lut[i] = luma(uint32(n.R)*0x101, uint32(n.G)*0x101, uint32(n.B)*0x101)
		}
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):][:b.Dx()]
			for x, idx := range row {
				dst.Pix[y*dst.Stride+x] = lut[idx]
			}
		}
	default:
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}
	return dst
}

// luma takes 16-bit channels, matching color.GrayModel's rounding.
func luma(r, g, b uint32) uint8 {
	return uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)
}
