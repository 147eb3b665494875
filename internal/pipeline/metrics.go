package pipeline

import (
	"image"
)

// StageStats summarises one intermediate grid
type StageStats struct {
	Stage    string
	Width    int
	Height   int
	NonZero  int
	Coverage float64 // NonZero / pixel count
	Min      uint8
	Max      uint8
	Mean     float64
}

func CalculateStageStats(stage string, img *image.Gray) StageStats {
	b := img.Bounds()
	stats := StageStats{
		Stage:  stage,
		Width:  b.Dx(),
		Height: b.Dy(),
		Min:    255,
	}

	total := b.Dx() * b.Dy()
	if total == 0 {
		stats.Min = 0
		return stats
	}

	var sum int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):][:b.Dx()]
		for _, v := range row {
			if v != 0 {
				stats.NonZero++
			}
			if v < stats.Min {
				stats.Min = v
			}
			if v > stats.Max {
				stats.Max = v
			}
			sum += int(v)
		}
	}

	stats.Coverage = float64(stats.NonZero) / float64(total)
	stats.Mean = float64(sum) / float64(total)
	return stats
}

func (s StageStats) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"stage":    s.Stage,
		"width":    s.Width,
		"height":   s.Height,
		"non_zero": s.NonZero,
		"coverage": s.Coverage,
		"min":      s.Min,
		"max":      s.Max,
		"mean":     s.Mean,
	}
}
