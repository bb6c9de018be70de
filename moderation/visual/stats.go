package visual

import (
	"bytes"
	"image"
	"math"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// PixelStats summarizes the color distribution of an image as ratios in
// [0,1]. Sampling is on a coarse grid rather than every pixel, which is
// plenty for the heuristic classifier and keeps large images cheap.
type PixelStats struct {
	Skin   float64
	Red    float64
	Green  float64
	Pink   float64
	Dark   float64
	Bright float64

	Width  int
	Height int
}

// sampleGrid is the number of sample points per axis.
const sampleGrid = 64

// DecodeStats decodes an image payload and computes its pixel statistics.
func DecodeStats(data []byte) (*PixelStats, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	st := ComputeStats(img)
	return st, format, nil
}

// ComputeStats samples the image on a fixed grid and classifies each sample
// point by hue, saturation, and value.
func ComputeStats(img image.Image) *PixelStats {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	st := &PixelStats{Width: w, Height: h}
	if w == 0 || h == 0 {
		return st
	}

	stepX := w / sampleGrid
	if stepX < 1 {
		stepX = 1
	}
	stepY := h / sampleGrid
	if stepY < 1 {
		stepY = 1
	}

	total := 0
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			r16, g16, b16, _ := img.At(x, y).RGBA()
			r := float64(r16) / 65535.0
			g := float64(g16) / 65535.0
			bl := float64(b16) / 65535.0
			hue, sat, val := rgbToHSV(r, g, bl)
			total++

			if isSkinTone(hue, sat, val) {
				st.Skin++
			}
			if (hue < 20 || hue > 340) && sat > 0.5 && val > 0.3 {
				st.Red++
			}
			if hue >= 80 && hue <= 160 && sat > 0.25 && val > 0.2 {
				st.Green++
			}
			if hue >= 290 && hue <= 340 && sat > 0.3 && val > 0.4 {
				st.Pink++
			}
			if val < 0.2 {
				st.Dark++
			}
			if val > 0.85 && sat < 0.2 {
				st.Bright++
			}
		}
	}
	if total == 0 {
		return st
	}

	n := float64(total)
	st.Skin /= n
	st.Red /= n
	st.Green /= n
	st.Pink /= n
	st.Dark /= n
	st.Bright /= n
	return st
}

// isSkinTone covers the hue band of human skin across tones; saturation and
// value bounds exclude washed-out or near-black samples that happen to land
// in the band.
func isSkinTone(hue, sat, val float64) bool {
	return hue >= 0 && hue <= 50 && sat >= 0.15 && sat <= 0.75 && val >= 0.25
}

// rgbToHSV converts [0,1] RGB to hue in degrees [0,360) plus saturation and
// value in [0,1].
func rgbToHSV(r, g, b float64) (hue, sat, val float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	val = max
	d := max - min
	if max > 0 {
		sat = d / max
	}
	if d == 0 {
		return 0, sat, val
	}
	switch max {
	case r:
		hue = 60 * math.Mod((g-b)/d, 6)
	case g:
		hue = 60 * ((b-r)/d + 2)
	default:
		hue = 60 * ((r-g)/d + 4)
	}
	if hue < 0 {
		hue += 360
	}
	return hue, sat, val
}
