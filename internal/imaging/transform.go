package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// ResizeGray resamples src to exactly width x height with a Catmull-Rom kernel.
func ResizeGray(src *image.Gray, width, height int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// ScaleGray shrinks src by factor using bilinear interpolation.
// It returns nil when the result would be smaller than one pixel.
func ScaleGray(src *image.Gray, factor float64) *image.Gray {
	if factor <= 0 {
		return nil
	}
	w := int(float64(src.Bounds().Dx())/factor + 0.5)
	h := int(float64(src.Bounds().Dy())/factor + 0.5)
	if w < 1 || h < 1 {
		return nil
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// GrayPlane returns the luma samples of src as float64, row-major.
func GrayPlane(src *image.Gray) []float64 {
	b := src.Bounds()
	out := make([]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out = append(out, float64(src.GrayAt(x, y).Y))
		}
	}
	return out
}

// EncodeJPEG re-encodes the grid at the given quality (1-100).
func EncodeJPEG(g *Grid, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, g.RGBA(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg at quality %d: %w", quality, err)
	}
	return buf.Bytes(), nil
}

// EncodePNG losslessly encodes img, for diagnostic overlays.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
