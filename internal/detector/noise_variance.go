package detector

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/anime-shed/forgery-inspector-go/internal/config"
	"github.com/anime-shed/forgery-inspector-go/internal/imaging"
)

// NoiseVarianceDetector looks for grid cells whose noise level disagrees
// with the rest of the image, as spliced content often does.
type NoiseVarianceDetector struct {
	settings config.NoiseVarianceSettings
}

func NewNoiseVarianceDetector(settings config.NoiseVarianceSettings) *NoiseVarianceDetector {
	return &NoiseVarianceDetector{settings: settings}
}

func (d *NoiseVarianceDetector) Name() Name { return NoiseVariance }

func (d *NoiseVarianceDetector) DefaultScore() float64 { return d.settings.ErrorDefaultScore }

func (d *NoiseVarianceDetector) Analyze(img *imaging.RawImage) Result {
	grid, err := img.Decode()
	if err != nil {
		return Fallback(NoiseVariance, ReasonDecodeFailure, d.settings.ErrorDefaultScore, err)
	}
	return d.score(regionNoise(grid, imaging.Cells(grid.Width, grid.Height, d.settings.GridSize)))
}

// RegionNoise returns the standard deviation of every sample in each grid
// cell, row-major. It is nil when the image cannot be decoded or is smaller
// than the grid.
func (d *NoiseVarianceDetector) RegionNoise(img *imaging.RawImage) []float64 {
	grid, err := img.Decode()
	if err != nil {
		return nil
	}
	return regionNoise(grid, imaging.Cells(grid.Width, grid.Height, d.settings.GridSize))
}

// NoiseMap paints each cell with its noise level, scaled so the quietest
// cell is black and the noisiest white. Failures yield a black placeholder.
func (d *NoiseVarianceDetector) NoiseMap(img *imaging.RawImage) *image.Gray {
	grid, err := img.Decode()
	if err != nil {
		return image.NewGray(image.Rect(0, 0, placeholderSize, placeholderSize))
	}
	cells := imaging.Cells(grid.Width, grid.Height, d.settings.GridSize)
	noise := regionNoise(grid, cells)

	out := image.NewGray(image.Rect(0, 0, grid.Width, grid.Height))
	if len(noise) == 0 {
		return out
	}
	lo, hi := noise[0], noise[0]
	for _, v := range noise {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	for i, cell := range cells {
		level := uint8((noise[i] - lo) / (hi - lo + 1e-6) * 255)
		for y := cell.Min.Y; y < cell.Max.Y; y++ {
			for x := cell.Min.X; x < cell.Max.X; x++ {
				out.Pix[y*out.Stride+x] = level
			}
		}
	}
	return out
}

func regionNoise(grid *imaging.Grid, cells []image.Rectangle) []float64 {
	noise := make([]float64, 0, len(cells))
	samples := make([]float64, 0)
	for _, cell := range cells {
		samples = samples[:0]
		for y := cell.Min.Y; y < cell.Max.Y; y++ {
			start := (y*grid.Width + cell.Min.X) * 3
			end := (y*grid.Width + cell.Max.X) * 3
			for _, v := range grid.Pix[start:end] {
				samples = append(samples, float64(v))
			}
		}
		_, std := stat.PopMeanStdDev(samples, nil)
		noise = append(noise, std)
	}
	return noise
}

// score maps the spread of region noise levels to a suspicion score.
func (d *NoiseVarianceDetector) score(noise []float64) Result {
	if len(noise) < 2 {
		return Neutral(ReasonDegenerateInput)
	}
	mean, std := stat.PopMeanStdDev(noise, nil)
	if std == 0 {
		return Neutral(ReasonDegenerateInput)
	}

	cv := std / (mean + 1e-6)
	score := d.settings.CVLowScore
	switch {
	case cv > d.settings.CVHighThreshold:
		score = d.settings.CVHighScore
	case cv > d.settings.CVMediumThreshold:
		score = d.settings.CVMediumScore
	}

	maxZ := 0.0
	for _, v := range noise {
		maxZ = math.Max(maxZ, math.Abs(v-mean)/(std+1e-6))
	}
	if maxZ > d.settings.ZScoreThreshold {
		score = math.Max(score, d.settings.ZScoreScore)
	}
	return Scored(score)
}
