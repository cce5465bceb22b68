package detector

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/anime-shed/forgery-inspector-go/internal/config"
	"github.com/anime-shed/forgery-inspector-go/internal/format"
	"github.com/anime-shed/forgery-inspector-go/internal/imaging"
)

const placeholderSize = 100

// ErrorLevelDetector measures how unevenly an image reacts to one more round
// of JPEG compression.
type ErrorLevelDetector struct {
	settings config.ELASettings
}

func NewErrorLevelDetector(settings config.ELASettings) *ErrorLevelDetector {
	return &ErrorLevelDetector{settings: settings}
}

func (d *ErrorLevelDetector) Name() Name { return ELA }

func (d *ErrorLevelDetector) DefaultScore() float64 { return d.settings.ErrorDefaultScore }

func (d *ErrorLevelDetector) Analyze(img *imaging.RawImage) Result {
	grid, err := img.Decode()
	if err != nil {
		return Fallback(ELA, ReasonDecodeFailure, d.settings.ErrorDefaultScore, err)
	}
	diff, err := d.residue(grid)
	if err != nil {
		return Fallback(ELA, ReasonEncodeFailure, d.settings.ErrorDefaultScore, err)
	}

	mean, std := stat.PopMeanStdDev(diff, nil)

	regionMeans := d.regionMeans(diff, grid.Width, grid.Height)
	variance := 0.0
	if len(regionMeans) > 0 {
		_, variance = stat.PopMeanVariance(regionMeans, nil)
	}

	score := d.settings.WeightMean*normalize(mean, d.settings.MeanDivisor) +
		d.settings.WeightStd*normalize(std, d.settings.StdDivisor) +
		d.settings.WeightVariance*normalize(variance, d.settings.VarianceDivisor)
	return Scored(score)
}

// residue re-encodes the grid and returns |original - recompressed| for every sample.
func (d *ErrorLevelDetector) residue(grid *imaging.Grid) ([]float64, error) {
	encoded, err := imaging.EncodeJPEG(grid, d.settings.Quality)
	if err != nil {
		return nil, err
	}
	recompressed, err := imaging.NewRawImage(encoded).Decode()
	if err != nil {
		return nil, err
	}

	diff := make([]float64, len(grid.Pix))
	for i := range diff {
		diff[i] = math.Abs(float64(grid.Pix[i]) - float64(recompressed.Pix[i]))
	}
	return diff, nil
}

// regionMeans averages the residue (all channels) over each grid cell.
func (d *ErrorLevelDetector) regionMeans(diff []float64, width, height int) []float64 {
	cells := imaging.Cells(width, height, d.settings.GridSize)
	means := make([]float64, 0, len(cells))
	for _, cell := range cells {
		sum := 0.0
		for y := cell.Min.Y; y < cell.Max.Y; y++ {
			row := diff[(y*width+cell.Min.X)*3 : (y*width+cell.Max.X)*3]
			for _, v := range row {
				sum += v
			}
		}
		means = append(means, sum/float64(cell.Dx()*cell.Dy()*3))
	}
	return means
}

// Render returns the residue amplified by the configured scale factor.
// Non-jpeg input or any failure yields a black placeholder.
func (d *ErrorLevelDetector) Render(img *imaging.RawImage) image.Image {
	placeholder := image.NewRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	for i := 3; i < len(placeholder.Pix); i += 4 {
		placeholder.Pix[i] = 0xff
	}

	if f, _ := format.Detect(img.Bytes()); f != format.JPEG {
		return placeholder
	}
	grid, err := img.Decode()
	if err != nil {
		return placeholder
	}
	diff, err := d.residue(grid)
	if err != nil {
		return placeholder
	}

	out := image.NewRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	for i := 0; i < grid.Pixels(); i++ {
		out.SetRGBA(i%grid.Width, i/grid.Width, color.RGBA{
			R: amplify(diff[i*3], d.settings.ScaleFactor),
			G: amplify(diff[i*3+1], d.settings.ScaleFactor),
			B: amplify(diff[i*3+2], d.settings.ScaleFactor),
			A: 0xff,
		})
	}
	return out
}

func amplify(v float64, factor int) uint8 {
	v *= float64(factor)
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// normalize divides by divisor and caps at 1. A non-positive divisor disables the term.
func normalize(v, divisor float64) float64 {
	if divisor <= 0 {
		return 0
	}
	return math.Min(v/divisor, 1.0)
}
