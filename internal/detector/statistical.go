package detector

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/anime-shed/forgery-inspector-go/internal/config"
	"github.com/anime-shed/forgery-inspector-go/internal/imaging"
)

const histogramBins = 256

// StatisticalDetector combines histogram, channel-correlation and edge-density
// checks on the decoded pixels.
type StatisticalDetector struct {
	settings config.StatisticalSettings
}

func NewStatisticalDetector(settings config.StatisticalSettings) *StatisticalDetector {
	return &StatisticalDetector{settings: settings}
}

func (d *StatisticalDetector) Name() Name { return Statistical }

func (d *StatisticalDetector) DefaultScore() float64 { return d.settings.ErrorDefaultScore }

func (d *StatisticalDetector) Analyze(img *imaging.RawImage) Result {
	grid, err := img.Decode()
	if err != nil {
		return Fallback(Statistical, ReasonDecodeFailure, d.settings.ErrorDefaultScore, err)
	}

	score := d.settings.WeightHistogram*d.histogramScore(grid) +
		d.settings.WeightCorrelation*d.correlationScore(grid) +
		d.settings.WeightEdge*d.edgeScore(grid)
	return Scored(score)
}

// histogramScore flags channels with many empty bins or a dominant bin.
func (d *StatisticalDetector) histogramScore(grid *imaging.Grid) float64 {
	channels := d.settings.NumChannels
	if channels > 3 {
		channels = 3
	}
	if channels <= 0 {
		return 0
	}

	suspicion := 0.0
	for c := 0; c < channels; c++ {
		var hist [histogramBins]float64
		total := 0.0
		for i := 0; i < grid.Pixels(); i++ {
			hist[grid.Pix[i*3+c]]++
			total++
		}

		empty := 0
		peak := 0.0
		for _, count := range hist {
			if count == 0 {
				empty++
			}
			peak = math.Max(peak, count)
		}

		if float64(empty)/histogramBins > d.settings.GapRatioThreshold {
			suspicion += d.settings.GapRatioScore
		}
		if peak/(total+1e-6) > d.settings.MaxPeakThreshold {
			suspicion += d.settings.MaxPeakScore
		}
	}
	return math.Min(suspicion/float64(channels), 1.0)
}

// correlationScore is high when color channels move independently of each other.
func (d *StatisticalDetector) correlationScore(grid *imaging.Grid) float64 {
	r, g, b := grid.Channel(0), grid.Channel(1), grid.Channel(2)
	avg := (pearson(r, g) + pearson(r, b) + pearson(g, b)) / 3.0
	// A constant channel has no defined correlation and carries no evidence.
	if math.IsNaN(avg) {
		return 0
	}

	switch {
	case avg < d.settings.VerySuspiciousThreshold:
		return d.settings.VerySuspiciousScore
	case avg < d.settings.SomewhatSuspiciousThreshold:
		return d.settings.SomewhatSuspiciousScore
	}
	return 0
}

// pearson is NaN when either channel is constant or too short to correlate.
func pearson(x, y []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	corr := stat.Correlation(x, y, nil)
	if math.IsInf(corr, 0) {
		return math.NaN()
	}
	return corr
}

// edgeScore measures how unevenly edge energy is spread across the grid cells.
func (d *StatisticalDetector) edgeScore(grid *imaging.Grid) float64 {
	magnitude := edgeMagnitude(grid.Intensity(), grid.Width, grid.Height)

	cells := imaging.Cells(grid.Width, grid.Height, d.settings.EdgeGridSize)
	if len(cells) == 0 {
		return 0
	}
	means := make([]float64, len(cells))
	for i, cell := range cells {
		means[i] = imaging.CellMean(magnitude, grid.Width, cell)
	}
	_, std := stat.PopMeanStdDev(means, nil)
	return normalize(std, d.settings.EdgeStdDivisor)
}

// edgeMagnitude combines absolute forward differences along both axes. The
// last column and row repeat their neighbor so the map keeps the input size.
func edgeMagnitude(plane []float64, width, height int) []float64 {
	out := make([]float64, len(plane))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := forwardDiff(plane, width, x, y, 1, 0, width)
			gy := forwardDiff(plane, width, x, y, 0, 1, height)
			out[y*width+x] = math.Hypot(gx, gy)
		}
	}
	return out
}

func forwardDiff(plane []float64, width, x, y, dx, dy, extent int) float64 {
	pos := x*dx + y*dy
	if extent < 2 {
		return 0
	}
	if pos == extent-1 {
		x, y = x-dx, y-dy
	}
	a := plane[y*width+x]
	b := plane[(y+dy)*width+x+dx]
	return math.Abs(b - a)
}
