package detector

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/anime-shed/forgery-inspector-go/internal/config"
	"github.com/anime-shed/forgery-inspector-go/internal/imaging"
	"github.com/anime-shed/forgery-inspector-go/internal/logger"
)

// ReverseSearchDetector computes a perceptual fingerprint of the image.
// No lookup service is wired, so it never reports a match: its score is
// always 0.0, which aggregation treats as "no signal".
type ReverseSearchDetector struct {
	settings config.ReverseSearchSettings
}

func NewReverseSearchDetector(settings config.ReverseSearchSettings) *ReverseSearchDetector {
	if settings.HashSize < 2 {
		settings.HashSize = 8
	}
	if settings.HighFreqFactor < 1 {
		settings.HighFreqFactor = 4
	}
	return &ReverseSearchDetector{settings: settings}
}

func (d *ReverseSearchDetector) Name() Name { return ReverseSearch }

func (d *ReverseSearchDetector) Analyze(img *imaging.RawImage) Result {
	hash, err := d.Fingerprint(img)
	if err != nil {
		return Fallback(ReverseSearch, ReasonDecodeFailure, 0.0, err)
	}
	logger.WithField("fingerprint", hash).Debug("Computed perceptual fingerprint")
	return Neutral(ReasonNotImplemented)
}

// Fingerprint returns the perceptual hash as hex, most significant bit first.
// The luma image is resized to a square of HashSize*HighFreqFactor, transformed
// with a 2-D DCT, and the HashSize x HashSize lowest frequencies are
// thresholded at their median.
func (d *ReverseSearchDetector) Fingerprint(img *imaging.RawImage) (string, error) {
	grid, err := img.Decode()
	if err != nil {
		return "", err
	}

	n := d.settings.HashSize * d.settings.HighFreqFactor
	plane := imaging.GrayPlane(imaging.ResizeGray(grid.Gray(), n, n))
	coeffs := dct2(plane, n)

	size := d.settings.HashSize
	low := make([]float64, 0, size*size)
	for y := 0; y < size; y++ {
		low = append(low, coeffs[y*n:y*n+size]...)
	}
	median := medianOf(low)

	var sb strings.Builder
	nibble, count := 0, 0
	pad := (4 - len(low)%4) % 4
	for i := 0; i < pad+len(low); i++ {
		nibble <<= 1
		if i >= pad && low[i-pad] > median {
			nibble |= 1
		}
		if count++; count == 4 {
			fmt.Fprintf(&sb, "%x", nibble)
			nibble, count = 0, 0
		}
	}
	return sb.String(), nil
}

// HashDistance is the Hamming distance between two hex fingerprints of equal
// length. Malformed or mismatched input yields the configured sentinel.
func (d *ReverseSearchDetector) HashDistance(a, b string) int {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	if a == "" || len(a) != len(b) {
		return d.invalidDistance(a, b)
	}

	distance := 0
	for i := 0; i < len(a); i++ {
		x, okA := hexNibble(a[i])
		y, okB := hexNibble(b[i])
		if !okA || !okB {
			return d.invalidDistance(a, b)
		}
		distance += bits.OnesCount8(x ^ y)
	}
	return distance
}

func (d *ReverseSearchDetector) invalidDistance(a, b string) int {
	logger.WithField("hash_a", a).WithField("hash_b", b).
		Warn("Invalid fingerprints, returning sentinel distance")
	return d.settings.InvalidDistance
}

func hexNibble(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// dct2 transforms an n x n row-major plane along rows, then columns.
func dct2(plane []float64, n int) []float64 {
	t := fourier.NewDCT(n)
	out := make([]float64, len(plane))
	for y := 0; y < n; y++ {
		t.Transform(out[y*n:(y+1)*n], plane[y*n:(y+1)*n])
	}

	col := make([]float64, n)
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			col[y] = out[y*n+x]
		}
		t.Transform(col, col)
		for y := 0; y < n; y++ {
			out[y*n+x] = col[y]
		}
	}
	return out
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
