package detector

import (
	"image"
	"math"
	"math/bits"
	"math/rand"
	"sort"

	"github.com/anime-shed/forgery-inspector-go/internal/imaging"
)

// Oriented FAST keypoints with rotated binary descriptors, computed over a
// scale pyramid.
const (
	edgeBorder     = 16
	patchRadius    = 15
	patternRadius  = 13
	descriptorBits = 256
	harrisBlock    = 7
	harrisK        = 0.04
	fastArc        = 9
	patternSeed    = 0x0b5eed
)

// Keypoint is a feature location in full-resolution pixel coordinates.
type Keypoint struct {
	X, Y     float64
	Level    int
	Angle    float64
	Response float64
}

// Descriptor is a 256-bit binary patch signature.
type Descriptor [descriptorBits / 64]uint64

// Distance is the Hamming distance between two descriptors.
func (d Descriptor) Distance(other Descriptor) int {
	n := 0
	for i := range d {
		n += bits.OnesCount64(d[i] ^ other[i])
	}
	return n
}

type samplePair struct {
	x1, y1, x2, y2 float64
}

var fastCircle = [16]image.Point{
	{0, -3}, {1, -3}, {2, -2}, {3, -1}, {3, 0}, {3, 1}, {2, 2}, {1, 3},
	{0, 3}, {-1, 3}, {-2, 2}, {-3, 1}, {-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
}

var briefPattern = newBriefPattern(patternSeed)

// newBriefPattern draws point pairs from an isotropic Gaussian, rejecting
// samples outside patternRadius so every rotation stays inside the border.
func newBriefPattern(seed int64) []samplePair {
	rng := rand.New(rand.NewSource(seed))
	sigma := float64(2*patchRadius+1) / 5.0
	point := func() (float64, float64) {
		for {
			x, y := rng.NormFloat64()*sigma, rng.NormFloat64()*sigma
			if math.Hypot(x, y) <= patternRadius {
				return x, y
			}
		}
	}

	pairs := make([]samplePair, descriptorBits)
	for i := range pairs {
		x1, y1 := point()
		x2, y2 := point()
		pairs[i] = samplePair{x1, y1, x2, y2}
	}
	return pairs
}

type featureExtractor struct {
	features  int
	levels    int
	scale     float64
	threshold int
}

// extract finds up to e.features keypoints over the pyramid and describes them.
func (e featureExtractor) extract(gray *image.Gray) ([]Keypoint, []Descriptor) {
	levels, scale := e.levels, e.scale
	if levels < 1 || scale <= 1 {
		levels, scale = 1, 1
	}

	var (
		keypoints   []Keypoint
		descriptors []Descriptor
	)
	quota := levelQuota(e.features, levels, scale)
	for level := 0; level < levels; level++ {
		factor := math.Pow(scale, float64(level))
		img := gray
		if level > 0 {
			if img = imaging.ScaleGray(gray, factor); img == nil {
				break
			}
		}

		plane := imaging.GrayPlane(img)
		w, h := img.Bounds().Dx(), img.Bounds().Dy()
		points := detectCorners(plane, w, h, e.threshold, quota[level])
		if len(points) == 0 {
			continue
		}
		smoothed := blur5(plane, w, h)

		for _, p := range points {
			angle := orientation(plane, w, p.X, p.Y)
			keypoints = append(keypoints, Keypoint{
				X:        float64(p.X) * factor,
				Y:        float64(p.Y) * factor,
				Level:    level,
				Angle:    angle,
				Response: p.response,
			})
			descriptors = append(descriptors, describe(smoothed, w, p.X, p.Y, angle))
		}
	}
	return keypoints, descriptors
}

// levelQuota splits the feature budget geometrically across pyramid levels.
func levelQuota(total, levels int, scale float64) []int {
	quota := make([]int, levels)
	if levels == 1 {
		quota[0] = total
		return quota
	}
	inv := 1 / scale
	perLevel := float64(total) * (1 - inv) / (1 - math.Pow(inv, float64(levels)))
	assigned := 0
	for l := 0; l < levels-1; l++ {
		quota[l] = int(math.Round(perLevel))
		assigned += quota[l]
		perLevel *= inv
	}
	if rest := total - assigned; rest > 0 {
		quota[levels-1] = rest
	}
	return quota
}

type corner struct {
	image.Point
	response float64
}

// detectCorners runs FAST-9 with 3x3 non-max suppression and keeps the
// strongest limit corners by Harris response.
func detectCorners(plane []float64, w, h, threshold, limit int) []corner {
	if limit <= 0 || w <= 2*edgeBorder || h <= 2*edgeBorder {
		return nil
	}

	scores := make([]float64, w*h)
	t := float64(threshold)
	for y := edgeBorder; y < h-edgeBorder; y++ {
		for x := edgeBorder; x < w-edgeBorder; x++ {
			scores[y*w+x] = fastScore(plane, w, x, y, t)
		}
	}

	var corners []corner
	for y := edgeBorder; y < h-edgeBorder; y++ {
		for x := edgeBorder; x < w-edgeBorder; x++ {
			s := scores[y*w+x]
			if s == 0 || !localMax(scores, w, x, y) {
				continue
			}
			corners = append(corners, corner{image.Pt(x, y), harris(plane, w, x, y)})
		}
	}

	sort.SliceStable(corners, func(i, j int) bool {
		return corners[i].response > corners[j].response
	})
	if len(corners) > limit {
		corners = corners[:limit]
	}
	return corners
}

// fastScore is zero unless fastArc contiguous circle pixels are all brighter
// or all darker than the center by more than t; otherwise it sums the excess contrast.
func fastScore(plane []float64, w, x, y int, t float64) float64 {
	center := plane[y*w+x]
	var state [16]int
	for i, off := range fastCircle {
		v := plane[(y+off.Y)*w+x+off.X]
		switch {
		case v > center+t:
			state[i] = 1
		case v < center-t:
			state[i] = -1
		}
	}

	run, prev := 0, 0
	found := false
	for i := 0; i < len(state)+fastArc-1 && !found; i++ {
		s := state[i%len(state)]
		if s != 0 && s == prev {
			run++
		} else if s != 0 {
			run = 1
		} else {
			run = 0
		}
		prev = s
		found = run >= fastArc
	}
	if !found {
		return 0
	}

	score := 0.0
	for _, off := range fastCircle {
		if d := math.Abs(plane[(y+off.Y)*w+x+off.X]-center) - t; d > 0 {
			score += d
		}
	}
	return score
}

// localMax keeps a pixel that no 8-neighbor beats; ties go to the earlier pixel in raster order.
func localMax(scores []float64, w, x, y int) bool {
	s := scores[y*w+x]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := scores[(y+dy)*w+x+dx]
			if n > s || (n == s && (dy < 0 || (dy == 0 && dx < 0))) {
				return false
			}
		}
	}
	return true
}

// harris computes the corner response over a harrisBlock window of Sobel gradients.
func harris(plane []float64, w, x, y int) float64 {
	r := harrisBlock / 2
	var a, b, c float64
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			px, py := x+dx, y+dy
			at := func(ox, oy int) float64 { return plane[(py+oy)*w+px+ox] }
			ix := (at(1, -1) + 2*at(1, 0) + at(1, 1)) - (at(-1, -1) + 2*at(-1, 0) + at(-1, 1))
			iy := (at(-1, 1) + 2*at(0, 1) + at(1, 1)) - (at(-1, -1) + 2*at(0, -1) + at(1, -1))
			a += ix * ix
			b += iy * iy
			c += ix * iy
		}
	}
	return a*b - c*c - harrisK*(a+b)*(a+b)
}

// orientation is the angle from the keypoint to the intensity centroid of its circular patch.
func orientation(plane []float64, w, x, y int) float64 {
	var m01, m10 float64
	for dy := -patchRadius; dy <= patchRadius; dy++ {
		for dx := -patchRadius; dx <= patchRadius; dx++ {
			if dx*dx+dy*dy > patchRadius*patchRadius {
				continue
			}
			v := plane[(y+dy)*w+x+dx]
			m10 += float64(dx) * v
			m01 += float64(dy) * v
		}
	}
	return math.Atan2(m01, m10)
}

// describe samples the rotated pattern on the smoothed patch.
func describe(smoothed []float64, w, x, y int, angle float64) Descriptor {
	sin, cos := math.Sincos(angle)
	sample := func(px, py float64) float64 {
		rx := int(math.Round(cos*px - sin*py))
		ry := int(math.Round(sin*px + cos*py))
		return smoothed[(y+ry)*w+x+rx]
	}

	var d Descriptor
	for i, p := range briefPattern {
		if sample(p.x1, p.y1) < sample(p.x2, p.y2) {
			d[i/64] |= 1 << uint(i%64)
		}
	}
	return d
}

// blur5 applies a separable [1 4 6 4 1]/16 kernel with clamped borders.
func blur5(plane []float64, w, h int) []float64 {
	kernel := [5]float64{1, 4, 6, 4, 1}
	clamp := func(v, hi int) int {
		if v < 0 {
			return 0
		}
		if v >= hi {
			return hi - 1
		}
		return v
	}

	tmp := make([]float64, len(plane))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0.0
			for k := -2; k <= 2; k++ {
				sum += kernel[k+2] * plane[y*w+clamp(x+k, w)]
			}
			tmp[y*w+x] = sum / 16
		}
	}

	out := make([]float64, len(plane))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum := 0.0
			for k := -2; k <= 2; k++ {
				sum += kernel[k+2] * tmp[clamp(y+k, h)*w+x]
			}
			out[y*w+x] = sum / 16
		}
	}
	return out
}
