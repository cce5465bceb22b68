package detector

import (
	"math"

	"github.com/anime-shed/forgery-inspector-go/internal/config"
	"github.com/anime-shed/forgery-inspector-go/internal/imaging"
)

// Match links two keypoints whose descriptors agree but whose positions are
// far apart, the signature of a region copied within one image.
type Match struct {
	From     Keypoint `json:"from"`
	To       Keypoint `json:"to"`
	Hamming  int      `json:"hamming"`
	Distance float64  `json:"distance"`
}

// CopyMoveDetector self-matches keypoint descriptors to find duplicated regions.
type CopyMoveDetector struct {
	settings  config.CopyMoveSettings
	extractor featureExtractor
}

func NewCopyMoveDetector(settings config.CopyMoveSettings) *CopyMoveDetector {
	return &CopyMoveDetector{
		settings: settings,
		extractor: featureExtractor{
			features:  settings.Features,
			levels:    settings.Levels,
			scale:     settings.ScaleFactor,
			threshold: settings.FastThreshold,
		},
	}
}

func (d *CopyMoveDetector) Name() Name { return CopyMove }

func (d *CopyMoveDetector) DefaultScore() float64 { return d.settings.ErrorDefaultScore }

func (d *CopyMoveDetector) Analyze(img *imaging.RawImage) Result {
	grid, err := img.Decode()
	if err != nil {
		return Fallback(CopyMove, ReasonDecodeFailure, d.settings.ErrorDefaultScore, err)
	}

	keypoints, descriptors := d.extractor.extract(grid.Gray())
	if len(keypoints) < 2 {
		return Neutral(ReasonInsufficientKeypoints)
	}
	if d.settings.SuspiciousMatchesDivisor <= 0 {
		return Fallback(CopyMove, ReasonDegenerateInput, d.settings.ErrorDefaultScore, nil)
	}

	matches := d.match(keypoints, descriptors)
	return Scored(math.Min(float64(len(matches))/d.settings.SuspiciousMatchesDivisor, 1.0))
}

// Matches returns the suspicious pairs for overlay rendering, capped at the
// configured visualization limit.
func (d *CopyMoveDetector) Matches(img *imaging.RawImage) []Match {
	grid, err := img.Decode()
	if err != nil {
		return nil
	}
	keypoints, descriptors := d.extractor.extract(grid.Gray())
	if len(keypoints) < 2 {
		return nil
	}
	matches := d.match(keypoints, descriptors)
	if limit := d.settings.MaxVisualizedMatches; limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// match runs a two-nearest-neighbor search of every descriptor against all
// others, keeps pairs passing the ratio test and returns those whose
// keypoints lie more than MinDistance pixels apart. A keypoint is never
// matched against itself or another keypoint at the same position, but
// identical descriptors (Hamming distance 0) at different positions are
// kept: an exact duplicate is the clearest sign of a cloned region.
func (d *CopyMoveDetector) match(keypoints []Keypoint, descriptors []Descriptor) []Match {
	var matches []Match
	for i := range descriptors {
		best, second := math.MaxInt, math.MaxInt
		bestIdx := -1
		for j := range descriptors {
			if i == j || samePosition(keypoints[i], keypoints[j]) {
				continue
			}
			dist := descriptors[i].Distance(descriptors[j])
			switch {
			case dist < best:
				second, best, bestIdx = best, dist, j
			case dist < second:
				second = dist
			}
		}
		if bestIdx < 0 || second == math.MaxInt {
			continue
		}
		if float64(best) >= d.settings.MatchRatio*float64(second) {
			continue
		}

		from, to := keypoints[i], keypoints[bestIdx]
		spatial := math.Hypot(from.X-to.X, from.Y-to.Y)
		if spatial > d.settings.MinDistance {
			matches = append(matches, Match{From: from, To: to, Hamming: best, Distance: spatial})
		}
	}
	return matches
}

func samePosition(a, b Keypoint) bool {
	return a.X == b.X && a.Y == b.Y
}
