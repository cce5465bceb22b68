package detector

import (
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/forgery-inspector-go/internal/imaging"
	"github.com/anime-shed/forgery-inspector-go/internal/logger"
)

// Name identifies a detector in score maps, weight tables and recipes.
type Name string

const (
	Metadata      Name = "metadata"
	ReverseSearch Name = "reverse_search"
	ELA           Name = "ela"
	Statistical   Name = "statistical"
	CopyMove      Name = "copy_move"
	NoiseVariance Name = "noise_variance"
)

// AllNames lists the fixed detector vocabulary in execution order.
var AllNames = []Name{Metadata, ReverseSearch, ELA, Statistical, CopyMove, NoiseVariance}

// Valid reports whether n is part of the fixed vocabulary.
func (n Name) Valid() bool {
	for _, known := range AllNames {
		if n == known {
			return true
		}
	}
	return false
}

// Reason tags why a score was not a plain computed value.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonDecodeFailure         Reason = "decode_failure"
	ReasonEncodeFailure         Reason = "encode_failure"
	ReasonNoMetadata            Reason = "no_metadata"
	ReasonParseFailure          Reason = "parse_failure"
	ReasonInsufficientKeypoints Reason = "insufficient_keypoints"
	ReasonDegenerateInput       Reason = "degenerate_input"
	ReasonNotImplemented        Reason = "not_implemented"
	ReasonPanic                 Reason = "panic"
	ReasonTimeout               Reason = "timeout"
)

// Result is a detector's suspicion score in [0, 1]. Defaulted is set when
// the score is a configured fallback rather than a measurement, so callers
// can tell a computed 0.0 from a failure that defaulted to 0.0.
type Result struct {
	Score     float64 `json:"score"`
	Defaulted bool    `json:"defaulted,omitempty"`
	Reason    Reason  `json:"reason,omitempty"`
}

// Detector scores one image. Implementations never return errors or panic
// on bad input; they recover locally to a configured default.
type Detector interface {
	Name() Name
	Analyze(img *imaging.RawImage) Result
}

// Defaulter is implemented by detectors that carry a configured fallback
// score for runs they could not finish.
type Defaulter interface {
	DefaultScore() float64
}

// DefaultScore returns d's configured fallback, or 0 when it has none.
func DefaultScore(d Detector) float64 {
	if df, ok := d.(Defaulter); ok {
		return df.DefaultScore()
	}
	return 0
}

// Scored wraps a measured value, clamped to [0, 1].
func Scored(score float64) Result {
	return Result{Score: clamp01(score)}
}

// Fallback builds a defaulted result and logs why it was produced.
func Fallback(name Name, reason Reason, score float64, err error) Result {
	entry := logger.WithFields(logrus.Fields{
		"detector":      name,
		"reason":        reason,
		"default_score": score,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Warn("Detector fell back to default score")
	return Result{Score: clamp01(score), Defaulted: true, Reason: reason}
}

// Neutral is the zero score for degenerate inputs. It is a measurement, not a failure.
func Neutral(reason Reason) Result {
	return Result{Score: 0, Reason: reason}
}

func clamp01(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Set maps each detector name to its instance. It is built once and shared
// read-only by every pipeline run.
type Set map[Name]Detector

// Names returns the registered detector names in vocabulary order.
func (s Set) Names() []Name {
	names := make([]Name, 0, len(s))
	for _, n := range AllNames {
		if _, ok := s[n]; ok {
			names = append(names, n)
		}
	}
	return names
}
