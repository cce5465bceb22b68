// Package aggregator fuses per-detector scores into one suspicion score.
package aggregator

import (
	"github.com/anime-shed/forgery-inspector-go/internal/detector"
	"github.com/anime-shed/forgery-inspector-go/internal/format"
)

// Aggregator computes a weighted mean over the detectors that actually
// contributed evidence. Weights are fixed at construction.
type Aggregator struct {
	weights map[detector.Name]float64
}

// New copies weights; negative values are treated as zero and unknown names
// are kept but never match a detector score.
func New(weights map[string]float64) *Aggregator {
	w := make(map[detector.Name]float64, len(weights))
	for name, weight := range weights {
		if weight < 0 {
			weight = 0
		}
		w[detector.Name(name)] = weight
	}
	return &Aggregator{weights: w}
}

// Weights returns a copy of the configured weight table.
func (a *Aggregator) Weights() map[detector.Name]float64 {
	out := make(map[detector.Name]float64, len(a.weights))
	for k, v := range a.weights {
		out[k] = v
	}
	return out
}

// Aggregate returns the final score in [0, 1].
//
// An ela score is skipped unless f is jpeg, and a reverse_search score of
// exactly 0.0 means "no match" and is skipped too. Skipped detectors add
// nothing to either the weighted sum or the total weight, so missing
// evidence does not pull the result toward zero.
func (a *Aggregator) Aggregate(scores map[detector.Name]float64, f format.Format) float64 {
	var weightedSum, totalWeight float64
	for name, score := range scores {
		if !a.contributes(name, score, f) {
			continue
		}
		weight := a.weights[name]
		weightedSum += score * weight
		totalWeight += weight
	}

	if totalWeight <= 0 {
		return 0
	}
	return clamp(weightedSum / totalWeight)
}

func (a *Aggregator) contributes(name detector.Name, score float64, f format.Format) bool {
	switch {
	case name == detector.ELA && f != format.JPEG:
		return false
	case name == detector.ReverseSearch && score == 0.0:
		return false
	}
	return true
}

func clamp(v float64) float64 {
	switch {
	case v != v, v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
