package pipeline

import (
	"fmt"
	"strings"

	"github.com/anime-shed/forgery-inspector-go/internal/classifier"
	"github.com/anime-shed/forgery-inspector-go/internal/detector"
	"github.com/anime-shed/forgery-inspector-go/internal/format"
)

// AnalysisOptions selects what one pipeline run computes
type AnalysisOptions struct {
	// Profiles to classify the final score under
	Profiles []classifier.Profile

	// Criteria restricts the detectors that may run. Empty means every
	// detector the format's recipe allows.
	Criteria []detector.Name
}

// DefaultOptions classifies under every built-in profile with all detectors
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		Profiles: append([]classifier.Profile(nil), classifier.DefaultProfiles...),
	}
}

// WithProfiles returns a copy of o classifying under profiles
func (o AnalysisOptions) WithProfiles(profiles ...classifier.Profile) AnalysisOptions {
	o.Profiles = append([]classifier.Profile(nil), profiles...)
	return o
}

// WithCriteria returns a copy of o restricted to the named detectors
func (o AnalysisOptions) WithCriteria(names ...detector.Name) AnalysisOptions {
	o.Criteria = append([]detector.Name(nil), names...)
	return o
}

// recipe intersects the format recipe with the criteria, keeping recipe order.
func (o AnalysisOptions) recipe(f format.Format) []detector.Name {
	recipe := detector.SelectRecipe(f)
	if len(o.Criteria) == 0 {
		return recipe
	}

	allowed := make(map[detector.Name]bool, len(o.Criteria))
	for _, name := range o.Criteria {
		allowed[name] = true
	}
	out := recipe[:0]
	for _, name := range recipe {
		if allowed[name] {
			out = append(out, name)
		}
	}
	return out
}

// ParseCriteria reads "all" or a comma-separated list of detector names.
func ParseCriteria(spec string) ([]detector.Name, error) {
	spec = strings.TrimSpace(strings.ToLower(spec))
	if spec == "" || spec == "all" {
		return append([]detector.Name(nil), detector.AllNames...), nil
	}

	seen := map[detector.Name]bool{}
	var out []detector.Name
	for _, part := range strings.Split(spec, ",") {
		name := detector.Name(strings.TrimSpace(part))
		if name == "" || seen[name] {
			continue
		}
		if !name.Valid() {
			return nil, fmt.Errorf("unknown detector %q", name)
		}
		seen[name] = true
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no detectors in %q", spec)
	}
	return out, nil
}
