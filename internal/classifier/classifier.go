// Package classifier turns a suspicion score into forged/authentic verdicts
// under named threshold profiles.
package classifier

import (
	"fmt"
	"sort"
	"strings"
)

// Profile names a threshold cutoff.
type Profile string

const (
	Strict     Profile = "strict"
	Balanced   Profile = "balanced"
	Aggressive Profile = "aggressive"
)

// DefaultProfiles lists the built-in profiles from most to least conservative.
var DefaultProfiles = []Profile{Strict, Balanced, Aggressive}

const fallbackThreshold = 0.5

// Classification is a binary verdict.
type Classification string

const (
	Forged    Classification = "forged"
	Authentic Classification = "authentic"
)

// Classifier is stateless apart from its threshold table.
type Classifier struct {
	thresholds map[Profile]float64
}

func New(thresholds map[string]float64) *Classifier {
	t := make(map[Profile]float64, len(thresholds))
	for name, v := range thresholds {
		t[Profile(strings.ToLower(name))] = v
	}
	return &Classifier{thresholds: t}
}

// Threshold returns the cutoff for p. Unknown profiles use the balanced
// cutoff, or 0.5 when balanced itself is not configured.
func (c *Classifier) Threshold(p Profile) float64 {
	if v, ok := c.thresholds[p]; ok {
		return v
	}
	if v, ok := c.thresholds[Balanced]; ok {
		return v
	}
	return fallbackThreshold
}

// Thresholds returns a copy of the configured table.
func (c *Classifier) Thresholds() map[Profile]float64 {
	out := make(map[Profile]float64, len(c.thresholds))
	for k, v := range c.thresholds {
		out[k] = v
	}
	return out
}

// Classify marks the score forged when it reaches the profile's threshold.
func (c *Classifier) Classify(score float64, p Profile) Classification {
	if score >= c.Threshold(p) {
		return Forged
	}
	return Authentic
}

// ClassifyAll evaluates every profile independently against the same score.
func (c *Classifier) ClassifyAll(score float64, profiles []Profile) map[Profile]Classification {
	out := make(map[Profile]Classification, len(profiles))
	for _, p := range profiles {
		out[p] = c.Classify(score, p)
	}
	return out
}

// Known reports whether p has a configured threshold.
func (c *Classifier) Known(p Profile) bool {
	_, ok := c.thresholds[p]
	return ok
}

// Profiles returns the configured profile names, defaults first in their
// canonical order, then any extra profiles alphabetically.
func (c *Classifier) Profiles() []Profile {
	var out []Profile
	for _, p := range DefaultProfiles {
		if c.Known(p) {
			out = append(out, p)
		}
	}
	var extra []string
	for p := range c.thresholds {
		if !isDefault(p) {
			extra = append(extra, string(p))
		}
	}
	sort.Strings(extra)
	for _, p := range extra {
		out = append(out, Profile(p))
	}
	return out
}

func isDefault(p Profile) bool {
	for _, d := range DefaultProfiles {
		if p == d {
			return true
		}
	}
	return false
}

// ParseProfiles reads "all" or a comma-separated list of profile names.
// Names are trimmed, lowercased and de-duplicated; an empty list is an error.
func ParseProfiles(spec string, available []Profile) ([]Profile, error) {
	spec = strings.TrimSpace(strings.ToLower(spec))
	if spec == "" || spec == "all" {
		if len(available) == 0 {
			return append([]Profile(nil), DefaultProfiles...), nil
		}
		return append([]Profile(nil), available...), nil
	}

	seen := map[Profile]bool{}
	var out []Profile
	for _, part := range strings.Split(spec, ",") {
		p := Profile(strings.TrimSpace(part))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no profiles in %q", spec)
	}
	return out, nil
}
