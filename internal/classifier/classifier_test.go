package classifier

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/forgery-inspector-go/internal/config"
)

func defaultClassifier() *Classifier {
	return New(config.DefaultSettings().Classifier.Thresholds)
}

func TestClassify_BoundaryIsInclusive(t *testing.T) {
	c := defaultClassifier()

	tests := []struct {
		profile   Profile
		threshold float64
	}{
		{Strict, 0.7},
		{Balanced, 0.5},
		{Aggressive, 0.3},
	}

	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			assert.Equal(t, tt.threshold, c.Threshold(tt.profile))
			assert.Equal(t, Forged, c.Classify(tt.threshold, tt.profile))
			assert.Equal(t, Authentic, c.Classify(math.Nextafter(tt.threshold, 0), tt.profile))
			assert.Equal(t, Authentic, c.Classify(tt.threshold-1e-9, tt.profile))
		})
	}
}

func TestClassify_UnknownProfileFallsBackToBalanced(t *testing.T) {
	c := New(map[string]float64{"strict": 0.9, "balanced": 0.6})
	assert.Equal(t, 0.6, c.Threshold("paranoid"))

	bare := New(nil)
	assert.Equal(t, 0.5, bare.Threshold("paranoid"))
	assert.Equal(t, Forged, bare.Classify(0.5, "anything"))
}

func TestClassify_Monotonic(t *testing.T) {
	c := defaultClassifier()
	for _, p := range DefaultProfiles {
		prev := Authentic
		for s := 0.0; s <= 1.0; s += 0.01 {
			got := c.Classify(s, p)
			if prev == Forged {
				assert.Equal(t, Forged, got, "profile %s score %.2f", p, s)
			}
			prev = got
		}
	}
}

func TestClassifyAll(t *testing.T) {
	c := defaultClassifier()
	got := c.ClassifyAll(0.55, DefaultProfiles)

	assert.Equal(t, map[Profile]Classification{
		Strict:     Authentic,
		Balanced:   Forged,
		Aggressive: Forged,
	}, got)
}

func TestParseProfiles(t *testing.T) {
	c := New(map[string]float64{"strict": 0.7, "balanced": 0.5, "aggressive": 0.3, "lenient": 0.2})

	all, err := ParseProfiles("all", c.Profiles())
	require.NoError(t, err)
	assert.Equal(t, []Profile{Strict, Balanced, Aggressive, "lenient"}, all)

	some, err := ParseProfiles(" Strict , aggressive,strict,", c.Profiles())
	require.NoError(t, err)
	assert.Equal(t, []Profile{Strict, Aggressive}, some)

	defaults, err := ParseProfiles("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultProfiles, defaults)

	_, err = ParseProfiles(" , ", nil)
	assert.Error(t, err)
}
