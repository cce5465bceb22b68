package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/forgery-inspector-go/internal/classifier"
	"github.com/anime-shed/forgery-inspector-go/internal/detector"
	"github.com/anime-shed/forgery-inspector-go/internal/format"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, classifier.DefaultProfiles, opts.Profiles)
	assert.Empty(t, opts.Criteria)

	// builders copy rather than alias
	narrowed := opts.WithProfiles(classifier.Strict)
	assert.Len(t, opts.Profiles, 3)
	assert.Equal(t, []classifier.Profile{classifier.Strict}, narrowed.Profiles)
}

func TestAnalysisOptions_Recipe(t *testing.T) {
	tests := []struct {
		name     string
		criteria []detector.Name
		format   format.Format
		want     []detector.Name
	}{
		{"all on jpeg", nil, format.JPEG, detector.AllNames},
		{
			name:   "all on tiff",
			format: format.TIFF,
			want:   []detector.Name{detector.Metadata, detector.ReverseSearch, detector.Statistical, detector.CopyMove, detector.NoiseVariance},
		},
		{
			name:     "criteria keep recipe order",
			criteria: []detector.Name{detector.NoiseVariance, detector.ELA, detector.Metadata},
			format:   format.JPEG,
			want:     []detector.Name{detector.Metadata, detector.ELA, detector.NoiseVariance},
		},
		{
			name:     "criteria cannot force ela on png",
			criteria: []detector.Name{detector.ELA},
			format:   format.PNG,
			want:     []detector.Name{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalysisOptions{Criteria: tt.criteria}.recipe(tt.format)
			assert.ElementsMatch(t, tt.want, got)
			if len(tt.want) > 0 {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseCriteria(t *testing.T) {
	all, err := ParseCriteria("all")
	require.NoError(t, err)
	assert.Equal(t, detector.AllNames, all)

	empty, err := ParseCriteria("  ")
	require.NoError(t, err)
	assert.Equal(t, detector.AllNames, empty)

	some, err := ParseCriteria(" ELA, metadata ,ela")
	require.NoError(t, err)
	assert.Equal(t, []detector.Name{detector.ELA, detector.Metadata}, some)

	_, err = ParseCriteria("ela,fourier")
	assert.Error(t, err)

	_, err = ParseCriteria(",,")
	assert.Error(t, err)
}
