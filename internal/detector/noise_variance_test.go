package detector

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/forgery-inspector-go/internal/config"
	"github.com/anime-shed/forgery-inspector-go/internal/imaging"
	"github.com/anime-shed/forgery-inspector-go/internal/imaging/imagingtest"
)

func TestNoiseVarianceDetector_SolidImage(t *testing.T) {
	d := NewNoiseVarianceDetector(config.DefaultSettings().NoiseVariance)

	data := imagingtest.PNG(imagingtest.Solid(64, 64, color.RGBA{77, 77, 77, 255}))
	got := d.Analyze(imaging.NewRawImage(data))

	assert.Equal(t, 0.0, got.Score)
	assert.False(t, got.Defaulted)
	assert.Equal(t, ReasonDegenerateInput, got.Reason)
}

func TestNoiseVarianceDetector_FewerThanTwoRegions(t *testing.T) {
	settings := config.DefaultSettings().NoiseVariance
	settings.GridSize = 1
	d := NewNoiseVarianceDetector(settings)

	got := d.Analyze(imaging.NewRawImage(imagingtest.PNG(imagingtest.Noise(32, 32, 2))))
	assert.Equal(t, 0.0, got.Score)

	// smaller than the default 4x4 grid: no cells at all
	tiny := NewNoiseVarianceDetector(config.DefaultSettings().NoiseVariance)
	got = tiny.Analyze(imaging.NewRawImage(imagingtest.PNG(imagingtest.Noise(3, 3, 2))))
	assert.Equal(t, 0.0, got.Score)
}

func TestNoiseVarianceDetector_SplicedRegion(t *testing.T) {
	d := NewNoiseVarianceDetector(config.DefaultSettings().NoiseVariance)

	// a single noisy 16x16 cell in an otherwise flat 64x64 image
	img := imagingtest.Solid(64, 64, color.RGBA{100, 100, 100, 255})
	noise := imagingtest.Noise(16, 16, 9)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(16+x, 32+y, noise.RGBAAt(x, y))
		}
	}

	got := d.Analyze(imaging.NewRawImage(imagingtest.PNG(img)))
	assert.Equal(t, 0.8, got.Score)
}

func TestNoiseVarianceDetector_Score(t *testing.T) {
	d := NewNoiseVarianceDetector(config.DefaultSettings().NoiseVariance)

	tests := []struct {
		name  string
		noise []float64
		want  float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5}, 0},
		{"uniform", []float64{3, 3, 3, 3}, 0},
		{"consistent", []float64{10, 11, 10, 11}, 0},
		{"medium spread", []float64{6, 14, 6, 14}, 0.4},
		{"high spread", []float64{1, 20, 1, 20}, 0.8},
		{"one outlier among many", []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 13}, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, d.score(tt.noise).Score, 1e-9)
		})
	}
}

func TestNoiseVarianceDetector_RegionNoiseAndMap(t *testing.T) {
	d := NewNoiseVarianceDetector(config.DefaultSettings().NoiseVariance)
	raw := imaging.NewRawImage(imagingtest.PNG(imagingtest.Noise(40, 40, 3)))

	noise := d.RegionNoise(raw)
	require.Len(t, noise, 16)
	for _, v := range noise {
		assert.Greater(t, v, 0.0)
	}

	noiseMap := d.NoiseMap(raw)
	assert.Equal(t, 40, noiseMap.Bounds().Dx())

	assert.Nil(t, d.RegionNoise(imaging.NewRawImage([]byte("nope"))))
	assert.Equal(t, 100, d.NoiseMap(imaging.NewRawImage([]byte("nope"))).Bounds().Dx())
}

func TestNoiseVarianceDetector_DecodeFailure(t *testing.T) {
	d := NewNoiseVarianceDetector(config.DefaultSettings().NoiseVariance)
	got := d.Analyze(imaging.NewRawImage([]byte{0x89, 0x50, 0x4E, 0x47, 0x00}))
	assert.True(t, got.Defaulted)
	assert.Equal(t, ReasonDecodeFailure, got.Reason)
}
