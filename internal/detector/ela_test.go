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

func TestErrorLevelDetector_Analyze(t *testing.T) {
	d := NewErrorLevelDetector(config.DefaultSettings().ELA)

	tests := []struct {
		name string
		data []byte
	}{
		{"solid jpeg", imagingtest.JPEG(imagingtest.Solid(64, 64, color.RGBA{90, 90, 90, 255}), 90)},
		{"noise jpeg", imagingtest.JPEG(imagingtest.Noise(64, 64, 7), 70)},
		{"noise png", imagingtest.PNG(imagingtest.Noise(64, 64, 7))},
		{"tiny jpeg", imagingtest.JPEG(imagingtest.Noise(3, 3, 1), 80)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Analyze(imaging.NewRawImage(tt.data))
			assert.False(t, got.Defaulted)
			assert.GreaterOrEqual(t, got.Score, 0.0)
			assert.LessOrEqual(t, got.Score, 1.0)
		})
	}
}

func TestErrorLevelDetector_NoiseScoresAboveSolid(t *testing.T) {
	d := NewErrorLevelDetector(config.DefaultSettings().ELA)

	solid := d.Analyze(imaging.NewRawImage(imagingtest.JPEG(imagingtest.Solid(64, 64, color.RGBA{90, 90, 90, 255}), 90)))
	noisy := d.Analyze(imaging.NewRawImage(imagingtest.PNG(imagingtest.Noise(64, 64, 3))))

	assert.Less(t, solid.Score, noisy.Score)
}

func TestErrorLevelDetector_DecodeFailure(t *testing.T) {
	settings := config.DefaultSettings().ELA
	settings.ErrorDefaultScore = 0.25
	d := NewErrorLevelDetector(settings)

	got := d.Analyze(imaging.NewRawImage([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.Equal(t, Result{Score: 0.25, Defaulted: true, Reason: ReasonDecodeFailure}, got)
}

func TestErrorLevelDetector_Render(t *testing.T) {
	d := NewErrorLevelDetector(config.DefaultSettings().ELA)

	jpegData := imagingtest.JPEG(imagingtest.Noise(40, 30, 5), 80)
	out := d.Render(imaging.NewRawImage(jpegData))
	assert.Equal(t, 40, out.Bounds().Dx())
	assert.Equal(t, 30, out.Bounds().Dy())

	png := d.Render(imaging.NewRawImage(imagingtest.PNG(imagingtest.Noise(40, 30, 5))))
	require.Equal(t, 100, png.Bounds().Dx())
	r, g, b, a := png.At(50, 50).RGBA()
	assert.Equal(t, []uint32{0, 0, 0, 0xffff}, []uint32{r, g, b, a})

	broken := d.Render(imaging.NewRawImage([]byte{0xFF, 0xD8, 0xFF, 0x00}))
	assert.Equal(t, 100, broken.Bounds().Dy())
}
