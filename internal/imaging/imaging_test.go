package imaging_test

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/forgery-inspector-go/internal/imaging"
	"github.com/anime-shed/forgery-inspector-go/internal/imaging/imagingtest"
)

func TestRawImage_DecodeFormats(t *testing.T) {
	src := imagingtest.Solid(16, 8, color.RGBA{200, 100, 50, 255})

	tests := []struct {
		name string
		data []byte
	}{
		{"png", imagingtest.PNG(src)},
		{"bmp", imagingtest.BMP(src)},
		{"tiff", imagingtest.TIFF(src)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := imaging.NewRawImage(tt.data).Decode()
			require.NoError(t, err)
			assert.Equal(t, 16, grid.Width)
			assert.Equal(t, 8, grid.Height)
			assert.Equal(t, uint8(200), grid.At(3, 4, 0))
			assert.Equal(t, uint8(100), grid.At(3, 4, 1))
			assert.Equal(t, uint8(50), grid.At(3, 4, 2))
		})
	}

	t.Run("jpeg", func(t *testing.T) {
		grid, err := imaging.NewRawImage(imagingtest.JPEG(src, 95)).Decode()
		require.NoError(t, err)
		assert.InDelta(t, 200, int(grid.At(3, 4, 0)), 4)
		assert.InDelta(t, 100, int(grid.At(3, 4, 1)), 4)
		assert.InDelta(t, 50, int(grid.At(3, 4, 2)), 4)
	})
}

func TestRawImage_DecodeFailureIsCached(t *testing.T) {
	raw := imaging.NewRawImage([]byte("not an image at all"))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			grid, err := raw.Decode()
			assert.Error(t, err)
			assert.Nil(t, grid)
		}()
	}
	wg.Wait()
	assert.Equal(t, 19, raw.Len())
}

func TestGrid_Planes(t *testing.T) {
	g := imaging.NewGrid(2, 1)
	g.Set(0, 0, 30, 60, 90)
	g.Set(1, 0, 255, 255, 255)

	assert.Equal(t, []float64{30, 255}, g.Channel(0))
	assert.Equal(t, []float64{60, 255}, g.Intensity())
	assert.Len(t, g.Samples(), 6)

	rgba := g.RGBA()
	assert.Equal(t, color.RGBA{30, 60, 90, 255}, rgba.RGBAAt(0, 0))
	assert.Equal(t, uint8(255), g.Gray().GrayAt(1, 0).Y)
}

func TestCells(t *testing.T) {
	cells := imaging.Cells(10, 9, 4)
	require.Len(t, cells, 16)
	assert.Equal(t, image.Rect(0, 0, 2, 2), cells[0])
	assert.Equal(t, image.Rect(6, 6, 8, 8), cells[15])

	assert.Nil(t, imaging.Cells(3, 3, 4), "cells smaller than one pixel are dropped")
	assert.Nil(t, imaging.Cells(10, 10, 0))

	plane := []float64{1, 2, 3, 4}
	assert.Equal(t, 2.5, imaging.CellMean(plane, 2, image.Rect(0, 0, 2, 2)))
}

func TestResizeAndEncode(t *testing.T) {
	gray := imaging.FromImage(imagingtest.Gradient(64, 48)).Gray()

	small := imaging.ResizeGray(gray, 32, 32)
	assert.Equal(t, image.Rect(0, 0, 32, 32), small.Bounds())
	assert.Len(t, imaging.GrayPlane(small), 32*32)

	half := imaging.ScaleGray(gray, 2)
	require.NotNil(t, half)
	assert.Equal(t, 32, half.Bounds().Dx())
	assert.Nil(t, imaging.ScaleGray(imaging.ResizeGray(gray, 1, 1), 4))

	encoded, err := imaging.EncodeJPEG(imaging.FromImage(imagingtest.Gradient(16, 16)), 90)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, encoded[:3])
}
