package service

import (
	"context"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"github.com/anime-shed/forgery-inspector-go/internal/detector"
	apperrors "github.com/anime-shed/forgery-inspector-go/internal/errors"
	"github.com/anime-shed/forgery-inspector-go/internal/format"
	"github.com/anime-shed/forgery-inspector-go/internal/imaging"
	"github.com/anime-shed/forgery-inspector-go/internal/logger"
)

// Visualization is a rendered diagnostic image
type Visualization struct {
	ContentType string
	Body        []byte
}

// markerRadius is the half-width of the box drawn around each match endpoint
const markerRadius = 4

var (
	fromColor = color.RGBA{R: 0xff, A: 0xff}
	toColor   = color.RGBA{G: 0xff, A: 0xff}
)

// Visualize renders the diagnostic map of one detector as a PNG. kind is
// ela, copy_move or noise_variance.
func (s *forgeryAnalysisService) Visualize(ctx context.Context, kind string, data []byte) (*Visualization, error) {
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("uploaded image is empty", nil)
	}
	if _, ok := format.Detect(data); !ok {
		return nil, apperrors.NewUnsupportedFormatError("unrecognized image signature", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("visualization cancelled", err)
	}

	raw := imaging.NewRawImage(data)
	d := s.pipeline.Detectors()[detector.Name(kind)]

	var img image.Image
	switch v := d.(type) {
	case *detector.ErrorLevelDetector:
		img = v.Render(raw)
	case *detector.NoiseVarianceDetector:
		img = v.NoiseMap(raw)
	case *detector.CopyMoveDetector:
		grid, err := raw.Decode()
		if err != nil {
			return nil, apperrors.NewProcessingError("failed to decode image", err)
		}
		img = markMatches(grid.RGBA(), v.Matches(raw))
	default:
		return nil, apperrors.NewValidationError("no visualization for detector", nil).WithDetails(kind)
	}

	body, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, apperrors.NewProcessingError("failed to encode visualization", err)
	}

	logger.WithFields(logrus.Fields{
		"detector": kind,
		"bytes":    len(body),
	}).Debug("Rendered detector visualization")
	return &Visualization{ContentType: "image/png", Body: body}, nil
}

// markMatches outlines the source of each match in red and its copy in green.
func markMatches(canvas *image.RGBA, matches []detector.Match) *image.RGBA {
	for _, m := range matches {
		outline(canvas, m.From, fromColor)
		outline(canvas, m.To, toColor)
	}
	return canvas
}

func outline(canvas *image.RGBA, kp detector.Keypoint, c color.RGBA) {
	x, y := int(kp.X), int(kp.Y)
	box := image.Rect(x-markerRadius, y-markerRadius, x+markerRadius+1, y+markerRadius+1)
	src := image.NewUniform(c)
	for _, edge := range []image.Rectangle{
		image.Rect(box.Min.X, box.Min.Y, box.Max.X, box.Min.Y+1),
		image.Rect(box.Min.X, box.Max.Y-1, box.Max.X, box.Max.Y),
		image.Rect(box.Min.X, box.Min.Y, box.Min.X+1, box.Max.Y),
		image.Rect(box.Max.X-1, box.Min.Y, box.Max.X, box.Max.Y),
	} {
		draw.Draw(canvas, edge.Intersect(canvas.Bounds()), src, image.Point{}, draw.Src)
	}
}
