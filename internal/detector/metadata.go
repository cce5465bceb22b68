package detector

import (
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/anime-shed/forgery-inspector-go/internal/config"
	"github.com/anime-shed/forgery-inspector-go/internal/imaging"
)

// MetadataDetector scores embedded EXIF tags for signs of editing software
// and stripped metadata.
type MetadataDetector struct {
	settings config.MetadataSettings
	editors  []string
}

func NewMetadataDetector(settings config.MetadataSettings) *MetadataDetector {
	editors := make([]string, 0, len(settings.EditingSoftware))
	for _, name := range settings.EditingSoftware {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			editors = append(editors, name)
		}
	}
	return &MetadataDetector{settings: settings, editors: editors}
}

func (d *MetadataDetector) Name() Name { return Metadata }

func (d *MetadataDetector) DefaultScore() float64 { return d.settings.ErrorDefaultScore }

func (d *MetadataDetector) Analyze(img *imaging.RawImage) Result {
	if _, _, err := img.DecodeConfig(); err != nil {
		return Fallback(Metadata, ReasonParseFailure, d.settings.ErrorDefaultScore, err)
	}

	tags := readTags(img)
	if len(tags) == 0 {
		return Result{Score: clamp01(d.settings.NoExifScore), Reason: ReasonNoMetadata}
	}

	score := 0.0
	if software, ok := tags[exif.Software]; ok && d.isEditor(software) {
		score += d.settings.EditingSoftwareScore
	}
	if len(tags) < d.settings.FewTagsThreshold {
		score += d.settings.FewTagsScore
	}
	return Scored(score)
}

func (d *MetadataDetector) isEditor(software string) bool {
	software = strings.ToLower(software)
	for _, editor := range d.editors {
		if strings.Contains(software, editor) {
			return true
		}
	}
	return false
}

// readTags returns every decodable EXIF field. Missing or unparseable EXIF
// yields an empty map; partially decoded EXIF keeps whatever loaded.
func readTags(img *imaging.RawImage) map[exif.FieldName]string {
	x, err := exif.Decode(img.Reader())
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return nil
	}

	w := tagCollector{}
	_ = x.Walk(w)
	return w
}

type tagCollector map[exif.FieldName]string

func (c tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if s, err := tag.StringVal(); err == nil {
		c[name] = s
		return nil
	}
	c[name] = tag.String()
	return nil
}

// ExifSummary describes an image's EXIF block for reports.
type ExifSummary struct {
	TagCount        int    `json:"tag_count"`
	Software        string `json:"software,omitempty"`
	EditingSoftware bool   `json:"editing_software"`
	MissingCritical int    `json:"missing_critical"`
}

// criticalTags are the camera fields a straight-from-device image carries.
var criticalTags = []exif.FieldName{exif.Make, exif.Model, exif.DateTime, exif.DateTimeOriginal}

// Inspect summarizes the EXIF block without scoring it. MissingCritical is
// only counted when some EXIF is present.
func (d *MetadataDetector) Inspect(img *imaging.RawImage) ExifSummary {
	tags := readTags(img)
	summary := ExifSummary{TagCount: len(tags)}
	if len(tags) == 0 {
		return summary
	}

	if software, ok := tags[exif.Software]; ok {
		summary.Software = software
		summary.EditingSoftware = d.isEditor(software)
	}
	for _, name := range criticalTags {
		if _, ok := tags[name]; !ok {
			summary.MissingCritical++
		}
	}
	return summary
}
