package evaluation

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/forgery-inspector-go/internal/classifier"
	"github.com/anime-shed/forgery-inspector-go/internal/detector"
	"github.com/anime-shed/forgery-inspector-go/internal/errors"
	"github.com/anime-shed/forgery-inspector-go/internal/format"
	"github.com/anime-shed/forgery-inspector-go/internal/imaging"
	"github.com/anime-shed/forgery-inspector-go/internal/logger"
	"github.com/anime-shed/forgery-inspector-go/internal/pipeline"
)

// highMetadataScore marks images whose metadata score alone would lean forged.
const highMetadataScore = 0.5

// ImageResult is one evaluated image.
type ImageResult struct {
	Path        string                                           `json:"path" yaml:"path"`
	Label       classifier.Classification                        `json:"label" yaml:"label"`
	Format      format.Format                                    `json:"format" yaml:"format"`
	FinalScore  float64                                          `json:"final_score" yaml:"final_score"`
	Scores      map[detector.Name]float64                        `json:"scores" yaml:"scores"`
	Predictions map[classifier.Profile]classifier.Classification `json:"predictions" yaml:"predictions"`
	Exif        detector.ExifSummary                             `json:"exif" yaml:"exif"`
}

// Correct reports whether profile p got this image right.
func (r ImageResult) Correct(p classifier.Profile) bool {
	return r.Predictions[p] == r.Label
}

// Flags are short report markers: SW for editing software, NO-EXIF when
// the metadata is gone, STRIPPED when camera fields are missing.
func (r ImageResult) Flags() []string {
	var flags []string
	if r.Exif.EditingSoftware {
		flags = append(flags, "SW")
	}
	switch {
	case r.Exif.TagCount == 0:
		flags = append(flags, "NO-EXIF")
	case r.Exif.MissingCritical > 0:
		flags = append(flags, "STRIPPED")
	}
	return flags
}

// Report is the outcome of one evaluation run.
type Report struct {
	Generated  time.Time                         `json:"generated" yaml:"generated"`
	Profiles   []classifier.Profile              `json:"profiles" yaml:"profiles"`
	Thresholds map[classifier.Profile]float64    `json:"thresholds" yaml:"thresholds"`
	Weights    map[detector.Name]float64         `json:"weights" yaml:"weights"`
	Metrics    map[classifier.Profile]*Confusion `json:"metrics" yaml:"metrics"`
	Images     []ImageResult                     `json:"images" yaml:"images"`
	Skipped    []string                          `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// WeightRow is one aggregation weight for display.
type WeightRow struct {
	Detector detector.Name
	Weight   float64
}

// SortedWeights lists weights from heaviest to lightest, ties by name.
func (r *Report) SortedWeights() []WeightRow {
	rows := make([]WeightRow, 0, len(r.Weights))
	for name, w := range r.Weights {
		rows = append(rows, WeightRow{Detector: name, Weight: w})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Weight != rows[j].Weight {
			return rows[i].Weight > rows[j].Weight
		}
		return rows[i].Detector < rows[j].Detector
	})
	return rows
}

// Recommendations suggests tuning steps based on what the run missed.
func (r *Report) Recommendations() []string {
	var out []string

	high := 0
	for _, img := range r.Images {
		if img.Scores[detector.Metadata] > highMetadataScore {
			high++
		}
	}
	if high > 0 {
		out = append(out, fmt.Sprintf("**Metadata signals detected** in %d image(s). Consider increasing metadata weight for better detection.", high))
	}

	for _, p := range r.Profiles {
		if c := r.Metrics[p]; c != nil && c.FN > 0 {
			out = append(out, fmt.Sprintf("**%s mode missed %d forgery(ies).** Consider lowering threshold or tuning weights.", title(string(p)), c.FN))
		}
	}
	return out
}

// Evaluator runs labeled samples through a pipeline and scores its verdicts.
type Evaluator struct {
	pipeline  *pipeline.Pipeline
	inspector *detector.MetadataDetector
	now       func() time.Time
}

// NewEvaluator creates an evaluator. inspector may be nil, in which case
// reports carry no EXIF flags.
func NewEvaluator(p *pipeline.Pipeline, inspector *detector.MetadataDetector) *Evaluator {
	return &Evaluator{pipeline: p, inspector: inspector, now: time.Now}
}

// Run analyzes every sample and tallies one confusion matrix per profile.
// Images the pipeline rejects are skipped with a warning; only a done
// context aborts the run.
func (e *Evaluator) Run(ctx context.Context, samples []Sample, opts pipeline.AnalysisOptions) (*Report, error) {
	profiles := opts.Profiles
	if len(profiles) == 0 {
		profiles = classifier.DefaultProfiles
		opts.Profiles = profiles
	}

	report := &Report{
		Generated:  e.now(),
		Profiles:   profiles,
		Thresholds: make(map[classifier.Profile]float64, len(profiles)),
		Weights:    e.pipeline.Aggregator().Weights(),
		Metrics:    make(map[classifier.Profile]*Confusion, len(profiles)),
	}
	for _, p := range profiles {
		report.Thresholds[p] = e.pipeline.Classifier().Threshold(p)
		report.Metrics[p] = &Confusion{}
	}

	items := make([]pipeline.Item, len(samples))
	for i, s := range samples {
		items[i] = pipeline.Item{Source: s.Path, Data: s.Data}
	}
	results := e.pipeline.AnalyzeBatch(ctx, items, opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, res := range results {
		sample := samples[i]
		if res.Err != nil {
			entry := logger.WithFields(logrus.Fields{"path": sample.Path})
			if errors.IsType(res.Err, errors.ErrorTypeUnsupportedFormat) {
				entry.Warn("Skipping image: unknown format")
			} else {
				entry.WithError(res.Err).Warn("Skipping image: analysis failed")
			}
			report.Skipped = append(report.Skipped, sample.Path)
			continue
		}

		img := ImageResult{
			Path:        sample.Path,
			Label:       sample.Label,
			Format:      res.Outcome.Format,
			FinalScore:  res.Outcome.FinalScore,
			Scores:      res.Outcome.Scores,
			Predictions: res.Outcome.Classifications,
		}
		if e.inspector != nil {
			img.Exif = e.inspector.Inspect(imaging.NewRawImage(sample.Data))
		}
		for _, p := range profiles {
			report.Metrics[p].Add(img.Predictions[p], sample.Label)
		}
		report.Images = append(report.Images, img)
	}

	logger.WithFields(logrus.Fields{
		"evaluated": len(report.Images),
		"skipped":   len(report.Skipped),
	}).Info("Evaluation finished")
	return report, nil
}

// ReportName inserts a -YYMMDD-HHMM timestamp between the stem and the
// extension of path.
func ReportName(path string, now time.Time) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + now.Format("060102-1504") + ext
}
