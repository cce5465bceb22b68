// Package pipeline runs the detector set over one image, fuses the scores
// and classifies the result, and fans batches out over a worker pool.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/anime-shed/forgery-inspector-go/internal/aggregator"
	"github.com/anime-shed/forgery-inspector-go/internal/classifier"
	"github.com/anime-shed/forgery-inspector-go/internal/config"
	"github.com/anime-shed/forgery-inspector-go/internal/detector"
	"github.com/anime-shed/forgery-inspector-go/internal/errors"
	"github.com/anime-shed/forgery-inspector-go/internal/format"
	"github.com/anime-shed/forgery-inspector-go/internal/imaging"
	"github.com/anime-shed/forgery-inspector-go/internal/observer"
)

// Outcome is everything one pipeline run produced for one image.
type Outcome struct {
	ID              string                                           `json:"id"`
	Source          string                                           `json:"source"`
	Format          format.Format                                    `json:"format"`
	Results         map[detector.Name]detector.Result                `json:"results"`
	Scores          map[detector.Name]float64                        `json:"scores"`
	FinalScore      float64                                          `json:"final_score"`
	Classifications map[classifier.Profile]classifier.Classification `json:"classifications"`
	Duration        time.Duration                                    `json:"duration"`
}

// ForgedProfiles lists the profiles, in vocabulary order where known, that
// classified the image as forged.
func (o *Outcome) ForgedProfiles() []string {
	var out []string
	for _, p := range classifier.DefaultProfiles {
		if o.Classifications[p] == classifier.Forged {
			out = append(out, string(p))
		}
	}
	for p, c := range o.Classifications {
		if c == classifier.Forged && !isDefaultProfile(p) {
			out = append(out, string(p))
		}
	}
	return out
}

func isDefaultProfile(p classifier.Profile) bool {
	for _, d := range classifier.DefaultProfiles {
		if d == p {
			return true
		}
	}
	return false
}

// Pipeline wires a detector set to an aggregator and a classifier. All of
// its collaborators are read-only after construction, so one Pipeline
// serves any number of concurrent runs.
type Pipeline struct {
	detectors       detector.Set
	aggregator      *aggregator.Aggregator
	classifier      *classifier.Classifier
	events          observer.Subject
	detectorTimeout time.Duration
	workers         int
}

// New creates a pipeline. events may be nil.
func New(detectors detector.Set, agg *aggregator.Aggregator, cls *classifier.Classifier, settings config.PipelineSettings, events observer.Subject) *Pipeline {
	return &Pipeline{
		detectors:       detectors,
		aggregator:      agg,
		classifier:      cls,
		events:          events,
		detectorTimeout: settings.DetectorTimeout,
		workers:         settings.Workers,
	}
}

// Aggregator returns the score aggregator
func (p *Pipeline) Aggregator() *aggregator.Aggregator {
	return p.aggregator
}

// Classifier returns the threshold classifier
func (p *Pipeline) Classifier() *classifier.Classifier {
	return p.classifier
}

// Detectors returns the shared detector set
func (p *Pipeline) Detectors() detector.Set {
	return p.detectors
}

// Analyze runs the full pipeline over one image held in memory. An image
// whose signature matches no known format is rejected with an
// unsupported_format error; every other failure, including a detector
// that overruns its deadline, degrades to that detector's default. Only a
// cancelled or expired caller context yields a timeout error.
func (p *Pipeline) Analyze(ctx context.Context, source string, data []byte, opts AnalysisOptions) (*Outcome, error) {
	start := time.Now()
	id := uuid.NewString()

	p.publish(ctx, observer.AnalysisEvent{
		EventType:  observer.AnalysisStarted,
		AnalysisID: id,
		Source:     source,
	})

	f, ok := format.Detect(data)
	if !ok {
		err := errors.NewUnsupportedFormatError("unrecognized image signature", nil).WithDetails(source)
		p.fail(ctx, id, source, start, err)
		return nil, err
	}

	results, err := p.runDetectors(ctx, imaging.NewRawImage(data), opts.recipe(f))
	if err != nil {
		appErr := errors.NewTimeoutError("forgery analysis did not finish in time", err)
		p.fail(ctx, id, source, start, appErr)
		return nil, appErr
	}

	scores := make(map[detector.Name]float64, len(results))
	for name, r := range results {
		scores[name] = r.Score
		if r.Defaulted {
			p.publish(ctx, observer.AnalysisEvent{
				EventType:  observer.DetectorDefaulted,
				AnalysisID: id,
				Source:     source,
				Detector:   string(name),
				Metadata:   map[string]interface{}{"reason": string(r.Reason), "default_score": r.Score},
			})
		}
	}

	profiles := opts.Profiles
	if len(profiles) == 0 {
		profiles = classifier.DefaultProfiles
	}
	final := p.aggregator.Aggregate(scores, f)

	outcome := &Outcome{
		ID:              id,
		Source:          source,
		Format:          f,
		Results:         results,
		Scores:          scores,
		FinalScore:      final,
		Classifications: p.classifier.ClassifyAll(final, profiles),
		Duration:        time.Since(start),
	}

	p.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		AnalysisID:     id,
		Source:         source,
		ProcessingTime: outcome.Duration,
		Success:        true,
		Metadata: map[string]interface{}{
			"format":          string(f),
			"final_score":     final,
			"forged_profiles": outcome.ForgedProfiles(),
		},
	})
	return outcome, nil
}

// runDetectors fans the recipe out, one goroutine per detector. A detector
// still running when the per-detector deadline passes is abandoned and
// recorded at its configured default with a timeout reason. The group only
// fails when the caller's own ctx is done.
func (p *Pipeline) runDetectors(ctx context.Context, raw *imaging.RawImage, recipe []detector.Name) (map[detector.Name]detector.Result, error) {
	dctx := ctx
	if p.detectorTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, p.detectorTimeout)
		defer cancel()
	}

	var mu sync.Mutex
	results := make(map[detector.Name]detector.Result, len(recipe))
	store := func(name detector.Name, r detector.Result) {
		mu.Lock()
		results[name] = r
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(dctx)
	for _, name := range recipe {
		d, ok := p.detectors[name]
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			done := make(chan detector.Result, 1)
			go func() { done <- safeAnalyze(d, raw) }()

			select {
			case r := <-done:
				store(name, r)
			case <-gctx.Done():
				if err := ctx.Err(); err != nil {
					return err
				}
				store(name, detector.Fallback(name, detector.ReasonTimeout, detector.DefaultScore(d), gctx.Err()))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// safeAnalyze turns a detector panic into its default score.
func safeAnalyze(d detector.Detector, raw *imaging.RawImage) (result detector.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = detector.Fallback(d.Name(), detector.ReasonPanic, detector.DefaultScore(d), fmt.Errorf("panic: %v", r))
		}
	}()
	return d.Analyze(raw)
}

func (p *Pipeline) fail(ctx context.Context, id, source string, start time.Time, err error) {
	p.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisFailed,
		AnalysisID:     id,
		Source:         source,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
}

func (p *Pipeline) publish(ctx context.Context, event observer.AnalysisEvent) {
	if p.events == nil {
		return
	}
	// Observers must see the event even when the run itself was cancelled.
	p.events.NotifyObservers(context.WithoutCancel(ctx), event)
}

// Item is one image in a batch.
type Item struct {
	Source string
	Data   []byte
}

// BatchResult pairs a batch item with its outcome or error.
type BatchResult struct {
	Source  string
	Outcome *Outcome
	Err     error
}

// AnalyzeBatch runs every item through the pipeline on a bounded worker
// pool. Results are returned in item order; one item's failure never
// affects the others.
func (p *Pipeline) AnalyzeBatch(ctx context.Context, items []Item, opts AnalysisOptions) []BatchResult {
	results := make([]BatchResult, len(items))
	if len(items) == 0 {
		return results
	}

	pool := NewWorkerPool(p.workers)
	pool.Start()
	defer pool.Close()

	for i, item := range items {
		results[i].Source = item.Source
		accepted := pool.Submit(func() {
			if err := ctx.Err(); err != nil {
				results[i].Err = errors.NewTimeoutError("batch cancelled", err)
				return
			}
			results[i].Outcome, results[i].Err = p.Analyze(ctx, item.Source, item.Data, opts)
		})
		if !accepted {
			results[i].Err = errors.NewInternalError("worker pool closed", nil)
		}
	}

	pool.Wait()
	return results
}
