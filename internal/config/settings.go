package config

import "time"

// Settings is the read-only forensic configuration shared by every pipeline run.
type Settings struct {
	Classifier    ClassifierSettings
	Aggregator    AggregatorSettings
	Metadata      MetadataSettings
	ELA           ELASettings
	Statistical   StatisticalSettings
	CopyMove      CopyMoveSettings
	NoiseVariance NoiseVarianceSettings
	ReverseSearch ReverseSearchSettings
	Pipeline      PipelineSettings
}

type ClassifierSettings struct {
	// Thresholds maps profile name (strict, balanced, aggressive) to its cutoff.
	Thresholds map[string]float64
}

type AggregatorSettings struct {
	// Weights maps detector name to its non-negative weight.
	Weights map[string]float64
}

type MetadataSettings struct {
	EditingSoftware      []string
	NoExifScore          float64
	EditingSoftwareScore float64
	FewTagsScore         float64
	FewTagsThreshold     int
	ErrorDefaultScore    float64
}

type ELASettings struct {
	Quality           int
	ScaleFactor       int
	GridSize          int
	WeightMean        float64
	WeightStd         float64
	WeightVariance    float64
	MeanDivisor       float64
	StdDivisor        float64
	VarianceDivisor   float64
	ErrorDefaultScore float64
}

type StatisticalSettings struct {
	WeightHistogram   float64
	WeightCorrelation float64
	WeightEdge        float64

	GapRatioThreshold float64
	GapRatioScore     float64
	MaxPeakThreshold  float64
	MaxPeakScore      float64
	NumChannels       int

	VerySuspiciousThreshold     float64
	VerySuspiciousScore         float64
	SomewhatSuspiciousThreshold float64
	SomewhatSuspiciousScore     float64

	EdgeStdDivisor float64
	EdgeGridSize   int

	ErrorDefaultScore float64
}

type CopyMoveSettings struct {
	Features                 int
	Levels                   int
	ScaleFactor              float64
	FastThreshold            int
	MatchRatio               float64
	MinDistance              float64
	SuspiciousMatchesDivisor float64
	MaxVisualizedMatches     int
	ErrorDefaultScore        float64
}

type NoiseVarianceSettings struct {
	GridSize          int
	CVHighThreshold   float64
	CVHighScore       float64
	CVMediumThreshold float64
	CVMediumScore     float64
	CVLowScore        float64
	ZScoreThreshold   float64
	ZScoreScore       float64
	ErrorDefaultScore float64
}

type ReverseSearchSettings struct {
	HashSize        int
	HighFreqFactor  int
	InvalidDistance int
}

type PipelineSettings struct {
	// Workers bounds concurrent image pipelines in batch runs; 0 means one per CPU.
	Workers         int
	DetectorTimeout time.Duration
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return SettingsFromDocument(EmptyDocument())
}

// SettingsFromDocument resolves every recognized key, falling back to the built-in default.
func SettingsFromDocument(doc *Document) Settings {
	return Settings{
		Classifier: ClassifierSettings{
			Thresholds: modeThresholds(doc, map[string]float64{
				"strict":     doc.GetFloat("classifier.modes.strict.threshold", 0.7),
				"balanced":   doc.GetFloat("classifier.modes.balanced.threshold", 0.5),
				"aggressive": doc.GetFloat("classifier.modes.aggressive.threshold", 0.3),
			}),
		},
		Aggregator: AggregatorSettings{
			Weights: map[string]float64{
				"metadata":       nonNegative(doc.GetFloat("score_aggregator.default_weights.metadata", 0.25)),
				"reverse_search": nonNegative(doc.GetFloat("score_aggregator.default_weights.reverse_search", 0.30)),
				"ela":            nonNegative(doc.GetFloat("score_aggregator.default_weights.ela", 0.20)),
				"statistical":    nonNegative(doc.GetFloat("score_aggregator.default_weights.statistical", 0.10)),
				"copy_move":      nonNegative(doc.GetFloat("score_aggregator.default_weights.copy_move", 0.10)),
				"noise_variance": nonNegative(doc.GetFloat("score_aggregator.default_weights.noise_variance", 0.05)),
			},
		},
		Metadata: MetadataSettings{
			EditingSoftware: doc.GetStringSlice("metadata_detector.editing_software", []string{
				"photoshop", "gimp", "paint.net", "affinity", "pixelmator", "acorn", "photoscape",
			}),
			NoExifScore:          doc.GetFloat("metadata_detector.no_exif_score", 0.4),
			EditingSoftwareScore: doc.GetFloat("metadata_detector.editing_software_score", 0.6),
			FewTagsScore:         doc.GetFloat("metadata_detector.few_tags_score", 0.3),
			FewTagsThreshold:     doc.GetInt("metadata_detector.few_tags_threshold", 5),
			ErrorDefaultScore:    doc.GetFloat("metadata_detector.error_default_score", 0.3),
		},
		ELA: ELASettings{
			Quality:           doc.GetInt("ela_detector.default_quality", 95),
			ScaleFactor:       doc.GetInt("ela_detector.scale_factor", 15),
			GridSize:          doc.GetInt("ela_detector.grid_size", 4),
			WeightMean:        doc.GetFloat("ela_detector.weights.mean", 0.3),
			WeightStd:         doc.GetFloat("ela_detector.weights.std", 0.3),
			WeightVariance:    doc.GetFloat("ela_detector.weights.variance", 0.4),
			MeanDivisor:       doc.GetFloat("ela_detector.normalization.mean_divisor", 50.0),
			StdDivisor:        doc.GetFloat("ela_detector.normalization.std_divisor", 40.0),
			VarianceDivisor:   doc.GetFloat("ela_detector.normalization.variance_divisor", 100.0),
			ErrorDefaultScore: doc.GetFloat("ela_detector.error_default_score", 0.0),
		},
		Statistical: StatisticalSettings{
			WeightHistogram:   doc.GetFloat("statistical_detector.weights.histogram", 0.4),
			WeightCorrelation: doc.GetFloat("statistical_detector.weights.correlation", 0.3),
			WeightEdge:        doc.GetFloat("statistical_detector.weights.edge", 0.3),

			GapRatioThreshold: doc.GetFloat("statistical_detector.histogram.gap_ratio_threshold", 0.3),
			GapRatioScore:     doc.GetFloat("statistical_detector.histogram.gap_ratio_score", 0.2),
			MaxPeakThreshold:  doc.GetFloat("statistical_detector.histogram.max_peak_threshold", 0.1),
			MaxPeakScore:      doc.GetFloat("statistical_detector.histogram.max_peak_score", 0.2),
			NumChannels:       doc.GetInt("statistical_detector.histogram.num_channels", 3),

			VerySuspiciousThreshold:     doc.GetFloat("statistical_detector.correlation.very_suspicious_threshold", 0.5),
			VerySuspiciousScore:         doc.GetFloat("statistical_detector.correlation.very_suspicious_score", 0.8),
			SomewhatSuspiciousThreshold: doc.GetFloat("statistical_detector.correlation.somewhat_suspicious_threshold", 0.7),
			SomewhatSuspiciousScore:     doc.GetFloat("statistical_detector.correlation.somewhat_suspicious_score", 0.4),

			EdgeStdDivisor: doc.GetFloat("statistical_detector.edge.std_divisor", 50.0),
			EdgeGridSize:   doc.GetInt("statistical_detector.edge.grid_size", 3),

			ErrorDefaultScore: doc.GetFloat("statistical_detector.error_default_score", 0.0),
		},
		CopyMove: CopyMoveSettings{
			Features:                 doc.GetInt("copy_move_detector.n_features", 500),
			Levels:                   doc.GetInt("copy_move_detector.n_levels", 8),
			ScaleFactor:              doc.GetFloat("copy_move_detector.scale_factor", 1.2),
			FastThreshold:            doc.GetInt("copy_move_detector.fast_threshold", 20),
			MatchRatio:               doc.GetFloat("copy_move_detector.match_threshold", 0.75),
			MinDistance:              doc.GetFloat("copy_move_detector.min_distance", 50),
			SuspiciousMatchesDivisor: doc.GetFloat("copy_move_detector.suspicious_matches_divisor", 20.0),
			MaxVisualizedMatches:     doc.GetInt("copy_move_detector.max_visualized_matches", 20),
			ErrorDefaultScore:        doc.GetFloat("copy_move_detector.error_default_score", 0.0),
		},
		NoiseVariance: NoiseVarianceSettings{
			GridSize:          doc.GetInt("noise_variance_detector.grid_size", 4),
			CVHighThreshold:   doc.GetFloat("noise_variance_detector.cv_thresholds.high_threshold", 0.5),
			CVHighScore:       doc.GetFloat("noise_variance_detector.cv_thresholds.high_score", 0.8),
			CVMediumThreshold: doc.GetFloat("noise_variance_detector.cv_thresholds.medium_threshold", 0.3),
			CVMediumScore:     doc.GetFloat("noise_variance_detector.cv_thresholds.medium_score", 0.4),
			CVLowScore:        doc.GetFloat("noise_variance_detector.cv_thresholds.low_score", 0.0),
			ZScoreThreshold:   doc.GetFloat("noise_variance_detector.zscore.threshold", 2.5),
			ZScoreScore:       doc.GetFloat("noise_variance_detector.zscore.score", 0.6),
			ErrorDefaultScore: doc.GetFloat("noise_variance_detector.error_default_score", 0.0),
		},
		ReverseSearch: ReverseSearchSettings{
			HashSize:        doc.GetInt("reverse_search_detector.hash_size", 8),
			HighFreqFactor:  doc.GetInt("reverse_search_detector.highfreq_factor", 4),
			InvalidDistance: doc.GetInt("reverse_search_detector.invalid_distance", 999),
		},
		Pipeline: PipelineSettings{
			Workers:         doc.GetInt("pipeline.workers", 0),
			DetectorTimeout: time.Duration(doc.GetFloat("pipeline.detector_timeout", 30) * float64(time.Second)),
		},
	}
}

// modeThresholds adds any further classifier.modes.<name>.threshold entries.
// Modes without a numeric threshold in [0, 1] are ignored.
func modeThresholds(doc *Document, thresholds map[string]float64) map[string]float64 {
	modes, ok := doc.Get("classifier.modes")
	if !ok {
		return thresholds
	}
	byName, ok := modes.(map[string]interface{})
	if !ok {
		return thresholds
	}
	for name := range byName {
		if _, known := thresholds[name]; known {
			continue
		}
		if t := doc.GetFloat("classifier.modes."+name+".threshold", -1); t >= 0 && t <= 1 {
			thresholds[name] = t
		}
	}
	return thresholds
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
