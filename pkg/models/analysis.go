package models

// AnalysisResponse is the scored verdict for one image
type AnalysisResponse struct {
	ID                string  `json:"id"`
	Source            string  `json:"source"`
	Timestamp         string  `json:"timestamp"`
	ProcessingTimeSec float64 `json:"processing_time_sec"`
	Format            string  `json:"format"`

	// FinalScore is the weighted suspicion in [0, 1]
	FinalScore float64 `json:"final_score"`

	Detectors       map[string]DetectorScore `json:"detectors"`
	Classifications map[string]string        `json:"classifications"`

	// ForgedProfiles lists the profiles that flagged the image
	ForgedProfiles []string `json:"forged_profiles"`
}

// DetectorScore is one detector's contribution
type DetectorScore struct {
	Score     float64 `json:"score"`
	Defaulted bool    `json:"defaulted,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}
