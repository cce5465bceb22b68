package models

// AnalysisRequest asks for one remote image to be scored
type AnalysisRequest struct {
	URL string `json:"url" binding:"required"`
	// Profiles to classify under; empty means strict, balanced and aggressive
	Profiles []string `json:"profiles,omitempty"`
	// Detectors restricts the run; empty means every detector the format allows
	Detectors []string `json:"detectors,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

// ConfigResponse exposes the active fusion weights and thresholds
type ConfigResponse struct {
	Weights    map[string]float64 `json:"weights"`
	Thresholds map[string]float64 `json:"thresholds"`
	Detectors  []string           `json:"detectors"`
}
