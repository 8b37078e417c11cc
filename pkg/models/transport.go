package models

// URLClassificationRequest asks the service to fetch and classify an image.
type URLClassificationRequest struct {
	URL  string `json:"url" binding:"required,url"`
	Mode string `json:"mode,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Validation is set for rejected input
	Validation *ValidationError `json:"validation,omitempty"`
}

// ClassificationResponse wraps a result with request bookkeeping.
type ClassificationResponse struct {
	ClassificationRecord
	Result ClassificationResult `json:"result"`
}

// SampleResponse wraps a sample classification.
type SampleResponse struct {
	ClassificationRecord
	Result SampleResult `json:"result"`
}

// SampleListResponse lists the catalogue.
type SampleListResponse struct {
	Samples []Sample `json:"samples"`
}
