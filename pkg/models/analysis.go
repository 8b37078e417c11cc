package models

import "time"

// Label names produced by the classifier.
const (
	LabelPancake = "Pancake"
	LabelWaffle  = "Waffle"
)

// Oracle status values recorded on every classification.
const (
	OracleDisabled = "disabled"
	OracleUsed     = "used"
	OracleNoMatch  = "no_match"
	OracleFallback = "fallback"
)

// FeatureVector holds the measurements taken from a raster.
// Only the five ratio fields drive the rule table; the rest are diagnostics.
type FeatureVector struct {
	EdgeRatio           float64 `json:"edge_ratio"`
	GridRatio           float64 `json:"grid_ratio"`
	SmoothRatio         float64 `json:"smooth_ratio"`
	ColorVariationRatio float64 `json:"color_variation_ratio"`
	AspectRatio         float64 `json:"aspect_ratio"`

	SampledPixels   int  `json:"sampled_pixels"`
	EligiblePixels  int  `json:"eligible_pixels"`
	HorizontalBands int  `json:"horizontal_bands"`
	VerticalBands   int  `json:"vertical_bands"`
	HasGridPattern  bool `json:"has_grid_pattern"`
}

// ClassificationResult is the outcome of a single classification.
// Exactly one of IsPancake and IsWaffle is true and Prediction matches it.
type ClassificationResult struct {
	IsPancake    bool           `json:"is_pancake"`
	IsWaffle     bool           `json:"is_waffle"`
	Confidence   float64        `json:"confidence"`
	Prediction   string         `json:"prediction"`
	Reasoning    []string       `json:"reasoning"`
	OracleStatus string         `json:"oracle_status"`
	Features     *FeatureVector `json:"analysis,omitempty"`
}

// SetLabel sets Prediction and the mutually exclusive flags together.
func (r *ClassificationResult) SetLabel(label string) {
	r.Prediction = label
	r.IsPancake = label == LabelPancake
	r.IsWaffle = !r.IsPancake
}

// Clone returns a copy that does not share the reasoning slice.
func (r ClassificationResult) Clone() ClassificationResult {
	r.Reasoning = append([]string(nil), r.Reasoning...)
	return r
}

// OracleLabel is one answer from an external labelling service.
type OracleLabel struct {
	ClassName   string  `json:"className"`
	Probability float64 `json:"probability"`
}

// Sample describes one entry of the bundled sample catalogue.
type Sample struct {
	Name          string `json:"name"`
	FileName      string `json:"file_name"`
	ExpectedLabel string `json:"expected_label"`
}

// SampleResult is a classification of a catalogue sample.
type SampleResult struct {
	ClassificationResult
	SampleName    string `json:"sample_name"`
	ExpectedLabel string `json:"expected_type"`
	Correct       bool   `json:"correct"`
}

// ImageDiagnostics are colour statistics reported alongside a detailed result.
type ImageDiagnostics struct {
	Width          int        `json:"width"`
	Height         int        `json:"height"`
	MeanColorHex   string     `json:"mean_color_hex"`
	MeanSaturation float64    `json:"mean_saturation"`
	MeanLuminance  float64    `json:"mean_luminance"`
	ChannelStdDev  [3]float64 `json:"channel_std_dev"`
}

// ImageMetadata contains metadata about a decoded image.
type ImageMetadata struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ValidationError represents a structured validation error
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ClassificationRecord is what the service reports for one request.
type ClassificationRecord struct {
	ID                string        `json:"id"`
	Source            string        `json:"source"`
	Timestamp         time.Time     `json:"timestamp"`
	ProcessingTimeSec float64       `json:"processing_time_sec"`
	Image             ImageMetadata `json:"image"`
}
