package models

// DetailedClassificationResponse exposes everything the classifier looked at:
// the features, the thresholds that were applied and colour diagnostics.
type DetailedClassificationResponse struct {
	ClassificationRecord

	Result      ClassificationResult `json:"result"`
	Diagnostics ImageDiagnostics     `json:"diagnostics"`
	Thresholds  AppliedThresholds    `json:"applied_thresholds"`

	// RuleTrace lists each rule in priority order and whether it matched.
	RuleTrace []RuleCheck `json:"rule_trace"`

	PerformanceMetrics PerformanceMetrics `json:"performance_metrics"`
}

// AppliedThresholds shows the rule table constants in force.
type AppliedThresholds struct {
	SampleStride        int     `json:"sample_stride"`
	AlphaCutoff         int     `json:"alpha_cutoff"`
	EdgeContrast        float64 `json:"edge_contrast"`
	GridContrast        float64 `json:"grid_contrast"`
	GridScanStep        int     `json:"grid_scan_step"`
	BandContrast        float64 `json:"band_contrast"`
	BandCoverage        float64 `json:"band_coverage"`
	MinBands            int     `json:"min_bands"`
	GridRatio           float64 `json:"grid_ratio"`
	EdgeRatio           float64 `json:"edge_ratio"`
	SmoothRatio         float64 `json:"smooth_ratio"`
	CircularTolerance   float64 `json:"circular_tolerance"`
	WideAspect          float64 `json:"wide_aspect"`
	TallAspect          float64 `json:"tall_aspect"`
	ColorVariation      float64 `json:"color_variation"`
	MinConfidence       float64 `json:"min_confidence"`
	MaxConfidence       float64 `json:"max_confidence"`
	OracleWeight        float64 `json:"oracle_weight"`
	OracleTimeoutMillis int64   `json:"oracle_timeout_ms"`
}

// RuleCheck is one line of the rule trace.
type RuleCheck struct {
	Rule    string  `json:"rule"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Matched bool    `json:"matched"`
	Fired   bool    `json:"fired"`
}

// PerformanceMetrics provides detailed timing information
type PerformanceMetrics struct {
	TotalProcessingTime float64 `json:"total_processing_time_ms"`
	DecodeTime          float64 `json:"decode_time_ms"`
	ClassificationTime  float64 `json:"classification_time_ms"`
	DiagnosticsTime     float64 `json:"diagnostics_time_ms"`
}
