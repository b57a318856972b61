package models

// FunctionCoverage is the coverage rollup for one taxonomy function.
// Percentage is coveredCategories / totalCategories * 100.
type FunctionCoverage struct {
	FunctionCode         string  `json:"functionCode"`
	TotalCategories      int     `json:"totalCategories"`
	CoveredCategories    int     `json:"coveredCategories"`
	TotalSubcategories   int     `json:"totalSubcategories"`
	CoveredSubcategories int     `json:"coveredSubcategories"`
	MetricCount          int     `json:"metricCount"`
	Percentage           float64 `json:"percentage"`
}

// CoverageSnapshot is derived data: recomputed on demand from the taxonomy
// and the confirmed mapping set, never persisted as a source of truth.
//
// OverallPercentage is the unweighted average of the per-function
// percentages: a function with two categories counts exactly as much as one
// with twenty.
type CoverageSnapshot struct {
	Functions         []FunctionCoverage `json:"functions"`
	OverallPercentage float64            `json:"overallPercentage"`
}
