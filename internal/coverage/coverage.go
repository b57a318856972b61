// Package coverage computes hierarchical coverage statistics from the
// taxonomy and the confirmed mapping set. Compute is a pure function:
// identical inputs yield identical output, and nothing is persisted.
package coverage

import (
	"github.com/tbialecki/catmap/internal/taxonomy"
	"github.com/tbialecki/catmap/pkg/models"
)

// Compute rolls confirmed mappings up the taxonomy.
//
// Metric counts group by subcategory and sum upwards; a mapping that names
// a category with no subcategory (or a function alone) attributes directly
// to that node. A node is covered when its metric count is positive;
// per-node percentage is covered children over total children. Mappings
// referencing unknown taxonomy codes are skipped rather than rejected,
// guarding against stale mapping data.
//
// The overall percentage is the unweighted average of per-function
// percentages: a function with two categories counts exactly as much as
// one with twenty.
func Compute(tree *taxonomy.Tree, mappings []models.ConfirmedMapping) models.CoverageSnapshot {
	subCounts := make(map[string]int)
	catDirect := make(map[string]int)
	fnDirect := make(map[string]int)

	for _, m := range mappings {
		switch {
		case m.SubcategoryCode != "":
			if _, ok := tree.Node(models.LevelSubcategory, m.SubcategoryCode); ok {
				subCounts[m.SubcategoryCode]++
			}
		case m.CategoryCode != "":
			if _, ok := tree.Node(models.LevelCategory, m.CategoryCode); ok {
				catDirect[m.CategoryCode]++
			}
		case m.FunctionCode != "":
			if _, ok := tree.Node(models.LevelFunction, m.FunctionCode); ok {
				fnDirect[m.FunctionCode]++
			}
		}
	}

	snapshot := models.CoverageSnapshot{}
	percentSum := 0.0

	for _, fn := range tree.Functions() {
		fc := models.FunctionCoverage{FunctionCode: fn.Code}
		fnCount := fnDirect[fn.Code]

		for _, cat := range tree.Categories(fn.Code) {
			fc.TotalCategories++
			catCount := catDirect[cat.Code]

			for _, sub := range tree.Subcategories(cat.Code) {
				fc.TotalSubcategories++
				n := subCounts[sub.Code]
				if n > 0 {
					fc.CoveredSubcategories++
				}
				catCount += n
			}

			if catCount > 0 {
				fc.CoveredCategories++
			}
			fnCount += catCount
		}

		fc.MetricCount = fnCount
		// TotalCategories is never zero: the taxonomy loader rejects
		// childless nodes.
		fc.Percentage = float64(fc.CoveredCategories) / float64(fc.TotalCategories) * 100

		percentSum += fc.Percentage
		snapshot.Functions = append(snapshot.Functions, fc)
	}

	if len(snapshot.Functions) > 0 {
		snapshot.OverallPercentage = percentSum / float64(len(snapshot.Functions))
	}
	return snapshot
}
