// Package models holds the shared data types of the catalog import
// pipeline: raw catalog rows, canonical metrics, framework taxonomy nodes,
// mapping suggestions and confirmations, enhancements and coverage snapshots.
package models

// RawField is a single source column value. Order matters: a CatalogItem
// keeps its fields in the order the source file declared them.
type RawField struct {
	Name  string `bson:"name" json:"name"`
	Value string `bson:"value" json:"value"`
}

// CatalogItem is one imported metric row, untouched beyond ingestion.
// Items are immutable once produced by the upload pipeline.
type CatalogItem struct {
	ID       string     `bson:"_id" json:"id"`
	RowIndex int        `bson:"row_index" json:"rowIndex"`
	Raw      []RawField `bson:"raw" json:"raw"`
}

// RawValue returns the value of the named source column, or "" when the
// column is absent from the row.
func (c CatalogItem) RawValue(column string) string {
	for _, f := range c.Raw {
		if f.Name == column {
			return f.Value
		}
	}
	return ""
}

// Metric is a catalog item after field mapping: raw columns resolved into
// the canonical schema. Pointer fields are optional values that the source
// did not provide.
type Metric struct {
	CatalogItemID string   `bson:"catalog_item_id" json:"catalogItemId"`
	Name          string   `bson:"name" json:"name"`
	Direction     string   `bson:"direction" json:"direction"`
	Description   string   `bson:"description,omitempty" json:"description,omitempty"`
	TargetValue   *float64 `bson:"target_value,omitempty" json:"targetValue,omitempty"`
	CurrentValue  *float64 `bson:"current_value,omitempty" json:"currentValue,omitempty"`
	PriorityRank  *int     `bson:"priority_rank,omitempty" json:"priorityRank,omitempty"`
	Weight        *float64 `bson:"weight,omitempty" json:"weight,omitempty"`
	OwnerFunction string   `bson:"owner_function,omitempty" json:"ownerFunction,omitempty"`
	DataSource    string   `bson:"data_source,omitempty" json:"dataSource,omitempty"`
	Formula       string   `bson:"formula,omitempty" json:"formula,omitempty"`
	TargetUnits   string   `bson:"target_units,omitempty" json:"targetUnits,omitempty"`
	ToleranceLow  *float64 `bson:"tolerance_low,omitempty" json:"toleranceLow,omitempty"`
	ToleranceHigh *float64 `bson:"tolerance_high,omitempty" json:"toleranceHigh,omitempty"`
}

// RowError reports a source row the upload pipeline could not import.
type RowError struct {
	RowIndex int    `bson:"row_index" json:"rowIndex"`
	Reason   string `bson:"reason" json:"reason"`
}
