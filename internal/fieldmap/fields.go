// Package fieldmap assigns source file columns to the canonical metric
// schema and turns raw catalog items into metrics.
package fieldmap

// Canonical field names, in declared order. Validation reports the first
// unmapped required field in this order.
const (
	FieldName          = "name"
	FieldDirection     = "direction"
	FieldDescription   = "description"
	FieldTargetValue   = "target_value"
	FieldCurrentValue  = "current_value"
	FieldPriorityRank  = "priority_rank"
	FieldWeight        = "weight"
	FieldOwnerFunction = "owner_function"
	FieldDataSource    = "data_source"
	FieldFormula       = "formula"
	FieldTargetUnits   = "target_units"
	FieldToleranceLow  = "tolerance_low"
	FieldToleranceHigh = "tolerance_high"
)

// RequiredFields must each be mapped to a non-empty source column before
// the wizard may leave the field-mapping stage.
var RequiredFields = []string{FieldName, FieldDirection}

// OptionalFields may stay unmapped; their metric values are simply absent.
var OptionalFields = []string{
	FieldDescription,
	FieldTargetValue,
	FieldCurrentValue,
	FieldPriorityRank,
	FieldWeight,
	FieldOwnerFunction,
	FieldDataSource,
	FieldFormula,
	FieldTargetUnits,
	FieldToleranceLow,
	FieldToleranceHigh,
}
