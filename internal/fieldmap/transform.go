package fieldmap

import (
	"fmt"
	"strings"

	"github.com/tbialecki/catmap/pkg/models"
	"github.com/tbialecki/catmap/pkg/utils"
)

// Transformer resolves raw catalog items into canonical metrics using a
// validated mapping.
type Transformer struct {
	Mapping Mapping
}

func NewTransformer(m Mapping) *Transformer {
	return &Transformer{Mapping: m}
}

// Apply builds a Metric from one catalog item. Required fields must be
// present and non-empty in the row; optional numeric fields that fail to
// parse are reported rather than silently dropped.
func (t *Transformer) Apply(item models.CatalogItem) (models.Metric, error) {
	metric := models.Metric{CatalogItemID: item.ID}

	name := t.rawValue(item, FieldName)
	if strings.TrimSpace(name) == "" {
		return metric, fmt.Errorf("row %d: required field %q is empty", item.RowIndex, FieldName)
	}
	direction := t.rawValue(item, FieldDirection)
	if strings.TrimSpace(direction) == "" {
		return metric, fmt.Errorf("row %d: required field %q is empty", item.RowIndex, FieldDirection)
	}
	metric.Name = name
	metric.Direction = direction
	metric.Description = t.rawValue(item, FieldDescription)
	metric.OwnerFunction = t.rawValue(item, FieldOwnerFunction)
	metric.DataSource = t.rawValue(item, FieldDataSource)
	metric.Formula = t.rawValue(item, FieldFormula)
	metric.TargetUnits = t.rawValue(item, FieldTargetUnits)

	var err error
	if metric.TargetValue, err = t.floatValue(item, FieldTargetValue); err != nil {
		return metric, err
	}
	if metric.CurrentValue, err = t.floatValue(item, FieldCurrentValue); err != nil {
		return metric, err
	}
	if metric.Weight, err = t.floatValue(item, FieldWeight); err != nil {
		return metric, err
	}
	if metric.ToleranceLow, err = t.floatValue(item, FieldToleranceLow); err != nil {
		return metric, err
	}
	if metric.ToleranceHigh, err = t.floatValue(item, FieldToleranceHigh); err != nil {
		return metric, err
	}
	if metric.PriorityRank, err = t.intValue(item, FieldPriorityRank); err != nil {
		return metric, err
	}

	return metric, nil
}

func (t *Transformer) rawValue(item models.CatalogItem, field string) string {
	col := t.Mapping[field]
	if col == "" {
		return ""
	}
	return item.RawValue(col)
}

func (t *Transformer) floatValue(item models.CatalogItem, field string) (*float64, error) {
	raw := strings.TrimSpace(t.rawValue(item, field))
	if raw == "" {
		return nil, nil
	}
	v, err := utils.ToFloat(raw)
	if err != nil {
		return nil, fmt.Errorf("row %d: field %q: %w", item.RowIndex, field, err)
	}
	return &v, nil
}

func (t *Transformer) intValue(item models.CatalogItem, field string) (*int, error) {
	raw := strings.TrimSpace(t.rawValue(item, field))
	if raw == "" {
		return nil, nil
	}
	v, err := utils.ToInt(raw)
	if err != nil {
		return nil, fmt.Errorf("row %d: field %q: %w", item.RowIndex, field, err)
	}
	return &v, nil
}
