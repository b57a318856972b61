package fieldmap

import (
	"fmt"
	"strings"
)

// Mapping assigns canonical field names to source column names. Each
// canonical field maps to zero or one column. Two canonical fields may map
// to the same source column; the reference behavior allows it (a name
// column doubling as the description, say) and so do we.
type Mapping map[string]string

// ValidationError names the first required canonical field without a
// source column.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required field %q is not mapped to a source column", e.Field)
}

// Validate checks that every required canonical field is mapped to a
// non-empty source column, reporting the first miss in declared order.
func Validate(m Mapping) error {
	for _, field := range RequiredFields {
		if strings.TrimSpace(m[field]) == "" {
			return &ValidationError{Field: field}
		}
	}
	return nil
}

// AutoMap proposes a mapping by matching normalized column names against
// the canonical field names. Best effort only: the result still goes
// through human review and Validate.
func AutoMap(columns []string) Mapping {
	m := make(Mapping)
	candidates := append(append([]string{}, RequiredFields...), OptionalFields...)

	for _, field := range candidates {
		for _, col := range columns {
			if normalize(col) == normalize(field) {
				m[field] = col
				break
			}
		}
	}
	return m
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}
