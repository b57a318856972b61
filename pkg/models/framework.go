package models

// FrameworkLevel is the depth of a taxonomy node.
type FrameworkLevel string

const (
	LevelFunction    FrameworkLevel = "function"
	LevelCategory    FrameworkLevel = "category"
	LevelSubcategory FrameworkLevel = "subcategory"
)

// FrameworkNode is one node of the compliance taxonomy. Codes are unique
// within a level. The taxonomy is read-only reference data: the pipeline
// loads it once and never mutates it.
type FrameworkNode struct {
	Code         string         `bson:"code" json:"code"`
	Name         string         `bson:"name" json:"name"`
	Level        FrameworkLevel `bson:"level" json:"level"`
	ParentCode   string         `bson:"parent_code,omitempty" json:"parentCode,omitempty"`
	DisplayOrder int            `bson:"display_order" json:"displayOrder"`
}
