package models

import "time"

// MappingMethod records whether a confirmed mapping came straight from an
// accepted suggestion or from a human edit.
type MappingMethod string

const (
	MethodAuto   MappingMethod = "auto"
	MethodManual MappingMethod = "manual"
)

// ManualConfidence is the confidence score assigned to every manually
// edited mapping, regardless of what the original suggestion scored.
const ManualConfidence = 1.0

// MappingSuggestion is an AI-generated candidate placement of one catalog
// item on the taxonomy. Suggestions are never mutated, only consumed.
type MappingSuggestion struct {
	CatalogItemID            string    `bson:"catalog_item_id" json:"catalogItemId"`
	SuggestedFunctionCode    string    `bson:"suggested_function_code" json:"suggestedFunctionCode"`
	SuggestedCategoryCode    string    `bson:"suggested_category_code" json:"suggestedCategoryCode"`
	SuggestedSubcategoryCode string    `bson:"suggested_subcategory_code" json:"suggestedSubcategoryCode"`
	ConfidenceScore          float64   `bson:"confidence_score" json:"confidenceScore"`
	Reasoning                string    `bson:"reasoning" json:"reasoning"`
	GeneratedAt              time.Time `bson:"generated_at" json:"generatedAt"`
}

// ConfirmedMapping is the accepted placement of one catalog item. At most
// one confirmed mapping exists per catalog item; manual edits always carry
// ManualConfidence.
type ConfirmedMapping struct {
	CatalogItemID   string        `bson:"catalog_item_id" json:"catalogItemId"`
	FunctionCode    string        `bson:"function_code" json:"functionCode"`
	CategoryCode    string        `bson:"category_code" json:"categoryCode"`
	SubcategoryCode string        `bson:"subcategory_code" json:"subcategoryCode"`
	ConfidenceScore float64       `bson:"confidence_score" json:"confidenceScore"`
	Method          MappingMethod `bson:"method" json:"method"`
	Notes           string        `bson:"notes,omitempty" json:"notes,omitempty"`
}
