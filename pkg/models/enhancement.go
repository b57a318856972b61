package models

// MetricEnhancement is suggested operational metadata for an already
// confirmed metric. Priority is 1 (highest) through 3.
type MetricEnhancement struct {
	CatalogItemID       string `bson:"catalog_item_id" json:"catalogItemId"`
	SuggestedPriority   int    `bson:"suggested_priority" json:"suggestedPriority"`
	SuggestedOwner      string `bson:"suggested_owner" json:"suggestedOwner"`
	SuggestedDataSource string `bson:"suggested_data_source" json:"suggestedDataSource"`
	SuggestedFrequency  string `bson:"suggested_frequency" json:"suggestedFrequency"`
	Accepted            bool   `bson:"accepted" json:"accepted"`
}
