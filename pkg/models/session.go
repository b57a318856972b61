package models

import "time"

// SessionRecord is the persisted shape of an import session: enough to
// resume or sweep it, no in-memory wiring. Created when the wizard starts,
// saved on every stage transition, deleted on completion.
type SessionRecord struct {
	ID            string    `bson:"_id" json:"id"`
	Stage         string    `bson:"stage" json:"stage"`
	CatalogID     string    `bson:"catalog_id,omitempty" json:"catalogId,omitempty"`
	CatalogName   string    `bson:"catalog_name" json:"catalogName"`
	FrameworkCode string    `bson:"framework_code" json:"frameworkCode"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}
