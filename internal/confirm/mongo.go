package confirm

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbialecki/catmap/pkg/models"
)

const mappingsCollection = "confirmed_mappings"

// MongoRepository persists the confirmed mapping set against a catalog.
// This record outlives the import session: it is the catalog's mapping
// record after activation.
type MongoRepository struct {
	Database *mongo.Database
}

func NewMongoRepository(client *mongo.Client, dbName string) *MongoRepository {
	return &MongoRepository{Database: client.Database(dbName)}
}

type mappingDoc struct {
	CatalogID string                  `bson:"catalog_id"`
	Mapping   models.ConfirmedMapping `bson:"mapping"`
}

// SaveMappings upserts the full confirmed mapping set for a catalog, keyed
// by catalog item so re-running activation persistence is idempotent.
func (r *MongoRepository) SaveMappings(ctx context.Context, catalogID string, mappings []models.ConfirmedMapping) error {
	var writes []mongo.WriteModel
	for _, m := range mappings {
		filter := bson.M{"catalog_id": catalogID, "mapping.catalog_item_id": m.CatalogItemID}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$set": mappingDoc{CatalogID: catalogID, Mapping: m}}).
			SetUpsert(true))
	}
	if len(writes) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.Database.Collection(mappingsCollection).BulkWrite(ctx, writes)
	return err
}

// Mappings loads the confirmed mapping set for a catalog.
func (r *MongoRepository) Mappings(ctx context.Context, catalogID string) ([]models.ConfirmedMapping, error) {
	cursor, err := r.Database.Collection(mappingsCollection).Find(ctx, bson.M{"catalog_id": catalogID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []models.ConfirmedMapping
	for cursor.Next(ctx) {
		var doc mappingDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.Mapping)
	}
	return out, cursor.Err()
}
