package ingest

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tbialecki/catmap/pkg/logger"
	"github.com/tbialecki/catmap/pkg/models"
)

const (
	itemsCollection   = "catalog_items"
	metricsCollection = "catalog_metrics"
)

// MongoStore persists catalog items and metrics. Writes are upserts, so
// re-running an upload batch or re-saving metrics after a Back navigation
// never duplicates rows.
type MongoStore struct {
	Database *mongo.Database
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{Database: client.Database(dbName)}
}

type itemDoc struct {
	ID        string            `bson:"_id"`
	CatalogID string            `bson:"catalog_id"`
	RowIndex  int               `bson:"row_index"`
	Raw       []models.RawField `bson:"raw"`
}

func (m *MongoStore) SaveItems(ctx context.Context, catalogID string, items []models.CatalogItem) error {
	var writes []mongo.WriteModel
	for _, item := range items {
		doc := itemDoc{ID: item.ID, CatalogID: catalogID, RowIndex: item.RowIndex, Raw: item.Raw}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": item.ID}).
			SetUpdate(bson.M{"$set": doc}).
			SetUpsert(true))
	}
	if len(writes) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := m.Database.Collection(itemsCollection).BulkWrite(ctx, writes)
	if err != nil {
		return err
	}
	logger.Infof("Catalog items BulkWrite: match %d, mod %d, upsert %d", res.MatchedCount, res.ModifiedCount, res.UpsertedCount)
	return nil
}

func (m *MongoStore) Items(ctx context.Context, catalogID string) ([]models.CatalogItem, error) {
	opts := options.Find().SetSort(bson.M{"row_index": 1})
	cursor, err := m.Database.Collection(itemsCollection).Find(ctx, bson.M{"catalog_id": catalogID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []models.CatalogItem
	for cursor.Next(ctx) {
		var doc itemDoc
		if err := cursor.Decode(&doc); err != nil {
			logger.Errorf("Error decoding catalog item: %v", err)
			continue
		}
		items = append(items, models.CatalogItem{ID: doc.ID, RowIndex: doc.RowIndex, Raw: doc.Raw})
	}
	return items, cursor.Err()
}

func (m *MongoStore) SaveMetrics(ctx context.Context, catalogID string, metrics []models.Metric) error {
	var writes []mongo.WriteModel
	for _, metric := range metrics {
		filter := bson.M{"catalog_id": catalogID, "catalog_item_id": metric.CatalogItemID}
		update := bson.M{"$set": bson.M{
			"catalog_id": catalogID,
			"metric":     metric,
		}}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(update).
			SetUpsert(true))
	}
	if len(writes) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := m.Database.Collection(metricsCollection).BulkWrite(ctx, writes)
	return err
}
