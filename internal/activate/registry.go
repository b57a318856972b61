package activate

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tbialecki/catmap/pkg/logger"
)

const registryCollection = "active_catalog"

// MongoRegistry keeps the organization's active catalog in a single
// versioned document. Every write filters on the expected version, so a
// concurrent activation from another session loses with ErrConflict
// instead of silently overwriting.
type MongoRegistry struct {
	Database *mongo.Database
	OrgID    string
}

func NewMongoRegistry(client *mongo.Client, dbName, orgID string) *MongoRegistry {
	if orgID == "" {
		orgID = "default"
	}
	return &MongoRegistry{Database: client.Database(dbName), OrgID: orgID}
}

type registryDoc struct {
	OrgID     string `bson:"_id"`
	CatalogID string `bson:"catalog_id"`
	Version   int64  `bson:"version"`
}

func (r *MongoRegistry) Active(ctx context.Context) (string, int64, error) {
	var doc registryDoc
	err := r.Database.Collection(registryCollection).
		FindOne(ctx, bson.M{"_id": r.OrgID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, err
	}
	return doc.CatalogID, doc.Version, nil
}

func (r *MongoRegistry) Deactivate(ctx context.Context, catalogID string, version int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"_id": r.OrgID, "catalog_id": catalogID, "version": version}
	update := bson.M{"$set": bson.M{"catalog_id": ""}, "$inc": bson.M{"version": 1}}

	res := r.Database.Collection(registryCollection).FindOneAndUpdate(ctx, filter, update)
	if res.Err() == mongo.ErrNoDocuments {
		return 0, ErrConflict
	}
	if res.Err() != nil {
		return 0, res.Err()
	}
	logger.Infof("Deactivated catalog %s", catalogID)
	return version + 1, nil
}

func (r *MongoRegistry) SetActive(ctx context.Context, catalogID string, version int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"_id": r.OrgID, "version": version}
	update := bson.M{"$set": bson.M{"catalog_id": catalogID}, "$inc": bson.M{"version": 1}}
	// ReturnDocument after: a fresh upsert must not read as ErrNoDocuments.
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	res := r.Database.Collection(registryCollection).FindOneAndUpdate(ctx, filter, update, opts)
	if res.Err() != nil {
		if res.Err() == mongo.ErrNoDocuments || mongo.IsDuplicateKeyError(res.Err()) {
			return 0, ErrConflict
		}
		return 0, res.Err()
	}
	return version + 1, nil
}

// MemoryRegistry is an in-process Registry for tests and dry runs, with the
// same optimistic version semantics as the Mongo implementation.
type MemoryRegistry struct {
	mu        sync.Mutex
	catalogID string
	version   int64
}

func (m *MemoryRegistry) Active(context.Context) (string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalogID, m.version, nil
}

func (m *MemoryRegistry) Deactivate(_ context.Context, catalogID string, version int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.version != version || m.catalogID != catalogID {
		return 0, ErrConflict
	}
	m.catalogID = ""
	m.version++
	return m.version, nil
}

func (m *MemoryRegistry) SetActive(_ context.Context, catalogID string, version int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.version != version {
		return 0, ErrConflict
	}
	m.catalogID = catalogID
	m.version++
	return m.version, nil
}
