package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tbialecki/catmap/pkg/models"
)

// Repository persists session records across the wizard lifecycle: created
// on start, saved on every transition, deleted on completion. Abandoned
// sessions are swept by PurgeAbandoned rather than modeled as a stage.
type Repository interface {
	Save(ctx context.Context, rec models.SessionRecord) error
	Get(ctx context.Context, id string) (models.SessionRecord, error)
	Delete(ctx context.Context, id string) error
	PurgeAbandoned(ctx context.Context, olderThan time.Duration) (int, error)
}

// MemoryRepository keeps session records in process.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[string]models.SessionRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]models.SessionRecord)}
}

func (r *MemoryRepository) Save(_ context.Context, rec models.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (models.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return models.SessionRecord{}, fmt.Errorf("session %s not found", id)
	}
	return rec, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *MemoryRepository) PurgeAbandoned(_ context.Context, olderThan time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	purged := 0
	for id, rec := range r.records {
		if rec.UpdatedAt.Before(cutoff) {
			delete(r.records, id)
			purged++
		}
	}
	return purged, nil
}

const sessionsCollection = "import_sessions"

// MongoRepository persists session records in MongoDB.
type MongoRepository struct {
	Database *mongo.Database
}

func NewMongoRepository(client *mongo.Client, dbName string) *MongoRepository {
	return &MongoRepository{Database: client.Database(dbName)}
}

func (r *MongoRepository) Save(ctx context.Context, rec models.SessionRecord) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.Database.Collection(sessionsCollection).
		ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, opts)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, id string) (models.SessionRecord, error) {
	var rec models.SessionRecord
	err := r.Database.Collection(sessionsCollection).
		FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	return rec, err
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.Database.Collection(sessionsCollection).DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoRepository) PurgeAbandoned(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := r.Database.Collection(sessionsCollection).
		DeleteMany(ctx, bson.M{"updated_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}
