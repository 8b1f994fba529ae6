package persist

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPersister is a Persister backed by a single MongoDB collection with
// documents keyed by their numeric id field.
type MongoPersister[T any] struct {
	collection *mongo.Collection
	safeFields bson.M // Reduced projection used when a full Select fails
}

// NewMongoPersister creates a persister over the named collection. safeFields
// lists the fields present on every deployed schema revision; when non-empty,
// a failed Select is retried once with only those fields projected.
func NewMongoPersister[T any](db *mongo.Database, name string, safeFields []string) *MongoPersister[T] {
	var projection bson.M
	if len(safeFields) > 0 {
		projection = bson.M{}
		for _, f := range safeFields {
			projection[f] = 1
		}
	}
	return &MongoPersister[T]{collection: db.Collection(name), safeFields: projection}
}

func (p *MongoPersister[T]) Insert(ctx context.Context, rec *T) error {
	_, err := p.collection.InsertOne(ctx, rec)
	return err
}

func (p *MongoPersister[T]) Update(ctx context.Context, id int64, rec *T) error {
	res, err := p.collection.ReplaceOne(ctx, bson.M{"id": id}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return errors.New("record not persisted")
	}
	return nil
}

func (p *MongoPersister[T]) Delete(ctx context.Context, id int64) error {
	res, err := p.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errors.New("record not found")
	}
	return nil
}

// Select fetches every record, oldest first. When the full fetch fails and a
// reduced field set is configured, it is retried once with that projection
// before giving up.
func (p *MongoPersister[T]) Select(ctx context.Context) ([]T, error) {
	sort := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	rows, err := p.selectWith(ctx, sort)
	if err == nil {
		return rows, nil
	}
	if p.safeFields == nil {
		return nil, err
	}
	return p.selectWith(ctx, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetProjection(p.safeFields))
}

func (p *MongoPersister[T]) selectWith(ctx context.Context, opts *options.FindOptions) ([]T, error) {
	cursor, err := p.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var rows []T
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
