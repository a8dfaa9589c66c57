package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/Anchal0410/peer-connect/internal/repository"
	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection provides typed CRUD over one collection. Documents use string ids.
type Collection[T any] struct {
	collection *mongo.Collection
}

func NewCollection[T any](db *mongo.Database, name string) *Collection[T] {
	return &Collection[T]{collection: db.Collection(name)}
}

func OpenConnection(ctx context.Context, uri string, database string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client.Database(database), nil
}

func (c *Collection[T]) Insert(ctx context.Context, document *T) error {
	_, err := c.collection.InsertOne(ctx, document)
	return translate(err, "Insert")
}

func (c *Collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return c.FindOne(ctx, bson.M{"_id": id})
}

func (c *Collection[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	var result T
	if err := c.collection.FindOne(ctx, filter).Decode(&result); err != nil {
		return nil, translate(err, "FindOne")
	}
	return &result, nil
}

func (c *Collection[T]) FindAll(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := c.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, translate(err, "Find")
	}
	defer cursor.Close(ctx)

	results := make([]T, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, translate(err, "Find.All")
	}
	return results, nil
}

// UpdateOne applies update to the single matching document and reports whether one matched.
func (c *Collection[T]) UpdateOne(ctx context.Context, filter bson.M, update bson.M) (bool, error) {
	res, err := c.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, translate(err, "UpdateOne")
	}
	return res.MatchedCount > 0, nil
}

func (c *Collection[T]) UpdateMany(ctx context.Context, filter bson.M, update bson.M) (int64, error) {
	res, err := c.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, translate(err, "UpdateMany")
	}
	return res.ModifiedCount, nil
}

func (c *Collection[T]) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := c.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, translate(err, "DeleteOne")
	}
	return res.DeletedCount > 0, nil
}

func (c *Collection[T]) Count(ctx context.Context, filter bson.M) (int64, error) {
	n, err := c.collection.CountDocuments(ctx, filter)
	return n, translate(err, "CountDocuments")
}

func (c *Collection[T]) Exists(ctx context.Context, filter bson.M) (bool, error) {
	count, err := c.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err, "CountDocuments")
	}
	return count > 0, nil
}

// casUpdate runs a revision-guarded $set and maps a miss to ErrConflict or ErrNotFound.
func (c *Collection[T]) casUpdate(ctx context.Context, id string, revision int64, set bson.M) error {
	set["revision"] = revision + 1
	matched, err := c.UpdateOne(ctx, bson.M{"_id": id, "revision": revision}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if matched {
		return nil
	}
	exists, err := c.Exists(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicate
	default:
		return pkgerrors.Wrap(err, "mongo."+op)
	}
}
