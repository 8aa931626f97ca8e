package ginblog

import (
	"context"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	singleOpTimeout = 5 * time.Second
	multiOpTimeout  = 10 * time.Second
)

type MongoRepository[T Document] struct {
	collection *mongo.Collection
}

func NewMongoRepository[T Document](db *mongo.Database) *MongoRepository[T] {
	var doc T
	return &MongoRepository[T]{
		collection: db.Collection(doc.GetCollectionName()),
	}
}

func (r *MongoRepository[T]) FindById(ctx context.Context, id string) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, singleOpTimeout)
	defer cancel()

	var result T
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&result)
	return result, err
}

func (r *MongoRepository[T]) FindAllById(ctx context.Context, ids []string) ([]T, error) {
	return r.FindByFilters(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *MongoRepository[T]) Save(ctx context.Context, doc T) error {
	ctx, cancel := context.WithTimeout(ctx, singleOpTimeout)
	defer cancel()
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

func (r *MongoRepository[T]) SaveOrUpdate(ctx context.Context, doc T) error {
	ctx, cancel := context.WithTimeout(ctx, singleOpTimeout)
	defer cancel()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": getDocumentID(doc)}, doc, options.Replace().SetUpsert(true))
	return err
}

// Update replaces an existing document; mongo.ErrNoDocuments when absent.
func (r *MongoRepository[T]) Update(ctx context.Context, doc T) error {
	ctx, cancel := context.WithTimeout(ctx, singleOpTimeout)
	defer cancel()
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": getDocumentID(doc)}, doc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a document by id; mongo.ErrNoDocuments when absent.
func (r *MongoRepository[T]) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, singleOpTimeout)
	defer cancel()
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *MongoRepository[T]) DeleteBy(ctx context.Context, field string, value interface{}) (int64, error) {
	return r.DeleteByFilters(ctx, bson.M{field: value})
}

func (r *MongoRepository[T]) DeleteByFilters(ctx context.Context, filters interface{}) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, multiOpTimeout)
	defer cancel()
	result, err := r.collection.DeleteMany(ctx, filters)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *MongoRepository[T]) FindOneBy(ctx context.Context, field string, value interface{}) (T, error) {
	return r.FindOneByFilters(ctx, bson.M{field: value})
}

func (r *MongoRepository[T]) FindOneByFilters(ctx context.Context, filters interface{}) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, singleOpTimeout)
	defer cancel()

	var result T
	err := r.collection.FindOne(ctx, filters).Decode(&result)
	return result, err
}

func (r *MongoRepository[T]) FindBy(ctx context.Context, field string, value interface{}, opts ...*options.FindOptions) ([]T, error) {
	return r.FindByFilters(ctx, bson.M{field: value}, opts...)
}

func (r *MongoRepository[T]) FindByFilters(ctx context.Context, filters interface{}, opts ...*options.FindOptions) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, multiOpTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filters, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := make([]T, 0)
	if err = cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *MongoRepository[T]) FindAll(ctx context.Context, opts ...*options.FindOptions) ([]T, error) {
	return r.FindByFilters(ctx, bson.M{}, opts...)
}

func (r *MongoRepository[T]) FindAllPaginated(ctx context.Context, pageRequest PageRequest) (PageResponse[T], error) {
	return r.FindByPaginated(ctx, pageRequest, bson.M{})
}

func (r *MongoRepository[T]) FindByPaginated(ctx context.Context, pageRequest PageRequest, filters interface{}) (PageResponse[T], error) {
	ctx, cancel := context.WithTimeout(ctx, multiOpTimeout)
	defer cancel()

	if pageRequest.Page < 1 {
		pageRequest.Page = 1
	}
	if pageRequest.Size < 1 {
		pageRequest.Size = 10
	}
	skip := int64((pageRequest.Page - 1) * pageRequest.Size)
	limit := int64(pageRequest.Size)

	total, err := r.collection.CountDocuments(ctx, filters)
	if err != nil {
		return PageResponse[T]{}, err
	}

	opts := options.Find().
		SetSkip(skip).
		SetLimit(limit)

	if pageRequest.Sort.Field != "" {
		direction := 1
		if pageRequest.Sort.Direction < 0 {
			direction = -1
		}
		opts.SetSort(bson.D{{Key: pageRequest.Sort.Field, Value: direction}, {Key: "_id", Value: direction}})
	}

	cursor, err := r.collection.Find(ctx, filters, opts)
	if err != nil {
		return PageResponse[T]{}, err
	}
	defer cursor.Close(ctx)

	items := make([]T, 0, pageRequest.Size)
	if err = cursor.All(ctx, &items); err != nil {
		return PageResponse[T]{}, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageRequest.Size)))

	return PageResponse[T]{
		Contents:         items,
		NumberOfElements: len(items),
		Pageable:         pageRequest,
		TotalElements:    int(total),
		TotalPages:       totalPages,
	}, nil
}

func (r *MongoRepository[T]) CountBy(ctx context.Context, field string, value interface{}) (int64, error) {
	return r.CountByFilters(ctx, bson.M{field: value})
}

func (r *MongoRepository[T]) CountByFilters(ctx context.Context, filters interface{}) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, singleOpTimeout)
	defer cancel()
	return r.collection.CountDocuments(ctx, filters)
}

func (r *MongoRepository[T]) ExistsBy(ctx context.Context, field string, value interface{}) (bool, error) {
	count, err := r.CountBy(ctx, field, value)
	return count > 0, err
}

func (r *MongoRepository[T]) ExistsByFilters(ctx context.Context, filters interface{}) (bool, error) {
	count, err := r.CountByFilters(ctx, filters)
	return count > 0, err
}

func (r *MongoRepository[T]) Query() *mongo.Collection {
	return r.collection
}
