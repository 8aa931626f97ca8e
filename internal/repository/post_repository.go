package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PostRepository struct {
	*ginblog.MongoRepository[model.Post]
}

func NewPostRepository(database *mongo.Database) *PostRepository {
	return &PostRepository{
		MongoRepository: ginblog.NewMongoRepository[model.Post](database),
	}
}

// EnsureIndexes creates the unique slug index and the listing index.
func (r *PostRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, multiOpTimeout)
	defer cancel()
	_, err := r.Query().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "published", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	})
	return err
}

func (r *PostRepository) FindBySlug(ctx context.Context, slug string) (model.Post, error) {
	return r.FindOneBy(ctx, "slug", slug)
}

func (r *PostRepository) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	filter := bson.M{"slug": slug}
	if exceptID != "" {
		filter["_id"] = bson.M{"$ne": exceptID}
	}
	return r.ExistsByFilters(ctx, filter)
}

// FindPublished pages through published posts newest first, optionally
// restricted to a tag.
func (r *PostRepository) FindPublished(ctx context.Context, tag string, page ginblog.PageRequest) (ginblog.PageResponse[model.Post], error) {
	filter := bson.M{"published": true}
	if tag != "" {
		filter["tags"] = strings.ToLower(tag)
	}
	page.Sort = ginblog.SortField{Field: "createdAt", Direction: -1}
	return r.FindByPaginated(ctx, page, filter)
}

func (r *PostRepository) FindAllPosts(ctx context.Context) ([]model.Post, error) {
	return r.FindAll(ctx, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// PublishedTags returns the sorted distinct tags of published posts.
func (r *PostRepository) PublishedTags(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, multiOpTimeout)
	defer cancel()

	values, err := r.Query().Distinct(ctx, "tags", bson.M{"published": true})
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			tags = append(tags, s)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// FindImageReferences loads only the fields that can reference an image.
func (r *PostRepository) FindImageReferences(ctx context.Context) ([]model.Post, error) {
	return r.FindAll(ctx, options.Find().SetProjection(bson.M{"coverImage": 1, "content": 1}))
}
