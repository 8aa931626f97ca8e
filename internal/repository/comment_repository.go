package repository

import (
	"context"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CommentRepository struct {
	*ginblog.MongoRepository[model.Comment]
}

func NewCommentRepository(database *mongo.Database) *CommentRepository {
	return &CommentRepository{
		MongoRepository: ginblog.NewMongoRepository[model.Comment](database),
	}
}

func (r *CommentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, multiOpTimeout)
	defer cancel()
	_, err := r.Query().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	return err
}

func (r *CommentRepository) FindByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	return r.FindBy(ctx, "postId", postID, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// DeleteThread removes a comment together with its direct replies.
func (r *CommentRepository) DeleteThread(ctx context.Context, id string) (int64, error) {
	return r.DeleteByFilters(ctx, bson.M{"$or": bson.A{
		bson.M{"_id": id},
		bson.M{"parentId": id},
	}})
}
