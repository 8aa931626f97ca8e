package repository

import (
	"context"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ImageRepository struct {
	*ginblog.MongoRepository[model.Image]
}

func NewImageRepository(database *mongo.Database) *ImageRepository {
	return &ImageRepository{
		MongoRepository: ginblog.NewMongoRepository[model.Image](database),
	}
}

func (r *ImageRepository) FindAllImages(ctx context.Context) ([]model.Image, error) {
	return r.FindAll(ctx, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}
