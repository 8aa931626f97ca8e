package repository

import (
	"context"
	"time"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AnnouncementRepository struct {
	*ginblog.MongoRepository[model.Announcement]
}

func NewAnnouncementRepository(database *mongo.Database) *AnnouncementRepository {
	return &AnnouncementRepository{
		MongoRepository: ginblog.NewMongoRepository[model.Announcement](database),
	}
}

// FindCurrent returns published announcements whose window has not ended,
// scheduled ones included. Visibility and ordering are left to the caller.
func (r *AnnouncementRepository) FindCurrent(ctx context.Context, now time.Time) ([]model.Announcement, error) {
	return r.FindByFilters(ctx, bson.M{
		"published": true,
		"$or": bson.A{
			bson.M{"endDate": nil},
			bson.M{"endDate": bson.M{"$gte": now}},
		},
	})
}

func (r *AnnouncementRepository) FindAllAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	return r.FindAll(ctx, options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}}))
}
