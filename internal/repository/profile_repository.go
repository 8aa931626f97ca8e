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

type ProfileRepository struct {
	*ginblog.MongoRepository[model.UserProfile]
}

func NewProfileRepository(database *mongo.Database) *ProfileRepository {
	return &ProfileRepository{
		MongoRepository: ginblog.NewMongoRepository[model.UserProfile](database),
	}
}

// SetAdmin flips the admin flag; mongo.ErrNoDocuments for unknown profiles.
func (r *ProfileRepository) SetAdmin(ctx context.Context, uid string, isAdmin bool) (model.UserProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, singleOpTimeout)
	defer cancel()

	var profile model.UserProfile
	err := r.Query().FindOneAndUpdate(ctx,
		bson.M{"_id": uid},
		bson.M{"$set": bson.M{"isAdmin": isAdmin, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&profile)
	return profile, err
}

type AdminRepository struct {
	*ginblog.MongoRepository[model.AdminMarker]
}

func NewAdminRepository(database *mongo.Database) *AdminRepository {
	return &AdminRepository{
		MongoRepository: ginblog.NewMongoRepository[model.AdminMarker](database),
	}
}

func (r *AdminRepository) IsAdminEmail(ctx context.Context, email string) (bool, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return false, nil
	}
	return r.ExistsBy(ctx, "_id", email)
}

func (r *AdminRepository) FindAllAdmins(ctx context.Context) ([]model.AdminMarker, error) {
	return r.FindAll(ctx, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}
