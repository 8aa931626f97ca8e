package repository

import (
	"context"
	"errors"
	"time"

	"github.com/klass-lk/ginblog"
	"github.com/klass-lk/ginblog/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UpvoteRepository struct {
	*ginblog.MongoRepository[model.Upvote]
	client *mongo.Client
	posts  *mongo.Collection
}

func NewUpvoteRepository(database *mongo.Database) *UpvoteRepository {
	return &UpvoteRepository{
		MongoRepository: ginblog.NewMongoRepository[model.Upvote](database),
		client:          database.Client(),
		posts:           database.Collection(model.Post{}.GetCollectionName()),
	}
}

func (r *UpvoteRepository) HasUpvoted(ctx context.Context, postID, userID string) (bool, error) {
	return r.ExistsBy(ctx, "_id", model.UpvoteID(postID, userID))
}

// Toggle adds or removes the caller's upvote and adjusts the post counter in
// one transaction. Requires a replica set. Returns mongo.ErrNoDocuments when
// the post does not exist.
func (r *UpvoteRepository) Toggle(ctx context.Context, postID, userID string) (model.UpvoteState, error) {
	ctx, cancel := context.WithTimeout(ctx, multiOpTimeout)
	defer cancel()

	session, err := r.client.StartSession()
	if err != nil {
		return model.UpvoteState{}, err
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.toggle(sc, postID, userID)
	})
	if err != nil {
		return model.UpvoteState{}, err
	}
	return result.(model.UpvoteState), nil
}

func (r *UpvoteRepository) toggle(sc mongo.SessionContext, postID, userID string) (model.UpvoteState, error) {
	id := model.UpvoteID(postID, userID)
	markers := r.Query()

	err := markers.FindOne(sc, bson.M{"_id": id}).Err()
	upvoted := err == nil
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return model.UpvoteState{}, err
	}

	delta := int64(1)
	if upvoted {
		delta = -1
		if _, err := markers.DeleteOne(sc, bson.M{"_id": id}); err != nil {
			return model.UpvoteState{}, err
		}
	} else {
		marker := model.Upvote{ID: id, PostID: postID, UserID: userID, CreatedAt: time.Now().UTC()}
		if _, err := markers.InsertOne(sc, marker); err != nil {
			return model.UpvoteState{}, err
		}
	}

	var post model.Post
	err = r.posts.FindOneAndUpdate(sc,
		bson.M{"_id": postID},
		bson.M{"$inc": bson.M{"upvotes": delta}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"upvotes": 1}),
	).Decode(&post)
	if err != nil {
		return model.UpvoteState{}, err
	}

	upvotes := post.Upvotes
	if upvotes < 0 {
		upvotes = 0
	}
	return model.UpvoteState{Upvoted: !upvoted, Upvotes: upvotes}, nil
}
