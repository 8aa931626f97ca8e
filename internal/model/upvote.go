package model

import "time"

// Upvote marks that a user upvoted a post. One document per pair.
type Upvote struct {
	ID        string    `bson:"_id" json:"id"`
	PostID    string    `bson:"postId" json:"postId"`
	UserID    string    `bson:"userId" json:"userId"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

func (Upvote) GetCollectionName() string {
	return "upvotes"
}

func UpvoteID(postID, userID string) string {
	return postID + ":" + userID
}

type UpvoteState struct {
	Upvoted bool  `json:"upvoted"`
	Upvotes int64 `json:"upvotes"`
}
