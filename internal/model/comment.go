package model

import "time"

type CommentAuthor struct {
	Name  string `bson:"name" json:"name"`
	Image string `bson:"image,omitempty" json:"image,omitempty"`
}

type Comment struct {
	ID        string        `bson:"_id" json:"id"`
	PostID    string        `bson:"postId" json:"postId"`
	UserID    string        `bson:"userId" json:"userId"`
	ParentID  string        `bson:"parentId,omitempty" json:"parentId,omitempty"`
	Content   string        `bson:"content" json:"content"`
	Author    CommentAuthor `bson:"author" json:"author"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}

func (Comment) GetCollectionName() string {
	return "comments"
}

func (c Comment) IsReply() bool {
	return c.ParentID != ""
}

// CommentThread is a top-level comment with its replies.
type CommentThread struct {
	Comment
	Replies []Comment `json:"replies"`
}
