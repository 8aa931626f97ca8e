package model

import "time"

// Author is the denormalized snapshot of the writer stored on a post.
type Author struct {
	UID   string `bson:"uid" json:"uid"`
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
	Image string `bson:"image,omitempty" json:"image,omitempty"`
}

type Post struct {
	ID         string    `bson:"_id" json:"id"`
	Title      string    `bson:"title" json:"title"`
	Slug       string    `bson:"slug" json:"slug"`
	Content    string    `bson:"content" json:"content"`
	Excerpt    string    `bson:"excerpt,omitempty" json:"excerpt,omitempty"`
	Tags       []string  `bson:"tags" json:"tags"`
	Author     Author    `bson:"author" json:"author"`
	CoverImage string    `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	Published  bool      `bson:"published" json:"published"`
	Upvotes    int64     `bson:"upvotes" json:"upvotes"`
	ReadTime   int       `bson:"readTime" json:"readTime"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (Post) GetCollectionName() string {
	return "posts"
}

// PostDetail is a post with its rendered body.
type PostDetail struct {
	Post
	HTML string `json:"html"`
}
