// Package dto holds request bodies and response envelopes of the HTTP API.
package dto

import (
	"time"

	"github.com/klass-lk/ginblog/internal/model"
)

type PostRequest struct {
	Title      string   `json:"title" binding:"required,max=200"`
	Content    string   `json:"content" binding:"required"`
	Slug       string   `json:"slug" binding:"omitempty,max=120"`
	Tags       []string `json:"tags" binding:"max=20,dive,max=40"`
	CoverImage string   `json:"coverImage"`
	Published  bool     `json:"published"`
}

type PostQuery struct {
	Tag string `form:"tag"`
}

type CommentRequest struct {
	Content  string `json:"content" binding:"required,max=2000"`
	ParentID string `json:"parentId"`
}

type CommentUpdate struct {
	Content string `json:"content" binding:"required,max=2000"`
}

type AnnouncementRequest struct {
	Title     string     `json:"title" binding:"required,max=200"`
	Content   string     `json:"content" binding:"required"`
	Sticky    bool       `json:"sticky"`
	Published bool       `json:"published"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
}

// ProfileUpdate carries the fields a user may change on their own profile.
type ProfileUpdate struct {
	DisplayName string            `json:"displayName" binding:"omitempty,max=80"`
	PhotoURL    string            `json:"photoURL" binding:"omitempty,url"`
	Bio         string            `json:"bio" binding:"max=1000"`
	Social      model.SocialLinks `json:"social"`
}

type AdminFlagRequest struct {
	IsAdmin bool `json:"isAdmin"`
}

type AdminEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type TagsResponse struct {
	Tags []string `json:"tags"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
