package model

import (
	"strings"
	"time"
)

type SocialLinks struct {
	Website  string `bson:"website,omitempty" json:"website,omitempty"`
	Twitter  string `bson:"twitter,omitempty" json:"twitter,omitempty"`
	GitHub   string `bson:"github,omitempty" json:"github,omitempty"`
	LinkedIn string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
}

// UserProfile is keyed by the identity provider uid.
type UserProfile struct {
	UID         string      `bson:"_id" json:"uid"`
	DisplayName string      `bson:"displayName" json:"displayName"`
	Email       string      `bson:"email" json:"email,omitempty"`
	PhotoURL    string      `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Bio         string      `bson:"bio,omitempty" json:"bio,omitempty"`
	Social      SocialLinks `bson:"social" json:"social"`
	IsAdmin     bool        `bson:"isAdmin" json:"isAdmin"`
	CreatedAt   time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time   `bson:"updatedAt" json:"updatedAt"`
}

func (UserProfile) GetCollectionName() string {
	return "profiles"
}

// Public drops fields only the owner and admins may see.
func (p UserProfile) Public() UserProfile {
	p.Email = ""
	return p
}

// AdminMarker grants admin rights to an email address.
type AdminMarker struct {
	Email     string    `bson:"_id" json:"email"`
	AddedBy   string    `bson:"addedBy,omitempty" json:"addedBy,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

func (AdminMarker) GetCollectionName() string {
	return "admins"
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
