package model

import "time"

type Image struct {
	ID          string    `bson:"_id" json:"id"`
	Path        string    `bson:"path" json:"path"`
	URL         string    `bson:"url" json:"url"`
	FileName    string    `bson:"fileName" json:"fileName"`
	ContentType string    `bson:"contentType" json:"contentType"`
	Size        int64     `bson:"size" json:"size"`
	Width       int       `bson:"width" json:"width"`
	Height      int       `bson:"height" json:"height"`
	UploadedBy  string    `bson:"uploadedBy" json:"uploadedBy"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`

	InUse     bool   `bson:"-" json:"inUse"`
	SizeHuman string `bson:"-" json:"sizeHuman,omitempty"`
}

func (Image) GetCollectionName() string {
	return "images"
}
