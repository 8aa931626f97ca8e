package model

import "time"

type Announcement struct {
	ID        string     `bson:"_id" json:"id"`
	Title     string     `bson:"title" json:"title"`
	Content   string     `bson:"content" json:"content"`
	Sticky    bool       `bson:"sticky" json:"sticky"`
	Published bool       `bson:"published" json:"published"`
	StartDate time.Time  `bson:"startDate" json:"startDate"`
	EndDate   *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
}

func (Announcement) GetCollectionName() string {
	return "announcements"
}

// ActiveAt reports whether a is published and its window contains now.
func (a Announcement) ActiveAt(now time.Time) bool {
	if !a.Published || a.StartDate.After(now) {
		return false
	}
	return a.EndDate == nil || !a.EndDate.Before(now)
}
