package models

import "time"

// Blogpost is the content entity served by the API.
type Blogpost struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,anyuuid"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null" validate:"notblank"`
	Description string     `json:"description" gorm:"type:text;not null" validate:"notblank"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"autoCreateTime:false"`
	UpdatedAt   *time.Time `json:"updatedAt" gorm:"autoUpdateTime:false"`
	PublisherID string     `json:"-" gorm:"type:varchar(36);index;not null"`
	Publisher   *User      `json:"publisher" gorm:"foreignKey:PublisherID" validate:"-"`
	Version     int        `json:"version" gorm:"not null;default:1"`
}

// Clone returns a copy of the post. The publisher pointer is shared.
func (b Blogpost) Clone() Blogpost {
	if b.UpdatedAt != nil {
		t := *b.UpdatedAt
		b.UpdatedAt = &t
	}
	return b
}

// Event types published for blogpost lifecycle changes.
const (
	BlogpostCreated = "blogpost.created"
	BlogpostUpdated = "blogpost.updated"
	BlogpostDeleted = "blogpost.deleted"
)

// BlogpostEvent describes a change to a blogpost.
type BlogpostEvent struct {
	Type        string    `json:"type"`
	BlogpostID  string    `json:"blogpostId"`
	PublisherID string    `json:"publisherId,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}
