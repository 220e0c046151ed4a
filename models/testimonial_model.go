package models

import (
	"time"

	"github.com/google/uuid"
)

type Testimonial struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	AuthorName string    `gorm:"size:255;not null" json:"author_name"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Rating     int       `gorm:"not null" json:"rating"`
	Status     string    `gorm:"size:20;not null;default:'pending'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
