package models

import (
	"time"

	"github.com/google/uuid"
)

// Resource is LL study material (RTO handbooks, signage guides) surfaced on
// the public site.
type Resource struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	FileURL   string    `gorm:"type:text;not null" json:"file_url"`
	Category  string    `gorm:"size:50;not null;default:'general'" json:"category"`
	CreatedAt time.Time `json:"created_at"`
}
