package models

import (
	"time"

	"github.com/google/uuid"
)

type Student struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName    string     `gorm:"size:255;not null" json:"full_name"`
	Email       string     `gorm:"size:255;not null" json:"email"`
	Phone       string     `gorm:"size:20;not null" json:"phone"`
	Address     *string    `gorm:"type:text" json:"address"`
	DateOfBirth *time.Time `json:"date_of_birth"`

	DocumentPhotoURL    *string `gorm:"size:255" json:"document_photo_url"`
	LLApplicationNumber *string `gorm:"size:50" json:"ll_application_number"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
