package models

import (
	"time"

	"github.com/google/uuid"
)

type RefresherRequest struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName      string     `gorm:"size:255;not null" json:"full_name"`
	Email         string     `gorm:"size:255;not null" json:"email"`
	Phone         string     `gorm:"size:20;not null" json:"phone"`
	LicenceNumber string     `gorm:"size:50;not null" json:"licence_number"`
	PreferredDate *time.Time `json:"preferred_date"`
	Note          *string    `gorm:"type:text" json:"note"`
	Status        string     `gorm:"size:20;not null;default:'new'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
