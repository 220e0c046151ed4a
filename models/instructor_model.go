package models

import (
	"time"

	"github.com/google/uuid"
)

type Instructor struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName        string    `gorm:"size:255;not null" json:"full_name"`
	Phone           string    `gorm:"size:20" json:"phone"`
	PhotoURL        *string   `gorm:"size:255" json:"photo_url"`
	Bio             *string   `gorm:"type:text" json:"bio"`
	ExperienceYears int       `gorm:"default:0" json:"experience_years"`
	VehicleClass    string    `gorm:"size:20;not null;default:'LMV'" json:"vehicle_class"`
	AvgRating       float64   `gorm:"type:numeric(3,2);default:0" json:"avg_rating"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
