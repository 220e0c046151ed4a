package models

import (
	"time"

	"github.com/google/uuid"
)

// DrivingService is an ancillary offering sold outside a full course:
// licence assistance, refresher sessions, test-track practice.
type DrivingService struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	Price       float64   `gorm:"type:numeric(10,2);not null" json:"price"`
	Currency    string    `gorm:"size:3;not null;default:'INR'" json:"currency"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
