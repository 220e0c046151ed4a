package models

import (
	"time"

	"github.com/google/uuid"
)

type Enrollment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID uuid.UUID  `gorm:"not null" json:"student_id"`
	CourseID  uuid.UUID  `gorm:"not null" json:"course_id"`
	BookingID *uuid.UUID `gorm:"unique" json:"booking_id"`

	PreferredStartDate *time.Time `json:"preferred_start_date"`
	Status             string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	ReminderSent       bool       `gorm:"default:false" json:"-"`
	CertificateURL     *string    `gorm:"type:text" json:"certificate_url"`

	Student Student `gorm:"foreignkey:StudentID" json:"student,omitempty"`
	Course  Course  `gorm:"foreignkey:CourseID" json:"course,omitempty"`
	Booking Booking `gorm:"foreignkey:BookingID" json:"booking,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
