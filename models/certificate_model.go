package models

import (
	"time"

	"github.com/google/uuid"
)

type Certificate struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID      uuid.UUID `gorm:"not null" json:"student_id"`
	CourseID       uuid.UUID `gorm:"not null" json:"course_id"`
	CourseTitle    string    `gorm:"size:255;not null" json:"course_title"`
	CompletionDate time.Time `gorm:"not null" json:"completion_date"`
	CertificateURL string    `gorm:"type:text;not null" json:"certificate_url"`

	Student Student `gorm:"foreignkey:StudentID" json:"-"`
	Course  Course  `gorm:"foreignkey:CourseID" json:"-"`
}
