package models

import (
	"time"

	"github.com/google/uuid"
)

// LLExamCheck tracks a learner's licence exam application so students can
// query its status by application number. Results are recorded by staff.
type LLExamCheck struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ApplicationNumber string     `gorm:"size:50;not null;unique" json:"application_number"`
	ApplicantName     string     `gorm:"size:255;not null" json:"applicant_name"`
	DateOfBirth       *time.Time `json:"date_of_birth"`
	ExamDate          *time.Time `json:"exam_date"`
	Result            string     `gorm:"size:20;not null;default:'pending'" json:"result"`
	CheckedAt         *time.Time `json:"checked_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
