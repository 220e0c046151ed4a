package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Booking records what was purchased. The payment itself lives in the
// linked Transaction; a booking references exactly one transaction as its
// payment source of truth.
type Booking struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ServiceID   uuid.UUID  `gorm:"not null" json:"service_id"`
	ServiceType string     `gorm:"size:20;not null" json:"service_type"`
	StudentID   *uuid.UUID `json:"student_id"`

	CustomerName  string `gorm:"size:255;not null" json:"customer_name"`
	CustomerEmail string `gorm:"size:255;not null" json:"customer_email"`
	CustomerPhone string `gorm:"size:20" json:"customer_phone"`

	Status        string `gorm:"size:20;not null;default:'pending'" json:"status"`
	PaymentStatus string `gorm:"size:20;not null;default:'pending'" json:"payment_status"`

	PaymentTransactionID *uuid.UUID `json:"payment_transaction_id"`
	PaymentMethod        *string    `gorm:"size:50" json:"payment_method"`
	PaidAmount           *float64   `gorm:"type:numeric(10,2)" json:"paid_amount"`
	PaidAt               *time.Time `json:"paid_at"`
	GatewayReference     *string    `gorm:"size:255" json:"gateway_reference"`

	Student Student `gorm:"foreignkey:StudentID" json:"student,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
