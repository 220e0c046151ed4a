package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is an append-only record of payment events. Writes are best
// effort; a failed insert never aborts the flow that produced it.
type AuditLog struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	EventType       string     `gorm:"size:50;not null" json:"event_type"`
	MerchantOrderID string     `gorm:"size:255" json:"merchant_order_id"`
	BookingID       *uuid.UUID `json:"booking_id"`
	TransactionID   *uuid.UUID `json:"transaction_id"`
	Gateway         string     `gorm:"size:20" json:"gateway"`
	Amount          float64    `gorm:"type:numeric(10,2)" json:"amount"`
	Outcome         string     `gorm:"size:50" json:"outcome"`
	Detail          []byte     `gorm:"type:jsonb" json:"detail,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
